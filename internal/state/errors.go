package state

import "fmt"

// ValidationError reports malformed input caught at the boundary before
// it reaches the core.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError reports a failed remote write for a persist-first
// operation. Local state is unchanged, so the caller can safely retry
// the same action.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SyncError reports a failed remote write for an optimistic operation.
// The diverged local state has been discarded in favor of a reload from
// the store.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: sync failed, state reloaded: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// NotFoundError reports a mutation referencing an id that no longer
// exists locally. Treated as a no-op, not fatal.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
