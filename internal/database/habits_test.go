package database

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/models"
)

// Full integration testing of the repositories requires a database.
// These tests cover the dynamic patch SQL assembly, which is pure.
func TestBuildPatchQuery(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	name := "read"
	target := 3
	freq := models.FrequencyCustom
	tags := []string{"mind", "evening"}

	tests := []struct {
		name        string
		patch       models.HabitPatch
		wantEmpty   bool
		wantClauses []string
		wantArgs    int // including the leading id and trailing updated_at
	}{
		{
			name:      "empty patch produces no query",
			patch:     models.HabitPatch{},
			wantEmpty: true,
		},
		{
			name:        "single field",
			patch:       models.HabitPatch{Name: &name},
			wantClauses: []string{"name = $2", "updated_at = $3"},
			wantArgs:    3,
		},
		{
			name:        "multiple fields keep placeholder order",
			patch:       models.HabitPatch{Name: &name, Target: &target, Frequency: &freq},
			wantClauses: []string{"name = $2", "frequency = $3", "target = $4", "updated_at = $5"},
			wantArgs:    5,
		},
		{
			name:        "tags marshal to json",
			patch:       models.HabitPatch{Tags: &tags},
			wantClauses: []string{"tags = $2"},
			wantArgs:    3,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			query, args, err := buildPatchQuery(id, tt.patch)
			if err != nil {
				t.Fatalf("buildPatchQuery() error: %v", err)
			}
			if tt.wantEmpty {
				if query != "" {
					t.Errorf("query = %q, want empty", query)
				}
				return
			}
			for _, clause := range tt.wantClauses {
				if !strings.Contains(query, clause) {
					t.Errorf("query %q missing clause %q", query, clause)
				}
			}
			if !strings.HasSuffix(query, "WHERE id = $1") {
				t.Errorf("query %q missing id predicate", query)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
			if args[0] != id {
				t.Errorf("args[0] = %v, want habit id", args[0])
			}
		})
	}
}
