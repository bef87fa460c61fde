package models

// Tag is a category label with a count of habits currently carrying it.
// HabitCount is a projection derived from the live habit collection and
// is never persisted as a source of truth.
type Tag struct {
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	HabitCount int    `json:"habitCount"`
}

// DeriveTags recomputes the tag summary from the current habit collection.
// Duplicate labels on one habit collapse to a single count.
func DeriveTags(habits []Habit) []Tag {
	counts := make(map[string]int)
	var order []string
	for _, h := range habits {
		seen := make(map[string]bool)
		for _, name := range h.Tags {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if _, ok := counts[name]; !ok {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	tags := make([]Tag, 0, len(order))
	for _, name := range order {
		tags = append(tags, Tag{Name: name, HabitCount: counts[name]})
	}
	return tags
}
