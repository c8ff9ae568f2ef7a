package chain

import (
	"maps"
	"slices"
)

// DefaultProjectID is used when neither config nor a snapshot names a project.
const DefaultProjectID = "kossip-helpers"

// State is the whole wizard state. Treat values as immutable: Reduce always
// returns a fresh copy.
type State struct {
	ProjectID string
	Levels    map[int]Level
	Completed []int
	Visible   []int
	Current   int
}

// NewState returns the default empty chain for a project.
func NewState(projectID string) State {
	return State{
		ProjectID: projectID,
		Levels:    map[int]Level{},
		Visible:   []int{1},
		Current:   1,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.Levels = make(map[int]Level, len(s.Levels))
	maps.Copy(c.Levels, s.Levels)
	c.Completed = slices.Clone(s.Completed)
	c.Visible = slices.Clone(s.Visible)
	return c
}

// Level returns the stored data for index.
func (s State) Level(index int) (Level, bool) {
	l, ok := s.Levels[index]
	return l, ok
}

// IsComplete reports whether the stored level at index has all fields set.
func (s State) IsComplete(index int) bool {
	l, ok := s.Levels[index]
	return ok && l.Complete()
}

// AllComplete reports whether every visible level is complete.
func (s State) AllComplete() bool {
	for _, i := range s.Visible {
		if !s.IsComplete(i) {
			return false
		}
	}
	return true
}

// LastVisible returns the highest visible index (1 when nothing is visible).
func (s State) LastVisible() int {
	if len(s.Visible) == 0 {
		return 1
	}
	return s.Visible[len(s.Visible)-1]
}

// IsVisible reports whether index is navigable.
func (s State) IsVisible(index int) bool {
	return slices.Contains(s.Visible, index)
}

// IsCompleted reports whether index has been marked done.
func (s State) IsCompleted(index int) bool {
	return slices.Contains(s.Completed, index)
}

// CanAddLevel applies the add-level gate: fewer than MaxLevels visible, the
// last visible level complete, and the next index still inside the ceiling.
func (s State) CanAddLevel() bool {
	last := s.LastVisible()
	return len(s.Visible) < MaxLevels &&
		s.IsComplete(last) &&
		last+1 <= MaxLevels
}

// SortedLevels returns the indices that carry data, ascending.
func (s State) SortedLevels() []int {
	return slices.Sorted(maps.Keys(s.Levels))
}
