package chain

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrLevelOutOfRange is returned for indices outside 1..MaxLevels.
	ErrLevelOutOfRange = errors.New("level index out of range")
	// ErrProtectedLevel is returned when deleting level 1.
	ErrProtectedLevel = errors.New("level 1 cannot be removed")
	// ErrAddNotAllowed is returned when the add-level gate is closed.
	ErrAddNotAllowed = errors.New("cannot add another level")
	// ErrLevelNotVisible is returned when selecting a level that is not shown.
	ErrLevelNotVisible = errors.New("level is not visible")
)

// Action is a single mutation of the chain.
type Action interface {
	// Name is the short label recorded in the mutation log.
	Name() string
}

// SetLevel upserts a level's fields.
type SetLevel struct {
	Index int
	Data  Level
}

// DeleteLevel removes a level's slot. Higher levels are not renumbered.
type DeleteLevel struct {
	Index int
}

// AddLevel appends the next level after the last visible one.
type AddLevel struct{}

// SelectLevel moves the edit pane to a visible level.
type SelectLevel struct {
	Index int
}

// SetProject picks the project the chain is submitted under.
type SetProject struct {
	ProjectID string
}

func (a SetLevel) Name() string    { return fmt.Sprintf("set-level %d", a.Index) }
func (a DeleteLevel) Name() string { return fmt.Sprintf("delete-level %d", a.Index) }
func (AddLevel) Name() string      { return "add-level" }
func (a SelectLevel) Name() string { return fmt.Sprintf("select-level %d", a.Index) }
func (a SetProject) Name() string  { return fmt.Sprintf("set-project %s", a.ProjectID) }

// Reduce applies a to s and returns the new state. s itself is never
// modified; on error the returned state equals s.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case SetLevel:
		return setLevel(s, a)
	case DeleteLevel:
		return deleteLevel(s, a)
	case AddLevel:
		return addLevel(s)
	case SelectLevel:
		if !s.IsVisible(a.Index) {
			return s, fmt.Errorf("select level %d: %w", a.Index, ErrLevelNotVisible)
		}
		next := s.Clone()
		next.Current = a.Index
		return next, nil
	case SetProject:
		next := s.Clone()
		next.ProjectID = a.ProjectID
		return next, nil
	default:
		return s, fmt.Errorf("unknown action %T", a)
	}
}

func setLevel(s State, a SetLevel) (State, error) {
	if !InRange(a.Index) {
		return s, fmt.Errorf("set level %d: %w", a.Index, ErrLevelOutOfRange)
	}
	next := s.Clone()
	data := a.Data.Normalize(a.Index)
	next.Levels[a.Index] = data
	if !next.IsCompleted(a.Index) && data.Complete() {
		next.Completed = append(next.Completed, a.Index)
	}
	return next, nil
}

func deleteLevel(s State, a DeleteLevel) (State, error) {
	if a.Index == 1 {
		return s, ErrProtectedLevel
	}
	if !InRange(a.Index) {
		return s, fmt.Errorf("delete level %d: %w", a.Index, ErrLevelOutOfRange)
	}
	next := s.Clone()
	delete(next.Levels, a.Index)
	next.Completed = slices.DeleteFunc(next.Completed, func(i int) bool { return i == a.Index })
	next.Visible = slices.DeleteFunc(next.Visible, func(i int) bool { return i == a.Index })
	if next.Current == a.Index {
		next.Current = previousVisible(next.Visible, a.Index)
	}
	return next, nil
}

// previousVisible is index-1 when that level is shown, otherwise the closest
// visible level below index, and 1 as the floor.
func previousVisible(visible []int, index int) int {
	prev := 1
	for _, v := range visible {
		if v < index {
			prev = v
		}
	}
	return prev
}

func addLevel(s State) (State, error) {
	if !s.CanAddLevel() {
		return s, ErrAddNotAllowed
	}
	next := s.Clone()
	n := next.LastVisible() + 1
	next.Visible = append(next.Visible, n)
	next.Current = n
	return next, nil
}
