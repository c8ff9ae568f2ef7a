package chain

import (
	"fmt"
	"slices"
)

// DerivedQuery builds the default query for the level after prev.
func DerivedQuery(prev Level) string {
	return fmt.Sprintf("SELECT * FROM `%s.%s`", prev.DatasetID, prev.ObjectName)
}

// Derived returns the predecessor of index when one has committed data.
// Level 1 never derives.
func Derived(s State, index int) (Level, bool) {
	if index < 2 {
		return Level{}, false
	}
	return s.Level(index - 1)
}

// EditorValues is what the editor for index should start with. Stored
// non-empty fields always win; empty ones fall back to the values derived
// from the predecessor's current committed data.
func EditorValues(s State, index int) Level {
	stored, _ := s.Level(index)
	out := Level{
		DatasetID:  stored.DatasetID,
		ObjectName: stored.ObjectName,
		ObjectType: stored.ObjectType,
		Query:      stored.Query,
	}
	if out.ObjectType == "" {
		out.ObjectType = DefaultObjectType(index)
	}
	out = out.Normalize(index)

	if prev, ok := Derived(s, index); ok {
		if out.ObjectName == "" {
			out.ObjectName = prev.ObjectName
		}
		if out.Query == "" {
			out.Query = DerivedQuery(prev)
		}
	}
	return out
}

// DefaultDataset chooses the dataset an editor should show: the current one
// when the catalog offers it, otherwise the first catalog entry. An empty
// catalog leaves current untouched.
func DefaultDataset(current string, catalog []string) string {
	if len(catalog) == 0 || slices.Contains(catalog, current) {
		return current
	}
	return catalog[0]
}
