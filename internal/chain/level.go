package chain

import "fmt"

// MaxLevels is the fixed ceiling on the number of levels in a chain.
const MaxLevels = 4

// ObjectType is the materialisation of a level's object.
type ObjectType string

const (
	ObjectView  ObjectType = "VIEW"
	ObjectTable ObjectType = "TABLE"
)

// ParseObjectType maps any input onto the enumerated set. Anything that is
// not VIEW becomes TABLE.
func ParseObjectType(s string) ObjectType {
	if ObjectType(s) == ObjectView {
		return ObjectView
	}
	return ObjectTable
}

// Valid reports whether t is one of the enumerated object types.
func (t ObjectType) Valid() bool {
	return t == ObjectView || t == ObjectTable
}

// Level is one data-object definition in the chain.
type Level struct {
	DatasetID  string     `json:"dataset_id"`
	ObjectName string     `json:"object_name"`
	ObjectType ObjectType `json:"object_type"`
	Query      string     `json:"query"`
}

// Complete reports whether every field is filled in.
func (l Level) Complete() bool {
	return l.DatasetID != "" &&
		l.ObjectName != "" &&
		l.ObjectType.Valid() &&
		l.Query != ""
}

// Normalize pins level 1 to VIEW and coerces every other object type onto
// the enumerated set.
func (l Level) Normalize(index int) Level {
	if index == 1 {
		l.ObjectType = ObjectView
		return l
	}
	l.ObjectType = ParseObjectType(string(l.ObjectType))
	return l
}

// DefaultObjectType is the type a fresh editor starts with.
func DefaultObjectType(index int) ObjectType {
	if index == 1 {
		return ObjectView
	}
	return ObjectTable
}

// Key returns the wire/storage key for a level index ("level3").
func Key(index int) string {
	return fmt.Sprintf("level%d", index)
}

// ParseKey is the inverse of Key. It reports false for anything that is not
// "levelN" with N inside 1..MaxLevels.
func ParseKey(key string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(key, "level%d", &n); err != nil {
		return 0, false
	}
	if Key(n) != key || !InRange(n) {
		return 0, false
	}
	return n, true
}

// InRange reports whether index is a legal level index.
func InRange(index int) bool {
	return index >= 1 && index <= MaxLevels
}
