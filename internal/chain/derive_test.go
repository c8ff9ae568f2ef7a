package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorValues_LevelOneHasNoDerivation(t *testing.T) {
	got := EditorValues(NewState("p"), 1)
	assert.Equal(t, Level{ObjectType: ObjectView}, got)

	_, ok := Derived(NewState("p"), 1)
	assert.False(t, ok)
}

func TestEditorValues_DerivesFromSavedPredecessor(t *testing.T) {
	s, err := Reduce(NewState("p"), SetLevel{Index: 1, Data: Level{
		DatasetID: "ds1", ObjectName: "orders", ObjectType: ObjectView, Query: "SELECT 1",
	}})
	require.NoError(t, err)
	s, err = Reduce(s, AddLevel{})
	require.NoError(t, err)

	got := EditorValues(s, 2)
	assert.Equal(t, "SELECT * FROM `ds1.orders`", got.Query)
	assert.Equal(t, "orders", got.ObjectName)
	assert.Equal(t, ObjectTable, got.ObjectType)
	assert.Empty(t, got.DatasetID)
}

func TestEditorValues_FollowsPredecessorWhileUnsaved(t *testing.T) {
	s := chainWith(t, 1)
	s, err := Reduce(s, AddLevel{})
	require.NoError(t, err)

	s, err = Reduce(s, SetLevel{Index: 1, Data: completeLevel("sales", "invoices")})
	require.NoError(t, err)

	got := EditorValues(s, 2)
	assert.Equal(t, "SELECT * FROM `sales.invoices`", got.Query)
	assert.Equal(t, "invoices", got.ObjectName)
}

func TestEditorValues_SavedValueWins(t *testing.T) {
	s := chainWith(t, 1)
	s, err := Reduce(s, AddLevel{})
	require.NoError(t, err)

	s, err = Reduce(s, SetLevel{Index: 2, Data: Level{
		DatasetID: "ds", ObjectName: "mine", ObjectType: ObjectTable, Query: "SELECT id FROM x",
	}})
	require.NoError(t, err)

	s, err = Reduce(s, SetLevel{Index: 1, Data: completeLevel("changed", "upstream")})
	require.NoError(t, err)

	got := EditorValues(s, 2)
	assert.Equal(t, "SELECT id FROM x", got.Query)
	assert.Equal(t, "mine", got.ObjectName)
}

func TestEditorValues_EmptySavedFieldFallsBack(t *testing.T) {
	s := chainWith(t, 1)
	s, err := Reduce(s, AddLevel{})
	require.NoError(t, err)
	s, err = Reduce(s, SetLevel{Index: 2, Data: Level{DatasetID: "ds", ObjectName: "kept"}})
	require.NoError(t, err)

	got := EditorValues(s, 2)
	assert.Equal(t, "kept", got.ObjectName)
	assert.Equal(t, "SELECT * FROM `ds.obj`", got.Query)
}

func TestDefaultDataset(t *testing.T) {
	assert.Equal(t, "b", DefaultDataset("b", []string{"a", "b"}))
	assert.Equal(t, "a", DefaultDataset("zzz", []string{"a", "b"}))
	assert.Equal(t, "a", DefaultDataset("", []string{"a", "b"}))
	assert.Equal(t, "keep", DefaultDataset("keep", nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		level    Level
		datasets []string
		fields   []string
	}{
		{"valid", 2, completeLevel("ds", "o"), []string{"ds"}, nil},
		{"unknown catalog skips membership", 2, completeLevel("nope", "o"), nil, nil},
		{"dataset not offered", 2, completeLevel("nope", "o"), []string{"ds"}, []string{"dataset_id"}},
		{"empty", 2, Level{}, nil, []string{"dataset_id", "object_name", "object_type", "query"}},
		{"level one table", 1, completeLevel("ds", "o"), nil, []string{"object_type"}},
		{"out of range", 5, completeLevel("ds", "o"), nil, []string{"level"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fields []string
			for _, e := range Validate(tt.index, tt.level, tt.datasets) {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}
