package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	saved []State
	err   error
}

func (r *recordingPersister) Save(s State) error {
	r.saved = append(r.saved, s)
	return r.err
}

func TestContainer_PersistsSuccessfulMutations(t *testing.T) {
	p := &recordingPersister{}
	c := NewContainer(NewState("p"), p, nil)

	require.NoError(t, c.Dispatch(SetLevel{Index: 1, Data: completeLevel("ds", "o")}))
	require.NoError(t, c.Dispatch(AddLevel{}))
	assert.ErrorIs(t, c.Dispatch(DeleteLevel{Index: 1}), ErrProtectedLevel)

	require.Len(t, p.saved, 2)
	assert.Equal(t, []int{1, 2}, p.saved[1].Visible)

	log := c.Log()
	require.Len(t, log, 3)
	assert.Equal(t, "set-level 1", log[0].Action)
	assert.Equal(t, "add-level", log[1].Action)
	assert.ErrorIs(t, log[2].Err, ErrProtectedLevel)
	assert.Equal(t, 3, log[2].Seq)
}

func TestContainer_SaveFailureIsNotReturned(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	c := NewContainer(NewState("p"), p, nil)

	assert.NoError(t, c.Dispatch(SetProject{ProjectID: "other"}))
	assert.Equal(t, "other", c.State().ProjectID)
}

func TestContainer_StateIsACopy(t *testing.T) {
	c := NewContainer(NewState("p"), nil, nil)
	s := c.State()
	s.Levels[1] = completeLevel("ds", "o")
	s.Visible = append(s.Visible, 2)

	assert.Empty(t, c.State().Levels)
	assert.Equal(t, []int{1}, c.State().Visible)
}
