package confirm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaged_ConfirmAppliesPayload(t *testing.T) {
	var s Staged[int]
	require.NoError(t, s.Stage(3))

	got, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, 3, got)

	var applied []int
	require.NoError(t, s.Confirm(func(i int) error {
		applied = append(applied, i)
		return nil
	}))
	assert.Equal(t, []int{3}, applied)
	assert.Equal(t, OutcomeConfirmed, s.Last())

	_, ok = s.Pending()
	assert.False(t, ok)
}

func TestStaged_CancelDiscards(t *testing.T) {
	var s Staged[string]
	require.NoError(t, s.Stage("level3"))
	s.Cancel()

	_, ok := s.Pending()
	assert.False(t, ok)
	assert.Equal(t, OutcomeCancelled, s.Last())

	called := false
	err := s.Confirm(func(string) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrNothingPending)
	assert.False(t, called)
}

func TestStaged_RejectsSecondStage(t *testing.T) {
	var s Staged[int]
	require.NoError(t, s.Stage(2))
	assert.ErrorIs(t, s.Stage(3), ErrAlreadyPending)

	got, _ := s.Pending()
	assert.Equal(t, 2, got)
}

func TestStaged_ApplyErrorStillReleases(t *testing.T) {
	var s Staged[int]
	require.NoError(t, s.Stage(2))

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Confirm(func(int) error { return boom }), boom)

	_, ok := s.Pending()
	assert.False(t, ok)
	assert.NoError(t, s.Stage(4))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "none", OutcomeNone.String())
	assert.Equal(t, "confirmed", OutcomeConfirmed.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
}
