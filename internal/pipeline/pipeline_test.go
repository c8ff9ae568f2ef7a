package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dallionking/levelchain/internal/backend"
	"github.com/Dallionking/levelchain/internal/chain"
)

type fakeSubmitter struct {
	submitErr  error
	convertErr error
	conv       map[int]backend.Conversion

	submits  []backend.SubmitPayload
	converts []backend.ConvertRequest
}

func (f *fakeSubmitter) Submit(_ context.Context, p backend.SubmitPayload) error {
	f.submits = append(f.submits, p)
	return f.submitErr
}

func (f *fakeSubmitter) Convert(_ context.Context, req backend.ConvertRequest) (map[int]backend.Conversion, error) {
	f.converts = append(f.converts, req)
	if f.convertErr != nil {
		return nil, f.convertErr
	}
	return f.conv, nil
}

func payload() backend.SubmitPayload {
	return backend.SubmitPayload{
		ProjectID: "p",
		Timestamp: "2024-01-01T00:00:00.000Z",
		Levels: map[int]chain.Level{
			1: {DatasetID: "ds", ObjectName: "o", ObjectType: chain.ObjectView, Query: "q"},
		},
	}
}

func newPipeline() *Pipeline {
	p := New(nil)
	p.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC) }
	return p
}

func TestPipeline_Success(t *testing.T) {
	sub := &fakeSubmitter{conv: map[int]backend.Conversion{
		1: {DBTFormat: "select 1", FilePath: "models/o.sql"},
	}}
	p := newPipeline()

	run, err := p.Begin(payload())
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, p.Status())
	assert.NotEmpty(t, run.ID)

	out := p.Execute(context.Background(), sub, run)
	require.NoError(t, out.Err)
	assert.True(t, p.Finish(out))

	assert.Equal(t, StatusSuccess, p.Status())
	assert.Equal(t, map[int]string{1: "select 1"}, p.Result().Models)
	assert.Equal(t, map[int]string{1: "models/o.sql"}, p.Result().FilePaths)

	require.Len(t, sub.converts, 1)
	assert.Equal(t, "2024-01-01T00:00:05.000Z", sub.converts[0].Timestamp, "convert carries a fresh timestamp")
	assert.Equal(t, payload(), sub.converts[0].Data)
}

func TestPipeline_PersistFailureSkipsConvert(t *testing.T) {
	sub := &fakeSubmitter{submitErr: &backend.APIError{Endpoint: "/submit", StatusCode: 400, Message: "Missing project_id in submission"}}
	p := newPipeline()

	out, err := p.Submit(context.Background(), sub, payload())
	require.Error(t, err)
	assert.False(t, out.Persisted)
	assert.Empty(t, sub.converts)
	assert.Equal(t, StatusError, p.Status())
	assert.Equal(t, "Missing project_id in submission", out.Message())
	assert.Nil(t, p.Result().Models)
}

func TestPipeline_ConvertFailureIsSavedButNotConverted(t *testing.T) {
	sub := &fakeSubmitter{convertErr: errors.New("converter down")}
	p := newPipeline()

	out, err := p.Submit(context.Background(), sub, payload())
	require.Error(t, err)
	assert.True(t, out.Persisted)
	assert.True(t, p.Persisted())
	assert.Equal(t, StatusError, p.Status())
	assert.Len(t, sub.submits, 1)
	assert.Contains(t, out.Message(), "Saved but not converted")
}

func TestPipeline_Transitions(t *testing.T) {
	t.Run("second begin while loading is refused", func(t *testing.T) {
		p := newPipeline()
		_, err := p.Begin(payload())
		require.NoError(t, err)
		_, err = p.Begin(payload())
		assert.ErrorIs(t, err, ErrInFlight)
	})

	t.Run("success must make changes before resubmitting", func(t *testing.T) {
		p := newPipeline()
		_, err := p.Submit(context.Background(), &fakeSubmitter{}, payload())
		require.NoError(t, err)

		_, err = p.Begin(payload())
		assert.ErrorIs(t, err, ErrNotIdle)

		require.NoError(t, p.MakeChanges())
		assert.Equal(t, StatusIdle, p.Status())
		assert.Nil(t, p.Result().Models)
	})

	t.Run("retry from error", func(t *testing.T) {
		p := newPipeline()
		sub := &fakeSubmitter{submitErr: errors.New("down")}
		_, err := p.Submit(context.Background(), sub, payload())
		require.Error(t, err)
		require.Equal(t, StatusError, p.Status())

		sub.submitErr = nil
		run, err := p.Retry(payload())
		require.NoError(t, err)
		p.Finish(p.Execute(context.Background(), sub, run))
		assert.Equal(t, StatusSuccess, p.Status())
		assert.NoError(t, p.Err())
	})

	t.Run("retry and make changes are refused from idle", func(t *testing.T) {
		p := newPipeline()
		_, err := p.Retry(payload())
		assert.ErrorIs(t, err, ErrNotIdle)
		assert.ErrorIs(t, p.MakeChanges(), ErrNotIdle)
	})

	t.Run("stale outcome dropped", func(t *testing.T) {
		p := newPipeline()
		_, err := p.Begin(payload())
		require.NoError(t, err)
		assert.False(t, p.Finish(Outcome{RunID: "someone-else"}))
		assert.Equal(t, StatusLoading, p.Status())
	})

	t.Run("each run has its own id", func(t *testing.T) {
		p := newPipeline()
		sub := &fakeSubmitter{submitErr: errors.New("down")}
		first, _ := p.Submit(context.Background(), sub, payload())
		second, _ := p.Submit(context.Background(), sub, payload())
		assert.NotEqual(t, first.RunID, second.RunID)
	})
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "error", StatusError.String())
}
