// Package pipeline runs the two-phase submission: persist the chain with
// POST /submit, then convert it with POST /convert-to-dbt.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/Dallionking/levelchain/internal/backend"
)

var (
	// ErrInFlight is returned by Begin while a run is loading.
	ErrInFlight = errors.New("a submission is already in flight")
	// ErrNotIdle is returned by Begin after a successful run that has not
	// been reset with MakeChanges.
	ErrNotIdle = errors.New("submission already succeeded; make changes first")
)

// Status is the pipeline's position in its state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Submitter is the backend surface the pipeline needs.
type Submitter interface {
	Submit(ctx context.Context, p backend.SubmitPayload) error
	Convert(ctx context.Context, req backend.ConvertRequest) (map[int]backend.Conversion, error)
}

// Result holds the converted dbt text and file path per level index.
type Result struct {
	Models    map[int]string
	FilePaths map[int]string
}

// Run identifies one submission attempt.
type Run struct {
	ID      string
	Payload backend.SubmitPayload
}

// Outcome is what Execute reports back to the event loop.
type Outcome struct {
	RunID  string
	Result Result
	// Persisted is true once /submit succeeded, even if conversion failed.
	Persisted bool
	Err       error
}

// Pipeline is the submission state machine. Begin, Finish and MakeChanges
// must be called from a single goroutine; Execute may run elsewhere.
type Pipeline struct {
	status    Status
	runID     string
	result    Result
	err       error
	persisted bool

	now    func() time.Time
	logger *slog.Logger
}

// New returns an idle pipeline.
func New(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{now: time.Now, logger: logger}
}

func (p *Pipeline) Status() Status  { return p.status }
func (p *Pipeline) Result() Result  { return p.result }
func (p *Pipeline) Err() error      { return p.err }
func (p *Pipeline) RunID() string   { return p.runID }
func (p *Pipeline) Persisted() bool { return p.persisted }

// Begin moves Idle or Error to Loading and returns the run to execute.
func (p *Pipeline) Begin(payload backend.SubmitPayload) (Run, error) {
	switch p.status {
	case StatusLoading:
		return Run{}, ErrInFlight
	case StatusSuccess:
		return Run{}, ErrNotIdle
	}
	p.status = StatusLoading
	p.runID = uuid.NewString()
	p.result = Result{}
	p.err = nil
	p.persisted = false
	p.logger.Info("submission started", "run", p.runID, "project", payload.ProjectID, "levels", len(payload.Levels))
	return Run{ID: p.runID, Payload: payload}, nil
}

// Execute performs both network phases. It reads no mutable pipeline
// state. Conversion is only attempted once persistence succeeded.
func (p *Pipeline) Execute(ctx context.Context, sub Submitter, run Run) Outcome {
	out := Outcome{RunID: run.ID}

	if err := sub.Submit(ctx, run.Payload); err != nil {
		out.Err = fmt.Errorf("persist: %w", err)
		return out
	}
	out.Persisted = true

	conv, err := sub.Convert(ctx, backend.ConvertRequest{
		Timestamp: backend.Timestamp(p.now()),
		Data:      run.Payload,
	})
	if err != nil {
		out.Err = fmt.Errorf("convert: %w", err)
		return out
	}

	out.Result = Result{
		Models:    make(map[int]string, len(conv)),
		FilePaths: make(map[int]string, len(conv)),
	}
	for i, c := range conv {
		out.Result.Models[i] = c.DBTFormat
		out.Result.FilePaths[i] = c.FilePath
	}
	return out
}

// Finish applies an outcome. Outcomes for a run other than the current
// one, or arriving when nothing is loading, are dropped and false is
// returned.
func (p *Pipeline) Finish(o Outcome) bool {
	if p.status != StatusLoading || o.RunID != p.runID {
		p.logger.Debug("dropping stale submission outcome", "run", o.RunID, "current", p.runID)
		return false
	}
	p.persisted = o.Persisted
	if o.Err != nil {
		p.status = StatusError
		p.err = o.Err
		p.result = Result{}
		p.logger.Warn("submission failed", "run", o.RunID, "persisted", o.Persisted, "error", o.Err)
		return true
	}
	p.status = StatusSuccess
	p.result = Result{
		Models:    maps.Clone(o.Result.Models),
		FilePaths: maps.Clone(o.Result.FilePaths),
	}
	p.logger.Info("submission converted", "run", o.RunID, "models", len(o.Result.Models))
	return true
}

// MakeChanges returns a successful pipeline to Idle.
func (p *Pipeline) MakeChanges() error {
	if p.status != StatusSuccess {
		return fmt.Errorf("make changes from %s: %w", p.status, ErrNotIdle)
	}
	p.status = StatusIdle
	p.result = Result{}
	p.persisted = false
	return nil
}

// Retry re-runs from Error. It is Begin restricted to the Error state.
func (p *Pipeline) Retry(payload backend.SubmitPayload) (Run, error) {
	if p.status != StatusError {
		return Run{}, fmt.Errorf("retry from %s: %w", p.status, ErrNotIdle)
	}
	return p.Begin(payload)
}

// Submit runs Begin, Execute and Finish back to back, for callers without
// an event loop.
func (p *Pipeline) Submit(ctx context.Context, sub Submitter, payload backend.SubmitPayload) (Outcome, error) {
	run, err := p.Begin(payload)
	if err != nil {
		return Outcome{}, err
	}
	out := p.Execute(ctx, sub, run)
	p.Finish(out)
	return out, out.Err
}

// Message is the user-facing summary of a failed run.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	var apiErr *backend.APIError
	msg := o.Err.Error()
	if errors.As(o.Err, &apiErr) {
		msg = apiErr.Message
	}
	if o.Persisted {
		return "Saved but not converted: " + msg
	}
	return msg
}
