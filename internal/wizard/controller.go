// Package wizard orchestrates the level chain, the add/delete confirmations,
// the backend catalogs and the submission pipeline independently of any UI.
// All methods must be called from a single goroutine; the network halves
// (LoadProjects, LoadDatasets, Pipeline().Execute) may run elsewhere.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Dallionking/levelchain/internal/backend"
	"github.com/Dallionking/levelchain/internal/chain"
	"github.com/Dallionking/levelchain/internal/confirm"
	"github.com/Dallionking/levelchain/internal/pipeline"
)

// ErrNotReady is returned when submitting before a project is chosen and
// every visible level is complete.
var ErrNotReady = errors.New("select a project and complete every level before submitting")

// ErrAddDisabled is returned when add is requested while the dataset
// catalog is loading or failed, from a level that is not the last visible
// one, or from the last level.
var ErrAddDisabled = errors.New("adding a level is not available right now")

// ErrCatalogUnavailable is returned by Save and CanSubmit while the dataset
// catalog is loading or after its fetch failed.
var ErrCatalogUnavailable = errors.New("datasets are unavailable, press ctrl+r to retry")

// CompletedMessage is shown once the last visible level is saved and the
// whole chain is complete.
const CompletedMessage = "All levels completed! Submit all levels to finish."

// Catalog lists the choices offered by the backend.
type Catalog interface {
	ProjectIDs(ctx context.Context) ([]string, error)
	Datasets(ctx context.Context) ([]string, error)
}

// AddRequest is the payload staged by RequestAdd.
type AddRequest struct {
	Index int
	Data  chain.Level
}

// ValidationErrors is returned when a level fails validation.
type ValidationErrors []chain.ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

type catalog struct {
	items   []string
	loading bool
	err     error
}

// Controller is the wizard's state machine.
type Controller struct {
	chain *chain.Container
	add   confirm.Staged[AddRequest]
	del   confirm.Staged[int]
	pipe  *pipeline.Pipeline

	projects catalog
	datasets catalog

	message string
	now     func() time.Time
	logger  *slog.Logger
}

// New wraps a chain container and a pipeline.
func New(c *chain.Container, p *pipeline.Pipeline, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{chain: c, pipe: p, now: time.Now, logger: logger}
}

// State returns a copy of the chain state.
func (c *Controller) State() chain.State { return c.chain.State() }

// Pipeline exposes the submission pipeline.
func (c *Controller) Pipeline() *pipeline.Pipeline { return c.pipe }

// Message is the latest informational message, if any.
func (c *Controller) Message() string { return c.message }

// Mutations returns the chain's mutation log.
func (c *Controller) Mutations() []chain.Mutation { return c.chain.Log() }

// --- catalogs ---

// BeginProjects marks the project list as loading. It returns false while
// a load is already in flight.
func (c *Controller) BeginProjects() bool {
	if c.projects.loading {
		return false
	}
	c.projects.loading = true
	return true
}

// LoadProjects fetches the project list. It touches no controller state.
func LoadProjects(ctx context.Context, cat Catalog) ([]string, error) {
	return cat.ProjectIDs(ctx)
}

// FinishProjects stores the fetched projects. When the current project is
// not offered, the first one is selected.
func (c *Controller) FinishProjects(ids []string, err error) {
	c.projects = catalog{items: ids, err: err}
	if err != nil {
		c.logger.Warn("loading projects failed", "error", err)
		return
	}
	if len(ids) > 0 && !slices.Contains(ids, c.State().ProjectID) {
		_ = c.chain.Dispatch(chain.SetProject{ProjectID: ids[0]})
	}
}

// Projects returns the project catalog and its load error.
func (c *Controller) Projects() ([]string, error) { return c.projects.items, c.projects.err }

// ProjectsLoading reports whether the project list is being fetched.
func (c *Controller) ProjectsLoading() bool { return c.projects.loading }

// BeginDatasets marks the dataset list as loading. It returns false while a
// load is already in flight.
func (c *Controller) BeginDatasets() bool {
	if c.datasets.loading {
		return false
	}
	c.datasets.loading = true
	return true
}

// LoadDatasets fetches the dataset list. It touches no controller state.
func LoadDatasets(ctx context.Context, cat Catalog) ([]string, error) {
	return cat.Datasets(ctx)
}

// FinishDatasets stores the fetched datasets.
func (c *Controller) FinishDatasets(ids []string, err error) {
	c.datasets = catalog{items: ids, err: err}
	if err != nil {
		c.logger.Warn("loading datasets failed", "error", err)
	}
}

// Datasets returns the dataset catalog and its load error.
func (c *Controller) Datasets() ([]string, error) { return c.datasets.items, c.datasets.err }

// DatasetsLoading reports whether the dataset list is being fetched.
func (c *Controller) DatasetsLoading() bool { return c.datasets.loading }

// CatalogReady reports whether the dataset catalog is neither loading nor
// failed. Saving, adding and submitting wait on it.
func (c *Controller) CatalogReady() bool {
	return !c.datasets.loading && c.datasets.err == nil
}

// datasetCatalog is the catalog to validate against; nil when unknown.
func (c *Controller) datasetCatalog() []string {
	if c.datasets.err != nil || c.datasets.loading || c.datasets.items == nil {
		return nil
	}
	return c.datasets.items
}

// --- editing ---

// EditorValues is what the editor for index should show.
func (c *Controller) EditorValues(index int) chain.Level {
	v := chain.EditorValues(c.State(), index)
	v.DatasetID = chain.DefaultDataset(v.DatasetID, c.datasets.items)
	return v
}

// Select moves the editor to a visible level.
func (c *Controller) Select(index int) error {
	return c.chain.Dispatch(chain.SelectLevel{Index: index})
}

// SetProject picks the project.
func (c *Controller) SetProject(id string) error {
	return c.chain.Dispatch(chain.SetProject{ProjectID: id})
}

// CycleProject selects the next project in the catalog, wrapping around.
func (c *Controller) CycleProject() error {
	if len(c.projects.items) == 0 {
		return nil
	}
	cur := slices.Index(c.projects.items, c.State().ProjectID)
	next := c.projects.items[(cur+1)%len(c.projects.items)]
	return c.SetProject(next)
}

// Save validates and commits a level without adding another one.
func (c *Controller) Save(index int, data chain.Level) error {
	if !c.CatalogReady() {
		return ErrCatalogUnavailable
	}
	data = data.Normalize(index)
	if errs := chain.Validate(index, data, c.datasetCatalog()); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	if err := c.chain.Dispatch(chain.SetLevel{Index: index, Data: data}); err != nil {
		return err
	}
	c.noteCompletion(index)
	return nil
}

func (c *Controller) noteCompletion(index int) {
	s := c.State()
	c.message = ""
	if index == s.LastVisible() && s.AllComplete() {
		c.message = CompletedMessage
	}
}

// AddEnabled reports whether the add action is offered for index. Only the
// last visible level below the ceiling offers it.
func (c *Controller) AddEnabled(index int) bool {
	return index < chain.MaxLevels &&
		index == c.State().LastVisible() &&
		c.CatalogReady()
}

// NextLevel is the index an add from the last visible level creates.
func (c *Controller) NextLevel() int { return c.State().LastVisible() + 1 }

// RequestAdd validates data and stages "save index, then add the next level".
func (c *Controller) RequestAdd(index int, data chain.Level) error {
	if !c.AddEnabled(index) {
		return ErrAddDisabled
	}
	data = data.Normalize(index)
	if errs := chain.Validate(index, data, c.datasetCatalog()); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return c.add.Stage(AddRequest{Index: index, Data: data})
}

// PendingAdd returns the staged add request.
func (c *Controller) PendingAdd() (AddRequest, bool) { return c.add.Pending() }

// ConfirmAdd commits the staged level and, below the ceiling, runs the
// add-level gate. A closed gate is not an error.
func (c *Controller) ConfirmAdd() error {
	return c.add.Confirm(func(r AddRequest) error {
		if err := c.chain.Dispatch(chain.SetLevel{Index: r.Index, Data: r.Data}); err != nil {
			return err
		}
		c.noteCompletion(r.Index)
		if r.Index >= chain.MaxLevels {
			return nil
		}
		err := c.chain.Dispatch(chain.AddLevel{})
		switch {
		case err == nil:
			c.message = ""
		case !errors.Is(err, chain.ErrAddNotAllowed):
			return err
		}
		return nil
	})
}

// CancelAdd discards the staged add request.
func (c *Controller) CancelAdd() { c.add.Cancel() }

// RequestDelete stages removal of index. Level 1 is refused immediately.
func (c *Controller) RequestDelete(index int) error {
	if index == 1 {
		return chain.ErrProtectedLevel
	}
	if !c.State().IsVisible(index) {
		return fmt.Errorf("delete level %d: %w", index, chain.ErrLevelNotVisible)
	}
	return c.del.Stage(index)
}

// PendingDelete returns the staged delete target.
func (c *Controller) PendingDelete() (int, bool) { return c.del.Pending() }

// ConfirmDelete removes the staged level.
func (c *Controller) ConfirmDelete() error {
	return c.del.Confirm(func(i int) error {
		c.message = ""
		return c.chain.Dispatch(chain.DeleteLevel{Index: i})
	})
}

// CancelDelete discards the staged delete.
func (c *Controller) CancelDelete() { c.del.Cancel() }

// --- submission ---

// CanSubmit reports ErrNotReady unless a project is chosen and every
// visible level is complete, and ErrCatalogUnavailable while the dataset
// catalog is loading or failed.
func (c *Controller) CanSubmit() error {
	if !c.CatalogReady() {
		return ErrCatalogUnavailable
	}
	s := c.State()
	if s.ProjectID == "" || !s.AllComplete() {
		return ErrNotReady
	}
	return nil
}

// BeginSubmit builds the payload and moves the pipeline to Loading. From
// Error it acts as a retry.
func (c *Controller) BeginSubmit() (pipeline.Run, error) {
	if err := c.CanSubmit(); err != nil {
		return pipeline.Run{}, err
	}
	payload := backend.NewSubmitPayload(c.State(), c.now())
	if c.pipe.Status() == pipeline.StatusError {
		return c.pipe.Retry(payload)
	}
	return c.pipe.Begin(payload)
}

// FinishSubmit applies a pipeline outcome.
func (c *Controller) FinishSubmit(o pipeline.Outcome) {
	if c.pipe.Finish(o) && o.Err == nil {
		c.message = ""
	}
}

// MakeChanges leaves the success screen and returns to editing.
func (c *Controller) MakeChanges() error {
	return c.pipe.MakeChanges()
}
