package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Dallionking/levelchain/internal/chain"
)

// Snapshot is the persisted shape of a chain.
type Snapshot struct {
	ProjectID string                 `json:"projectId"`
	Levels    map[string]chain.Level `json:"levels"`
	Completed []int                  `json:"completed"`
	Visible   []int                  `json:"visible"`
}

// FromState converts s to its persisted shape. Current is not persisted.
func FromState(s chain.State) Snapshot {
	snap := Snapshot{
		ProjectID: s.ProjectID,
		Levels:    make(map[string]chain.Level, len(s.Levels)),
		Completed: slices.Clone(s.Completed),
		Visible:   slices.Clone(s.Visible),
	}
	if snap.Completed == nil {
		snap.Completed = []int{}
	}
	if snap.Visible == nil {
		snap.Visible = []int{}
	}
	for i, l := range s.Levels {
		snap.Levels[chain.Key(i)] = l
	}
	return snap
}

// State turns a snapshot back into a chain state that satisfies the chain
// invariants. Unknown level keys are dropped, object types are coerced,
// visible is sorted, deduplicated and always contains level 1, levels and
// completion marks outside visible are dropped, and the editor starts on
// level 1.
func (snap Snapshot) State(defaultProject string) chain.State {
	projectID := snap.ProjectID
	if projectID == "" {
		projectID = defaultProject
	}
	s := chain.NewState(projectID)

	visible := []int{1}
	for _, i := range snap.Visible {
		if chain.InRange(i) {
			visible = append(visible, i)
		}
	}
	slices.Sort(visible)
	s.Visible = slices.Compact(visible)

	for k, l := range snap.Levels {
		i, ok := chain.ParseKey(k)
		if !ok || !s.IsVisible(i) {
			continue
		}
		s.Levels[i] = l.Normalize(i)
	}

	for _, i := range snap.Completed {
		if s.IsVisible(i) && !s.IsCompleted(i) {
			s.Completed = append(s.Completed, i)
		}
	}
	return s
}

// Adapter saves and restores the chain under Key.
type Adapter struct {
	store          Store
	defaultProject string
	logger         *slog.Logger
}

// NewAdapter wraps store. defaultProject is used when a snapshot is missing
// or carries no project id.
func NewAdapter(store Store, defaultProject string, logger *slog.Logger) *Adapter {
	if defaultProject == "" {
		defaultProject = chain.DefaultProjectID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: store, defaultProject: defaultProject, logger: logger}
}

// Save implements chain.Persister.
func (a *Adapter) Save(s chain.State) error {
	data, err := json.Marshal(FromState(s))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := a.store.Put(Key, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the raw snapshot. It returns ErrNotFound when nothing has been
// saved yet.
func (a *Adapter) Load() (Snapshot, error) {
	data, err := a.store.Get(Key)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Restore returns the persisted chain, or the default chain when nothing
// was saved or the data cannot be read. It never fails.
func (a *Adapter) Restore() chain.State {
	snap, err := a.Load()
	switch {
	case errors.Is(err, ErrNotFound):
		a.logger.Debug("no saved chain, starting fresh", "location", a.store.Location())
		return chain.NewState(a.defaultProject)
	case err != nil:
		a.logger.Warn("discarding unreadable saved chain", "location", a.store.Location(), "error", err)
		return chain.NewState(a.defaultProject)
	}
	s := snap.State(a.defaultProject)
	a.logger.Debug("restored chain", "project", s.ProjectID, "visible", s.Visible)
	return s
}

// Reset removes the snapshot.
func (a *Adapter) Reset() error {
	return a.store.Delete(Key)
}

// SavedAt reports when the snapshot was last written, or ErrNotFound.
func (a *Adapter) SavedAt() (time.Time, error) {
	return a.store.UpdatedAt(Key)
}

// Location describes where the snapshot is stored.
func (a *Adapter) Location() string {
	return a.store.Location()
}
