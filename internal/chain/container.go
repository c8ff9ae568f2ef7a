package chain

import (
	"log/slog"
	"slices"
	"time"
)

// Persister receives the state after every successful mutation.
type Persister interface {
	Save(State) error
}

// Mutation is one entry in a Container's log.
type Mutation struct {
	Seq    int
	Action string
	At     time.Time
	Err    error
}

// Container owns the current State, records every dispatched action and
// persists the result of the successful ones.
type Container struct {
	state     State
	log       []Mutation
	persister Persister
	logger    *slog.Logger
	now       func() time.Time
}

// NewContainer wraps an initial state. persister may be nil.
func NewContainer(initial State, persister Persister, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	return &Container{
		state:     initial.Clone(),
		persister: persister,
		logger:    logger,
		now:       time.Now,
	}
}

// State returns a copy of the current state.
func (c *Container) State() State {
	return c.state.Clone()
}

// Log returns a copy of the mutation log.
func (c *Container) Log() []Mutation {
	return slices.Clone(c.log)
}

// Dispatch reduces a into the current state. Rejected actions are logged
// and leave the state untouched. Persistence is fire-and-forget: a failed
// save is logged, never returned.
func (c *Container) Dispatch(a Action) error {
	next, err := Reduce(c.state, a)
	c.log = append(c.log, Mutation{
		Seq:    len(c.log) + 1,
		Action: a.Name(),
		At:     c.now(),
		Err:    err,
	})
	if err != nil {
		c.logger.Debug("action rejected", "action", a.Name(), "error", err)
		return err
	}

	c.state = next
	c.logger.Debug("action applied", "action", a.Name(), "current", next.Current, "visible", next.Visible)

	if c.persister != nil {
		if perr := c.persister.Save(next); perr != nil {
			c.logger.Warn("persisting chain state failed", "action", a.Name(), "error", perr)
		}
	}
	return nil
}
