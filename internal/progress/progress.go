// Package progress tracks a respondent's position in the flow and the
// furthest screen they have reached.
package progress

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dyluth/warren/pkg/kv"
)

const persistTimeout = 2 * time.Second

// State is the persisted position. Index == Length means the flow is complete.
type State struct {
	Index    int `json:"idx"`
	Furthest int `json:"max_visited"`
	Length   int `json:"length"`
}

// Controller owns the progress state of one session. It is not safe for
// concurrent use; callers serialize events onto one goroutine.
type Controller struct {
	state  State
	store  kv.Store
	key    string
	log    *zap.Logger
	onExit func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore persists every state change under key.
func WithStore(store kv.Store, key string) Option {
	return func(c *Controller) {
		c.store = store
		c.key = key
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithExit registers the callback invoked by Back at index 0.
func WithExit(fn func()) Option {
	return func(c *Controller) { c.onExit = fn }
}

// New creates a controller for a flow of the given length. When a store is
// configured the persisted state is restored, unless it was recorded against
// a flow of a different length, in which case it is discarded.
func New(ctx context.Context, length int, opts ...Option) *Controller {
	c := &Controller{
		state: State{Length: length},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.restore(ctx)
	return c
}

func (c *Controller) restore(ctx context.Context) {
	if c.store == nil {
		return
	}
	var saved State
	if err := c.store.Get(ctx, c.key, &saved); err != nil {
		if !kv.IsNotFound(err) {
			c.log.Debug("progress restore failed", zap.String("key", c.key), zap.Error(err))
		}
		return
	}
	if saved.Length != c.state.Length {
		c.log.Info("discarding progress from a different flow",
			zap.Int("saved_length", saved.Length),
			zap.Int("length", c.state.Length))
		return
	}
	saved.Index = clamp(saved.Index, 0, saved.Length)
	saved.Furthest = clamp(max(saved.Furthest, saved.Index), 0, saved.Length)
	c.state = saved
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// Index returns the current screen index.
func (c *Controller) Index() int { return c.state.Index }

// Furthest returns the furthest index reached.
func (c *Controller) Furthest() int { return c.state.Furthest }

// Len returns the flow length.
func (c *Controller) Len() int { return c.state.Length }

// Complete reports whether the respondent advanced past the last screen.
func (c *Controller) Complete() bool {
	return c.state.Index >= c.state.Length
}

// ViewingPast reports whether the current screen was already passed and must
// be shown read-only.
func (c *Controller) ViewingPast() bool {
	return c.state.Index < c.state.Furthest
}

// Back moves one screen back. At index 0 it invokes the exit callback, if
// any, and reports false.
func (c *Controller) Back() bool {
	if c.state.Index == 0 {
		if c.onExit != nil {
			c.onExit()
		}
		return false
	}
	c.state.Index--
	c.persist()
	return true
}

// ForwardWithinVisited moves one screen forward without passing Furthest.
func (c *Controller) ForwardWithinVisited() bool {
	if c.state.Index >= c.state.Furthest {
		return false
	}
	c.state.Index++
	c.persist()
	return true
}

// NextLinear advances one screen, up to Length.
func (c *Controller) NextLinear() bool {
	if c.state.Index >= c.state.Length {
		return false
	}
	c.state.Index++
	c.state.Furthest = max(c.state.Furthest, c.state.Index)
	c.persist()
	return true
}

// MarkVisited raises Furthest to index. Furthest never decreases.
func (c *Controller) MarkVisited(index int) {
	index = clamp(index, 0, c.state.Length)
	if index <= c.state.Furthest {
		return
	}
	c.state.Furthest = index
	c.persist()
}

// JumpTo moves to index clamped into [0, Length-1], bypassing the
// visited-only restriction. Reserved for administrative commands.
func (c *Controller) JumpTo(index int) {
	if c.state.Length == 0 {
		return
	}
	c.state.Index = clamp(index, 0, c.state.Length-1)
	c.state.Furthest = max(c.state.Furthest, c.state.Index)
	c.persist()
}

func (c *Controller) persist() {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.store.Set(ctx, c.key, c.state); err != nil {
		c.log.Debug("progress persist failed", zap.String("key", c.key), zap.Error(err))
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
