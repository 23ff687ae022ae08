// Package session runs one respondent through their flow. It composes the
// flow builder, progress controller, answer store, allocation state and
// follow-up orchestrator, and exposes two capability sets: the respondent
// operations on Session and the privileged operations on Admin.
//
// A Session is not safe for concurrent use. Drivers serialize respondent
// input and admin commands onto one goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dyluth/warren/internal/allocation"
	"github.com/dyluth/warren/internal/export"
	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/internal/progress"
	"github.com/dyluth/warren/internal/rng"
	"github.com/dyluth/warren/internal/rows"
	"github.com/dyluth/warren/pkg/kv"
	"github.com/dyluth/warren/pkg/scenario"
)

const storeTimeout = 2 * time.Second

var (
	// ErrFollowupOpen is returned by navigation and confirmation while a
	// follow-up blocks the screen.
	ErrFollowupOpen = errors.New("a follow-up question is open")

	// ErrComplete is returned by screen operations after the last screen.
	ErrComplete = errors.New("the flow is complete")
)

// Submitter delivers the finished wide row. *ingest.Client implements it.
type Submitter interface {
	Append(ctx context.Context, headers []string, row map[string]any) error
}

// Config describes one respondent session.
type Config struct {
	// ID scopes every stored key. Empty generates a new one.
	ID string

	// Seed drives the flow and the option shuffles. Empty reuses the stored
	// seed of the session, or the session ID for a new session.
	Seed string

	Options     scenario.Options
	Policy      followup.Policy
	StorageName string
	Amount      float64
	UA          string

	// DefaultValue is option B's starting share. Nil selects
	// allocation.DefaultValue.
	DefaultValue *int

	// CompletionCode is used instead of a generated code when set.
	CompletionCode string

	Demographics export.Demographics
}

// Session is one respondent's run through the flow.
type Session struct {
	cfg      Config
	flow     *scenario.Flow
	seed     string
	poolSeed uint32

	progress *progress.Controller
	rows     *rows.Store
	alloc    *allocation.State
	fup      *followup.Orchestrator

	store     kv.Store
	submitter Submitter
	log       *zap.Logger
	now       func() time.Time
	onExit    func()
	onFinish  func()

	ghost     bool
	code      string
	enteredAt time.Time
	finished  bool
}

// Option configures a Session.
type Option func(*Session)

// WithStore persists the session to a key-value store. Without one the
// session lives in memory only.
func WithStore(store kv.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithSubmitter sets where the finished response is sent.
func WithSubmitter(sub Submitter) Option {
	return func(s *Session) { s.submitter = sub }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithExit registers the callback run when the respondent goes back from
// the first screen.
func WithExit(fn func()) Option {
	return func(s *Session) { s.onExit = fn }
}

// WithFinish registers the callback run when the survey is finished.
func WithFinish(fn func()) Option {
	return func(s *Session) { s.onFinish = fn }
}

// New builds or restores a session. A flow construction failure is logged
// and the session continues on the single-baseline fallback flow.
func New(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	s := &Session{
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "session"))

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Policy.ReasonTags == nil && !cfg.Policy.RequireReasonOnConfirm {
		cfg.Policy = followup.DefaultPolicy()
	}
	if cfg.DefaultValue == nil {
		v := allocation.DefaultValue
		cfg.DefaultValue = &v
	}
	if cfg.Amount <= 0 {
		cfg.Amount = allocation.DefaultAmount
	}
	if cfg.Demographics.RespID == "" {
		cfg.Demographics.RespID = cfg.ID
	}
	s.cfg = cfg

	s.seed = s.resolveSeed(ctx)
	s.poolSeed = rng.FromString(s.seed).Seed()

	flow, err := scenario.BuildOrFallback(s.seed, cfg.Options)
	if err != nil {
		s.log.Error("scenario_build_failed", zap.String("seed", s.seed), zap.Error(err))
	}
	if flow.Len() == 0 {
		return nil, scenario.ErrEmptyFlow
	}
	s.flow = flow

	rowsKey := kv.RowsKey(cfg.ID, cfg.StorageName, flow.Len())
	s.rows = rows.Open(ctx, s.store, rowsKey, s.log)

	popts := []progress.Option{progress.WithLogger(s.log), progress.WithExit(s.exit)}
	if s.store != nil {
		popts = append(popts, progress.WithStore(s.store, kv.ProgressKey(cfg.ID)))
	}
	s.progress = progress.New(ctx, flow.Len(), popts...)

	if s.store != nil {
		var ghost bool
		if err := s.store.Get(ctx, kv.GhostKey(cfg.ID), &ghost); err == nil {
			s.ghost = ghost
		}
	}

	s.alloc = allocation.New(*cfg.DefaultValue)
	s.fup = followup.New(cfg.Policy, s.poolSeed, s.rows, s.log)
	s.enter()
	s.skipAnswered()

	s.log.Info("session_started",
		zap.String("session", cfg.ID),
		zap.String("group", string(flow.Meta.GroupKey)),
		zap.Ints("block_order", flow.Meta.BlockOrder[:]),
		zap.Int("screens", flow.Len()),
		zap.Int("index", s.progress.Index()),
		zap.Bool("fallback", flow.Meta.Fallback))
	return s, nil
}

// resolveSeed picks the configured seed, else the stored one, else the
// session ID, and stores the result.
func (s *Session) resolveSeed(ctx context.Context) string {
	seed := s.cfg.Seed
	if seed == "" && s.store != nil {
		if err := s.store.Get(ctx, kv.PoolSeedKey(s.cfg.ID), &seed); err != nil && !kv.IsNotFound(err) {
			s.log.Debug("seed restore failed", zap.Error(err))
		}
	}
	if seed == "" {
		seed = s.cfg.ID
	}
	s.save(kv.PoolSeedKey(s.cfg.ID), seed)
	return seed
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.cfg.ID }

// Flow returns the respondent's flow.
func (s *Session) Flow() *scenario.Flow { return s.flow }

// Seed returns the seed the flow was built from.
func (s *Session) Seed() string { return s.seed }

// PoolSeed returns the numeric seed used for option shuffles.
func (s *Session) PoolSeed() uint32 { return s.poolSeed }

// Rows returns the recorded answers sorted by order.
func (s *Session) Rows() []rows.AnswerRow { return s.rows.All() }

// Ghost reports whether persistence is suppressed.
func (s *Session) Ghost() bool { return s.ghost }

// Finished reports whether the survey was finished.
func (s *Session) Finished() bool { return s.finished }

// Current returns the screen being shown.
func (s *Session) Current() (scenario.Instance, bool) {
	return s.flow.At(s.progress.Index())
}

// WideRow flattens the recorded answers into the export row.
func (s *Session) WideRow() map[string]any {
	answers := s.rows.All()
	meta := export.MetaFor(s.flow, answers, s.poolSeed, s.cfg.UA, s.CompletionCode())
	return export.BuildWideRow(answers, s.cfg.Demographics, meta)
}

// enter prepares the allocation and follow-up state for the current screen.
func (s *Session) enter() {
	s.enteredAt = s.now()
	in, ok := s.Current()
	if !ok {
		return
	}
	var confirmed *int
	if r, found := s.rows.Find(in.Order); found {
		v := r.RiskyShare
		confirmed = &v
	}
	s.alloc.Reset(confirmed, s.progress.ViewingPast())
	s.fup.Enter(in, s.progress.Index())
}

// skipAnswered moves past screens at Furthest that already have a row and no
// open follow-up, left behind when a progress write was lost.
func (s *Session) skipAnswered() {
	for !s.progress.Complete() && !s.progress.ViewingPast() && !s.fup.Blocking() {
		in, ok := s.Current()
		if !ok {
			return
		}
		if _, found := s.rows.Find(in.Order); !found {
			return
		}
		s.log.Info("skipping_answered_screen", zap.String("session", s.cfg.ID), zap.Int("order", in.Order))
		s.advance()
	}
}

// advance moves to the next screen once every follow-up is resolved.
func (s *Session) advance() {
	s.progress.NextLinear()
	if s.progress.Complete() {
		s.log.Info("flow_complete", zap.String("session", s.cfg.ID), zap.Int("rows", s.rows.Len()))
		return
	}
	s.enter()
}

func (s *Session) finish() {
	if s.finished {
		return
	}
	s.finished = true
	s.log.Info("survey_finished", zap.String("session", s.cfg.ID), zap.Bool("ghost", s.ghost))
	if s.onFinish != nil {
		s.onFinish()
	}
}

func (s *Session) exit() {
	s.log.Info("session_exit", zap.String("session", s.cfg.ID))
	if s.onExit != nil {
		s.onExit()
	}
}

// save writes a value on a best-effort basis.
func (s *Session) save(key string, v any) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.Set(ctx, key, v); err != nil {
		s.log.Debug("session persist failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Session) screen() (scenario.Instance, error) {
	in, ok := s.Current()
	if !ok {
		return scenario.Instance{}, ErrComplete
	}
	return in, nil
}

func wrapSubmit(err error) error {
	return fmt.Errorf("failed to submit response: %w", err)
}
