package rows

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dyluth/warren/pkg/kv"
)

const persistTimeout = 2 * time.Second

// Store is the ordered answer collection of one session. Every change is
// written through to the key-value store on a best-effort basis. It is not
// safe for concurrent use.
type Store struct {
	rows []AnswerRow
	kv   kv.Store
	key  string
	log  *zap.Logger
}

// Open loads the collection stored under key. A nil backend keeps the rows in
// memory only. Unreadable collections start empty.
func Open(ctx context.Context, backend kv.Store, key string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: backend, key: key, log: log}
	if backend == nil {
		return s
	}
	if err := backend.Get(ctx, key, &s.rows); err != nil {
		if !kv.IsNotFound(err) {
			log.Debug("rows restore failed", zap.String("key", key), zap.Error(err))
		}
		s.rows = nil
	}
	return s
}

// Key returns the storage key of the collection.
func (s *Store) Key() string { return s.key }

// Len returns the number of rows.
func (s *Store) Len() int { return len(s.rows) }

// InsertIfAbsent appends row unless a row with the same order and tag exists.
// It reports whether the row was added.
func (s *Store) InsertIfAbsent(row AnswerRow) bool {
	for _, r := range s.rows {
		if r.Order == row.Order && r.Tag == row.Tag {
			return false
		}
	}
	s.rows = append(s.rows, row)
	s.persist()
	return true
}

// WriteBack merges patch into the row with the given order. Without a
// matching row it does nothing and reports false.
func (s *Store) WriteBack(order int, patch Patch) bool {
	for i := range s.rows {
		if s.rows[i].Order == order {
			patch.apply(&s.rows[i])
			s.persist()
			return true
		}
	}
	return false
}

// Find returns the row with the given order.
func (s *Store) Find(order int) (AnswerRow, bool) {
	for _, r := range s.rows {
		if r.Order == order {
			return r, true
		}
	}
	return AnswerRow{}, false
}

// All returns a copy of the rows sorted by order.
func (s *Store) All() []AnswerRow {
	out := append([]AnswerRow(nil), s.rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// FirstBaseline returns the lowest-order baseline row, or the lowest-order
// row when no baseline was recorded.
func (s *Store) FirstBaseline() (AnswerRow, bool) {
	all := s.All()
	for _, r := range all {
		if r.IsBaseline {
			return r, true
		}
	}
	if len(all) == 0 {
		return AnswerRow{}, false
	}
	return all[0], true
}

// LastScenario returns the closing row: the latest final mirror, else the
// latest LAST row, else the row at intendedOrder, else the latest row.
func (s *Store) LastScenario(intendedOrder int) (AnswerRow, bool) {
	if len(s.rows) == 0 {
		return AnswerRow{}, false
	}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].IsLast && s.rows[i].IsMirror {
			return s.rows[i], true
		}
	}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].IsLast {
			return s.rows[i], true
		}
	}
	if r, ok := s.Find(intendedOrder); ok {
		return r, true
	}
	return s.rows[len(s.rows)-1], true
}

// TotalMsSpent sums the time spent on every confirmed screen.
func (s *Store) TotalMsSpent() int64 {
	var total int64
	for _, r := range s.rows {
		total += r.MsSpent
	}
	return total
}

func (s *Store) persist() {
	if s.kv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, s.key, s.rows); err != nil {
		s.log.Debug("rows persist failed", zap.String("key", s.key), zap.Error(err))
	}
}
