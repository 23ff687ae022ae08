package tally

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dyluth/warren/internal/rows"
	"github.com/dyluth/warren/internal/timespec"
	"github.com/dyluth/warren/pkg/kv"
)

// OutputFormat selects how rows are written.
type OutputFormat string

const (
	// OutputFormatDefault is a table with truncated follow-up text
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL writes complete rows as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Validate checks if the OutputFormat is a valid enum value.
func (f OutputFormat) Validate() error {
	switch f {
	case OutputFormatDefault, OutputFormatJSONL:
		return nil
	default:
		return fmt.Errorf("invalid output format: %q (must be 'default' or 'jsonl')", f)
	}
}

// FilterCriteria narrows the listed rows. All filters are ANDed.
type FilterCriteria struct {
	Window       timespec.Window // confirmation time
	TagGlob      string          // glob on the row tag, empty = no filter
	FollowupOnly bool            // only rows carrying a follow-up answer
}

func (fc *FilterCriteria) matches(r rows.AnswerRow) bool {
	if !fc.Window.Contains(r.TS) {
		return false
	}
	if fc.TagGlob != "" {
		matched, err := filepath.Match(fc.TagGlob, string(r.Tag))
		if err != nil || !matched {
			return false
		}
	}
	if fc.FollowupOnly && followupSummary(r) == "" {
		return false
	}
	return true
}

// Filter returns the rows matching fc. A nil fc keeps everything.
func Filter(answers []rows.AnswerRow, fc *FilterCriteria) []rows.AnswerRow {
	if fc == nil {
		return answers
	}
	var out []rows.AnswerRow
	for _, r := range answers {
		if fc.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Load reads the answer rows stored under key, sorted by order. A missing
// collection is empty.
func Load(ctx context.Context, store kv.Store, key string) ([]rows.AnswerRow, error) {
	var answers []rows.AnswerRow
	if err := store.Get(ctx, key, &answers); err != nil {
		if kv.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load rows: %w", err)
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].Order < answers[j].Order })
	return answers, nil
}

// ListRows loads a session's rows, applies filters and writes them in the
// requested format.
func ListRows(ctx context.Context, store kv.Store, session, key string, format OutputFormat, filters *FilterCriteria, w io.Writer) error {
	answers, err := Load(ctx, store, key)
	if err != nil {
		return err
	}
	answers = Filter(answers, filters)

	switch format {
	case OutputFormatJSONL:
		return FormatJSONL(w, answers)
	default:
		FormatTable(w, answers, session)
		return nil
	}
}

// ErrNoCollection is returned when a session has no stored rows.
var ErrNoCollection = errors.New("no answer collection found")

// FindRowsKey locates a session's answer collection for the storage name.
// The key embeds the flow length, so it is looked up rather than rebuilt.
func FindRowsKey(ctx context.Context, store kv.Store, session, storage string) (string, error) {
	prefix := strings.TrimSuffix(kv.RowsKey(session, storage, 0), "0")
	keys, err := store.Keys(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to list keys: %w", err)
	}
	for _, k := range keys {
		if strings.HasSuffix(k, finishCodeSuffix) {
			continue
		}
		return k, nil
	}
	return "", fmt.Errorf("%w for session '%s'", ErrNoCollection, session)
}

var finishCodeSuffix = strings.TrimPrefix(kv.FinishCodeKey("", "", 0), kv.RowsKey("", "", 0))

// Sessions returns the IDs of every session with stored state, sorted.
func Sessions(ctx context.Context, store kv.Store) ([]string, error) {
	keys, err := store.Keys(ctx, kv.Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, kv.Namespace)
		id, _, ok := strings.Cut(rest, ":")
		if ok && id != "" {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
