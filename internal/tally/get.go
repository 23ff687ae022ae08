package tally

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/warren/pkg/kv"
)

// RowNotFoundError reports a missing row.
type RowNotFoundError struct {
	Session string
	Order   int
}

// Error implements error.
func (e *RowNotFoundError) Error() string {
	return fmt.Sprintf("no answer with order %d in session '%s'", e.Order, e.Session)
}

// IsNotFound returns true if the error is a RowNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*RowNotFoundError)
	return ok
}

// GetRow writes the row with the given order as indented JSON.
func GetRow(ctx context.Context, store kv.Store, session, key string, order int, w io.Writer) error {
	answers, err := Load(ctx, store, key)
	if err != nil {
		return err
	}
	for _, r := range answers {
		if r.Order == order {
			return FormatSingleJSON(w, r)
		}
	}
	return &RowNotFoundError{Session: session, Order: order}
}
