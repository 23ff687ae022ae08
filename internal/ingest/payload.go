// Package ingest implements the append-only collection endpoint for finished
// responses: the client used by survey sessions, the HTTP server and its
// CSV and Postgres sinks.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// AppendPath is the route that accepts one wide row.
const AppendPath = "/api/appendRow"

// HealthPath is the liveness route.
const HealthPath = "/api/health"

// APIKeyHeader carries the shared secret.
const APIKeyHeader = "x-api-key"

// Payload is the body of an append request. Row keys are expected to match
// Headers; missing keys are written as empty values.
type Payload struct {
	Headers []string        `json:"headers"`
	Row     json.RawMessage `json:"row"`
}

// Response is returned by every endpoint.
type Response struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

var errBadPayload = errors.New("bad payload")

// decodeRow validates the payload shape and returns the row as a map.
func (p Payload) decodeRow() (map[string]any, error) {
	if len(p.Headers) == 0 {
		return nil, fmt.Errorf("%w: headers must be a non-empty array", errBadPayload)
	}
	var row map[string]any
	if err := json.Unmarshal(p.Row, &row); err != nil || row == nil {
		return nil, fmt.Errorf("%w: row must be an object", errBadPayload)
	}
	return row, nil
}

// Sink persists accepted rows.
type Sink interface {
	Append(ctx context.Context, headers []string, row map[string]any) error
	Close() error
}

// Pinger is implemented by sinks that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Tee writes every row to all sinks in order and stops at the first error.
type Tee []Sink

// Append writes the row to every sink in turn and stops at the first error.
func (t Tee) Append(ctx context.Context, headers []string, row map[string]any) error {
	for _, s := range t {
		if err := s.Append(ctx, headers, row); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink.
func (t Tee) Close() error {
	var errs []error
	for _, s := range t {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ping checks every sink that supports it.
func (t Tee) Ping(ctx context.Context) error {
	for _, s := range t {
		if p, ok := s.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
