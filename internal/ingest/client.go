package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrSaveFailed is returned for any failed submission, whether the network
// failed or the server answered with a non-2xx status.
var ErrSaveFailed = errors.New("saving failed")

// Client submits finished responses. Submissions are never retried.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, secret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    httpClient,
	}
}

// Append posts one wide row. Any failure wraps ErrSaveFailed; the server's
// error message is included when present.
func (c *Client) Append(ctx context.Context, headers []string, row map[string]any) error {
	rawRow, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("%w: failed to encode row: %v", ErrSaveFailed, err)
	}
	body, err := json.Marshal(Payload{Headers: headers, Row: rawRow})
	if err != nil {
		return fmt.Errorf("%w: failed to encode payload: %v", ErrSaveFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AppendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := resp.Status
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var r Response
		if json.Unmarshal(raw, &r) == nil && r.Error != "" {
			msg = r.Error
		}
		return fmt.Errorf("%w: append failed: %s", ErrSaveFailed, msg)
	}
	return nil
}
