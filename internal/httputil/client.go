// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP helper shared by the network backends.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnexpectedStatus is wrapped by GetJSON when the server answers with
// anything other than HTTP 200.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// maxErrorBody caps how much of a non-200 body is kept for the error message.
const maxErrorBody = 512

// GetJSON issues a single GET request and decodes a JSON body into v.
//
// The request is attempted exactly once: there is no retry on 429 or 5xx,
// callers recover through their own fallback chain instead. When timeout is
// positive it bounds the whole exchange, including reading the body. Any
// transport failure, non-200 status or malformed body is returned as an
// error.
func GetJSON(ctx context.Context, client *http.Client, reqURL string, header http.Header, timeout time.Duration, v any) error {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
