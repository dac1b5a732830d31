package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is a non-200 answer from a provider's HTTP API
type StatusError struct {
	Provider   string
	StatusCode int
	Type       string // Provider error type, when the body carries one
	Message    string
}

func (e *StatusError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s API error (%d): %s - %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Permanent reports whether repeating the same request cannot succeed:
// a rejected request, bad credentials, or an unknown model. Rate limits,
// overload and server errors are worth retrying.
func (e *StatusError) Permanent() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// errorDecoder extracts the type and message of a provider error body
type errorDecoder func(body []byte) (errType, message string)

// doJSON sends in as JSON (nil for a bodiless GET) and decodes a 200
// answer into out
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, in, out any, provider string, decodeErr errorDecoder) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		serr := &StatusError{Provider: provider, StatusCode: resp.StatusCode, Message: string(respBody)}
		if decodeErr != nil {
			if typ, msg := decodeErr(respBody); msg != "" {
				serr.Type, serr.Message = typ, msg
			}
		}
		return serr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
