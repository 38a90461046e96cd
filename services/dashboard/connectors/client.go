// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/awnumar/memguard"
)

// Client is the remote connector API consumed by the Manager. It
// performs no retries and no backoff; all resilience lives in the
// Manager's fallback path.
type Client interface {
	ListConnectors(ctx context.Context) ([]RemoteConnector, error)
	GetConnector(ctx context.Context, id string) (*RemoteConnector, error)
	CreateConnector(ctx context.Context, req CreateRequest) (*RemoteConnector, error)
	DeleteConnector(ctx context.Context, id string) error
}

// APIError is a non-2xx response from the remote API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("connector API status %d: %s", e.Status, e.Body)
}

// maxErrorBody caps how much of an error response is retained.
const maxErrorBody = 8 << 10

// HTTPClientConfig configures the HTTP implementation of Client.
type HTTPClientConfig struct {
	// BaseURL is the API root, e.g. https://api.example.com.
	BaseURL string

	// Token is the bearer token presented on every request. It is
	// sealed into a memguard enclave immediately and only opened to
	// format the Authorization header.
	Token string

	// HTTPClient overrides the transport; nil gets a client with a
	// 30s timeout.
	HTTPClient *http.Client
}

// HTTPClient talks JSON over HTTP to the connector API.
type HTTPClient struct {
	baseURL string
	token   *memguard.Enclave
	httpc   *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client from cfg. The plaintext token is wiped
// from cfg's copy as a side effect of enclave sealing.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}

	var token *memguard.Enclave
	if cfg.Token != "" {
		token = memguard.NewEnclave([]byte(cfg.Token))
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   token,
		httpc:   httpc,
	}
}

// ListConnectors fetches every connector visible to the token.
func (c *HTTPClient) ListConnectors(ctx context.Context) ([]RemoteConnector, error) {
	var out []RemoteConnector
	if err := c.do(ctx, http.MethodGet, "/v1/connectors", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConnector fetches one connector by id.
func (c *HTTPClient) GetConnector(ctx context.Context, id string) (*RemoteConnector, error) {
	var out RemoteConnector
	if err := c.do(ctx, http.MethodGet, "/v1/connectors/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConnector registers a new connector.
func (c *HTTPClient) CreateConnector(ctx context.Context, req CreateRequest) (*RemoteConnector, error) {
	var out RemoteConnector
	if err := c.do(ctx, http.MethodPost, "/v1/connectors", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConnector removes a connector by id.
func (c *HTTPClient) DeleteConnector(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/connectors/"+id, nil, nil)
}

// do runs one request. A 204 is an empty success regardless of out;
// other 2xx bodies decode into out when non-nil; everything else comes
// back as *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authorize opens the token enclave just long enough to set the bearer
// header.
func (c *HTTPClient) authorize(req *http.Request) error {
	if c.token == nil {
		return nil
	}
	buf, err := c.token.Open()
	if err != nil {
		return fmt.Errorf("open token enclave: %w", err)
	}
	defer buf.Destroy()
	req.Header.Set("Authorization", "Bearer "+buf.String())
	return nil
}
