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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPClient_ListConnectors verifies the request shape, the bearer
// header, and decoding of the wire format.
func TestHTTPClient_ListConnectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/connectors", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]RemoteConnector{
			{ConnectorID: "c1", TenantID: "tenantA", ConnectorType: "quickbooks", DisplayName: "Books"},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL, Token: "secret-token"})

	list, err := client.ListConnectors(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ConnectorID)
	assert.Equal(t, "quickbooks", list[0].ConnectorType)
}

// TestHTTPClient_GetConnector verifies the id lands in the path.
func TestHTTPClient_GetConnector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/connectors/c1", r.URL.Path)
		json.NewEncoder(w).Encode(RemoteConnector{ConnectorID: "c1", DisplayName: "Books"})
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL, Token: "tok"})

	rc, err := client.GetConnector(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Books", rc.DisplayName)
}

// TestHTTPClient_CreateConnector verifies the snake_case request body.
func TestHTTPClient_CreateConnector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shopify", body["connector_type"])
		assert.Equal(t, "Shop", body["display_name"])
		assert.Equal(t, "hourly", body["sync_frequency"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(RemoteConnector{ConnectorID: "c9", ConnectorType: "shopify"})
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL, Token: "tok"})

	created, err := client.CreateConnector(context.Background(), CreateRequest{
		ConnectorType: "shopify",
		DisplayName:   "Shop",
		Config:        map[string]any{"api_key": "k"},
		SyncFrequency: "hourly",
	})
	require.NoError(t, err)
	assert.Equal(t, "c9", created.ConnectorID)
}

// TestHTTPClient_DeleteNoContent verifies a 204 reply is success with
// no body decode.
func TestHTTPClient_DeleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL, Token: "tok"})
	assert.NoError(t, client.DeleteConnector(context.Background(), "c1"))
}

// TestHTTPClient_ErrorStatus verifies non-2xx replies surface as
// APIError with the body captured, after exactly one attempt.
func TestHTTPClient_ErrorStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL, Token: "tok"})

	_, err := client.ListConnectors(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Contains(t, apiErr.Body, "maintenance")
	assert.Equal(t, int32(1), hits.Load())
}

// TestHTTPClient_NoToken verifies requests without a configured token
// omit the Authorization header rather than sending an empty bearer.
func TestHTTPClient_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]RemoteConnector{})
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL})

	_, err := client.ListConnectors(context.Background())
	assert.NoError(t, err)
}
