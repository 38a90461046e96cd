// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package main contains unit tests for client.go.

# Testing Strategy

These tests use httptest to stand in for the dashboard daemon:
  - Mock successful responses for the typed endpoint methods
  - Mock the daemon's ErrorResponse shape for error decoding
  - Mock non-JSON failures (proxies, crashed daemons)

All tests run fast and in isolation; no real daemon is started.

# Test Coverage

The tests cover:
  - Base URL resolution precedence (flag, environment, default)
  - Header propagation (tenant, bearer token, content type)
  - Typed error decoding and code matching via hasAPICode
  - Request paths, methods, and query strings per endpoint
  - Connection failures against unreachable addresses
*/
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/dyocense/localcore/services/dashboard"
	"github.com/dyocense/localcore/services/dashboard/goals"
	"github.com/dyocense/localcore/services/dashboard/plans"
)

// -----------------------------------------------------------------------------
// Test Helpers
// -----------------------------------------------------------------------------

// newTestClient points an apiClient at a mock daemon.
func newTestClient(serverBase string) *apiClient {
	return &apiClient{
		baseURL: serverBase,
		tenant:  "tenant-test",
		http:    http.DefaultClient,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// -----------------------------------------------------------------------------
// getDaemonBaseURL Tests
// -----------------------------------------------------------------------------

func TestGetDaemonBaseURL_Default(t *testing.T) {
	origFlag := serverURL
	defer func() { serverURL = origFlag }()
	serverURL = ""
	os.Unsetenv("DYOCENSE_DAEMON_URL")

	got := getDaemonBaseURL()
	want := fmt.Sprintf("http://%s:%d", DefaultDaemonHost, DefaultDaemonPort)

	if got != want {
		t.Errorf("getDaemonBaseURL() = %q, want %q", got, want)
	}
}

func TestGetDaemonBaseURL_EnvOverride(t *testing.T) {
	origFlag := serverURL
	defer func() { serverURL = origFlag }()
	defer os.Unsetenv("DYOCENSE_DAEMON_URL")

	serverURL = ""
	os.Setenv("DYOCENSE_DAEMON_URL", "http://daemon.internal:9000")

	if got := getDaemonBaseURL(); got != "http://daemon.internal:9000" {
		t.Errorf("expected env URL, got %q", got)
	}
}

func TestGetDaemonBaseURL_FlagWinsOverEnv(t *testing.T) {
	origFlag := serverURL
	defer func() { serverURL = origFlag }()
	defer os.Unsetenv("DYOCENSE_DAEMON_URL")

	serverURL = "http://flagged:8000"
	os.Setenv("DYOCENSE_DAEMON_URL", "http://daemon.internal:9000")

	if got := getDaemonBaseURL(); got != "http://flagged:8000" {
		t.Errorf("expected flag URL to win, got %q", got)
	}
}

// -----------------------------------------------------------------------------
// Header Propagation Tests
// -----------------------------------------------------------------------------

func TestDo_SetsTenantHeader(t *testing.T) {
	var gotTenant string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get("X-Tenant-ID")
		writeJSON(w, http.StatusOK, dashboard.HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Health(); err != nil {
		t.Fatalf("Health() failed: %v", err)
	}

	if gotTenant != "tenant-test" {
		t.Errorf("expected X-Tenant-ID 'tenant-test', got %q", gotTenant)
	}
}

func TestDo_SetsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, dashboard.HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.token = "secret-token"

	if _, err := client.Health(); err != nil {
		t.Fatalf("Health() failed: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
}

func TestDo_NoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, dashboard.HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Health(); err != nil {
		t.Fatalf("Health() failed: %v", err)
	}

	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestDo_ContentTypeForBodies(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		writeJSON(w, http.StatusOK, goals.ValidationResult{Valid: true})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Validate(goals.GoalVersion{Title: "x"}); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", gotContentType)
	}
}

// -----------------------------------------------------------------------------
// Error Decoding Tests
// -----------------------------------------------------------------------------

func TestDo_DecodesDaemonError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, dashboard.ErrorResponse{
			Error: "version 9 not found",
			Code:  "VERSION_NOT_FOUND",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GoalHistory("goal-1")

	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var ae *apiError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apiError, got %T", err)
	}

	if ae.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", ae.Status)
	}
	if ae.Code != "VERSION_NOT_FOUND" {
		t.Errorf("expected code VERSION_NOT_FOUND, got %q", ae.Code)
	}
	if ae.Message != "version 9 not found" {
		t.Errorf("expected daemon message, got %q", ae.Message)
	}
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GoalHistory("goal-1")

	if err == nil {
		t.Fatal("expected error for 502 response")
	}

	var ae *apiError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apiError, got %T", err)
	}

	if ae.Code != "" {
		t.Errorf("expected empty code for non-JSON body, got %q", ae.Code)
	}
	if !strings.Contains(ae.Message, "502") {
		t.Errorf("message should mention the status, got %q", ae.Message)
	}
	if !strings.Contains(ae.Message, "upstream exploded") {
		t.Errorf("message should carry the raw body, got %q", ae.Message)
	}
}

func TestDo_ConnectionError(t *testing.T) {
	// Point at a port that is not listening
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.Health()

	if err == nil {
		t.Fatal("expected error for unreachable daemon")
	}
	if !strings.Contains(err.Error(), "could not reach the daemon") {
		t.Errorf("expected reachability message, got %q", err.Error())
	}
}

// -----------------------------------------------------------------------------
// apiError / hasAPICode Tests
// -----------------------------------------------------------------------------

func TestAPIError_ErrorWithCode(t *testing.T) {
	err := &apiError{Status: 404, Code: "PLAN_NOT_FOUND", Message: "no such plan"}

	if got := err.Error(); got != "no such plan (PLAN_NOT_FOUND)" {
		t.Errorf("Error() = %q, want message with code suffix", got)
	}
}

func TestAPIError_ErrorWithoutCode(t *testing.T) {
	err := &apiError{Status: 500, Message: "boom"}

	if got := err.Error(); got != "boom" {
		t.Errorf("Error() = %q, want bare message", got)
	}
}

func TestHasAPICode_Match(t *testing.T) {
	err := &apiError{Status: 404, Code: "NO_ACTIVE_PLAN", Message: "no active plan set"}

	if !hasAPICode(err, "NO_ACTIVE_PLAN") {
		t.Error("expected hasAPICode to match")
	}
}

func TestHasAPICode_Mismatch(t *testing.T) {
	err := &apiError{Status: 404, Code: "PLAN_NOT_FOUND", Message: "no such plan"}

	if hasAPICode(err, "NO_ACTIVE_PLAN") {
		t.Error("expected hasAPICode to reject a different code")
	}
}

func TestHasAPICode_WrappedError(t *testing.T) {
	inner := &apiError{Status: 404, Code: "NO_ACTIVE_PLAN", Message: "no active plan set"}
	wrapped := fmt.Errorf("fetching active plan: %w", inner)

	if !hasAPICode(wrapped, "NO_ACTIVE_PLAN") {
		t.Error("expected hasAPICode to unwrap")
	}
}

func TestHasAPICode_PlainError(t *testing.T) {
	if hasAPICode(errors.New("plain failure"), "NO_ACTIVE_PLAN") {
		t.Error("plain errors should never match a code")
	}
}

// -----------------------------------------------------------------------------
// Endpoint Path Tests
// -----------------------------------------------------------------------------

func TestGoalHistory_Path(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, goals.VersionHistory{GoalID: "goal-1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	hist, err := client.GoalHistory("goal-1")

	if err != nil {
		t.Fatalf("GoalHistory() failed: %v", err)
	}
	if gotPath != "/v1/goals/goal-1/versions" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if hist.GoalID != "goal-1" {
		t.Errorf("expected decoded goal ID, got %q", hist.GoalID)
	}
}

func TestCreateVersion_MethodAndBody(t *testing.T) {
	var gotMethod string
	var gotReq dashboard.CreateVersionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotReq)
		writeJSON(w, http.StatusCreated, goals.GoalVersion{GoalID: "goal-1", Version: 2})
	}))
	defer server.Close()

	title := "Grow revenue"
	client := newTestClient(server.URL)
	v, err := client.CreateVersion("goal-1", dashboard.CreateVersionRequest{
		Title:             &title,
		ChangeDescription: "initial",
	})

	if err != nil {
		t.Fatalf("CreateVersion() failed: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotReq.ChangeDescription != "initial" {
		t.Errorf("request body not forwarded, got %+v", gotReq)
	}
	if v.Version != 2 {
		t.Errorf("expected created version 2, got %d", v.Version)
	}
}

func TestCompare_QueryParams(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, dashboard.CompareResponse{GoalID: "goal-1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Compare("goal-1", 1, 3); err != nil {
		t.Fatalf("Compare() failed: %v", err)
	}

	if gotQuery != "from=1&to=3" {
		t.Errorf("unexpected query %q", gotQuery)
	}
}

func TestTrend_OmitsZeroLimit(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, dashboard.TrendResponse{GoalID: "goal-1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Trend("goal-1", 0); err != nil {
		t.Fatalf("Trend() failed: %v", err)
	}

	if gotQuery != "" {
		t.Errorf("expected no query for zero limit, got %q", gotQuery)
	}
}

func TestTrend_PassesLimit(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, dashboard.TrendResponse{GoalID: "goal-1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Trend("goal-1", 14); err != nil {
		t.Fatalf("Trend() failed: %v", err)
	}

	if gotQuery != "n=14" {
		t.Errorf("expected n=14, got %q", gotQuery)
	}
}

func TestSavePlan_UsesPut(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, plans.SavedPlan{ID: "plan-1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.SavePlan(plans.SavedPlan{ID: "plan-1"}); err != nil {
		t.Fatalf("SavePlan() failed: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("expected PUT, got %s", gotMethod)
	}
	if gotPath != "/v1/plans" {
		t.Errorf("unexpected path %q", gotPath)
	}
}

func TestListPlans_ProjectQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []plans.SavedPlan{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.ListPlans("proj-7"); err != nil {
		t.Fatalf("ListPlans() failed: %v", err)
	}

	if gotQuery != "projectId=proj-7" {
		t.Errorf("expected project query, got %q", gotQuery)
	}
}

func TestListPlans_NoProjectQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []plans.SavedPlan{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.ListPlans(""); err != nil {
		t.Fatalf("ListPlans() failed: %v", err)
	}

	if gotQuery != "" {
		t.Errorf("expected empty query, got %q", gotQuery)
	}
}

func TestActivePlan_NotSet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, dashboard.ErrorResponse{
			Error: "no active plan set",
			Code:  "NO_ACTIVE_PLAN",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ActivePlan("")

	if !hasAPICode(err, "NO_ACTIVE_PLAN") {
		t.Errorf("expected NO_ACTIVE_PLAN code, got %v", err)
	}
}

func TestDeleteConnector_MethodAndPath(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.DeleteConnector("conn-1"); err != nil {
		t.Fatalf("DeleteConnector() failed: %v", err)
	}

	if gotMethod != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", gotMethod)
	}
	if gotPath != "/v1/connectors/conn-1" {
		t.Errorf("unexpected path %q", gotPath)
	}
}

func TestCatalog_QueryParams(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, dashboard.CatalogResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Catalog("accounting", "quick"); err != nil {
		t.Fatalf("Catalog() failed: %v", err)
	}

	if !strings.Contains(gotQuery, "category=accounting") {
		t.Errorf("expected category param, got %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "q=quick") {
		t.Errorf("expected search param, got %q", gotQuery)
	}
}

func TestRestoreBackup_Body(t *testing.T) {
	var gotReq dashboard.RestoreRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		writeJSON(w, http.StatusOK, dashboard.RestoreResponse{Restored: 12})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	restored, err := client.RestoreBackup("backups/tenant-test/2026-01-02.json")

	if err != nil {
		t.Fatalf("RestoreBackup() failed: %v", err)
	}
	if gotReq.Object != "backups/tenant-test/2026-01-02.json" {
		t.Errorf("object not forwarded, got %q", gotReq.Object)
	}
	if restored != 12 {
		t.Errorf("expected 12 restored entries, got %d", restored)
	}
}

func TestHealth_DecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, dashboard.HealthResponse{
			Status:        "healthy",
			Version:       "1.2.0",
			ConnectorMode: "local",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	h, err := client.Health()

	if err != nil {
		t.Fatalf("Health() failed: %v", err)
	}
	if h.Status != "healthy" || h.Version != "1.2.0" || h.ConnectorMode != "local" {
		t.Errorf("unexpected health payload: %+v", h)
	}
}
