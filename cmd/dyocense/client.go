// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dyocense/localcore/services/dashboard"
	"github.com/dyocense/localcore/services/dashboard/connectors"
	"github.com/dyocense/localcore/services/dashboard/goals"
	"github.com/dyocense/localcore/services/dashboard/plans"
	"github.com/dyocense/localcore/services/dashboard/streaks"
)

// Constants for default connection settings
const (
	DefaultDaemonPort = 12400
	DefaultDaemonHost = "localhost"
)

// getDaemonBaseURL returns the standard address for the dashboard daemon.
func getDaemonBaseURL() string {
	// 1. Priority: the --server flag
	if serverURL != "" {
		return serverURL
	}
	// 2. Environment variable (used by tests and compose overrides)
	if url := os.Getenv("DYOCENSE_DAEMON_URL"); url != "" {
		return url
	}
	// 3. Default: standard host/port
	return fmt.Sprintf("http://%s:%d", DefaultDaemonHost, DefaultDaemonPort)
}

// apiClient talks JSON over HTTP to the dashboard daemon.
//
// # Description
//
// Every command goes through this client so tenant and auth headers are
// applied uniformly. Errors carry the daemon's message and code when
// the body parses as an ErrorResponse, otherwise the raw body.
//
// # Thread Safety
//
// Safe for concurrent use; the underlying http.Client is shared.
type apiClient struct {
	baseURL string
	tenant  string
	token   string
	http    *http.Client
}

// newAPIClient builds a client from the global flags and environment.
func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: getDaemonBaseURL(),
		tenant:  tenantID,
		token:   os.Getenv("DYOCENSE_AUTH_TOKEN"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends one request and decodes the response into out (when out is
// non-nil). Non-2xx responses become errors carrying the daemon's
// message.
func (c *apiClient) do(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tenant != "" {
		req.Header.Set("X-Tenant-ID", c.tenant)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach the daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError is a non-2xx daemon response. Code carries the daemon's
// machine-readable error code so commands can branch on specific
// conditions (e.g. NO_ACTIVE_PLAN) instead of string matching.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

// hasAPICode reports whether err is a daemon error with the given code.
func hasAPICode(err error, code string) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Code == code
}

// decodeAPIError turns a non-2xx response into an *apiError. The
// daemon's structured message wins; a body that is not JSON is passed
// through.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var er dashboard.ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != "" {
		return &apiError{Status: resp.StatusCode, Code: er.Code, Message: er.Error}
	}
	return &apiError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("daemon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
	}
}

// =============================================================================
// Goals
// =============================================================================

func (c *apiClient) GoalHistory(goalID string) (goals.VersionHistory, error) {
	var h goals.VersionHistory
	err := c.do(http.MethodGet, "/v1/goals/"+url.PathEscape(goalID)+"/versions", nil, &h)
	return h, err
}

func (c *apiClient) CreateVersion(goalID string, req dashboard.CreateVersionRequest) (goals.GoalVersion, error) {
	var v goals.GoalVersion
	err := c.do(http.MethodPost, "/v1/goals/"+url.PathEscape(goalID)+"/versions", req, &v)
	return v, err
}

func (c *apiClient) Rollback(goalID string, target int) (goals.GoalVersion, error) {
	var v goals.GoalVersion
	err := c.do(http.MethodPost, "/v1/goals/"+url.PathEscape(goalID)+"/rollback",
		dashboard.RollbackRequest{TargetVersion: target}, &v)
	return v, err
}

func (c *apiClient) Branch(goalID string, source int, name string) (goals.GoalVersion, error) {
	var v goals.GoalVersion
	err := c.do(http.MethodPost, "/v1/goals/"+url.PathEscape(goalID)+"/branch",
		dashboard.BranchRequest{SourceVersion: source, BranchName: name}, &v)
	return v, err
}

func (c *apiClient) Compare(goalID string, from, to int) (dashboard.CompareResponse, error) {
	var r dashboard.CompareResponse
	path := fmt.Sprintf("/v1/goals/%s/compare?from=%d&to=%d", url.PathEscape(goalID), from, to)
	err := c.do(http.MethodGet, path, nil, &r)
	return r, err
}

func (c *apiClient) Validate(v goals.GoalVersion) (goals.ValidationResult, error) {
	var r goals.ValidationResult
	err := c.do(http.MethodPost, "/v1/goals/validate", v, &r)
	return r, err
}

func (c *apiClient) Progress(v goals.GoalVersion) (goals.ProgressReport, error) {
	var r goals.ProgressReport
	err := c.do(http.MethodPost, "/v1/goals/progress", v, &r)
	return r, err
}

func (c *apiClient) Suggest(v goals.GoalVersion) ([]string, error) {
	var r dashboard.SuggestionsResponse
	err := c.do(http.MethodPost, "/v1/goals/suggestions", v, &r)
	return r.Suggestions, err
}

func (c *apiClient) Trend(goalID string, n int) (dashboard.TrendResponse, error) {
	var r dashboard.TrendResponse
	path := "/v1/goals/" + url.PathEscape(goalID) + "/trend"
	if n > 0 {
		path += "?n=" + strconv.Itoa(n)
	}
	err := c.do(http.MethodGet, path, nil, &r)
	return r, err
}

// =============================================================================
// Plans
// =============================================================================

func (c *apiClient) SavePlan(plan plans.SavedPlan) (plans.SavedPlan, error) {
	var saved plans.SavedPlan
	err := c.do(http.MethodPut, "/v1/plans", plan, &saved)
	return saved, err
}

func (c *apiClient) ListPlans(projectID string) ([]plans.SavedPlan, error) {
	var list []plans.SavedPlan
	err := c.do(http.MethodGet, "/v1/plans"+projectQuery(projectID), nil, &list)
	return list, err
}

func (c *apiClient) GetPlan(planID, projectID string) (plans.SavedPlan, error) {
	var p plans.SavedPlan
	err := c.do(http.MethodGet, "/v1/plans/"+url.PathEscape(planID)+projectQuery(projectID), nil, &p)
	return p, err
}

func (c *apiClient) DeletePlan(planID, projectID string) error {
	return c.do(http.MethodDelete, "/v1/plans/"+url.PathEscape(planID)+projectQuery(projectID), nil, nil)
}

func (c *apiClient) ActivatePlan(planID, projectID string) (plans.SavedPlan, error) {
	var p plans.SavedPlan
	err := c.do(http.MethodPut, "/v1/plans/active",
		dashboard.ActivePlanRequest{PlanID: planID, ProjectID: projectID}, &p)
	return p, err
}

func (c *apiClient) ActivePlan(projectID string) (plans.SavedPlan, error) {
	var p plans.SavedPlan
	err := c.do(http.MethodGet, "/v1/plans/active"+projectQuery(projectID), nil, &p)
	return p, err
}

func projectQuery(projectID string) string {
	if projectID == "" {
		return ""
	}
	return "?projectId=" + url.QueryEscape(projectID)
}

// =============================================================================
// Connectors
// =============================================================================

func (c *apiClient) Connectors() ([]connectors.TenantConnector, error) {
	var list []connectors.TenantConnector
	err := c.do(http.MethodGet, "/v1/connectors", nil, &list)
	return list, err
}

func (c *apiClient) AddConnector(req dashboard.AddConnectorRequest) (connectors.TenantConnector, error) {
	var created connectors.TenantConnector
	err := c.do(http.MethodPost, "/v1/connectors", req, &created)
	return created, err
}

func (c *apiClient) DeleteConnector(id string) error {
	return c.do(http.MethodDelete, "/v1/connectors/"+url.PathEscape(id), nil, nil)
}

func (c *apiClient) Catalog(category, search string) (dashboard.CatalogResponse, error) {
	var r dashboard.CatalogResponse
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if search != "" {
		q.Set("q", search)
	}
	path := "/v1/catalog"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	err := c.do(http.MethodGet, path, nil, &r)
	return r, err
}

// =============================================================================
// Streaks
// =============================================================================

func (c *apiClient) CheckIn() (streaks.StreakData, error) {
	var s streaks.StreakData
	err := c.do(http.MethodPost, "/v1/streaks", nil, &s)
	return s, err
}

func (c *apiClient) Streak() (streaks.StreakData, error) {
	var s streaks.StreakData
	err := c.do(http.MethodGet, "/v1/streaks", nil, &s)
	return s, err
}

// =============================================================================
// Backups
// =============================================================================

func (c *apiClient) CreateBackup() (string, error) {
	var r dashboard.BackupResponse
	err := c.do(http.MethodPost, "/v1/backups", nil, &r)
	return r.Object, err
}

func (c *apiClient) ListBackups() ([]string, error) {
	var r dashboard.BackupListResponse
	err := c.do(http.MethodGet, "/v1/backups", nil, &r)
	return r.Objects, err
}

func (c *apiClient) RestoreBackup(object string) (int, error) {
	var r dashboard.RestoreResponse
	err := c.do(http.MethodPost, "/v1/backups/restore", dashboard.RestoreRequest{Object: object}, &r)
	return r.Restored, err
}

// =============================================================================
// Health
// =============================================================================

func (c *apiClient) Health() (dashboard.HealthResponse, error) {
	var h dashboard.HealthResponse
	err := c.do(http.MethodGet, "/healthz", nil, &h)
	return h, err
}
