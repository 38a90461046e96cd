// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package connectors manages tenant data-source connectors over a
// remote API with a transparent local fallback.
//
// The Manager owns a one-way state machine: it starts remote-preferred
// and latches to local-only on the first remote failure, for the life
// of the instance. Local records live in a single cross-tenant
// collection filtered by tenant id, matching the legacy browser
// storage layout.
package connectors

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LocalIDPrefix marks identifiers generated by the local fallback
// path. Ids carrying it are never looked up remotely.
const LocalIDPrefix = "connector-"

// ConnectorStatus is the sync lifecycle state of a connector.
type ConnectorStatus string

const (
	StatusActive   ConnectorStatus = "active"
	StatusInactive ConnectorStatus = "inactive"
	StatusError    ConnectorStatus = "error"
	StatusSyncing  ConnectorStatus = "syncing"
	StatusTesting  ConnectorStatus = "testing"
)

// ConnectorMetadata carries sync bookkeeping in the local shape.
type ConnectorMetadata struct {
	TotalRecords     int    `json:"totalRecords,omitempty"`
	LastSyncDuration string `json:"lastSyncDuration,omitempty"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
}

// TenantConnector is the local (legacy) connector shape. Config is an
// opaque credential map: remote reads always leave it empty, so only
// locally-added, never-synced connectors can hold real credentials in
// local storage.
type TenantConnector struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenantId"`
	ConnectorID   string            `json:"connectorId"`
	Name          string            `json:"name"`
	Category      string            `json:"category,omitempty"`
	Icon          string            `json:"icon,omitempty"`
	Config        map[string]any    `json:"config,omitempty"`
	DataTypes     []string          `json:"dataTypes,omitempty"`
	Status        ConnectorStatus   `json:"status"`
	LastSync      *time.Time        `json:"lastSync,omitempty"`
	SyncFrequency string            `json:"syncFrequency,omitempty"`
	Metadata      ConnectorMetadata `json:"metadata"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	CreatedBy     string            `json:"createdBy,omitempty"`
}

// RecordID implements store.Record.
func (c TenantConnector) RecordID() string { return c.ID }

// RemoteMetadata is the wire form of connector sync bookkeeping.
type RemoteMetadata struct {
	TotalRecords     int    `json:"total_records,omitempty"`
	LastSyncDuration string `json:"last_sync_duration,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// RemoteConnector mirrors the connector API's response shape.
type RemoteConnector struct {
	ConnectorID   string          `json:"connector_id"`
	TenantID      string          `json:"tenant_id"`
	ConnectorType string          `json:"connector_type"`
	ConnectorName string          `json:"connector_name"`
	DisplayName   string          `json:"display_name"`
	Category      string          `json:"category,omitempty"`
	Icon          string          `json:"icon,omitempty"`
	DataTypes     []string        `json:"data_types,omitempty"`
	Status        ConnectorStatus `json:"status"`
	LastSync      *time.Time      `json:"last_sync,omitempty"`
	SyncFrequency string          `json:"sync_frequency,omitempty"`
	Metadata      RemoteMetadata  `json:"metadata"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// CreateRequest is the POST /v1/connectors payload.
type CreateRequest struct {
	ConnectorType string         `json:"connector_type"`
	DisplayName   string         `json:"display_name"`
	Config        map[string]any `json:"config,omitempty"`
	SyncFrequency string         `json:"sync_frequency,omitempty"`
}

// ToTenantConnector converts the wire shape to the local one. Config
// is always left empty: the remote is the only holder of credentials,
// and they must never round-trip back into local storage.
func (rc RemoteConnector) ToTenantConnector() TenantConnector {
	name := rc.DisplayName
	if name == "" {
		name = rc.ConnectorName
	}
	return TenantConnector{
		ID:            rc.ConnectorID,
		TenantID:      rc.TenantID,
		ConnectorID:   rc.ConnectorType,
		Name:          name,
		Category:      rc.Category,
		Icon:          rc.Icon,
		Config:        map[string]any{},
		DataTypes:     rc.DataTypes,
		Status:        rc.Status,
		LastSync:      rc.LastSync,
		SyncFrequency: rc.SyncFrequency,
		Metadata: ConnectorMetadata{
			TotalRecords:     rc.Metadata.TotalRecords,
			LastSyncDuration: rc.Metadata.LastSyncDuration,
			ErrorMessage:     rc.Metadata.ErrorMessage,
		},
		CreatedAt: rc.CreatedAt,
		UpdatedAt: rc.UpdatedAt,
		CreatedBy: rc.CreatedBy,
	}
}

// NewLocalID generates a fallback identifier in the
// connector-<timestamp>-<random suffix> form.
func NewLocalID() string {
	return fmt.Sprintf("%s%d-%s", LocalIDPrefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}
