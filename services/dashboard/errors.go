// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dashboard

import "errors"

// Sentinel errors for the dashboard service. The domain packages below
// this layer report missing records as nil results; the service maps
// those to sentinels so the HTTP boundary can pick status codes with
// errors.Is.
var (
	// ErrVersionNotFound indicates a referenced goal version does not exist.
	ErrVersionNotFound = errors.New("goal version not found")

	// ErrPlanNotFound indicates no plan with the given id exists.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrNoActivePlan indicates the tenant has no active plan pointer.
	ErrNoActivePlan = errors.New("no active plan")

	// ErrConnectorNotFound indicates no connector with the given id exists.
	ErrConnectorNotFound = errors.New("connector not found")

	// ErrCatalogUnavailable indicates the connector catalog failed to load.
	ErrCatalogUnavailable = errors.New("connector catalog unavailable")

	// ErrBackupsDisabled indicates no snapshot target is configured.
	ErrBackupsDisabled = errors.New("backups are not configured")
)
