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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dyocense/localcore/pkg/ux"
	"github.com/dyocense/localcore/services/dashboard"
	"github.com/dyocense/localcore/services/dashboard/connectors/catalog"
	"github.com/spf13/cobra"
)

func runConnectorList(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	list, err := client.Connectors()
	if err != nil {
		fail("Could not list connectors", err)
	}

	if !jsonOut && !quietOut {
		ux.Title(fmt.Sprintf("Connectors (%d)", len(list)))
		for _, c := range list {
			lastSync := "never"
			if c.LastSync != nil {
				lastSync = c.LastSync.Format("2006-01-02 15:04")
			}
			fmt.Printf("  %-24s %-20s %-9s synced %-17s %s\n",
				c.Name, c.ConnectorID, c.Status, lastSync, c.SyncFrequency)
			if c.Metadata.ErrorMessage != "" {
				ux.Warning("    " + c.Metadata.ErrorMessage)
			}
		}
	}
	finish("connector list", start, list, false)
}

func runConnectorAdd(cmd *cobra.Command, args []string) {
	connectorID := args[0]
	start := time.Now()

	client := newAPIClient()

	req := dashboard.AddConnectorRequest{
		ConnectorID:   connectorID,
		Name:          connectorName,
		Category:      connectorCategory,
		SyncFrequency: connectorSync,
	}

	// Fill gaps from the marketplace catalog so the flags stay optional.
	if catalog, err := client.Catalog("", ""); err == nil {
		for _, def := range catalog.Connectors {
			if def.ID != connectorID {
				continue
			}
			if req.Name == "" {
				req.Name = def.Name
			}
			if req.Category == "" {
				req.Category = def.Category
			}
			if req.SyncFrequency == "" {
				req.SyncFrequency = def.DefaultSync
			}
			req.Icon = def.Icon
			req.DataTypes = def.DataTypes
			break
		}
	}
	if req.Name == "" {
		// Unknown to the catalog and no --name given; use the id.
		req.Name = connectorID
	}

	if len(connectorConfig) > 0 {
		req.Config = make(map[string]any, len(connectorConfig))
		for _, kv := range connectorConfig {
			key, value, found := strings.Cut(kv, "=")
			if !found || key == "" {
				fail("Invalid --config entry", fmt.Errorf("%q is not key=value", kv))
			}
			req.Config[key] = value
		}
	}

	created, err := client.AddConnector(req)
	if err != nil {
		fail("Could not add the connector", err)
	}

	if !jsonOut && !quietOut {
		ux.Success(fmt.Sprintf("Added connector %s (%s)", created.Name, created.ID))
		fmt.Printf("  Status:   %s\n", created.Status)
		if created.SyncFrequency != "" {
			fmt.Printf("  Sync:     %s\n", created.SyncFrequency)
		}
	}
	finish("connector add", start, created, false)
}

func runConnectorDelete(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	if err := client.DeleteConnector(args[0]); err != nil {
		fail("Could not delete the connector", err)
	}

	if !jsonOut && !quietOut {
		ux.Success(fmt.Sprintf("Removed connector %s", args[0]))
	}
	finish("connector delete", start, nil, false)
}

func runConnectorCatalog(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	resp, err := client.Catalog(catalogCategory, catalogSearch)
	if err != nil {
		fail("Could not load the catalog", err)
	}

	if !jsonOut && !quietOut {
		ux.Title(fmt.Sprintf("Connector catalog (%d of %d)", len(resp.Connectors), resp.Total))
		defs := make([]catalog.Definition, len(resp.Connectors))
		copy(defs, resp.Connectors)
		sort.Slice(defs, func(i, j int) bool {
			if defs[i].Category != defs[j].Category {
				return defs[i].Category < defs[j].Category
			}
			return defs[i].Name < defs[j].Name
		})
		lastCategory := ""
		for _, def := range defs {
			if def.Category != lastCategory {
				fmt.Printf("\n%s\n", strings.ToUpper(def.Category))
				lastCategory = def.Category
			}
			fmt.Printf("  %-24s %-20s auth:%-8s sync:%s\n", def.Name, def.ID, def.Auth, def.DefaultSync)
			if def.Description != "" {
				ux.Muted("    " + truncate(def.Description, 76))
			}
		}
	}
	finish("connector catalog", start, resp, false)
}
