// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the dashboard service.
//
// # Authentication Flow
//
// The auth middleware extracts a bearer token from the Authorization
// header and compares it against the configured service token:
//
//	Request
//	   │
//	   ▼
//	AuthMiddleware
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   └─► Constant-time compare against the configured token
//	           │
//	           ▼
//	TenantMiddleware
//	   │
//	   └─► Read X-Tenant-ID, store in context (default "local")
//	           │
//	           ▼
//	       Handler (retrieves via GetTenant)
//
// # Local Mode
//
// With an empty configured token all requests are accepted. This is
// the single-user desktop deployment, where the daemon binds loopback
// and authentication infrastructure would be pure ceremony.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// =============================================================================
// Context Keys
// =============================================================================

// tenantKey is the context key for the resolved tenant id.
// Using a typed key prevents collisions with other context values.
const tenantKey = "dyocense_tenant"

// TenantHeader is the request header carrying the tenant id.
const TenantHeader = "X-Tenant-ID"

// DefaultTenant is assumed when no tenant header is present. Desktop
// installs are single-tenant and never send the header.
const DefaultTenant = "local"

// =============================================================================
// Context Helpers
// =============================================================================

// SetTenant stores the resolved tenant id in the Gin context.
func SetTenant(c *gin.Context, tenant string) {
	c.Set(tenantKey, tenant)
}

// GetTenant retrieves the tenant id resolved by TenantMiddleware.
// Returns DefaultTenant if the middleware did not run, so handlers
// can always scope storage keys.
func GetTenant(c *gin.Context) string {
	if v, exists := c.Get(tenantKey); exists {
		if tenant, ok := v.(string); ok && tenant != "" {
			return tenant
		}
	}
	return DefaultTenant
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware creates a Gin middleware that authenticates requests
// against a single static bearer token.
//
// # Description
//
// Extracts the bearer token from the Authorization header and compares
// it in constant time against the configured token. An empty configured
// token disables authentication entirely.
//
// # Limitations
//
//   - Only supports Bearer token authentication
//   - One token for the whole service; there is no per-user identity
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func AuthMiddleware(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		presented := extractBearerToken(c)
		if subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		c.Next()
	}
}

// =============================================================================
// Tenant Middleware
// =============================================================================

// TenantMiddleware resolves the tenant id for the request and stores
// it in the context. The X-Tenant-ID header wins; absent that, the
// request is attributed to DefaultTenant.
//
// Tenant ids are restricted to a conservative character set because
// they are embedded into storage keys and backup object names.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := strings.TrimSpace(c.GetHeader(TenantHeader))
		if tenant == "" {
			tenant = DefaultTenant
		}
		if !validTenantID(tenant) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid tenant id",
			})
			return
		}

		SetTenant(c, tenant)
		c.Next()
	}
}

// validTenantID accepts letters, digits, '-', '_' and '.', up to 128
// bytes. Rejects path separators and key delimiters outright.
func validTenantID(s string) bool {
	if len(s) == 0 || len(s) > 128 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// =============================================================================
// Helper Functions
// =============================================================================

// extractBearerToken extracts the token from the Authorization header.
// Returns empty string if the header is missing or malformed. The
// "Bearer" prefix is case-insensitive per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
