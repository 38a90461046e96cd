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

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dyocense/localcore/services/dashboard/events"
	"github.com/dyocense/localcore/services/dashboard/middleware"
)

const (
	// wsFeedBuffer is the per-connection event queue. A client that
	// cannot drain this many events starts losing the oldest ones;
	// publishers are never blocked by a slow socket.
	wsFeedBuffer = 64

	// wsPingInterval keeps idle connections alive through proxies.
	wsPingInterval = 30 * time.Second

	// wsControlTimeout bounds ping writes.
	wsControlTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	// The daemon binds loopback; browser origin checks add nothing.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func sendEventJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleEventsWS handles GET /v1/events.
//
// Description:
//
//	Upgrades to a WebSocket and streams the tenant's events as JSON
//	envelopes. The subscription is dropped when the client
//	disconnects.
//
// Query Parameters:
//
//	types: Comma-separated event types to receive (optional, default all)
//	replay: Number of buffered recent events to send on connect (optional)
func (h *Handlers) HandleEventsWS(c *gin.Context) {
	tenantID := middleware.GetTenant(c)

	var wanted []events.Type
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				wanted = append(wanted, events.Type(t))
			}
		}
	}
	replay, _ := strconv.Atoi(c.Query("replay"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()
	slog.Info("Event feed client connected", "tenant_id", tenantID)

	tenantFilter := events.ForTenant(tenantID)

	feed := make(chan events.Event, wsFeedBuffer)
	subID := h.svc.Bus().SubscribeWithFilter(func(e events.Event) {
		select {
		case feed <- e:
		default:
			// Queue full: shed the event rather than stall the
			// publisher.
		}
	}, tenantFilter, wanted...)
	defer h.svc.Bus().Unsubscribe(subID)

	// Subscribed before replaying, so nothing can fall between the
	// buffer snapshot and the live feed. An event published during
	// the overlap arrives twice; clients dedupe on the event id.
	if replay > 0 {
		for _, e := range h.svc.Bus().Recent(replay) {
			if !tenantFilter(e) || !typeWanted(e.Type, wanted) {
				continue
			}
			if sendEventJSON(ws, e) != nil {
				return
			}
		}
	}

	// Reads only matter for disconnect detection; the feed is one-way.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			slog.Info("Event feed client disconnected", "tenant_id", tenantID)
			return
		case e := <-feed:
			if sendEventJSON(ws, e) != nil {
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(wsControlTimeout)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				slog.Info("Event feed ping failed, closing", "error", err)
				return
			}
		}
	}
}

func typeWanted(t events.Type, wanted []events.Type) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if w == t {
			return true
		}
	}
	return false
}
