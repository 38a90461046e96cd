// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultBufferSize bounds the ring of recent events kept for late
// subscribers like a freshly opened websocket.
const defaultBufferSize = 256

// Handler processes one event.
type Handler func(Event)

// Filter decides whether a subscription wants an event.
type Filter func(Event) bool

type subscription struct {
	id      string
	handler Handler
	filter  Filter
	types   []Type
}

// Bus is a synchronous in-process pub-sub bus with a bounded buffer of
// recent events.
//
// Thread Safety: Bus is safe for concurrent use. Handlers run on the
// publisher's goroutine; a panicking handler is recovered and logged so
// it cannot take the publisher down.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string]*subscription
	buffer     []Event
	bufferSize int
	logger     *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBufferSize overrides the recent-event buffer length.
func WithBufferSize(size int) BusOption {
	return func(b *Bus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// WithLogger routes handler-panic reports through the given logger.
func WithLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:       make(map[string]*subscription),
		bufferSize: defaultBufferSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.buffer = make([]Event, 0, b.bufferSize)
	return b
}

// Subscribe registers a handler for the given types; no types means
// every event. Returns a subscription id for Unsubscribe.
func (b *Bus) Subscribe(handler Handler, types ...Type) string {
	return b.SubscribeWithFilter(handler, nil, types...)
}

// SubscribeWithFilter registers a handler with a custom filter on top
// of the type list. ForTenant is the common filter.
func (b *Bus) SubscribeWithFilter(handler Handler, filter Filter, types ...Type) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{
		id:      uuid.NewString(),
		handler: handler,
		filter:  filter,
		types:   types,
	}
	b.subs[sub.id] = sub
	return sub.id
}

// Unsubscribe removes a subscription, reporting whether it existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[id]; !ok {
		return false
	}
	delete(b.subs, id)
	return true
}

// Publish stamps and delivers an event to every matching subscriber,
// then records it in the recent buffer.
func (b *Bus) Publish(eventType Type, tenantID string, data any) Event {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.Lock()
	if len(b.buffer) >= b.bufferSize {
		b.buffer = b.buffer[1:]
	}
	b.buffer = append(b.buffer, event)
	subs := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		if sub.wants(event) {
			b.safeInvoke(sub.handler, event)
		}
	}
	return event
}

// Recent returns up to n buffered events, oldest first. n <= 0 returns
// the whole buffer.
func (b *Bus) Recent(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > len(b.buffer) {
		n = len(b.buffer)
	}
	out := make([]Event, n)
	copy(out, b.buffer[len(b.buffer)-n:])
	return out
}

// ForTenant builds a filter passing only one tenant's events. Events
// published without a tenant pass for everyone.
func ForTenant(tenantID string) Filter {
	return func(e Event) bool {
		return e.TenantID == "" || e.TenantID == tenantID
	}
}

func (s *subscription) wants(e Event) bool {
	if len(s.types) > 0 {
		match := false
		for _, t := range s.types {
			if t == e.Type {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return s.filter == nil || s.filter(e)
}

func (b *Bus) safeInvoke(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event_type", string(event.Type)),
				slog.String("event_id", event.ID),
				slog.Any("panic", r))
		}
	}()
	handler(event)
}
