// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses editor write bursts into one reload.
const reloadDebounce = 500 * time.Millisecond

// Watcher hot-reloads an external catalog file when it changes.
//
// # Thread Safety
//
// Safe for concurrent use. Start should only be called once.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback func(*Catalog)
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the external catalog file. The
// callback, when non-nil, receives each successfully reloaded catalog.
// Returns nil with no error when no external path is configured, since
// the embedded catalog cannot change at runtime.
func NewWatcher(callback func(*Catalog), logger *slog.Logger) (*Watcher, error) {
	path := externalPath()
	if path == "" {
		return nil, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		path:     path,
		watcher:  fw,
		callback: callback,
		logger:   logger.With(slog.String("component", "catalog_watcher")),
	}, nil
}

// Start begins watching the catalog file. Blocks until the context is
// cancelled; run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) {
	// Watch the directory rather than the file itself: editors that
	// rename-and-replace would otherwise orphan the watch.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("failed to watch catalog directory",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return
	}
	defer w.watcher.Close()

	w.logger.Info("watching connector catalog", slog.String("path", w.path))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", slog.String("error", err.Error()))

		case <-ctx.Done():
			w.logger.Debug("catalog watcher stopping")
			return
		}
	}
}

// reload drops the cached catalog and loads the new file. A bad file
// restores the previous snapshot so a fat-fingered edit never takes
// the marketplace down.
func (w *Watcher) reload(ctx context.Context) {
	catalogMu.RLock()
	prev := cachedCatalog
	catalogMu.RUnlock()

	Reset()
	c, err := Get(ctx)
	if err != nil {
		catalogMu.Lock()
		cachedCatalog = prev
		catalogLoadErr = nil
		catalogMu.Unlock()
		w.logger.Warn("catalog reload failed, keeping previous snapshot",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}

	w.logger.Info("connector catalog reloaded",
		slog.Int("entries", c.Count()),
		slog.String("source", c.Source()))

	if w.callback != nil {
		w.callback(c)
	}
}
