// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch reloads a circuit when its instruction file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must be quiet before a reload.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc rebuilds state from the watched file.
type ReloadFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before a reload. Default: DefaultDebounce.
	Debounce time.Duration

	// Logger for watch events. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Watcher calls a ReloadFunc after the instruction file settles.
//
// Description:
//
//	The parent directory is watched rather than the file itself, so editors
//	that save by writing a temp file and renaming it over the original are
//	still seen. Events for other files in the directory are ignored. Bursts
//	of events inside the debounce window produce a single reload.
//
// Thread Safety:
//
//	Run must be called once. Reloads is safe for concurrent use.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	reload   ReloadFunc
	debounce time.Duration
	logger   *slog.Logger

	reloads  atomic.Int64
	failures atomic.Int64
}

// New starts watching the directory holding path.
//
// Inputs:
//
//	path - The instruction file. Its directory must exist.
//	reload - Called after each settled change. Must not be nil.
//	opts - Watch options.
//
// Outputs:
//
//	*Watcher - The watcher. Call Run to process events.
//	error - Non-nil if the directory cannot be watched.
func New(path string, reload ReloadFunc, opts Options) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watch: path must not be empty")
	}
	if reload == nil {
		return nil, errors.New("watch: reload must not be nil")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		fsw:      fsw,
		reload:   reload,
		debounce: opts.Debounce,
		logger:   opts.Logger.With(slog.String("file", abs)),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Reloads returns how many times the reload function has been called.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

// Failures returns how many reloads returned an error.
func (w *Watcher) Failures() int64 {
	return w.failures.Load()
}

// Run processes events until ctx is cancelled, then closes the watcher.
// A failing reload is logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.logger.Info("watching instruction file", slog.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("instruction file event", slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			w.fire(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) fire(ctx context.Context) {
	w.reloads.Add(1)
	start := time.Now()
	if err := w.reload(ctx); err != nil {
		w.failures.Add(1)
		w.logger.Warn("reload failed", slog.String("error", err.Error()))
		return
	}
	w.logger.Info("instruction file reloaded", slog.Duration("duration", time.Since(start)))
}
