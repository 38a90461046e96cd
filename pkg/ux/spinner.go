// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"sync"
	"time"
)

// SpinnerType selects the animation frame set
type SpinnerType int

const (
	SpinnerDots SpinnerType = iota
	SpinnerCompass
	SpinnerPulse
)

// defaultInterval is the frame advance rate. Long-running commands pass
// a slower one through WithInterval so the needle does not flicker.
const defaultInterval = 80 * time.Millisecond

var spinnerFrames = map[SpinnerType][]string{
	SpinnerDots:    {"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	SpinnerCompass: {"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"},
	SpinnerPulse:   {"●", "◉", "○", "◉"},
}

// Spinner animates a single status line while work is in flight.
// Machine personality collapses it to one PROGRESS line so piped output
// stays parseable.
type Spinner struct {
	spinType SpinnerType
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	message string
	running bool
}

// NewSpinner creates a spinner with the given status message
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message:  message,
		spinType: SpinnerDots,
		interval: defaultInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// WithType selects the frame set, for chaining
func (s *Spinner) WithType(t SpinnerType) *Spinner {
	s.spinType = t
	return s
}

// WithInterval overrides the frame advance rate, for chaining
func (s *Spinner) WithInterval(d time.Duration) *Spinner {
	if d > 0 {
		s.interval = d
	}
	return s
}

// Start begins the animation. Calling Start on a running spinner is a
// no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	msg := s.message
	s.mu.Unlock()

	// Machine mode states the work once and stays off the terminal.
	if GetPersonality().Level == PersonalityMachine {
		fmt.Printf("PROGRESS: %s\n", msg)
		return
	}

	go s.animate()
}

func (s *Spinner) animate() {
	frames := spinnerFrames[s.spinType]
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.stop:
			// Erase the status line before handing the row back.
			fmt.Print("\r\033[K")
			close(s.done)
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			fmt.Printf("\r%s %s", Styles.Highlight.Render(frames[i%len(frames)]), msg)
		}
	}
}

// Stop halts the animation and clears the line. Safe to call on a
// spinner that never started.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	if GetPersonality().Level == PersonalityMachine {
		return
	}

	close(s.stop)
	<-s.done
}

// StopWithSuccess stops and reports the outcome through Success
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	Success(message)
}

// StopWithError stops and reports the outcome through Error
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	Error(message)
}
