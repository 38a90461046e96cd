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
	"os"
	"path/filepath"
	"testing"

	"github.com/dyocense/localcore/services/dashboard/goals"
)

// -----------------------------------------------------------------------------
// readJSONInput Tests
// -----------------------------------------------------------------------------

func TestReadJSONInput_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.json")
	payload := `{"goalId":"goal-1","version":3,"title":"Grow revenue"}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	var v goals.GoalVersion
	if err := readJSONInput(path, &v); err != nil {
		t.Fatalf("readJSONInput() failed: %v", err)
	}

	if v.GoalID != "goal-1" {
		t.Errorf("expected goal-1, got %q", v.GoalID)
	}
	if v.Version != 3 {
		t.Errorf("expected version 3, got %d", v.Version)
	}
	if v.Title != "Grow revenue" {
		t.Errorf("expected title, got %q", v.Title)
	}
}

func TestReadJSONInput_MissingFile(t *testing.T) {
	var v goals.GoalVersion
	err := readJSONInput(filepath.Join(t.TempDir(), "nope.json"), &v)

	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadJSONInput_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	var v goals.GoalVersion
	if err := readJSONInput(path, &v); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

// -----------------------------------------------------------------------------
// formatValue Tests
// -----------------------------------------------------------------------------

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, "(none)"},
		{"string", "Q4 2026", `"Q4 2026"`},
		{"empty string", "", `""`},
		{"number", float64(42.5), "42.5"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.input); got != tt.expected {
				t.Errorf("formatValue(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatValue_Struct(t *testing.T) {
	// Structured values render as compact JSON
	target := 10.0
	got := formatValue(goals.GoalMetric{Name: "mrr", Target: &target, Unit: "k"})

	if got == "" || got[0] != '{' {
		t.Errorf("expected JSON object rendering, got %q", got)
	}
}
