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
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dyocense/localcore/services/dashboard/goals"
)

// =============================================================================
// Runner
// =============================================================================

// runHistoryBrowser opens the interactive version browser over an
// already-fetched history.
//
// # Description
//
// The browser walks versions with h/l, scrolls the detail pane with
// j/k, and toggles a diff-against-predecessor view with tab. Diffs are
// computed locally, no further daemon calls happen once the history is
// loaded.
//
// # Inputs
//
//   - goalID: Goal the versions belong to (display only).
//   - versions: Version list in version order. Must be non-empty.
//
// # Outputs
//
//   - error: Non-nil when no terminal is attached or bubbletea fails.
func runHistoryBrowser(goalID string, versions []goals.GoalVersion) error {
	// Check if stdin is a terminal
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("interactive browsing needs a terminal, rerun without --browse")
	}

	m := newHistoryModel(goalID, versions)

	// Run the bubbletea program. Output goes to stderr so a redirected
	// stdout still receives only command output.
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	// Defensive type assertion - finalModel should never be nil when err is nil,
	// but we check anyway to prevent potential panic
	if _, ok := finalModel.(historyModel); !ok {
		return fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}
	return nil
}

// =============================================================================
// Model
// =============================================================================

// historyModel is the bubbletea model for the version browser.
type historyModel struct {
	goalID   string
	versions []goals.GoalVersion

	// Navigation state. idx points into versions; showDiff switches the
	// pane between version detail and diff-against-predecessor.
	idx      int
	showDiff bool

	// Viewport for scrolling
	viewport viewport.Model

	width  int
	height int

	ready    bool
	quitting bool
}

func newHistoryModel(goalID string, versions []goals.GoalVersion) historyModel {
	return historyModel{
		goalID:   goalID,
		versions: versions,
		// Start on the newest version.
		idx: len(versions) - 1,
	}
}

// Init implements tea.Model.
func (m historyModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m historyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}

		m.updateViewportContent()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "left", "h":
			if m.idx > 0 {
				m.idx--
				m.updateViewportContent()
				m.viewport.GotoTop()
			}

		case "right", "l":
			if m.idx < len(m.versions)-1 {
				m.idx++
				m.updateViewportContent()
				m.viewport.GotoTop()
			}

		case "tab", "d":
			m.showDiff = !m.showDiff
			m.updateViewportContent()
			m.viewport.GotoTop()

		case "j", "down":
			m.viewport.LineDown(1)

		case "k", "up":
			m.viewport.LineUp(1)

		case "ctrl+d":
			m.viewport.HalfViewDown()

		case "ctrl+u":
			m.viewport.HalfViewUp()

		case "g", "home":
			m.viewport.GotoTop()

		case "G", "end":
			m.viewport.GotoBottom()
		}
	}

	// Update viewport
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m historyModel) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready || len(m.versions) == 0 {
		return "Loading...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// =============================================================================
// Viewport Content
// =============================================================================

func (m *historyModel) updateViewportContent() {
	if !m.ready {
		return
	}

	if m.showDiff {
		m.viewport.SetContent(m.renderDiff())
	} else {
		m.viewport.SetContent(m.renderDetail())
	}
}

// =============================================================================
// Rendering
// =============================================================================

func (m historyModel) renderHeader() string {
	v := m.versions[m.idx]

	title := browserTitleStyle.Render(fmt.Sprintf("Goal %s", m.goalID))
	position := metaStyle.Render(fmt.Sprintf("  v%d  (%d of %d)", v.Version, m.idx+1, len(m.versions)))

	badge := statusBadge(v.Status)
	pane := " detail"
	if m.showDiff {
		pane = " diff vs previous"
	}

	return title + position + "  " + badge + metaStyle.Render(pane) + "\n" +
		metaStyle.Render(strings.Repeat("─", max(m.width, 10)))
}

func (m historyModel) renderFooter() string {
	keys := []struct{ key, desc string }{
		{"h/l", "older/newer"},
		{"tab", "diff"},
		{"j/k", "scroll"},
		{"g/G", "top/bottom"},
		{"q", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = helpKeyStyle.Render(k.key) + helpDescStyle.Render(" "+k.desc)
	}
	return strings.Join(parts, helpDescStyle.Render("  ·  "))
}

func (m historyModel) renderDetail() string {
	v := m.versions[m.idx]
	var b strings.Builder

	b.WriteString(labelStyle.Render("Title      ") + v.Title + "\n")
	if v.Timeline != "" {
		b.WriteString(labelStyle.Render("Timeline   ") + v.Timeline + "\n")
	}
	b.WriteString(labelStyle.Render("Change     ") + v.ChangeDescription + "\n")
	b.WriteString(labelStyle.Render("Created    ") +
		fmt.Sprintf("%s by %s", v.CreatedAt.Format("2006-01-02 15:04"), v.CreatedBy) + "\n")
	if v.ParentVersion != nil {
		b.WriteString(labelStyle.Render("Parent     ") + fmt.Sprintf("v%d", *v.ParentVersion) + "\n")
	}

	if v.Description != "" {
		b.WriteString("\n" + labelStyle.Render("Description") + "\n")
		for _, line := range strings.Split(v.Description, "\n") {
			b.WriteString("  " + contextStyle.Render(line) + "\n")
		}
	}

	if len(v.Metrics) > 0 {
		b.WriteString("\n" + labelStyle.Render("Metrics") + "\n")
		for _, metric := range v.Metrics {
			line := "  " + metric.Name
			if metric.Target != nil {
				line += fmt.Sprintf("  target %.4g %s", *metric.Target, metric.Unit)
			}
			if metric.Current != nil {
				line += fmt.Sprintf("  now %.4g", *metric.Current)
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func (m historyModel) renderDiff() string {
	if m.idx == 0 {
		return contextStyle.Render("This is the first version, nothing to compare against.")
	}

	prev := m.versions[m.idx-1]
	cur := m.versions[m.idx]
	comparisons := goals.Compare(prev, cur)
	if len(comparisons) == 0 {
		return contextStyle.Render(fmt.Sprintf("v%d and v%d are identical.", prev.Version, cur.Version))
	}

	var b strings.Builder
	b.WriteString(hunkHeaderStyle.Render(fmt.Sprintf("v%d -> v%d", prev.Version, cur.Version)) + "\n\n")

	for _, c := range comparisons {
		var header string
		switch c.Change {
		case goals.ChangeAdded:
			header = addedStyle.Render(fmt.Sprintf("+ %s", c.Field))
		case goals.ChangeRemoved:
			header = removedStyle.Render(fmt.Sprintf("- %s", c.Field))
		default:
			header = hunkHeaderStyle.Render(fmt.Sprintf("~ %s", c.Field))
		}
		b.WriteString(header + metaStyle.Render("  ["+string(c.Impact)+"]") + "\n")

		if c.Detail != "" {
			b.WriteString(m.renderUnified(c.Detail))
			b.WriteString("\n")
			continue
		}
		if c.Change == goals.ChangeModified {
			b.WriteString(removedStyle.Render("    - "+formatValue(c.Old)) + "\n")
			b.WriteString(addedStyle.Render("    + "+formatValue(c.New)) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderUnified colorizes one unified diff block line by line.
func (m historyModel) renderUnified(detail string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(detail, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			b.WriteString("    " + hunkHeaderStyle.Render(line) + "\n")
		case strings.HasPrefix(line, "+"):
			b.WriteString("    " + addedStyle.Render(line) + "\n")
		case strings.HasPrefix(line, "-"):
			b.WriteString("    " + removedStyle.Render(line) + "\n")
		default:
			b.WriteString("    " + contextStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func statusBadge(s goals.VersionStatus) string {
	switch s {
	case goals.StatusActive:
		return activeBadge.Render("active")
	case goals.StatusArchived:
		return archivedBadge.Render("archived")
	default:
		return draftBadge.Render("draft")
	}
}

// =============================================================================
// Styles
// =============================================================================

var (
	browserTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	addedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	removedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	contextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	hunkHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")).
			Bold(true)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	activeBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Background(lipgloss.Color("22")).
			Padding(0, 1)

	draftBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Background(lipgloss.Color("58")).
			Padding(0, 1)

	archivedBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)
)
