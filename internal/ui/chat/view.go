// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/studytutor/internal/exchange"
	"github.com/jeranaias/studytutor/internal/model"
	"github.com/jeranaias/studytutor/internal/ui/styles"
)

const (
	typingIndicator = "● ● ●"
	cursorGlyph     = "▌"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(m.renderSeparator())
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteByte('\n')
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Model) renderHeader() string {
	cc := m.orch.Context()

	title := styles.Title.Render("studytutor")
	parts := []string{title}
	if cc.Subject != "" {
		parts = append(parts, styles.Badge.Render(cc.Subject))
	}
	if cc.Chapter != "" {
		parts = append(parts, styles.BadgeDim.Render(cc.Chapter))
	}
	if cc.Topic != "" {
		parts = append(parts, styles.BadgeDim.Render(cc.Topic))
	}

	header := strings.Join(parts, " ")
	if m.width > 0 && lipgloss.Width(header) > m.width {
		// Badges are dropped rather than wrapped on narrow terminals.
		header = title + " " + runewidth.Truncate(cc.Subject, max(m.width-lipgloss.Width(title)-1, 0), "…")
	}
	return header
}

func (m Model) renderSeparator() string {
	if m.sync.ShowJumpAffordance() {
		label := styles.Jump.Render("↓ New messages below (End)")
		pad := m.width - lipgloss.Width(label)
		if pad < 0 {
			pad = 0
		}
		return styles.Separator.Render(strings.Repeat("─", pad)) + label
	}
	return styles.Separator.Render(strings.Repeat("─", max(m.width, 1)))
}

func (m Model) renderStatus() string {
	var status string
	switch {
	case m.orch.Loading():
		status = m.spinner.View() + styles.StatusBusy.Render(" Tutor is answering...")
	case m.orch.Outcome() == exchange.OutcomeError:
		status = styles.StatusError.Render("● Last answer failed")
	default:
		status = styles.StatusReady.Render("● Ready")
	}

	var help []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return status + styles.StatusBar.Render("  "+strings.Join(help, " · "))
}

// renderTranscript renders every entry of the conversation.
func (m Model) renderTranscript() string {
	entries := m.conv.Entries()
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, m.renderEntry(e))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderEntry(e model.Entry) string {
	var label string
	frame := styles.AssistantEntry
	if e.Role == model.RoleUser {
		label = styles.UserLabel.Render(e.Role.DisplayName())
		frame = styles.UserEntry
	} else {
		label = styles.AssistantLabel.Render(e.Role.DisplayName())
	}

	var body string
	switch m.orch.IndicatorFor(e) {
	case exchange.IndicatorTyping:
		body = styles.Typing.Render(typingIndicator)
	case exchange.IndicatorCursor:
		body = m.renderer.Render(e) + styles.Cursor.Render(cursorGlyph)
	default:
		body = m.renderer.Render(e)
	}

	return label + "\n" + frame.Render(body)
}
