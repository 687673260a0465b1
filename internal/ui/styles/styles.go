// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// HEADER
// =============================================================================

// Title is the application name in the header.
var Title = lipgloss.NewStyle().
	Bold(true).
	Foreground(Purple)

// Badge renders a context label (subject, chapter, topic).
var Badge = lipgloss.NewStyle().
	Foreground(TextInverse).
	Background(Cyan).
	Padding(0, 1)

// BadgeDim renders secondary context labels.
var BadgeDim = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Background(Overlay).
	Padding(0, 1)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// UserLabel is the "You" heading.
var UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)

// AssistantLabel is the "Tutor" heading.
var AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)

// UserEntry frames a student entry.
var UserEntry = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(UserBubbleBorder).
	PaddingLeft(1)

// AssistantEntry frames a tutor entry.
var AssistantEntry = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(AssistantBubbleBorder).
	PaddingLeft(1)

// Typing is the waiting indicator of an empty tutor entry.
var Typing = lipgloss.NewStyle().Foreground(TextMuted)

// Cursor trails tutor text that is still growing.
var Cursor = lipgloss.NewStyle().Foreground(Purple)

// =============================================================================
// STATUS
// =============================================================================

// StatusBar is the bottom help/status line.
var StatusBar = lipgloss.NewStyle().Foreground(TextMuted)

// StatusReady marks an idle session.
var StatusReady = lipgloss.NewStyle().Foreground(Emerald)

// StatusBusy marks an exchange in flight.
var StatusBusy = lipgloss.NewStyle().Foreground(Amber)

// StatusError marks a failed last exchange.
var StatusError = lipgloss.NewStyle().Foreground(Rose)

// Jump is the "new messages below" affordance.
var Jump = lipgloss.NewStyle().
	Foreground(TextInverse).
	Background(Amber).
	Bold(true).
	Padding(0, 1)

// Prompt is the input prompt glyph.
var Prompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

// Separator is the rule between transcript and input.
var Separator = lipgloss.NewStyle().Foreground(Overlay)
