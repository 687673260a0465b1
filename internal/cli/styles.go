// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/studytutor/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(ColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for the REPL banner.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// LabelStyle is used for speaker labels and config keys.
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// TutorLabelStyle prefixes tutor answers in chat.
	TutorLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// ErrorStyle is used for failures.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Rose)

	// NoticeStyle is used for the error notice shown in place of an answer.
	NoticeStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for hints.
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)
)
