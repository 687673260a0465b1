// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// conversationChangedMsg reports that the transcript changed since the last
// render. Several changes may collapse into one message.
type conversationChangedMsg struct{}

// exchangeDoneMsg reports that an exchange settled.
type exchangeDoneMsg struct {
	err error
}

// settleMsg asks the view to measure the scroll position after a gesture.
type settleMsg struct {
	at time.Time
}

// waitForChange blocks until the transcript changes.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return conversationChangedMsg{}
	}
}

// settleAfter schedules a settleMsg once the quiet period has passed.
func settleAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return settleMsg{at: t}
	})
}
