// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/studytutor/internal/exchange"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp, tea.MouseWheelDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, tea.Batch(cmd, m.onScroll(time.Now()))
		}
		return m, nil

	case conversationChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case exchangeDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, exchange.ErrAlreadyRun) {
			m.log.Debug("exchange finished with error", "error", msg.err)
		}
		m.input.Focus()
		m.refresh()
		return m, nil

	case settleMsg:
		if m.sync.Settle(msg.at, m.geometry()) {
			m.sync.Flush(m.scroller())
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := lipgloss.Height(m.renderHeader())
	// separator + input + status
	footerHeight := 3
	vpHeight := msg.Height - headerHeight - footerHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight
	m.input.Width = msg.Width - 4
	m.renderer.SetWidth(msg.Width - 4)
	m.ready = true

	m.viewport.SetContent(m.renderTranscript())
	m.sync.Measure(m.geometry())
	if m.sync.IsAtBottom() {
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Jump):
		m.sync.JumpToLatest(m.scroller())
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, m.onScroll(time.Now())

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, m.onScroll(time.Now())

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, m.onScroll(time.Now())

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, m.onScroll(time.Now())
	}

	if m.orch.Loading() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input to the orchestrator. Empty input and submissions
// while an answer is streaming are ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	ex, err := m.orch.Start(m.input.Value())
	if err != nil {
		return m, nil
	}

	m.input.Reset()
	m.input.Blur()
	m.refresh()

	ctx := m.ctx
	return m, func() tea.Msg {
		return exchangeDoneMsg{err: ex.Run(ctx)}
	}
}

// onScroll feeds a gesture to the synchronizer and schedules its measurement.
func (m *Model) onScroll(now time.Time) tea.Cmd {
	m.sync.OnScroll(now)
	return settleAfter(m.quiet)
}

// refresh re-renders the transcript and follows it if the reader is at
// the bottom.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.sync.Flush(m.scroller())
}
