// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/studytutor/internal/exchange"
	"github.com/jeranaias/studytutor/internal/logging"
	"github.com/jeranaias/studytutor/internal/model"
	"github.com/jeranaias/studytutor/internal/scroll"
	"github.com/jeranaias/studytutor/internal/ui/styles"
)

// Options configures the chat view.
type Options struct {
	// Markdown renders tutor answers with glamour.
	Markdown bool
	// ScrollQuiet is the scroll gesture debounce period.
	ScrollQuiet time.Duration
	// BottomThreshold is how close to the end still counts as following.
	BottomThreshold int
	Logger          *logging.Logger
}

// Model is the Bubble Tea model of the tutor chat.
type Model struct {
	orch *exchange.Orchestrator
	conv *model.Conversation
	sync *scroll.Synchronizer
	log  *logging.Logger

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keys     KeyMap
	renderer *Renderer

	quiet   time.Duration
	changes chan struct{}
	unsub   func()
	detach  func()

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
	ready  bool
}

// New creates the chat view for orch's conversation. Cancelling parent
// cancels any exchange in flight.
func New(parent context.Context, orch *exchange.Orchestrator, opts Options) Model {
	if opts.ScrollQuiet <= 0 {
		opts.ScrollQuiet = scroll.DefaultQuiet
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	conv := orch.Conversation()

	input := textinput.New()
	input.Placeholder = "Ask your tutor a question..."
	input.Prompt = styles.Prompt.Render("› ")
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusBusy

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	sync := scroll.New(scroll.Options{Quiet: opts.ScrollQuiet, Threshold: opts.BottomThreshold})
	changes := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(parent)

	m := Model{
		orch:     orch,
		conv:     conv,
		sync:     sync,
		log:      opts.Logger,
		viewport: vp,
		input:    input,
		spinner:  sp,
		keys:     DefaultKeyMap(),
		renderer: NewRenderer(opts.Markdown),
		quiet:    opts.ScrollQuiet,
		changes:  changes,
		ctx:      ctx,
		cancel:   cancel,
	}

	m.detach = sync.Attach(conv)
	m.unsub = conv.Subscribe(func(model.Change) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForChange(m.changes))
}

// Conversation returns the hosted transcript.
func (m Model) Conversation() *model.Conversation {
	return m.conv
}

// Synchronizer returns the scroll state of the view.
func (m Model) Synchronizer() *scroll.Synchronizer {
	return m.sync
}

// InputValue returns the current text of the input field.
func (m Model) InputValue() string {
	return m.input.Value()
}

// SetInputValue replaces the text of the input field.
func (m *Model) SetInputValue(s string) {
	m.input.SetValue(s)
}

// shutdown cancels the in-flight exchange and discards the conversation.
func (m *Model) shutdown() {
	m.cancel()
	if m.unsub != nil {
		m.unsub()
	}
	if m.detach != nil {
		m.detach()
	}
	m.conv.Close()
}

// =============================================================================
// SCROLLING
// =============================================================================

// viewportScroller executes synchronizer scrolls on the viewport.
type viewportScroller struct {
	vp *viewport.Model
}

func (s viewportScroller) ScrollToEnd() {
	s.vp.GotoBottom()
}

func (m *Model) scroller() scroll.Scroller {
	return viewportScroller{vp: &m.viewport}
}

func (m *Model) geometry() scroll.Geometry {
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	return scroll.Geometry{Offset: m.viewport.YOffset, MaxOffset: maxOffset}
}
