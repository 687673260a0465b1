// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package scroll

import (
	"sync"
	"time"

	"github.com/jeranaias/studytutor/internal/model"
)

// Scroller executes a scroll to the end of the transcript.
type Scroller interface {
	ScrollToEnd()
}

// ScrollerFunc adapts a function to Scroller.
type ScrollerFunc func()

// ScrollToEnd implements Scroller.
func (f ScrollerFunc) ScrollToEnd() { f() }

// Geometry is the measured position of the transcript view, in lines.
type Geometry struct {
	// Offset is the index of the first visible line.
	Offset int
	// MaxOffset is the largest Offset that still fills the view.
	MaxOffset int
}

// AtBottom reports whether the view is within threshold lines of the end.
func (g Geometry) AtBottom(threshold int) bool {
	if g.MaxOffset <= 0 {
		return true
	}
	return g.MaxOffset-g.Offset < threshold
}

// Options configures a Synchronizer.
type Options struct {
	// Quiet is the scroll debounce period. Defaults to DefaultQuiet.
	Quiet time.Duration
	// Threshold is the distance from the end, in lines, still counted as
	// the bottom. Defaults to 1.
	Threshold int
}

// Synchronizer tracks whether the reader is following the transcript.
type Synchronizer struct {
	mu        sync.Mutex
	debounce  Debouncer
	threshold int

	atBottom bool
	pending  bool
	entries  int

	unsubscribe func()
}

// New creates a synchronizer that starts at the bottom.
func New(opts Options) *Synchronizer {
	if opts.Quiet <= 0 {
		opts.Quiet = DefaultQuiet
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 1
	}
	return &Synchronizer{
		debounce:  Debouncer{Quiet: opts.Quiet},
		threshold: opts.Threshold,
		atBottom:  true,
	}
}

// Attach subscribes to conv. Calling Attach again replaces the previous
// subscription. The returned function detaches.
func (s *Synchronizer) Attach(conv *model.Conversation) func() {
	s.Detach()

	s.mu.Lock()
	s.entries = conv.Len()
	s.mu.Unlock()

	unsub := conv.Subscribe(s.OnChange)

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
	return s.Detach
}

// Detach stops observing the conversation.
func (s *Synchronizer) Detach() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// OnChange reacts to a conversation mutation.
func (s *Synchronizer) OnChange(c model.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = c.Len

	// The reader's own submission always brings the view back down.
	if c.Kind == model.ChangeAppended && c.Entry.Role == model.RoleUser {
		s.atBottom = true
		s.debounce.Cancel()
	}

	if s.atBottom {
		s.pending = true
	}
}

// OnScroll records a raw scroll gesture at now.
func (s *Synchronizer) OnScroll(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce.Trigger(now)
}

// Settle measures g once the scroll gesture has been quiet long enough.
// It reports whether a measurement was taken.
func (s *Synchronizer) Settle(now time.Time, g Geometry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.debounce.Due(now) {
		return false
	}
	s.measureLocked(g)
	return true
}

// Measure updates the at-bottom state immediately, e.g. after a resize.
func (s *Synchronizer) Measure(g Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measureLocked(g)
}

func (s *Synchronizer) measureLocked(g Geometry) {
	s.atBottom = g.AtBottom(s.threshold)
	if !s.atBottom {
		s.pending = false
	}
}

// Flush performs the pending auto-scroll, if any. A scroll gesture that has
// not settled yet holds it back.
func (s *Synchronizer) Flush(sc Scroller) bool {
	s.mu.Lock()
	if !s.pending || !s.atBottom || s.debounce.Pending() {
		s.mu.Unlock()
		return false
	}
	s.pending = false
	s.mu.Unlock()

	sc.ScrollToEnd()
	return true
}

// JumpToLatest scrolls to the end right away and resumes following.
func (s *Synchronizer) JumpToLatest(sc Scroller) {
	s.mu.Lock()
	s.atBottom = true
	s.pending = false
	s.debounce.Cancel()
	s.mu.Unlock()

	sc.ScrollToEnd()
}

// IsAtBottom reports whether the reader is following the transcript.
func (s *Synchronizer) IsAtBottom() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atBottom
}

// ShowJumpAffordance reports whether a "jump to latest" control should be
// offered.
func (s *Synchronizer) ShowJumpAffordance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.atBottom && s.entries > 1
}

// Pending reports whether an auto-scroll is waiting to be flushed.
func (s *Synchronizer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SettleDeadline is when the current scroll gesture becomes measurable.
// Zero when no gesture is pending.
func (s *Synchronizer) SettleDeadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debounce.Deadline()
}
