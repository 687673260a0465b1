// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"slices"
	"sync"
)

var (
	// ErrEmptyID is returned when appending an entry without an ID.
	ErrEmptyID = errors.New("entry has no id")

	// ErrDuplicateID is returned when appending an entry whose ID is already present.
	ErrDuplicateID = errors.New("duplicate entry id")

	// ErrClosed is returned when appending to a discarded conversation.
	ErrClosed = errors.New("conversation closed")
)

// =============================================================================
// CHANGE NOTIFICATIONS
// =============================================================================

// ChangeKind identifies what a mutation did.
type ChangeKind int

const (
	// ChangeAppended means a new entry was added at the end.
	ChangeAppended ChangeKind = iota
	// ChangeContent means the trailing entry's content was rewritten.
	ChangeContent
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAppended:
		return "appended"
	case ChangeContent:
		return "content"
	default:
		return "unknown"
	}
}

// Change is delivered to subscribers after every mutation.
type Change struct {
	Kind  ChangeKind
	Entry Entry // snapshot of the affected entry after the change
	Len   int   // transcript length after the change
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an append-only transcript.
//
// Only the trailing assistant entry may change after it is appended, and only
// through UpdateTrailingContent. Subscribers run synchronously after each
// mutation, outside the lock, so they may read the conversation.
type Conversation struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]struct{}
	closed  bool

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(Change)
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		entries: make([]Entry, 0, 16),
		index:   make(map[string]struct{}),
	}
}

// NewConversationWithGreeting creates a conversation seeded with one
// assistant greeting entry.
func NewConversationWithGreeting(greeting string) *Conversation {
	c := NewConversation()
	g := NewGreetingEntry(greeting)
	c.entries = append(c.entries, g)
	c.index[g.ID] = struct{}{}
	return c
}

// Append adds an entry at the end of the transcript.
func (c *Conversation) Append(e Entry) error {
	if e.ID == "" {
		return ErrEmptyID
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if _, dup := c.index[e.ID]; dup {
		c.mu.Unlock()
		return ErrDuplicateID
	}
	c.entries = append(c.entries, e)
	c.index[e.ID] = struct{}{}
	change := Change{Kind: ChangeAppended, Entry: e, Len: len(c.entries)}
	c.mu.Unlock()

	c.notify(change)
	return nil
}

// UpdateTrailingContent rewrites the content of the last entry with fn.
//
// It is a no-op returning false when id is not the last entry, when the last
// entry is not an assistant entry, or when the conversation was closed. Stale
// callbacks from an earlier exchange land here and are dropped.
func (c *Conversation) UpdateTrailingContent(id string, fn func(string) string) bool {
	if fn == nil {
		return false
	}

	c.mu.Lock()
	n := len(c.entries)
	if c.closed || n == 0 || c.entries[n-1].ID != id || c.entries[n-1].Role != RoleAssistant {
		c.mu.Unlock()
		return false
	}
	c.entries[n-1].Content = fn(c.entries[n-1].Content)
	change := Change{Kind: ChangeContent, Entry: c.entries[n-1], Len: n}
	c.mu.Unlock()

	c.notify(change)
	return true
}

// Entries returns a copy of the transcript in order.
func (c *Conversation) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Last returns the trailing entry, if any.
func (c *Conversation) Last() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 {
		return Entry{}, false
	}
	return c.entries[len(c.entries)-1], true
}

// Get returns the entry with the given ID.
func (c *Conversation) Get(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.entries) - 1; i >= 0; i-- {
		if c.entries[i].ID == id {
			return c.entries[i], true
		}
	}
	return Entry{}, false
}

// Close discards the conversation. Later mutations are silently ignored and
// subscribers are dropped.
func (c *Conversation) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.subMu.Lock()
	c.subs = nil
	c.subMu.Unlock()
}

// Closed reports whether Close was called.
func (c *Conversation) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to run after every mutation and returns a function
// that removes it. Subscribers run in registration order.
func (c *Conversation) Subscribe(fn func(Change)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		c.subs = slices.DeleteFunc(c.subs, func(s subscriber) bool { return s.id == id })
	}
}

func (c *Conversation) notify(change Change) {
	c.subMu.Lock()
	subs := slices.Clone(c.subs)
	c.subMu.Unlock()

	for _, s := range subs {
		s.fn(change)
	}
}
