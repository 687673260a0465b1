// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Tutor"
	default:
		return string(r)
	}
}

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is one item of the transcript.
//
// User entries are immutable once appended. Assistant entries start empty and
// grow while fragments arrive.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserEntry creates a user entry with a fresh ID.
func NewUserEntry(content string) Entry {
	return Entry{
		ID:        NewEntryID(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantEntry creates an empty assistant entry with a fresh ID.
func NewAssistantEntry() Entry {
	return Entry{
		ID:        NewEntryID(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
	}
}

// NewGreetingEntry creates a synthetic assistant entry with fixed content.
func NewGreetingEntry(content string) Entry {
	e := NewAssistantEntry()
	e.Content = content
	return e
}

// IsEmpty returns true if the entry has no content yet.
func (e Entry) IsEmpty() bool {
	return len(e.Content) == 0
}

// NewEntryID returns a time-ordered unique identifier.
// UUIDv7 keeps IDs sortable by creation; two calls never collide even within
// the same millisecond.
func NewEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
