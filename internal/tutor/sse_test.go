// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSSEReader_ReadEvent(t *testing.T) {
	input := ": comment\n" +
		"event: message\n" +
		"data: first\n" +
		"data: second\n" +
		"\n" +
		"data:no-space\n" +
		"\n" +
		"data: trailing"

	r := NewSSEReader(strings.NewReader(input))

	ev, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if ev.Event != "message" || ev.Data != "first\nsecond" {
		t.Errorf("event 1 = %+v", ev)
	}

	ev, err = r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if ev.Data != "no-space" {
		t.Errorf("event 2 data = %q, want %q", ev.Data, "no-space")
	}

	ev, err = r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if ev.Data != "trailing" {
		t.Errorf("event 3 data = %q, want %q", ev.Data, "trailing")
	}

	if _, err := r.ReadEvent(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadEvent() at end = %v, want io.EOF", err)
	}
}

func TestSSEReader_Empty(t *testing.T) {
	r := NewSSEReader(strings.NewReader("\n\n"))
	if _, err := r.ReadEvent(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadEvent() = %v, want io.EOF", err)
	}
}
