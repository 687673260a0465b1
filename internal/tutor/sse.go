// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"bufio"
	"io"
	"strings"
)

// SSEEvent represents a single Server-Sent Event.
type SSEEvent struct {
	Event string
	Data  string
}

// SSEReader reads Server-Sent Events from a stream.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader creates a new SSE reader.
func NewSSEReader(r io.Reader) *SSEReader {
	scanner := bufio.NewScanner(r)
	// Large chunks can exceed the default 64KB token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &SSEReader{scanner: scanner}
}

// ReadEvent reads the next event. It returns io.EOF once the stream ends
// without a pending event.
func (r *SSEReader) ReadEvent() (*SSEEvent, error) {
	event := &SSEEvent{}
	var data []string

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Blank line terminates the event
		if line == "" {
			if len(data) > 0 || event.Event != "" {
				event.Data = strings.Join(data, "\n")
				return event, nil
			}
			continue
		}

		// Comment
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event.Event = value
		case "data":
			data = append(data, value)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream closed without a trailing blank line
	if len(data) > 0 {
		event.Data = strings.Join(data, "\n")
		return event, nil
	}
	return nil, io.EOF
}
