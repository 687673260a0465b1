// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package scroll

import "time"

// DefaultQuiet is the quiet period after the last scroll event before the
// position is measured.
const DefaultQuiet = 100 * time.Millisecond

// Debouncer collapses a burst of events into one action that becomes due
// once no event has arrived for Quiet. It never reads the clock; callers
// pass the current time.
type Debouncer struct {
	Quiet time.Duration

	last  time.Time
	armed bool
}

// Trigger records an event at now and (re)arms the debouncer.
func (d *Debouncer) Trigger(now time.Time) {
	d.last = now
	d.armed = true
}

// Due reports whether the quiet period has elapsed at now. It returns true
// at most once per burst.
func (d *Debouncer) Due(now time.Time) bool {
	if !d.armed || now.Sub(d.last) < d.Quiet {
		return false
	}
	d.armed = false
	return true
}

// Pending reports whether a burst is waiting to settle.
func (d *Debouncer) Pending() bool {
	return d.armed
}

// Deadline is when the current burst becomes due. Zero when nothing is pending.
func (d *Debouncer) Deadline() time.Time {
	if !d.armed {
		return time.Time{}
	}
	return d.last.Add(d.Quiet)
}

// Cancel drops the pending burst.
func (d *Debouncer) Cancel() {
	d.armed = false
}
