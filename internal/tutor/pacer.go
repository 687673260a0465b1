// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out the fragments of a replayed answer.
type Pacer interface {
	// Begin starts a new replay. The returned Waiter is used for one replay only.
	Begin() Waiter
}

// Waiter blocks until the next fragment may be emitted.
type Waiter interface {
	Wait(ctx context.Context) error
}

// RatePacer emits one fragment per interval, the first one immediately.
type RatePacer struct {
	Interval time.Duration
}

// Begin implements Pacer.
func (p RatePacer) Begin() Waiter {
	if p.Interval <= 0 {
		return noWait{}
	}
	lim := rate.NewLimiter(rate.Every(p.Interval), 1)
	return lim
}

// NoPacer emits every fragment back to back. Used by tests and --fast output.
type NoPacer struct{}

// Begin implements Pacer.
func (NoPacer) Begin() Waiter { return noWait{} }

type noWait struct{}

func (noWait) Wait(ctx context.Context) error { return ctx.Err() }
