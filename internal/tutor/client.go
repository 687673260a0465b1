// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/studytutor/internal/logging"
)

// DefaultFallbackDelay is the pause between replayed fragments.
const DefaultFallbackDelay = 50 * time.Millisecond

// Client delivers tutor answers as fragments, degrading from streaming to a
// single request when the stream fails.
type Client struct {
	backend Backend
	pacer   Pacer
	timeout time.Duration
	keyVar  string
	log     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPacer sets the pacer used when replaying a non-streamed answer.
func WithPacer(p Pacer) Option {
	return func(c *Client) {
		if p != nil {
			c.pacer = p
		}
	}
}

// WithFallbackDelay sets a RatePacer with the given interval.
func WithFallbackDelay(d time.Duration) Option {
	return func(c *Client) {
		c.pacer = RatePacer{Interval: d}
	}
}

// WithTimeout bounds each attempt (stream, then fallback). Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithKeyEnvVar names the API key variable quoted by configuration failures.
func WithKeyEnvVar(name string) Option {
	return func(c *Client) {
		c.keyVar = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client on top of backend.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		pacer:   RatePacer{Interval: DefaultFallbackDelay},
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the backend in use.
func (c *Client) Backend() Backend {
	return c.backend
}

// =============================================================================
// SEND OPTIONS
// =============================================================================

type sendConfig struct {
	onRestart func()
}

// SendOption configures a single Send call.
type SendOption func(*sendConfig)

// OnRestart registers fn to run when a stream that already delivered
// fragments failed and the answer is about to be delivered again from the
// start. Callers use it to discard the partial text.
func OnRestart(fn func()) SendOption {
	return func(sc *sendConfig) {
		sc.onRestart = fn
	}
}

// =============================================================================
// SEND
// =============================================================================

// Send asks for an answer to message and passes every fragment to
// onFragment, synchronously and in order. It returns nil once the answer has
// been fully delivered, the context error if ctx ended first, or a
// *SendError when both the stream and the fallback request failed.
func (c *Client) Send(ctx context.Context, message string, cc ConversationContext, onFragment func(string), opts ...SendOption) error {
	var sc sendConfig
	for _, opt := range opts {
		opt(&sc)
	}
	if onFragment == nil {
		onFragment = func(string) {}
	}

	prompt := BuildPrompt(message, cc)
	log := c.log.With("backend", c.backend.Name())

	delivered := 0
	start := time.Now()
	log.Debug("stream started", "prompt_chars", len(prompt))

	streamErr := c.attempt(ctx, func(actx context.Context) error {
		return c.backend.Stream(actx, prompt, func(fragment string) error {
			if fragment == "" {
				return nil
			}
			delivered++
			onFragment(fragment)
			return nil
		})
	})
	if streamErr == nil {
		log.Debug("stream completed", "fragments", delivered, "duration", time.Since(start))
		return nil
	}

	// Torn down while streaming: nobody is listening for a replay.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	log.Warn("stream failed, falling back to single request",
		"error", streamErr, "fragments_delivered", delivered)

	var text string
	fallbackErr := c.attempt(ctx, func(actx context.Context) error {
		var err error
		text, err = c.backend.Generate(actx, prompt)
		return err
	})
	if fallbackErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sendErr := &SendError{
			Class:     ClassifyError(fallbackErr),
			Err:       fallbackErr,
			StreamErr: streamErr,
			KeyVar:    c.keyVar,
		}
		log.Error("request failed", "class", sendErr.Class.String(), "error", fallbackErr)
		return sendErr
	}

	if delivered > 0 && sc.onRestart != nil {
		sc.onRestart()
	}

	if err := replay(ctx, text, c.pacer, onFragment); err != nil {
		return err
	}
	log.Debug("fallback completed", "chars", len(text), "duration", time.Since(start))
	return nil
}

// attempt runs fn under the per-attempt timeout, if any.
func (c *Client) attempt(ctx context.Context, fn func(context.Context) error) error {
	if c.timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeoutCause(ctx, c.timeout, errAttemptTimeout)
	defer cancel()
	err := fn(actx)
	if err != nil && errors.Is(context.Cause(actx), errAttemptTimeout) && ctx.Err() == nil {
		return fmt.Errorf("%w after %s: %w", errAttemptTimeout, c.timeout, context.DeadlineExceeded)
	}
	return err
}

var errAttemptTimeout = errors.New("request timeout")

// SplitWords splits a complete answer into the fragments delivered by the
// fallback path. Joining the result reproduces text exactly.
func SplitWords(text string) []string {
	if text == "" {
		return nil
	}
	units := strings.Split(text, " ")
	out := make([]string, len(units))
	for i, u := range units {
		if i == 0 {
			out[i] = u
			continue
		}
		out[i] = " " + u
	}
	return out
}

// replay emits the word units of text through onFragment, paced by p.
func replay(ctx context.Context, text string, p Pacer, onFragment func(string)) error {
	w := p.Begin()
	for _, unit := range SplitWords(text) {
		if err := w.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if unit == "" {
			continue
		}
		onFragment(unit)
	}
	return nil
}
