// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/studytutor/internal/logging"
	"github.com/jeranaias/studytutor/internal/model"
	"github.com/jeranaias/studytutor/internal/tutor"
)

// Submission errors. Hosting views may ignore both.
var (
	ErrEmptyInput = errors.New("message is empty")
	ErrBusy       = errors.New("an answer is still in progress")
	ErrAlreadyRun = errors.New("exchange already run")
)

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle position of the orchestrator.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateStreaming
	StateSettled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateStreaming:
		return "streaming"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Outcome is how the last exchange settled.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeError
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	default:
		return "none"
	}
}

// Indicator is the progress decoration for an entry.
type Indicator int

const (
	IndicatorNone Indicator = iota
	// IndicatorTyping is shown while no text has arrived yet.
	IndicatorTyping
	// IndicatorCursor trails text that is still growing.
	IndicatorCursor
)

// Sender delivers an answer as fragments. *tutor.Client implements it.
type Sender interface {
	Send(ctx context.Context, message string, cc tutor.ConversationContext, onFragment func(string), opts ...tutor.SendOption) error
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator serializes exchanges on one conversation.
type Orchestrator struct {
	conv   *model.Conversation
	sender Sender
	log    *logging.Logger

	mu        sync.Mutex
	cc        tutor.ConversationContext
	state     State
	outcome   Outcome
	pendingID string
	lastErr   error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// New creates an orchestrator for conv.
func New(conv *model.Conversation, sender Sender, cc tutor.ConversationContext, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		conv:   conv,
		sender: sender,
		cc:     cc,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Conversation returns the transcript being driven.
func (o *Orchestrator) Conversation() *model.Conversation {
	return o.conv
}

// Context returns the labels sent with every question.
func (o *Orchestrator) Context() tutor.ConversationContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cc
}

// SetContext changes the labels for subsequent exchanges.
func (o *Orchestrator) SetContext(cc tutor.ConversationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cc = cc
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Outcome returns how the last exchange settled.
func (o *Orchestrator) Outcome() Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome
}

// LastError returns the failure of the last exchange, if it failed.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Loading reports whether an exchange is in flight.
func (o *Orchestrator) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loadingLocked()
}

func (o *Orchestrator) loadingLocked() bool {
	return o.state == StateSubmitting || o.state == StateStreaming
}

// Receiving reports whether fragments may still arrive for the pending
// entry. It turns false before an error notice is written.
func (o *Orchestrator) Receiving() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loadingLocked() && o.outcome == OutcomeNone
}

// PendingID returns the id of the assistant entry being filled, or "".
func (o *Orchestrator) PendingID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.loadingLocked() {
		return ""
	}
	return o.pendingID
}

// IndicatorFor returns the progress decoration for e.
func (o *Orchestrator) IndicatorFor(e model.Entry) Indicator {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.loadingLocked() || o.outcome != OutcomeNone || e.ID != o.pendingID {
		return IndicatorNone
	}
	if e.IsEmpty() {
		return IndicatorTyping
	}
	return IndicatorCursor
}

// Start accepts a submission. It appends the trimmed user entry followed by
// an empty assistant entry and returns the exchange that will fill it.
func (o *Orchestrator) Start(text string) (*Exchange, error) {
	message := strings.TrimSpace(text)
	if message == "" {
		return nil, ErrEmptyInput
	}

	user := model.NewUserEntry(message)
	pending := model.NewAssistantEntry()

	o.mu.Lock()
	if o.loadingLocked() {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	prevState, prevOutcome := o.state, o.outcome
	o.state = StateSubmitting
	o.outcome = OutcomeNone
	o.pendingID = pending.ID
	o.lastErr = nil
	cc := o.cc
	o.mu.Unlock()

	// Subscribers run during Append and may query the orchestrator, so the
	// lock is not held here.
	if err := o.appendPair(user, pending); err != nil {
		o.mu.Lock()
		o.state, o.outcome, o.pendingID = prevState, prevOutcome, ""
		o.mu.Unlock()
		return nil, err
	}

	return &Exchange{
		o:         o,
		Message:   message,
		UserID:    user.ID,
		PendingID: pending.ID,
		cc:        cc,
	}, nil
}

func (o *Orchestrator) appendPair(user, pending model.Entry) error {
	if err := o.conv.Append(user); err != nil {
		return fmt.Errorf("append user entry: %w", err)
	}
	if err := o.conv.Append(pending); err != nil {
		return fmt.Errorf("append assistant entry: %w", err)
	}
	return nil
}

// Submit starts an exchange and runs it to completion.
func (o *Orchestrator) Submit(ctx context.Context, text string) error {
	ex, err := o.Start(text)
	if err != nil {
		return err
	}
	return ex.Run(ctx)
}

// =============================================================================
// EXCHANGE
// =============================================================================

// Exchange is one accepted submission.
type Exchange struct {
	o  *Orchestrator
	cc tutor.ConversationContext

	Message   string
	UserID    string
	PendingID string

	once sync.Once
}

// Run streams the answer into the pending entry and settles the
// orchestrator. The returned error is informational: on failure the entry
// already holds the notice. A cancelled exchange gets no notice and keeps
// whatever arrived before the cancellation.
func (ex *Exchange) Run(ctx context.Context) error {
	err := ErrAlreadyRun
	ex.once.Do(func() {
		err = ex.run(ctx)
	})
	return err
}

func (ex *Exchange) run(ctx context.Context) (err error) {
	o := ex.o
	start := time.Now()

	o.mu.Lock()
	o.state = StateStreaming
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = &tutor.SendError{Class: tutor.FailureUnknown, Err: fmt.Errorf("panic during exchange: %v", r)}
		}
		ex.settle(err, time.Since(start))
	}()

	return o.sender.Send(ctx, ex.Message, ex.cc,
		func(fragment string) {
			o.conv.UpdateTrailingContent(ex.PendingID, func(content string) string {
				return content + fragment
			})
		},
		tutor.OnRestart(func() {
			o.conv.UpdateTrailingContent(ex.PendingID, func(string) string { return "" })
		}),
	)
}

func (ex *Exchange) settle(err error, elapsed time.Duration) {
	o := ex.o

	// The outcome lands first so observers can tell the notice from streamed
	// text. The state stays loading until the notice is written: a new
	// submission must not append behind the entry it replaces.
	o.mu.Lock()
	if err != nil {
		o.outcome = OutcomeError
		o.lastErr = err
	} else {
		o.outcome = OutcomeSuccess
	}
	o.mu.Unlock()

	cancelled := errors.Is(err, context.Canceled)
	if err != nil && !cancelled {
		notice := FormatErrorNotice(err)
		o.conv.UpdateTrailingContent(ex.PendingID, func(string) string { return notice })
	}

	o.mu.Lock()
	o.state = StateSettled
	o.mu.Unlock()

	switch {
	case cancelled:
		o.log.Info("exchange cancelled", "duration", elapsed)
	case err != nil:
		o.log.Warn("exchange settled", "outcome", OutcomeError.String(), "error", err, "duration", elapsed)
	default:
		o.log.Info("exchange settled", "outcome", OutcomeSuccess.String(), "duration", elapsed)
	}
}
