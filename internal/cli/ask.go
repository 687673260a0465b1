// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/jeranaias/studytutor/internal/exchange"
	"github.com/jeranaias/studytutor/internal/logging"
	"github.com/jeranaias/studytutor/internal/model"
)

// =============================================================================
// ASK COMMAND
// =============================================================================

// exitInterrupted is the conventional status for a SIGINT exit.
const exitInterrupted = 130

// HandleAsk runs `studytutor ask` and returns the process exit code.
func HandleAsk(args Args) int {
	cfg, err := LoadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
		return 1
	}

	log, err := NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s logging disabled: %v\n", DimStyle.Render("warning:"), err)
		log = logging.Nop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := NewSession(ctx, cfg, log)
	defer s.Close()

	if err := Ask(ctx, s, args.Query, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, context.Canceled) {
			return exitInterrupted
		}
		return 1
	}
	return 0
}

// Ask runs one exchange and copies the answer to out as it grows. On
// failure the error notice is written to errOut and the error returned;
// an interrupted exchange returns context.Canceled without a notice.
func Ask(ctx context.Context, s *Session, question string, out, errOut io.Writer) error {
	ex, err := s.Orchestrator.Start(question)
	if err != nil {
		return err
	}

	p := &streamPrinter{w: out, orch: s.Orchestrator, id: ex.PendingID}
	unsubscribe := s.Conversation().Subscribe(p.observe)
	defer unsubscribe()

	runErr := ex.Run(ctx)

	if p.Printed() != "" && !strings.HasSuffix(p.Printed(), "\n") {
		fmt.Fprintln(out)
	}
	if runErr != nil {
		// Interrupted by the user: nothing to report.
		if !errors.Is(runErr, context.Canceled) {
			fmt.Fprintln(errOut, NoticeStyle.Render(exchange.FormatErrorNotice(runErr)))
		}
		return runErr
	}
	return nil
}

// =============================================================================
// STREAM PRINTER
// =============================================================================

// streamPrinter writes the growth of one assistant entry. Content that no
// longer extends what was printed means the answer restarted from scratch.
type streamPrinter struct {
	w    io.Writer
	orch *exchange.Orchestrator
	id   string

	mu      sync.Mutex
	printed string
}

func (p *streamPrinter) observe(ch model.Change) {
	if ch.Kind != model.ChangeContent || ch.Entry.ID != p.id {
		return
	}
	// The error notice lands after fragments stopped arriving.
	if !p.orch.Receiving() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	content := ch.Entry.Content
	if strings.HasPrefix(content, p.printed) {
		io.WriteString(p.w, content[len(p.printed):])
	} else {
		if p.printed != "" {
			fmt.Fprintln(p.w)
		}
		io.WriteString(p.w, content)
	}
	p.printed = content
}

// Printed returns what has been written so far for the current attempt.
func (p *streamPrinter) Printed() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printed
}
