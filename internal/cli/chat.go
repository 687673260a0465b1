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

	"github.com/peterh/liner"

	"github.com/jeranaias/studytutor/internal/exchange"
	"github.com/jeranaias/studytutor/internal/logging"
	"github.com/jeranaias/studytutor/internal/model"
	"github.com/jeranaias/studytutor/internal/tutor"
)

// =============================================================================
// CHAT COMMAND
// =============================================================================

// LineReader reads one line of input. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

type historyAppender interface {
	AppendHistory(item string)
}

const chatPrompt = "you> "

// HandleChat runs `studytutor chat` and returns the process exit code.
func HandleChat(args Args) int {
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

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if err := Chat(ctx, s, line, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

// Chat runs the REPL until the reader is exhausted, the user quits, or
// ctx ends. Each line is one exchange streamed to out.
func Chat(ctx context.Context, s *Session, in LineReader, out, errOut io.Writer) error {
	printBanner(out, s.Orchestrator.Context())

	if greeting, ok := s.Conversation().Last(); ok && greeting.Role == model.RoleAssistant {
		fmt.Fprintf(out, "%s%s\n\n", TutorLabelStyle.Render("tutor> "), greeting.Content)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := in.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if h, ok := in.(historyAppender); ok {
			h.AppendHistory(input)
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleSlashCommand(s.Orchestrator, input, out, errOut); quit {
				return nil
			}
			continue
		}

		fmt.Fprint(out, TutorLabelStyle.Render("tutor> "))
		// Failures are already reported through the notice.
		_ = Ask(ctx, s, input, out, errOut)
		fmt.Fprintln(out)
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const chatHelp = `Commands:
  /help              show this help
  /context           show the subject, chapter and topic labels
  /subject <text>    change the subject label
  /chapter <text>    change the chapter label
  /topic <text>      change the topic label
  /quit, /exit       leave the chat
`

// handleSlashCommand runs one slash command and reports whether the REPL
// should exit.
func handleSlashCommand(orch *exchange.Orchestrator, input string, out, errOut io.Writer) bool {
	name, rest, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(out, chatHelp)
	case "context":
		printContext(out, orch.Context())
	case "subject", "chapter", "topic":
		if rest == "" {
			fmt.Fprintf(errOut, "%s /%s needs a value\n", ErrorStyle.Render("Error:"), name)
			return false
		}
		cc := orch.Context()
		switch strings.ToLower(name) {
		case "subject":
			cc.Subject = rest
		case "chapter":
			cc.Chapter = rest
		case "topic":
			cc.Topic = rest
		}
		orch.SetContext(cc)
		printContext(out, cc)
	default:
		fmt.Fprintf(errOut, "%s unknown command /%s (try /help)\n", ErrorStyle.Render("Error:"), name)
	}
	return false
}

func printBanner(out io.Writer, cc tutor.ConversationContext) {
	fmt.Fprintln(out, TitleStyle.Render("studytutor chat"))
	if cc.Subject != "" {
		fmt.Fprintln(out, DimStyle.Render(cc.Subject+" "+cc.Chapter))
	}
	fmt.Fprintln(out, DimStyle.Render("Type /help for commands, Ctrl+C to leave."))
	fmt.Fprintln(out)
}

func printContext(out io.Writer, cc tutor.ConversationContext) {
	fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("subject:"), orUnset(cc.Subject))
	fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("chapter:"), orUnset(cc.Chapter))
	fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("topic:  "), orUnset(cc.Topic))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
