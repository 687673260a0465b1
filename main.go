// studytutor - a streaming study tutor for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/studytutor/internal/cli"
	"github.com/jeranaias/studytutor/internal/logging"
	"github.com/jeranaias/studytutor/internal/tutor"
	"github.com/jeranaias/studytutor/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	tutor.Version = Version
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		os.Exit(runTUI(args))
	case cli.CmdAsk:
		os.Exit(cli.HandleAsk(args))
	case cli.CmdChat:
		os.Exit(cli.HandleChat(args))
	case cli.CmdConfig:
		os.Exit(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
	}
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(args cli.Args) int {
	cfg, err := cli.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// The alternate screen owns the terminal: logs only ever go to the file.
	log, err := cli.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		log = logging.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := cli.NewSession(ctx, cfg, log)
	defer s.Close()

	m := chat.New(ctx, s.Orchestrator, chat.Options{
		Markdown:        cfg.UI.Markdown,
		ScrollQuiet:     cfg.UI.ScrollDebounce(),
		BottomThreshold: cfg.UI.BottomThreshold,
		Logger:          log,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		log.Error("tui exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running studytutor: %v\n", err)
		return 1
	}
	return 0
}
