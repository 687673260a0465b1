// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Version information (set at build time via main).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies what the binary should do.
type Command int

const (
	// CmdTUI starts the interactive terminal UI.
	CmdTUI Command = iota
	// CmdAsk runs a single exchange and exits.
	CmdAsk
	// CmdChat starts the line REPL.
	CmdChat
	// CmdConfig inspects or edits the configuration.
	CmdConfig
	// CmdVersion prints version information.
	CmdVersion
	// CmdHelp prints usage.
	CmdHelp
)

func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

var commandNames = map[string]Command{
	"tui":     CmdTUI,
	"ask":     CmdAsk,
	"chat":    CmdChat,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// boolFlagNames are the flags that never take a value.
var boolFlagNames = []string{"plain", "no-greeting", "verbose", "v", "help", "h", "version"}

// =============================================================================
// ARGS
// =============================================================================

// Args holds the parsed command line.
type Args struct {
	// Query is the question for ask.
	Query string

	// Context label overrides. Empty means "use config".
	Subject string
	Chapter string
	Topic   string

	// Transport overrides.
	Provider string
	Model    string

	// ConfigFile overrides the config path.
	ConfigFile string

	NoGreeting bool
	Plain      bool
	Verbose    bool

	// Sub and Rest hold the config subcommand and its operands.
	Sub  string
	Rest []string

	Raw []string
}

// Parse parses os.Args. Unknown commands print usage and exit 2.
func Parse() (Command, Args) {
	cmd, args, err := ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n\n", ErrorStyle.Render("Error:"), err)
		PrintUsage(os.Stderr)
		os.Exit(2)
	}
	return cmd, args
}

// ParseArgs parses argv (without the program name).
func ParseArgs(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlagNames...)

	args := Args{
		Subject:    p.Flag("subject"),
		Chapter:    p.Flag("chapter"),
		Topic:      p.Flag("topic"),
		Provider:   p.Flag("provider"),
		Model:      p.Flag("model"),
		ConfigFile: p.Flag("config"),
		NoGreeting: p.BoolFlag("no-greeting"),
		Plain:      p.BoolFlag("plain"),
		Verbose:    p.BoolFlag("verbose") || p.BoolFlag("v"),
		Raw:        argv,
	}

	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}

	name := p.Subcommand()
	if name == "" {
		return CmdTUI, args, nil
	}
	cmd, ok := commandNames[strings.ToLower(name)]
	if !ok {
		return CmdHelp, args, fmt.Errorf("unknown command %q", name)
	}

	switch cmd {
	case CmdAsk:
		args.Query = strings.TrimSpace(strings.Join(p.PositionalFrom(1), " "))
		if args.Query == "" {
			return cmd, args, fmt.Errorf("ask needs a question, e.g. studytutor ask \"what is a derivative?\"")
		}
	case CmdConfig:
		args.Sub = p.Positional(1)
		args.Rest = p.PositionalFrom(2)
	}
	return cmd, args, nil
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `studytutor - a streaming study tutor for the terminal

Usage:
  studytutor [flags]                  start the interactive tutor
  studytutor ask "question" [flags]   ask one question and stream the answer
  studytutor chat [flags]             line-based chat session
  studytutor config show              print the effective configuration
  studytutor config get <key>         print one setting
  studytutor config set <key> <value> change one setting in config.toml
  studytutor config path              print the config file location
  studytutor version                  print version information

Flags:
  --subject S       subject label (e.g. "Calculus")
  --chapter C       chapter label
  --topic T         topic label
  --provider P      gemini | openrouter
  --model M         model name
  --config FILE     config file (default ~/.studytutor/config.toml)
  --no-greeting     start without the tutor greeting
  --plain           no colors or markdown rendering
  -v, --verbose     debug logging

Environment:
  GEMINI_API_KEY, OPENROUTER_API_KEY, STUDYTUTOR_HOME, STUDYTUTOR_PROVIDER,
  STUDYTUTOR_MODEL, STUDYTUTOR_BASE_URL, STUDYTUTOR_LOG_LEVEL
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "studytutor %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
