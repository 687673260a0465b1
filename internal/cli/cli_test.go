// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/studytutor/internal/config"
	"github.com/jeranaias/studytutor/internal/exchange"
	"github.com/jeranaias/studytutor/internal/logging"
	"github.com/jeranaias/studytutor/internal/tutor"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "value flag",
			args:    []string{"ask", "--subject", "Calculus", "what", "is", "a", "limit"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "Calculus", p.Flag("subject"))
				assert.Equal(t, "what is a limit", strings.Join(p.PositionalFrom(1), " "))
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"--chapter=Derivatives", "chat"},
			wantSub: "chat",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "Derivatives", p.Flag("--chapter"))
			},
		},
		{
			name:    "declared bool flag does not swallow the next word",
			args:    []string{"ask", "--plain", "why"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("plain"))
				assert.Equal(t, "why", p.Positional(1))
			},
		},
		{
			name:    "explicit bool value",
			args:    []string{"--plain=false"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.BoolFlag("plain"))
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"ask", "--", "--what", "is", "this"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, []string{"--what", "is", "this"}, p.PositionalFrom(1))
				assert.False(t, p.HasFlag("what"))
			},
		},
		{
			name:    "trailing undeclared flag",
			args:    []string{"chat", "--debug"},
			wantSub: "chat",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("debug"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, boolFlagNames...)
			assert.Equal(t, tt.wantSub, p.Subcommand())
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_Accessors(t *testing.T) {
	p := NewArgParser([]string{"config", "get"})
	assert.Equal(t, 2, p.PositionalCount())
	assert.Equal(t, "", p.Positional(5))
	assert.Nil(t, p.PositionalFrom(3))
	assert.Equal(t, "fallback", p.FlagOrDefault("model", "fallback"))
	assert.Equal(t, []string{"config", "get"}, p.Raw())
}

// =============================================================================
// COMMAND PARSING TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		want    Command
		wantErr bool
		check   func(*testing.T, Args)
	}{
		{name: "no arguments starts the TUI", argv: nil, want: CmdTUI},
		{
			name: "TUI flags",
			argv: []string{"--subject", "Mathematics", "--no-greeting"},
			want: CmdTUI,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "Mathematics", a.Subject)
				assert.True(t, a.NoGreeting)
			},
		},
		{
			name: "ask joins the question",
			argv: []string{"ask", "What", "is", "a", "derivative?", "--topic", "1.2"},
			want: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "What is a derivative?", a.Query)
				assert.Equal(t, "1.2", a.Topic)
			},
		},
		{name: "ask without question", argv: []string{"ask"}, want: CmdAsk, wantErr: true},
		{name: "ask with blank question", argv: []string{"ask", "  "}, want: CmdAsk, wantErr: true},
		{
			name: "config set",
			argv: []string{"config", "set", "context.subject", "Organic", "Chemistry"},
			want: CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Sub)
				assert.Equal(t, []string{"context.subject", "Organic", "Chemistry"}, a.Rest)
			},
		},
		{
			name: "verbose short flag",
			argv: []string{"chat", "-v"},
			want: CmdChat,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.Verbose)
			},
		},
		{name: "help flag wins", argv: []string{"ask", "--help"}, want: CmdHelp},
		{name: "version flag", argv: []string{"--version"}, want: CmdVersion},
		{name: "version command", argv: []string{"VERSION"}, want: CmdVersion},
		{name: "unknown command", argv: []string{"frobnicate"}, want: CmdHelp, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := ParseArgs(tt.argv)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "ask", CmdAsk.String())
	assert.Equal(t, "tui", CmdTUI.String())
	assert.Equal(t, "unknown", Command(99).String())
}

func TestPrintUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "studytutor ask")

	buf.Reset()
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "studytutor "+Version)
}

// =============================================================================
// CONFIG LOADING TESTS
// =============================================================================

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("STUDYTUTOR_HOME", home)
	for _, name := range []string{
		"GEMINI_API_KEY", "NEXT_PUBLIC_GEMINI_API_KEY", "OPENROUTER_API_KEY",
		"STUDYTUTOR_PROVIDER", "STUDYTUTOR_MODEL", "STUDYTUTOR_BASE_URL", "STUDYTUTOR_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
	return home
}

func TestLoadConfig_Precedence(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tutor]\nmodel = \"from-file\"\n[context]\nsubject = \"Physics\"\n"), 0600))

	t.Setenv("STUDYTUTOR_MODEL", "from-env")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := LoadConfig(Args{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Tutor.Model)
	assert.Equal(t, "env-key", cfg.Tutor.APIKey)
	assert.Equal(t, "Physics", cfg.Context.Subject)

	cfg, err = LoadConfig(Args{ConfigFile: path, Model: "from-flag", Subject: "Biology", Plain: true, Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Tutor.Model)
	assert.Equal(t, "Biology", cfg.Context.Subject)
	assert.False(t, cfg.UI.Markdown)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_ProviderFlagSelectsKeyVariable(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("OPENROUTER_API_KEY", "openrouter-key")

	cfg, err := LoadConfig(Args{Provider: "openrouter", Model: "google/gemini-2.5-flash"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter-key", cfg.Tutor.APIKey)
}

func TestLoadConfig_RejectsInvalidProvider(t *testing.T) {
	isolateEnv(t)
	_, err := LoadConfig(Args{Provider: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tutor.provider")
}

// =============================================================================
// ASK TESTS
// =============================================================================

// stubBackend streams fragments, then fails with streamErr if set.
type stubBackend struct {
	fragments []string
	streamErr error
	text      string
	genErr    error
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Stream(_ context.Context, _ string, yield func(string) error) error {
	for _, f := range b.fragments {
		if err := yield(f); err != nil {
			return err
		}
	}
	return b.streamErr
}

func (b *stubBackend) Generate(context.Context, string) (string, error) {
	return b.text, b.genErr
}

func testSession(t *testing.T, backend tutor.Backend) *Session {
	t.Helper()
	cfg := config.Default()
	cfg.Tutor.FallbackDelayMs = 0
	cfg.Tutor.RequestTimeoutSecs = 0
	cfg.UI.Greeting = false
	cfg.Context = config.ContextConfig{Subject: "Mathematics", Chapter: "Calculus", Topic: "1.2"}
	return NewSessionWithBackend(cfg, logging.Nop(), backend)
}

func TestAsk_StreamsFragments(t *testing.T) {
	s := testSession(t, &stubBackend{fragments: []string{"A derivative ", "measures ", "instantaneous rate of change."}})

	var out, errOut bytes.Buffer
	err := Ask(context.Background(), s, "What is a derivative?", &out, &errOut)
	require.NoError(t, err)

	assert.Equal(t, "A derivative measures instantaneous rate of change.\n", out.String())
	assert.Empty(t, errOut.String())

	entries := s.Conversation().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "A derivative measures instantaneous rate of change.", entries[1].Content)
	assert.Equal(t, exchange.OutcomeSuccess, s.Orchestrator.Outcome())
}

func TestAsk_FallbackAfterPartialStream(t *testing.T) {
	s := testSession(t, &stubBackend{
		fragments: []string{"A deriv"},
		streamErr: errors.New("stream reset"),
		text:      "Rate of change.",
	})

	var out, errOut bytes.Buffer
	require.NoError(t, Ask(context.Background(), s, "What is a derivative?", &out, &errOut))

	assert.Equal(t, "A deriv\nRate of change.\n", out.String())
	last, ok := s.Conversation().Last()
	require.True(t, ok)
	assert.Equal(t, "Rate of change.", last.Content)
}

func TestAsk_DoubleFailurePrintsNotice(t *testing.T) {
	s := testSession(t, &stubBackend{
		streamErr: errors.New("stream failed"),
		genErr:    errors.New("connection refused"),
	})

	var out, errOut bytes.Buffer
	err := Ask(context.Background(), s, "What is a derivative?", &out, &errOut)

	var sendErr *tutor.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, tutor.FailureNetwork, sendErr.Class)
	assert.Empty(t, out.String(), "the notice is not streamed as answer text")
	assert.Contains(t, errOut.String(), "Network connection issue detected")

	last, _ := s.Conversation().Last()
	assert.Contains(t, last.Content, "Network connection issue detected")
}

func TestAsk_UnconfiguredBackend(t *testing.T) {
	s := testSession(t, tutor.Unconfigured(nil))

	var out, errOut bytes.Buffer
	err := Ask(context.Background(), s, "hello", &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "API key configuration issue")
}

func TestAsk_UnconfiguredOpenRouterNamesItsKey(t *testing.T) {
	cfg := config.Default()
	cfg.Tutor.Provider = config.ProviderOpenRouter
	cfg.Tutor.FallbackDelayMs = 0
	cfg.UI.Greeting = false
	s := NewSessionWithBackend(cfg, logging.Nop(), tutor.Unconfigured(nil))

	var errOut bytes.Buffer
	require.Error(t, Ask(context.Background(), s, "hello", io.Discard, &errOut))
	assert.Contains(t, errOut.String(), "OPENROUTER_API_KEY")
	assert.NotContains(t, errOut.String(), "GEMINI_API_KEY")
}

// cancellingBackend delivers one fragment, then cancels the exchange.
type cancellingBackend struct {
	cancel context.CancelFunc
}

func (b cancellingBackend) Name() string { return "cancelling" }

func (b cancellingBackend) Stream(ctx context.Context, _ string, yield func(string) error) error {
	if err := yield("Partial"); err != nil {
		return err
	}
	b.cancel()
	return ctx.Err()
}

func (b cancellingBackend) Generate(ctx context.Context, _ string) (string, error) {
	return "", ctx.Err()
}

func TestAsk_InterruptIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := testSession(t, cancellingBackend{cancel: cancel})

	var out, errOut bytes.Buffer
	err := Ask(ctx, s, "What is a derivative?", &out, &errOut)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Partial\n", out.String())
	assert.Empty(t, errOut.String())

	last, _ := s.Conversation().Last()
	assert.Equal(t, "Partial", last.Content)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	s := testSession(t, &stubBackend{})
	err := Ask(context.Background(), s, "   ", io.Discard, io.Discard)
	assert.ErrorIs(t, err, exchange.ErrEmptyInput)
	assert.Equal(t, 0, s.Conversation().Len())
}

func TestNewSession_MissingKeyStillStarts(t *testing.T) {
	cfg := config.Default()
	cfg.Tutor.APIKey = ""
	s := NewSession(context.Background(), cfg, nil)
	defer s.Close()

	assert.Equal(t, "unconfigured", s.Client.Backend().Name())
	require.Equal(t, 1, s.Conversation().Len(), "greeting is enabled by default")
	first, _ := s.Conversation().Last()
	assert.Contains(t, first.Content, "I'm your AI tutor")
}

// =============================================================================
// CHAT TESTS
// =============================================================================

// scriptedReader replays lines, then reports io.EOF.
type scriptedReader struct {
	lines   []string
	history []string
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

func TestChat_ExchangesAndCommands(t *testing.T) {
	s := testSession(t, &stubBackend{fragments: []string{"Velocity is ", "speed with direction."}})
	in := &scriptedReader{lines: []string{"", "/subject Physics", "What is velocity?", "/context", "/quit", "never read"}}

	var out, errOut bytes.Buffer
	require.NoError(t, Chat(context.Background(), s, in, &out, &errOut))

	assert.Contains(t, out.String(), "Velocity is speed with direction.")
	assert.Contains(t, out.String(), "Physics")
	assert.Equal(t, "Physics", s.Orchestrator.Context().Subject)
	assert.Equal(t, []string{"never read"}, in.lines)
	assert.Equal(t, []string{"/subject Physics", "What is velocity?", "/context", "/quit"}, in.history)
	assert.Equal(t, 2, s.Conversation().Len())
}

func TestChat_UnknownCommandAndEOF(t *testing.T) {
	s := testSession(t, &stubBackend{})
	in := &scriptedReader{lines: []string{"/dance", "/topic"}}

	var out, errOut bytes.Buffer
	require.NoError(t, Chat(context.Background(), s, in, &out, &errOut))
	assert.Contains(t, errOut.String(), "unknown command /dance")
	assert.Contains(t, errOut.String(), "/topic needs a value")
}

func TestChat_ShowsGreeting(t *testing.T) {
	cfg := config.Default()
	cfg.Context.Subject = "Mathematics"
	s := NewSessionWithBackend(cfg, logging.Nop(), &stubBackend{})

	var out bytes.Buffer
	require.NoError(t, Chat(context.Background(), s, &scriptedReader{}, &out, io.Discard))
	assert.Contains(t, out.String(), "Hi! I'm your AI tutor for Mathematics.")
}

// =============================================================================
// CONFIG COMMAND TESTS
// =============================================================================

func TestRunConfig_SetGetShow(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "nested", "config.toml")
	args := Args{ConfigFile: path}

	var out bytes.Buffer
	args.Sub, args.Rest = "set", []string{"context.subject", "Organic", "Chemistry"}
	require.NoError(t, RunConfig(args, &out))

	args.Rest = []string{"tutor.api_key", "sk-test-abcdef123456"}
	out.Reset()
	require.NoError(t, RunConfig(args, &out))
	assert.Contains(t, out.String(), "3456")
	assert.NotContains(t, out.String(), "sk-test")

	args.Sub, args.Rest = "get", []string{"context.subject"}
	out.Reset()
	require.NoError(t, RunConfig(args, &out))
	assert.Equal(t, "Organic Chemistry\n", out.String())

	args.Sub, args.Rest = "show", nil
	out.Reset()
	require.NoError(t, RunConfig(args, &out))
	assert.Contains(t, out.String(), "Organic Chemistry")
	assert.NotContains(t, out.String(), "sk-test-abcdef123456")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestRunConfig_Errors(t *testing.T) {
	home := isolateEnv(t)
	args := Args{ConfigFile: filepath.Join(home, "config.toml")}

	args.Sub, args.Rest = "set", []string{"ui.greeting", "maybe"}
	assert.Error(t, RunConfig(args, io.Discard))

	args.Rest = []string{"tutor.provider", "carrier-pigeon"}
	assert.Error(t, RunConfig(args, io.Discard))

	args.Sub, args.Rest = "get", nil
	assert.Error(t, RunConfig(args, io.Discard))

	args.Sub = "frobnicate"
	assert.Error(t, RunConfig(args, io.Discard))
}

func TestRunConfig_PathAndKeys(t *testing.T) {
	isolateEnv(t)

	var out bytes.Buffer
	require.NoError(t, RunConfig(Args{Sub: "path", ConfigFile: "/tmp/x.toml"}, &out))
	assert.Equal(t, "/tmp/x.toml\n", out.String())

	out.Reset()
	require.NoError(t, RunConfig(Args{Sub: "keys"}, &out))
	assert.Contains(t, out.String(), "tutor.model\n")
	assert.Contains(t, out.String(), "ui.scroll_debounce_ms\n")
}

func TestClampWidth(t *testing.T) {
	assert.Equal(t, minWidth, clampWidth(10))
	assert.Equal(t, 100, clampWidth(100))
	assert.Equal(t, maxWidth, clampWidth(500))
}
