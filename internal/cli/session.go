// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/studytutor/internal/config"
	"github.com/jeranaias/studytutor/internal/exchange"
	"github.com/jeranaias/studytutor/internal/logging"
	"github.com/jeranaias/studytutor/internal/model"
	"github.com/jeranaias/studytutor/internal/tutor"
)

// =============================================================================
// CONFIG
// =============================================================================

// LoadConfig reads the config file named by args (or the default path),
// then applies environment overrides and finally command line flags.
func LoadConfig(args Args) (*config.Config, error) {
	path := args.ConfigFile
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	// The provider decides which key variable is read.
	if args.Provider != "" {
		cfg.Tutor.Provider = args.Provider
	}
	cfg.ApplyEnvOverrides()
	ApplyArgs(cfg, args)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyArgs copies flag overrides into cfg. Flags win over the file and
// the environment.
func ApplyArgs(cfg *config.Config, args Args) {
	if args.Provider != "" {
		cfg.Tutor.Provider = args.Provider
	}
	if args.Model != "" {
		cfg.Tutor.Model = args.Model
	}
	if args.Subject != "" {
		cfg.Context.Subject = args.Subject
	}
	if args.Chapter != "" {
		cfg.Context.Chapter = args.Chapter
	}
	if args.Topic != "" {
		cfg.Context.Topic = args.Topic
	}
	if args.NoGreeting {
		cfg.UI.Greeting = false
	}
	if args.Plain {
		cfg.UI.Markdown = false
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
}

// NewLogger builds the file logger described by cfg.
func NewLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Options{
		Mode:  cfg.Log.Mode,
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one conversation wired to a transport client.
type Session struct {
	Config       *config.Config
	Log          *logging.Logger
	Client       *tutor.Client
	Orchestrator *exchange.Orchestrator
}

// NewSession builds the backend named by cfg. A backend that cannot be
// built (usually a missing API key) does not fail the session: every
// exchange then settles with the configuration notice.
func NewSession(ctx context.Context, cfg *config.Config, log *logging.Logger) *Session {
	if log == nil {
		log = logging.Nop()
	}

	backend, err := tutor.NewBackend(ctx, tutor.BackendConfig{
		Provider: cfg.Tutor.Provider,
		Model:    cfg.Tutor.Model,
		APIKey:   cfg.Tutor.APIKey,
		BaseURL:  cfg.Tutor.BaseURL,
	})
	if err != nil {
		log.Warn("tutor backend unavailable", "provider", cfg.Tutor.Provider, "error", err)
		backend = tutor.Unconfigured(err)
	}
	return NewSessionWithBackend(cfg, log, backend)
}

// NewSessionWithBackend wires a session around an existing backend.
func NewSessionWithBackend(cfg *config.Config, log *logging.Logger, backend tutor.Backend) *Session {
	if log == nil {
		log = logging.Nop()
	}

	client := tutor.NewClient(backend,
		tutor.WithTimeout(cfg.Tutor.RequestTimeout()),
		tutor.WithFallbackDelay(cfg.Tutor.FallbackDelay()),
		tutor.WithKeyEnvVar(cfg.Tutor.KeyEnvVars()[0]),
		tutor.WithLogger(log),
	)

	cc := ContextFromConfig(cfg)
	var conv *model.Conversation
	if cfg.UI.Greeting {
		conv = model.NewConversationWithGreeting(cc.Greeting())
	} else {
		conv = model.NewConversation()
	}

	log.Info("session ready",
		"backend", backend.Name(),
		"subject", cc.Subject,
		"greeting", cfg.UI.Greeting,
	)

	return &Session{
		Config:       cfg,
		Log:          log,
		Client:       client,
		Orchestrator: exchange.New(conv, client, cc, exchange.WithLogger(log)),
	}
}

// Conversation returns the session transcript.
func (s *Session) Conversation() *model.Conversation {
	return s.Orchestrator.Conversation()
}

// Close closes the conversation and flushes the logger.
func (s *Session) Close() {
	s.Conversation().Close()
	s.Log.Sync()
}

// ContextFromConfig returns the context labels configured in cfg.
func ContextFromConfig(cfg *config.Config) tutor.ConversationContext {
	return tutor.ConversationContext{
		Subject: cfg.Context.Subject,
		Chapter: cfg.Context.Chapter,
		Topic:   cfg.Context.Topic,
	}
}
