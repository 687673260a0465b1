// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"fmt"
	"strings"
)

// Version is reported in the User-Agent of HTTP backends.
var Version = "0.1.0"

// Backend is one remote generation service.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Stream requests an incremental answer and calls yield once per
	// received piece of text, in order. A non-nil error from yield aborts
	// the stream and is returned.
	Stream(ctx context.Context, prompt string, yield func(string) error) error

	// Generate requests the complete answer in one response.
	Generate(ctx context.Context, prompt string) (string, error)
}

// BackendConfig selects and configures a backend.
type BackendConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewBackend builds the backend named by cfg.Provider.
func NewBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		return NewGeminiBackend(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "openrouter", "openai":
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewOpenRouterBackend(cfg.APIKey, cfg.Model).WithBaseURL(cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// unconfigured fails every call with the error that prevented construction.
type unconfigured struct {
	err error
}

// Unconfigured returns a Backend whose calls all fail with err. It lets the
// interface start without a credential and report the problem per message.
func Unconfigured(err error) Backend {
	if err == nil {
		err = ErrNotConfigured
	}
	return unconfigured{err: err}
}

func (u unconfigured) Name() string { return "unconfigured" }

func (u unconfigured) Stream(context.Context, string, func(string) error) error { return u.err }

func (u unconfigured) Generate(context.Context, string) (string, error) { return "", u.err }
