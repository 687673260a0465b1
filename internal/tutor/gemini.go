// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend generates answers with Google Gemini.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini API client. baseURL is optional and is
// mostly useful for pointing at a local test server.
func NewGeminiBackend(ctx context.Context, apiKey, model, baseURL string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiBackend{client: client, model: model}, nil
}

// Name implements Backend.
func (g *GeminiBackend) Name() string { return "gemini" }

// Model returns the configured model identifier.
func (g *GeminiBackend) Model() string { return g.model }

// Stream implements Backend.
func (g *GeminiBackend) Stream(ctx context.Context, prompt string, yield func(string) error) error {
	for res, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), nil) {
		if err != nil {
			return fmt.Errorf("error reading from the stream: %w", err)
		}
		if res == nil {
			continue
		}
		if err := yield(res.Text()); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Generate implements Backend.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("calling Gemini: %w", err)
	}
	if res == nil {
		return "", ErrEmptyResponse
	}
	return res.Text(), nil
}
