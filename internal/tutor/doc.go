// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tutor is the transport client that asks a remote generative-text
// service for an answer and delivers it as an ordered sequence of fragments.
//
// The client always tries an incremental stream first. If the stream cannot
// be opened or breaks mid-way, it issues one non-streaming request for the
// same prompt and replays the complete answer word by word with a short
// delay, so callers observe the same fragment contract either way. Only when
// both attempts fail does Send return a *SendError carrying a failure class.
//
// # Backends
//
//   - GeminiBackend: Google Gemini through google.golang.org/genai
//   - OpenRouterBackend: any OpenAI-compatible /chat/completions endpoint (SSE)
//   - Unconfigured: placeholder whose calls fail with the configuration error
//
// # Usage
//
//	backend, err := tutor.NewBackend(ctx, tutor.BackendConfig{Provider: "gemini", APIKey: key})
//	if err != nil {
//	    backend = tutor.Unconfigured(err)
//	}
//	client := tutor.NewClient(backend, tutor.WithFallbackDelay(50*time.Millisecond))
//	err = client.Send(ctx, "What is a derivative?", tutor.ConversationContext{
//	    Subject: "Mathematics", Chapter: "Calculus", Topic: "1.2",
//	}, func(fragment string) { fmt.Print(fragment) })
package tutor
