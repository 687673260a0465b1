// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenRouterURL is the OpenAI-compatible endpoint used when no base URL is set.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// MaxResponseSize caps non-streaming response bodies.
const MaxResponseSize = 10 * 1024 * 1024

// chatMessage is a single OpenAI-style chat message.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// streamChunk is one SSE data payload of a streaming completion.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type apiErrorResponse struct {
	Error struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// OpenRouterBackend talks to an OpenAI-compatible chat completions API.
type OpenRouterBackend struct {
	apiKey  string
	baseURL string
	model   string

	// httpClient is used for non-streaming calls. Streaming calls use
	// streamClient, which has no overall timeout; the context bounds them.
	httpClient   *http.Client
	streamClient *http.Client
}

// NewOpenRouterBackend creates a backend for the given key and model.
func NewOpenRouterBackend(apiKey, model string) *OpenRouterBackend {
	return &OpenRouterBackend{
		apiKey:       apiKey,
		baseURL:      DefaultOpenRouterURL,
		model:        model,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		streamClient: &http.Client{},
	}
}

// WithBaseURL overrides the API base URL.
func (b *OpenRouterBackend) WithBaseURL(url string) *OpenRouterBackend {
	if url != "" {
		b.baseURL = strings.TrimRight(url, "/")
	}
	return b
}

// Name implements Backend.
func (b *OpenRouterBackend) Name() string { return "openrouter" }

// Model returns the configured model identifier.
func (b *OpenRouterBackend) Model() string { return b.model }

// Stream implements Backend.
func (b *OpenRouterBackend) Stream(ctx context.Context, prompt string, yield func(string) error) error {
	req, err := b.newRequest(ctx, prompt, true)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := b.streamClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return handleErrorResponse(resp.StatusCode, body)
	}

	reader := NewSSEReader(resp.Body)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		event, err := reader.ReadEvent()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading from the stream: %w", err)
		}

		data := strings.TrimSpace(event.Data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("error reading from the stream: malformed chunk: %w", err)
		}
		if chunk.Error != nil {
			return &APIError{Code: fmt.Sprint(chunk.Error.Code), Message: chunk.Error.Message, Status: http.StatusOK}
		}
		for _, choice := range chunk.Choices {
			if err := yield(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}

// Generate implements Backend.
func (b *OpenRouterBackend) Generate(ctx context.Context, prompt string) (string, error) {
	req, err := b.newRequest(ctx, prompt, false)
	if err != nil {
		return "", err
	}

	resp, err := b.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (b *OpenRouterBackend) newRequest(ctx context.Context, prompt string, stream bool) (*http.Request, error) {
	if b.apiKey == "" {
		return nil, ErrNotConfigured
	}

	bodyBytes, err := json.Marshal(chatRequest{
		Model:    b.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "studytutor/"+Version)
	req.Header.Set("X-Title", "studytutor")
	return req, nil
}

// handleErrorResponse converts HTTP error responses to appropriate Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var sentinel error
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrAuthFailed
	case http.StatusNotFound:
		sentinel = ErrModelNotFound
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		if sentinel != nil {
			return fmt.Errorf("%w: %s", sentinel, apiErr.Error.Message)
		}
		code := ""
		if apiErr.Error.Code != nil {
			code = fmt.Sprint(apiErr.Error.Code)
		}
		return &APIError{Code: code, Message: apiErr.Error.Message, Status: statusCode}
	}

	if sentinel != nil {
		return sentinel
	}
	return &APIError{Message: strings.TrimSpace(string(body)), Status: statusCode}
}
