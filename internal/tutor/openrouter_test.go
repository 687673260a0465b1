// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenRouterServer(t *testing.T, handler http.HandlerFunc) *OpenRouterBackend {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenRouterBackend("test-key", "test/model").WithBaseURL(server.URL)
}

func writeSSE(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)
	for _, c := range chunks {
		payload, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"delta": map[string]string{"content": c}}},
		})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		if flusher != nil {
			flusher.Flush()
		}
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func TestOpenRouter_Stream(t *testing.T) {
	b := newOpenRouterServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "test/model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		fmt.Fprint(w, ": keep-alive\n\n")
		writeSSE(w, "A derivative ", "measures ", "change.")
	})

	var got []string
	err := b.Stream(context.Background(), "prompt", func(s string) error {
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A derivative ", "measures ", "change."}, got)
}

func TestOpenRouter_StreamMalformedChunk(t *testing.T) {
	b := newOpenRouterServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: {not json\n\n")
	})

	var got []string
	err := b.Stream(context.Background(), "prompt", func(s string) error {
		got = append(got, s)
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, FailureNetwork, ClassifyError(err))
	assert.Equal(t, []string{"ok"}, got)
}

func TestOpenRouter_StreamErrorEvent(t *testing.T) {
	b := newOpenRouterServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"error\":{\"code\":502,\"message\":\"provider down\"}}\n\n")
	})

	err := b.Stream(context.Background(), "prompt", func(string) error { return nil })
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "provider down", apiErr.Message)
	assert.Equal(t, "502", apiErr.Code)
}

func TestOpenRouter_Generate(t *testing.T) {
	b := newOpenRouterServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Rate of change."}}]}`)
	})

	text, err := b.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Rate of change.", text)
}

func TestOpenRouter_GenerateNoChoices(t *testing.T) {
	b := newOpenRouterServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	_, err := b.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenRouter_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized json", http.StatusUnauthorized, `{"error":{"code":401,"message":"No auth credentials found"}}`, ErrAuthFailed},
		{"forbidden plain", http.StatusForbidden, "denied", ErrAuthFailed},
		{"not found", http.StatusNotFound, "", ErrModelNotFound},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrRateLimited},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newOpenRouterServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})

			_, err := b.Generate(context.Background(), "prompt")
			assert.ErrorIs(t, err, tc.want)

			err = b.Stream(context.Background(), "prompt", func(string) error { return nil })
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOpenRouter_ServerErrorIsAPIError(t *testing.T) {
	b := newOpenRouterServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"code":"server_error","message":"boom"}}`)
	})

	_, err := b.Generate(context.Background(), "prompt")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "server_error", apiErr.Code)
}

func TestOpenRouter_MissingKey(t *testing.T) {
	b := NewOpenRouterBackend("", "m")

	_, err := b.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, b.Stream(context.Background(), "prompt", nil), ErrNotConfigured)
}

func TestClient_OverOpenRouterFallsBack(t *testing.T) {
	b := newOpenRouterServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Rate of change."}}]}`)
	})

	var got []string
	err := NewClient(b, WithPacer(NoPacer{})).Send(context.Background(), "q", testContext, func(s string) {
		got = append(got, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rate", " of", " change."}, got)
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	b, err := NewBackend(ctx, BackendConfig{Provider: "openrouter", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", b.Name())

	_, err = NewBackend(ctx, BackendConfig{Provider: "openrouter"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewBackend(ctx, BackendConfig{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewBackend(ctx, BackendConfig{Provider: "carrier-pigeon", APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
