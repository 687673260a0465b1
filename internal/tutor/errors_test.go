// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"nil", nil, FailureUnknown},
		{"not configured", ErrNotConfigured, FailureConfiguration},
		{"auth wrapped", fmt.Errorf("%w: invalid key", ErrAuthFailed), FailureConfiguration},
		{"api key message", errors.New("API key not valid. Please pass a valid API key."), FailureConfiguration},
		{"deadline", context.DeadlineExceeded, FailureNetwork},
		{"unexpected eof", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), FailureNetwork},
		{"url error", &url.Error{Op: "Post", URL: "https://x", Err: errors.New("dial tcp")}, FailureNetwork},
		{"network text", errors.New("Network request failed"), FailureNetwork},
		{"stream text", errors.New("error reading from the stream"), FailureNetwork},
		{"quic", errors.New("net::ERR_QUIC_PROTOCOL_ERROR"), FailureNetwork},
		{"connection text", errors.New("connection reset by peer"), FailureNetwork},
		{"other", errors.New("model overloaded"), FailureUnknown},
		{"rate limited", ErrRateLimited, FailureUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyError(tc.err))
		})
	}
}

func TestSendError_Reason(t *testing.T) {
	network := &SendError{Class: FailureNetwork, Err: errors.New("x")}
	assert.Contains(t, network.Error(), "Network connection issue detected")

	config := &SendError{Class: FailureConfiguration, Err: ErrNotConfigured}
	assert.Contains(t, config.Error(), "API key configuration issue")
	assert.Contains(t, config.Error(), "the provider's API key variable")
	assert.NotContains(t, config.Error(), "GEMINI_API_KEY")

	openrouter := &SendError{Class: FailureConfiguration, Err: ErrNotConfigured, KeyVar: "OPENROUTER_API_KEY"}
	assert.Contains(t, openrouter.Error(), "(OPENROUTER_API_KEY or api_key in config.toml)")

	unknown := &SendError{Class: FailureUnknown, Err: errors.New("model overloaded")}
	assert.Equal(t, "model overloaded", unknown.Error())
	assert.Equal(t, "An unexpected error occurred", (&SendError{}).Reason())
}

func TestFailureClass_String(t *testing.T) {
	assert.Equal(t, "network", FailureNetwork.String())
	assert.Equal(t, "configuration", FailureConfiguration.String())
	assert.Equal(t, "unknown", FailureUnknown.String())
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "upstream error [bad] (HTTP 500): boom", (&APIError{Code: "bad", Message: "boom", Status: 500}).Error())
	assert.Equal(t, "upstream error (HTTP 502): gateway", (&APIError{Message: "gateway", Status: 502}).Error())
}
