// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Error variables for common upstream failures.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key is not configured")

	// ErrAuthFailed indicates the upstream rejected the credential.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyResponse indicates the upstream answered with no text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrUnknownProvider indicates an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown provider")
)

// APIError represents a non-2xx response from an HTTP backend.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// FAILURE CLASSES
// =============================================================================

// FailureClass groups terminal failures by what the user can do about them.
type FailureClass int

const (
	// FailureUnknown is any failure that is not clearly network or configuration.
	FailureUnknown FailureClass = iota
	// FailureNetwork covers connectivity and stream transport failures.
	FailureNetwork
	// FailureConfiguration covers a missing or rejected credential.
	FailureConfiguration
)

// String returns the class name.
func (c FailureClass) String() string {
	switch c {
	case FailureNetwork:
		return "network"
	case FailureConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// SendError is returned by Client.Send when both the stream and the
// non-streaming fallback failed.
type SendError struct {
	Class FailureClass
	// Err is the failure that ended the exchange (the fallback's, normally).
	Err error
	// StreamErr is the failure that triggered the fallback, if any.
	StreamErr error
	// KeyVar names the environment variable holding the provider's API key.
	KeyVar string
}

// Error returns a human-readable cause.
func (e *SendError) Error() string {
	return e.Reason()
}

// Unwrap returns the underlying error.
func (e *SendError) Unwrap() error {
	return e.Err
}

// Reason describes the failure for display to the user.
func (e *SendError) Reason() string {
	switch e.Class {
	case FailureNetwork:
		return "Network connection issue detected. This might be due to your internet connection or API service interruption. Please try again in a moment."
	case FailureConfiguration:
		keyVar := e.KeyVar
		if keyVar == "" {
			keyVar = "the provider's API key variable"
		}
		return "API key configuration issue. Please check your environment setup (" + keyVar + " or api_key in config.toml)."
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "An unexpected error occurred"
	}
}

// networkMarkers are substrings seen in transport failures whose concrete
// type was lost along the way (SDK wrappers, proxies).
var networkMarkers = []string{
	"network",
	"stream",
	"quic_protocol_error",
	"connection",
	"broken pipe",
	"unexpected eof",
	"timeout",
}

// ClassifyError maps an upstream failure to a FailureClass.
func ClassifyError(err error) FailureClass {
	if err == nil {
		return FailureUnknown
	}

	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrAuthFailed) {
		return FailureConfiguration
	}

	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.As(err, &netErr),
		errors.As(err, &urlErr):
		return FailureNetwork
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range networkMarkers {
		if strings.Contains(msg, marker) {
			return FailureNetwork
		}
	}
	if strings.Contains(msg, "api key") {
		return FailureConfiguration
	}

	return FailureUnknown
}
