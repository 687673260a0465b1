// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RedactsSecretKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("configured", "provider", "gemini", "api_key", "AIza-secret", "Authorization", "Bearer x")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["provider"] != "gemini" {
		t.Errorf("provider = %v, want gemini", fields["provider"])
	}
	if fields["api_key"] != redacted {
		t.Errorf("api_key = %v, want redacted", fields["api_key"])
	}
	if fields["Authorization"] != redacted {
		t.Errorf("Authorization = %v, want redacted", fields["Authorization"])
	}
}

func TestLogger_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "tutor")

	log.Warn("stream failed")

	if got := logs.All()[0].ContextMap()["component"]; got != "tutor" {
		t.Errorf("component = %v, want tutor", got)
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "studytutor.log")

	log, err := New(Options{Mode: "production", Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("hello", "n", 1)
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Options{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.sugar.Desugar().Core().Enabled(zap.DebugLevel) {
		t.Error("debug should be disabled at info level")
	}
}
