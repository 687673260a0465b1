// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for studytutor.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - TutorConfig: Provider, model, credential and request pacing
//   - ContextConfig: Default subject, chapter and topic labels
//   - UIConfig: Interface behavior (greeting, scroll debounce, markdown)
//   - LogConfig: Logger level, mode and file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GEMINI_API_KEY, STUDYTUTOR_*)
//   - ~/.studytutor/config.toml (directory overridable with STUDYTUTOR_HOME)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.Tutor.RequestTimeout()
package config
