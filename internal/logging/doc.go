// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging wraps zap with the key/value call style used across
// studytutor and redacts credentials before they reach any sink.
package logging
