// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the interactive tutor view for the TUI.
//
// The view hosts a Conversation: it renders the transcript in a scrollable
// viewport, submits questions through the exchange Orchestrator and keeps the
// viewport pinned to new content through a scroll Synchronizer.
//
// Conversation changes arrive on the transport goroutine. They are reduced
// to a wake-up signal on a one-slot channel, and a tea.Cmd waiting on that
// channel turns the signal into a message for Update, so the model is only
// ever touched from the Bubble Tea loop.
package chat
