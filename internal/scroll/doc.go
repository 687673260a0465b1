// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scroll keeps a transcript view pinned to the newest content while
// the reader is at the bottom, and stops following once they scroll away.
//
// The Synchronizer only decides. The hosting view reports geometry and
// scroll gestures and executes scrolls through the Scroller interface, so
// the logic is testable without a terminal.
package scroll
