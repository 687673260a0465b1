// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange runs one question/answer cycle against a conversation.
//
// An Orchestrator accepts a submission, appends the user entry and an empty
// assistant placeholder, and then streams the answer into that placeholder.
// At most one exchange is in flight per orchestrator. Failures never escape
// as panics: the placeholder is replaced by a formatted notice instead.
//
//	orch := exchange.New(conv, client, cc)
//	ex, err := orch.Start("What is a derivative?")
//	if err == nil {
//	    go ex.Run(ctx)
//	}
package exchange
