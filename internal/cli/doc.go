// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the studytutor command line.
//
// It parses arguments into a Command, wires configuration, logging, the
// tutor transport and the exchange orchestrator into a Session, and hosts
// the non-TUI surfaces:
//
//	studytutor                       interactive TUI (default)
//	studytutor ask "question"        one exchange streamed to stdout
//	studytutor chat                  line-based REPL
//	studytutor config show|get|set   inspect or edit config.toml
//	studytutor version | help
package cli
