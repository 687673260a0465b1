// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation transcript shared by the tutor
// pipeline and every view that renders it.
//
// # Key Types
//
//   - Entry: one transcript entry (user question or assistant answer)
//   - Conversation: ordered, append-only log of entries with in-place growth
//     of the trailing assistant entry and synchronous change notification
//   - Change: the notification delivered to subscribers after each mutation
//
// # Usage
//
//	conv := model.NewConversation()
//	unsubscribe := conv.Subscribe(func(c model.Change) {
//	    fmt.Println(c.Kind, c.Entry.ID, c.Len)
//	})
//	defer unsubscribe()
//
//	q := model.NewUserEntry("What is a derivative?")
//	a := model.NewAssistantEntry()
//	_ = conv.Append(q)
//	_ = conv.Append(a)
//	conv.UpdateTrailingContent(a.ID, func(s string) string { return s + "A " })
package model
