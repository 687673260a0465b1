// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"strings"
)

// ConversationContext names what the student is studying. The labels are
// passed through to the prompt and never interpreted.
type ConversationContext struct {
	Subject string `toml:"subject" json:"subject"`
	Chapter string `toml:"chapter" json:"chapter"`
	Topic   string `toml:"topic" json:"topic"`
}

// Greeting returns the opening assistant line for a fresh conversation.
func (cc ConversationContext) Greeting() string {
	return "Hi! I'm your AI tutor for " + orDefault(cc.Subject, "this subject") +
		". I'm here to help you understand " + orDefault(cc.Chapter, "this chapter") +
		". What would you like to know about " + orDefault(cc.Topic, "this topic") + "?"
}

// BuildPrompt embeds the conversation context and the student's message in
// a single tutoring prompt.
func BuildPrompt(message string, cc ConversationContext) string {
	var b strings.Builder
	b.WriteString("You are an AI tutor helping a student understand ")
	b.WriteString(orDefault(cc.Subject, "the current subject"))
	b.WriteString(",\nspecifically the chapter on ")
	b.WriteString(orDefault(cc.Chapter, "the current chapter"))
	b.WriteString(" and the topic of ")
	b.WriteString(orDefault(cc.Topic, "the current topic"))
	b.WriteString(".\nThe student's message is: \"")
	b.WriteString(message)
	b.WriteString("\"\n\n")
	b.WriteString("Provide a helpful, educational response that:\n")
	b.WriteString("1. Is clear and concise\n")
	b.WriteString("2. Uses examples when appropriate\n")
	b.WriteString("3. Breaks down complex concepts\n")
	b.WriteString("4. Encourages critical thinking\n")
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
