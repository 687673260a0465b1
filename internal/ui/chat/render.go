// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jeranaias/studytutor/internal/model"
)

// Renderer turns entry content into terminal text. Assistant content is
// markdown; user content is plain text.
type Renderer struct {
	markdown bool
	style    string
	width    int
	tr       *glamour.TermRenderer

	// cache keeps the last rendering per entry so only the growing entry
	// is re-rendered on each fragment.
	cache map[string]cachedRender
}

type cachedRender struct {
	content string
	width   int
	out     string
}

// NewRenderer creates a renderer. When markdown is false, assistant content
// is wrapped as plain text.
func NewRenderer(markdown bool) *Renderer {
	style := "dark"
	if markdown && !termenv.HasDarkBackground() {
		style = "light"
	}
	return &Renderer{
		markdown: markdown,
		style:    style,
		cache:    make(map[string]cachedRender),
	}
}

// SetWidth changes the wrap width and invalidates cached output.
func (r *Renderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width {
		return
	}
	r.width = width
	r.tr = nil
}

// Render returns the body of e.
func (r *Renderer) Render(e model.Entry) string {
	if c, ok := r.cache[e.ID]; ok && c.content == e.Content && c.width == r.width {
		return c.out
	}

	var out string
	if e.Role == model.RoleAssistant && r.markdown {
		out = r.renderMarkdown(e.Content)
	} else {
		out = wrapText(e.Content, r.width)
	}

	r.cache[e.ID] = cachedRender{content: e.Content, width: r.width, out: out}
	return out
}

func (r *Renderer) renderMarkdown(content string) string {
	if r.tr == nil {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			return wrapText(content, r.width)
		}
		r.tr = tr
	}

	out, err := r.tr.Render(content)
	if err != nil {
		return wrapText(content, r.width)
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// CONTENT WRAPPING WITH RUNEWIDTH SUPPORT
// =============================================================================

// wrapText wraps content to width display cells, breaking at spaces where
// possible. Wide characters count as two cells.
func wrapText(content string, width int) string {
	if width <= 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if runewidth.StringWidth(line) > width {
			lines[i] = wrapLine(line, width)
		}
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) string {
	var out []string
	var cur strings.Builder
	curWidth := 0

	flush := func() {
		out = append(out, strings.TrimRight(cur.String(), " "))
		cur.Reset()
		curWidth = 0
	}

	for _, word := range strings.SplitAfter(line, " ") {
		w := runewidth.StringWidth(word)
		if curWidth > 0 && curWidth+runewidth.StringWidth(strings.TrimRight(word, " ")) > width {
			flush()
		}
		// A single word wider than the line is hard-broken.
		for w > width {
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				break
			}
			if curWidth > 0 {
				flush()
			}
			out = append(out, head)
			word = word[len(head):]
			w = runewidth.StringWidth(word)
		}
		cur.WriteString(word)
		curWidth += w
	}
	if cur.Len() > 0 {
		flush()
	}
	return strings.Join(out, "\n")
}
