// Package view holds the presentation-side contract: comment bodies rendered
// to sanitized HTML and the forest flattened for display. Any UI consumes
// these helpers; the engine itself never depends on them.
package view

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
	"github.com/ericfisherdev/threadkit/internal/domain/tree"
)

// MaxReplyDepth is the deepest level at which the reply action is offered.
// This is a presentation affordance only: deeper nodes arriving from the
// server are still rendered, and nothing rejects them structurally.
const MaxReplyDepth = 5

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a comment body to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// CanReply reports whether the reply action is shown for a node at the given
// depth.
func CanReply(depth int) bool {
	return depth < MaxReplyDepth
}

// Row is one display line of a flattened thread.
type Row struct {
	Comment  model.Comment
	Depth    int
	CanReply bool
}

// Flatten turns the forest into display rows in thread order (each root
// followed by its replies, depth-first).
func Flatten(f tree.Forest) []Row {
	rows := make([]Row, 0, tree.Count(f))
	tree.Walk(f, func(c model.Comment) bool {
		rows = append(rows, Row{
			Comment:  c,
			Depth:    c.Depth,
			CanReply: CanReply(c.Depth),
		})
		return true
	})
	return rows
}

// RenderThread renders the forest as indented plain text, one comment per
// block, for terminal display. Bodies are kept verbatim; markdown rendering
// is the HTML surface's concern.
func RenderThread(f tree.Forest) string {
	var b strings.Builder

	for _, row := range Flatten(f) {
		indent := strings.Repeat("  ", row.Depth)

		b.WriteString(indent)
		b.WriteString(displayName(row.Comment.Author))
		if row.Comment.Edited {
			b.WriteString(" (edited)")
		}
		b.WriteString(" · ")
		b.WriteString(row.Comment.CreatedAt.Format("2006-01-02 15:04"))
		b.WriteByte('\n')

		for _, line := range strings.Split(row.Comment.Content, "\n") {
			b.WriteString(indent)
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	return b.String()
}

func displayName(a model.Author) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if a.Username != "" {
		return a.Username
	}
	return "anonymous"
}
