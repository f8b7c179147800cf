package view

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
	"github.com/ericfisherdev/threadkit/internal/domain/tree"
)

func strPtr(s string) *string {
	return &s
}

func TestRenderMarkdown_Basic(t *testing.T) {
	out := RenderMarkdown("**bold** and *italic*")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
}

func TestRenderMarkdown_StripsScript(t *testing.T) {
	out := RenderMarkdown("hello <script>alert(1)</script> world")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}

func TestRenderMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_GFMTable(t *testing.T) {
	out := RenderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |")
	assert.Contains(t, out, "<table>")
}

func TestCanReply_DepthLimit(t *testing.T) {
	assert.True(t, CanReply(0))
	assert.True(t, CanReply(MaxReplyDepth-1))
	assert.False(t, CanReply(MaxReplyDepth))
	assert.False(t, CanReply(MaxReplyDepth+3))
}

func buildForest() tree.Forest {
	return tree.Build([]model.Comment{
		{ID: "c1", Content: "first", Author: model.Author{Username: "alice"}, CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{ID: "c2", Content: "reply", ParentID: strPtr("c1"), Author: model.Author{DisplayName: "Bob"}, CreatedAt: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)},
		{ID: "c3", Content: "second thread", CreatedAt: time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)},
	})
}

func TestFlatten_ThreadOrderAndAffordance(t *testing.T) {
	rows := Flatten(buildForest())

	require.Len(t, rows, 3)
	assert.Equal(t, "c1", rows[0].Comment.ID)
	assert.Equal(t, "c2", rows[1].Comment.ID)
	assert.Equal(t, "c3", rows[2].Comment.ID)

	assert.Equal(t, 0, rows[0].Depth)
	assert.Equal(t, 1, rows[1].Depth)
	assert.True(t, rows[1].CanReply)
}

func TestRenderThread_IndentsReplies(t *testing.T) {
	out := RenderThread(buildForest())

	lines := strings.Split(out, "\n")
	require.NotEmpty(t, lines)

	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "anonymous", "missing author falls back")
	assert.Contains(t, out, "  reply", "replies are indented")
	assert.Contains(t, out, "2026-03-01 12:00")
}

func TestRenderThread_EditedMarker(t *testing.T) {
	f := tree.Build([]model.Comment{
		{ID: "c1", Content: "x", Edited: true, Author: model.Author{Username: "alice"}},
	})

	assert.Contains(t, RenderThread(f), "(edited)")
}
