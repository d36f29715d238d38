// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mcptools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-tools/internal/pdftest"
	"github.com/pdiddy/pdf-tools/internal/session"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

func newTools(t *testing.T) *Tools {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.StateDir = t.TempDir()
	sess, err := session.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return &Tools{session: sess}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestSelectAndRun(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 3)
	tools := newTools(t)
	ctx := context.Background()

	res, err := tools.SelectDocuments(ctx, call(map[string]any{argPaths: a + "\n\n"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "added 1 document(s)")
	assert.Contains(t, text(t, res), "3 pages")

	out := filepath.Join(dir, "pages")
	res, err = tools.RunOperation(ctx, call(map[string]any{argKind: "split", argOutput: out}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), filepath.Join(out, "a_Page_003.pdf"))

	res, err = tools.ActivityLog(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "done: split 1 document into 3 files")
}

func TestRunOperationErrors(t *testing.T) {
	tools := newTools(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"unknown kind", map[string]any{argKind: "rotate", argOutput: "/tmp"}, "unknown operation"},
		{"empty selection", map[string]any{argKind: "compress", argOutput: "/tmp"}, "selection_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tools.RunOperation(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}

func TestRunWithoutWaitAndStatus(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 1)
	tools := newTools(t)
	ctx := context.Background()
	_, err := tools.session.Select(a)
	require.NoError(t, err)

	res, err := tools.RunOperation(ctx, call(map[string]any{argKind: "compress", argOutput: dir, argWait: false}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), "queued compress as ")

	res, err = tools.RequestStatus(ctx, call(map[string]any{argID: "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSelectionTools(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 1)
	tools := newTools(t)
	ctx := context.Background()

	res, err := tools.SelectDocuments(ctx, call(map[string]any{argPaths: []any{a, filepath.Join(dir, "x.doc")}}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "rejected")

	res, err = tools.ListSelection(ctx, call(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "1. "+a)

	res, err = tools.ClearSelection(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, "selection cleared", text(t, res))

	res, err = tools.ListSelection(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, "selection is empty", text(t, res))

	res, err = tools.SelectDocuments(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestDocumentInfo(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteN(t, dir, "a.pdf", 2)
	tools := newTools(t)

	res, err := tools.DocumentInfo(context.Background(), call(map[string]any{argPath: a}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var info types.DocumentInfo
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &info))
	assert.Equal(t, 2, info.PageCount)
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, splitPaths(" a.pdf \n\nb.pdf\n"))
	assert.Equal(t, []string{"a.pdf"}, splitPaths([]any{"a.pdf", 3, ""}))
	assert.Nil(t, splitPaths(nil))
}

func TestNewServerRegistersTools(t *testing.T) {
	assert.NotNil(t, NewServer(newTools(t).session, "test"))
}
