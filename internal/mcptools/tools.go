// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcptools exposes a session as MCP tools over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pdiddy/pdf-tools/internal/session"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

const serverName = "pdf-tools"

// Tool argument keys, shared between schemas and handlers.
const (
	argPaths     = "paths"
	argKind      = "kind"
	argOutput    = "output"
	argPassword  = "password"
	argWatermark = "watermark"
	argWait      = "wait"
	argID        = "id"
	argSince     = "since"
	argPath      = "path"
	argText      = "text"
)

// Tools binds tool handlers to a session.
type Tools struct {
	session *session.Session
}

// NewServer returns an MCP server with every tool registered.
func NewServer(sess *session.Session, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version)
	Register(s, &Tools{session: sess})
	return s
}

// Serve runs the MCP server on stdin and stdout until the client disconnects.
func Serve(sess *session.Session, version string) error {
	return server.ServeStdio(NewServer(sess, version))
}

// Register adds the tool definitions to s.
func Register(s *server.MCPServer, t *Tools) {
	kinds := make([]string, len(types.Operations))
	for i, k := range types.Operations {
		kinds[i] = string(k)
	}

	s.AddTool(
		mcp.NewTool("select_documents",
			mcp.WithDescription("Add PDF files to the selection, in order. Duplicates are ignored."),
			mcp.WithString(argPaths,
				mcp.Required(),
				mcp.Description("File paths separated by newlines"),
			),
		),
		t.SelectDocuments,
	)
	s.AddTool(
		mcp.NewTool("list_selection",
			mcp.WithDescription("List the selected documents with page counts."),
		),
		t.ListSelection,
	)
	s.AddTool(
		mcp.NewTool("clear_selection",
			mcp.WithDescription("Remove every document from the selection."),
		),
		t.ClearSelection,
	)
	s.AddTool(
		mcp.NewTool("run_operation",
			mcp.WithDescription("Run an operation over the selection. Merge writes one file; the others write into a directory."),
			mcp.WithString(argKind,
				mcp.Required(),
				mcp.Description("One of: "+strings.Join(kinds, ", ")),
			),
			mcp.WithString(argOutput,
				mcp.Required(),
				mcp.Description("Output file for merge, output directory otherwise"),
			),
			mcp.WithString(argPassword, mcp.Description("Password for protect and unlock")),
			mcp.WithString(argWatermark, mcp.Description("Stamp text for watermark")),
			mcp.WithBoolean(argWait, mcp.Description("Wait for the operation to finish (default true)")),
		),
		t.RunOperation,
	)
	s.AddTool(
		mcp.NewTool("request_status",
			mcp.WithDescription("Report the state of a submitted operation."),
			mcp.WithString(argID, mcp.Required(), mcp.Description("Request id returned by run_operation")),
		),
		t.RequestStatus,
	)
	s.AddTool(
		mcp.NewTool("activity_log",
			mcp.WithDescription("Return activity log lines."),
			mcp.WithNumber(argSince, mcp.Description("Only entries after this sequence number")),
		),
		t.ActivityLog,
	)
	s.AddTool(
		mcp.NewTool("document_info",
			mcp.WithDescription("Report page count, encryption and metadata of one PDF."),
			mcp.WithString(argPath, mcp.Required(), mcp.Description("PDF file path")),
			mcp.WithString(argPassword, mcp.Description("Password for encrypted documents")),
			mcp.WithBoolean(argText, mcp.Description("Include the text of every page")),
		),
		t.DocumentInfo,
	)
}

func (t *Tools) SelectDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := splitPaths(req.Params.Arguments[argPaths])
	if len(paths) == 0 {
		return mcp.NewToolResultError(argPaths + " is required"), nil
	}
	added, err := t.session.Select(paths...)
	var b strings.Builder
	fmt.Fprintf(&b, "added %d document(s)\n", len(added))
	if err != nil {
		fmt.Fprintf(&b, "rejected: %s\n", strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	b.WriteString(formatSelection(t.session.Documents()))
	if len(added) == 0 && err != nil {
		return mcp.NewToolResultError(b.String()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *Tools) ListSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatSelection(t.session.Documents())), nil
}

func (t *Tools) ClearSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.session.Clear(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("selection cleared"), nil
}

func (t *Tools) RunOperation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	kind, err := types.ParseOperation(stringArg(args, argKind))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := t.session.Submit(kind, types.Params{
		Output:    stringArg(args, argOutput),
		Password:  stringArg(args, argPassword),
		Watermark: stringArg(args, argWatermark),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if wait, ok := args[argWait].(bool); ok && !wait {
		return mcp.NewToolResultText(fmt.Sprintf("queued %s as %s", kind, r.ID)), nil
	}
	c, err := t.session.Wait(ctx, r.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("request %s still pending: %v", r.ID, err)), nil
	}
	return completionResult(c), nil
}

func (t *Tools) RequestStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(req.Params.Arguments, argID)
	if id == "" {
		return mcp.NewToolResultError(argID + " is required"), nil
	}
	c, err := t.session.Status(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return completionResult(c), nil
}

func (t *Tools) ActivityLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var since int64
	if n, ok := req.Params.Arguments[argSince].(float64); ok && n > 0 {
		since = int64(n)
	}
	var b strings.Builder
	for _, e := range t.session.Log().Since(since) {
		fmt.Fprintf(&b, "%d %s\n", e.Seq, e.String())
	}
	if b.Len() == 0 {
		return mcp.NewToolResultText("no entries"), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *Tools) DocumentInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	path := stringArg(args, argPath)
	if path == "" {
		return mcp.NewToolResultError(argPath + " is required"), nil
	}
	withText, _ := args[argText].(bool)
	info, err := t.session.Info(path, stringArg(args, argPassword), withText)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding document info: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func completionResult(c types.Completion) *mcp.CallToolResult {
	switch c.State {
	case types.StateFailed:
		return mcp.NewToolResultError(fmt.Sprintf("%s %s failed: %v", c.Request.Kind, c.Request.ID, c.Err))
	case types.StateSucceeded:
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s succeeded\n", c.Request.Kind, c.Request.ID)
		for _, o := range c.Result.Outputs {
			fmt.Fprintf(&b, "  %s\n", o)
		}
		return mcp.NewToolResultText(b.String())
	default:
		return mcp.NewToolResultText(fmt.Sprintf("%s %s is %s", c.Request.Kind, c.Request.ID, c.State))
	}
}

func formatSelection(docs []types.Document) string {
	if len(docs) == 0 {
		return "selection is empty"
	}
	var b strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. %s (%d pages, %s", i+1, d.Path, d.PageCount, types.FormatSize(d.Size))
		if d.Encrypted {
			b.WriteString(", encrypted")
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// splitPaths accepts either a newline separated string or a JSON array.
func splitPaths(v any) []string {
	var raw []string
	switch x := v.(type) {
	case string:
		raw = strings.Split(x, "\n")
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	var out []string
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
