// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-tools/internal/mcptools"
	"github.com/pdiddy/pdf-tools/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the session as MCP tools on stdio",
	Long: `mcp runs a Model Context Protocol server on stdin and stdout. Tools select
documents, run operations and read the activity log. Activity is not
printed since stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	sess, err := session.Open(ctx, cfg, session.WithLogger(logger), session.WithPersistence())
	if err != nil {
		return err
	}
	defer sess.Close()
	return mcptools.Serve(sess, version)
}
