// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-tools/internal/session"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run KIND OUTPUT",
	Short: "Run an operation over the persistent selection",
	Long: `Run executes KIND (merge, split, compress, watermark, protect or unlock)
over the documents added with select add. OUTPUT is a file for merge and
a directory for every other operation. The selection is kept afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("text", "", "watermark text")
	runCmd.Flags().String("password", "", "password for protect and unlock (default: secrets pdf-password)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	kind, err := types.ParseOperation(args[0])
	if err != nil {
		return err
	}
	params, err := operationParams(cmd, kind, args[1])
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	sess, err := openSession(ctx, session.WithPersistence())
	if err != nil {
		return err
	}
	defer sess.Close()
	return submitAndWait(ctx, sess, kind, params)
}
