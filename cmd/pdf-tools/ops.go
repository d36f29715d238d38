// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-tools/internal/secrets"
	"github.com/pdiddy/pdf-tools/internal/session"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge OUTPUT INPUT...",
	Short: "Concatenate PDF files into one document",
	Long: `Merge writes the pages of every input, in the order given, into OUTPUT.
A .pdf extension is appended to OUTPUT when missing. At least two inputs
are required; fewer is a selection_error.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runOperation(types.OpMerge),
}

var splitCmd = &cobra.Command{
	Use:   "split OUTPUT_DIR INPUT...",
	Short: "Write every page of each input to its own file",
	Long: `Split writes page N of input name.pdf to OUTPUT_DIR/name_Page_NNN.pdf.
The directory is created when missing.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runOperation(types.OpSplit),
}

var compressCmd = &cobra.Command{
	Use:   "compress OUTPUT_DIR INPUT...",
	Short: "Reduce the file size of each input",
	Long: `Compress writes compressed_name.pdf into OUTPUT_DIR for every input. An
output that would be larger than its input, or that changes the page
count or text, is replaced by a copy of the original.

The backend is chosen with compress.backend. pdfcpu (default) recompresses
streams and removes duplicate resources but leaves embedded images as they
are. ghostscript runs gs in a docker or podman container and downsamples
images to compress.quality, so pick it for scanned or image-heavy files.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runOperation(types.OpCompress),
}

var watermarkCmd = &cobra.Command{
	Use:   "watermark OUTPUT_DIR INPUT...",
	Short: "Stamp text diagonally across every page",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runOperation(types.OpWatermark),
}

var protectCmd = &cobra.Command{
	Use:   "protect OUTPUT_DIR INPUT...",
	Short: "Encrypt each input with a password",
	Long: `Protect writes secured_name.pdf into OUTPUT_DIR, encrypted with AES.
The password comes from --password or the pdf-password file in the
secrets directory.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runOperation(types.OpProtect),
}

var unlockCmd = &cobra.Command{
	Use:   "unlock OUTPUT_DIR INPUT...",
	Short: "Remove password protection from each input",
	Long: `Unlock writes unlocked_name.pdf into OUTPUT_DIR. Inputs that are not
encrypted are copied unchanged.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runOperation(types.OpUnlock),
}

func init() {
	watermarkCmd.Flags().String("text", "", "watermark text (required)")
	watermarkCmd.MarkFlagRequired("text")
	for _, cmd := range []*cobra.Command{protectCmd, unlockCmd} {
		cmd.Flags().String("password", "", "document password (default: secrets pdf-password)")
	}

	rootCmd.AddCommand(mergeCmd, splitCmd, compressCmd, watermarkCmd, protectCmd, unlockCmd)
}

// runOperation selects args[1:] in a fresh session, runs kind with args[0]
// as the output and waits for it.
func runOperation(kind types.OperationKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		params, err := operationParams(cmd, kind, args[0])
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()
		sess, err := openSession(ctx, session.WithHistory())
		if err != nil {
			return err
		}
		defer sess.Close()

		if _, err := sess.Select(args[1:]...); err != nil {
			return err
		}
		return submitAndWait(ctx, sess, kind, params)
	}
}

// operationParams reads the flags kind needs.
func operationParams(cmd *cobra.Command, kind types.OperationKind, output string) (types.Params, error) {
	params := types.Params{Output: output}
	switch kind {
	case types.OpWatermark:
		params.Watermark, _ = cmd.Flags().GetString("text")
	case types.OpProtect, types.OpUnlock:
		flag, _ := cmd.Flags().GetString("password")
		pw, err := secrets.Password(flag, cfg.SecretsDir)
		if err != nil {
			return params, err
		}
		params.Password = pw
	}
	return params, nil
}

func submitAndWait(ctx context.Context, sess *session.Session, kind types.OperationKind, params types.Params) error {
	req, err := sess.Submit(kind, params)
	if err != nil {
		return err
	}
	c, err := sess.Wait(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", kind, err)
	}
	switch c.State {
	case types.StateFailed:
		return c.Err
	case types.StateCancelled:
		return fmt.Errorf("%s cancelled", kind)
	}
	return nil
}
