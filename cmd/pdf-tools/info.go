// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-tools/internal/secrets"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

var infoCmd = &cobra.Command{
	Use:   "info INPUT...",
	Short: "Print page count, encryption and metadata of PDF files",
	Long: `Info reads each input and prints its metadata as YAML, or JSON with
--json. Encrypted inputs are described without a password; pass
--password to read their metadata and text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("text", false, "include the text of every page")
	infoCmd.Flags().Bool("json", false, "print JSON instead of YAML")
	infoCmd.Flags().String("password", "", "password for encrypted inputs (default: secrets pdf-password)")

	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	withText, _ := cmd.Flags().GetBool("text")
	asJSON, _ := cmd.Flags().GetBool("json")
	flag, _ := cmd.Flags().GetString("password")
	pw, err := secrets.Password(flag, cfg.SecretsDir)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var infos []types.DocumentInfo
	var errs []error
	for _, path := range args {
		info, err := sess.Info(path, pw, withText)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		infos = append(infos, info)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(infos); err != nil {
			return fmt.Errorf("encoding info: %w", err)
		}
	} else if len(infos) > 0 {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return fmt.Errorf("encoding info: %w", err)
		}
		enc.Close()
	}
	return errors.Join(errs...)
}
