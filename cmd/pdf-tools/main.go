// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-tools CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-tools/internal/logging"
	"github.com/pdiddy/pdf-tools/internal/session"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfg    types.Config
	logger = zap.NewNop()
)

// rootCmd is the base command for the pdf-tools CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf-tools",
	Short: "Merge, split, compress, watermark, protect and unlock PDF files",
	Long: `pdf-tools runs document operations over an ordered selection of PDF files.

Each operation is a subcommand that takes its inputs on the command line:
merge, split, compress, watermark, protect and unlock. The select and run
commands keep a selection between invocations instead. serve exposes the
same session over HTTP and mcp exposes it as MCP tools on stdio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		l, err := logging.New(cfg.LogLevel, false)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-tools.yaml or ~/.config/pdf-tools/pdf-tools.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("state-dir", "", "directory holding history.db and session.db")
	rootCmd.PersistentFlags().String("secrets-dir", "", "directory holding the pdf-password file")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("state_dir", rootCmd.PersistentFlags().Lookup("state-dir"))
	viper.BindPFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf-tools")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf-tools"))
		}
	}

	viper.SetEnvPrefix("PDF_TOOLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key of def with viper so that environment
// variables can override nested settings.
func setDefaults(def types.Config) {
	data, err := yaml.Marshal(def)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	flatten("", tree, viper.SetDefault)
	viper.SetDefault("security.owner_password", "")
}

func flatten(prefix string, tree map[string]any, set func(key string, value any)) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, set)
			continue
		}
		set(key, v)
	}
}

func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openSession opens a session that prints activity to stdout.
func openSession(ctx context.Context, opts ...session.Option) (*session.Session, error) {
	opts = append([]session.Option{
		session.WithLogger(logger),
		session.WithOutput(os.Stdout),
	}, opts...)
	return session.Open(ctx, cfg, opts...)
}

// describe prefixes errors that carry no kind with "internal".
func describe(err error) string {
	var te *types.Error
	if errors.As(err, &te) {
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", types.KindInternal, err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pdf-tools:", describe(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
