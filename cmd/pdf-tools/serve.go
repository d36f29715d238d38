// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/internal/api"
	"github.com/pdiddy/pdf-tools/internal/logging"
	"github.com/pdiddy/pdf-tools/internal/session"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session over HTTP",
	Long: `Serve exposes the persistent selection and the operation runner as a JSON
API under /api/v1. Settings may also come from a .env file in the working
directory, using the PDF_TOOLS_ environment names.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: serve.addr)")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	envErr := godotenv.Load()
	c, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = c
	log, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		return err
	}
	defer log.Sync()
	if envErr != nil {
		log.Debug(".env not loaded", zap.Error(envErr))
	}

	ctx, stop := signalContext()
	defer stop()
	sess, err := session.Open(ctx, cfg, session.WithLogger(log), session.WithPersistence())
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           api.NewRouter(sess, cfg.Serve, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
