package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/application"
	appanalysis "github.com/bryanwahyu/upstarter/internal/application/analysis"
	"github.com/bryanwahyu/upstarter/internal/config"
	"github.com/bryanwahyu/upstarter/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/upstarter/internal/infra/extract"
	"github.com/bryanwahyu/upstarter/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "upstarter",
	Short: "UpStarter API: startup analysis, projects and co-founder matching",
	Long: `UpStarter scores business ideas and business-plan documents, keeps the
resulting projects per user and serves the team, pitch-deck and
financial-plan tools behind a session-authenticated JSON API.

Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tables of the configured SQL store",
	RunE:  runMigrate,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Score a document locally and print the analysis as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	// path config.yaml
	def := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", def, "path to config.yaml (env CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd, migrateCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load error: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("app.close_failed", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// graceful shutdown
	logger.Info("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown_failed", zap.Error(err))
		return err
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Store.Driver == "airtable" {
		return fmt.Errorf("migrate needs a SQL store; store.driver is airtable")
	}
	db, err := sqlstore.Open(cmd.Context(), cfg.Store.Driver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("%s connect: %w", cfg.Store.Driver, err)
	}
	defer db.Close()
	if err := db.Migrate(cmd.Context()); err != nil {
		return err
	}
	logger.Info("store.migrated", zap.String("driver", cfg.Store.Driver))
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	text, err := extract.New().Extract(cmd.Context(), name, data)
	if err != nil {
		return fmt.Errorf("extract %s: %w", name, err)
	}

	svc, err := analysisService(cmd.Context(), cfg, logger, application.SystemClock{})
	if err != nil {
		return err
	}
	out, err := svc.Preview(cmd.Context(), appanalysis.DocumentCommand{FileName: name, Text: text})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
