package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/existflow/wbsync/internal/config"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/storage"
	"github.com/existflow/wbsync/internal/store"
	"github.com/existflow/wbsync/server"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var port int
	var dataPath, driver, dbURL, mode, userID string

	cmd := &cobra.Command{
		Use:          "wbs-server",
		Short:        "Serve the shared WBS document over HTTP",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("data") {
				cfg.DataPath = dataPath
			}
			if flags.Changed("driver") {
				cfg.StorageDriver = driver
			}
			if flags.Changed("database-url") {
				cfg.DatabaseURL = dbURL
			}
			if flags.Changed("mode") {
				cfg.Mode = mode
			}
			if flags.Changed("user-id") {
				cfg.UserID = userID
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.wbs/config.yaml)")
	flags.IntVar(&port, "port", 8080, "Port to listen on")
	flags.StringVar(&dataPath, "data", "", "JSON data file or SQLite database")
	flags.StringVar(&driver, "driver", "", "Storage driver: file, sqlite or postgres")
	flags.StringVar(&dbURL, "database-url", "", "PostgreSQL connection URL")
	flags.StringVar(&mode, "mode", "", "Reported mode: admin or member")
	flags.StringVar(&userID, "user-id", "", "Reported user id in member mode")
	return cmd
}

func serve(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		FilePath:   cfg.LogFile,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    true, // servers always mirror to stderr
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	backend, err := storage.Open(cfg.StorageDriver, cfg.DataPath, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open storage", logger.F("driver", cfg.StorageDriver), logger.F("error", err.Error()))
		return err
	}

	var opts []store.Option
	if cfg.BackupEnabled {
		opts = append(opts, store.WithBackupDir(cfg.BackupDir))
	}
	srv := server.New(store.New(backend, opts...), server.Options{Mode: cfg.Mode, UserID: cfg.UserID})
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing store", logger.F("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(":" + strconv.Itoa(cfg.Port))
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Server failed", logger.F("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
