package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"proxybridge-go/internal/approval"
	"proxybridge-go/internal/config"
	"proxybridge-go/internal/logs"
	"proxybridge-go/internal/server"
	"proxybridge-go/internal/storage"
	"proxybridge-go/internal/traffic"
)

var (
	configFile           string
	dataDir              string
	listen               string
	logLevel             string
	logToFile            bool
	logDir               string
	includeSensitiveData bool

	version = "v0.1.0" // Injected by -ldflags during build
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "proxybridge",
		Short:   "Proxybridge - expose a local intercepting proxy to AI agents behind a consent and security gateway",
		Version: version,
		RunE:    runServer,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory path (default: ~/.proxybridge)")
	rootCmd.PersistentFlags().StringVarP(&listen, "listen", "l", "", "Listen address for the MCP endpoint")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", true, "Enable logging to file in standard OS location")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Custom log directory path (overrides standard OS location)")
	rootCmd.PersistentFlags().BoolVar(&includeSensitiveData, "include-sensitive-data", false, "Return raw traffic without redacting credentials (dangerous)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Logging.Level = logLevel
	cfg.Logging.EnableFile = logToFile
	if logDir != "" {
		cfg.Logging.LogDir = logDir
	}
	if cmd.Flags().Changed("include-sensitive-data") {
		cfg.IncludeSensitiveData = includeSensitiveData
	}

	logger, err := logs.SetupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting proxybridge",
		zap.String("version", version),
		zap.String("listen", cfg.Listen),
		zap.Bool("include_sensitive_data", cfg.IncludeSensitiveData),
	)

	storageManager, err := storage.NewManager(cfg.DataDir, cfg.Access, logger.Sugar())
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := storageManager.Close(); err != nil {
			logger.Error("Error closing storage", zap.Error(err))
		}
	}()

	// The proxy engine and its UI register their callbacks here when the
	// bridge runs embedded; standalone, reads report not-found and writes
	// are rejected.
	bridge := traffic.NewUIEditorBridge(nil, nil, nil, nil, logger.Named("bridge"))
	prompter := approval.NewTerminalPrompter(os.Stdin, os.Stdout, logger.Named("prompt"))

	srv := server.NewServer(cfg, storageManager, bridge, prompter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := srv.StartServer(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-ctx.Done()
	logger.Info("Shutting down server")
	if err := srv.Shutdown(); err != nil {
		logger.Error("Error stopping server", zap.Error(err))
	}

	return nil
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if listen != "" {
		cfg.Listen = listen
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
