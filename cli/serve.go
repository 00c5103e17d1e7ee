package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/n8nmcp/config"
	n8notel "github.com/petal-labs/n8nmcp/otel"
	"github.com/petal-labs/n8nmcp/server"
	"github.com/petal-labs/n8nmcp/tool"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP HTTP server",
		RunE:  runServe,
	}

	addConfigFlags(cmd)
	cmd.Flags().IntP("port", "p", 8787, "Listen port")
	cmd.Flags().String("host", "0.0.0.0", "Listen host")
	cmd.Flags().String("cors-origin", "*", "Allowed CORS origin")
	cmd.Flags().Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", 60*time.Second, "HTTP write timeout")
	cmd.Flags().Int64("max-body", 4<<20, "Max request body size in bytes")
	cmd.Flags().Duration("n8n-timeout", 30*time.Second, "Timeout for each n8n API request")
	cmd.Flags().String("log-level", "info", "Log level: debug | info | warn | error")
	cmd.Flags().String("log-format", "text", "Log format: text | json")
	cmd.Flags().String("otlp-endpoint", "", "OTLP/HTTP collector URL for traces")

	return cmd
}

// serveOverrides applies the serve flags that were set explicitly.
func serveOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Server.Port, _ = flags.GetInt("port")
		}
		if v, ok := changedString(cmd, "host"); ok {
			cfg.Server.Host = v
		}
		if v, ok := changedString(cmd, "cors-origin"); ok {
			cfg.Server.CORSOrigin = v
		}
		if flags.Changed("read-timeout") {
			cfg.Server.ReadTimeout, _ = flags.GetDuration("read-timeout")
		}
		if flags.Changed("write-timeout") {
			cfg.Server.WriteTimeout, _ = flags.GetDuration("write-timeout")
		}
		if flags.Changed("max-body") {
			cfg.Server.MaxBody, _ = flags.GetInt64("max-body")
		}
		if flags.Changed("n8n-timeout") {
			cfg.N8N.Timeout, _ = flags.GetDuration("n8n-timeout")
		}
		if v, ok := changedString(cmd, "log-level"); ok {
			cfg.Log.Level = v
		}
		if v, ok := changedString(cmd, "log-format"); ok {
			cfg.Log.Format = v
		}
		if v, ok := changedString(cmd, "otlp-endpoint"); ok {
			cfg.Telemetry.OTLPEndpoint = v
		}
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, configPath, err := loadConfig(cmd, serveOverrides(cmd))
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(logger)

	version := cmd.Root().Version
	telemetry, err := n8notel.Setup(cmd.Context(), n8notel.SetupConfig{
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      version,
	})
	if err != nil {
		return exitError(exitRuntime, "initializing telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	tool.SetObserver(telemetry.ToolObserver)
	defer tool.SetObserver(nil)

	mcpServer := server.NewServer(server.ServerConfig{
		Defaults: server.Credentials{
			BaseURL: cfg.N8N.APIURL,
			APIKey:  cfg.N8N.APIKey,
		},
		Timeout:    cfg.N8N.Timeout,
		Tracer:     telemetry.Tracer,
		Observer:   telemetry.RequestObserver,
		CORSOrigin: cfg.Server.CORSOrigin,
		MaxBody:    cfg.Server.MaxBody,
		Version:    version,
		Logger:     logger,
	})

	addr := cfg.Server.Addr()
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mcpServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("starting n8nmcp",
		"addr", addr,
		"version", version,
		"config", configPath,
		"n8n_url", cfg.N8N.APIURL,
		"n8n_api_key", tool.MaskSecret(cfg.N8N.APIKey),
		"otlp_endpoint", cfg.Telemetry.OTLPEndpoint,
	)
	if cfg.N8N.APIURL == "" || cfg.N8N.APIKey == "" {
		logger.Warn("no default n8n credentials; clients must send " + server.HeaderAPIURL + " and " + server.HeaderAPIKey)
	}

	// Signal handling
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), "n8nmcp listening on %s\n", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return exitError(exitRuntime, "shutdown error: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitError(exitRuntime, "server error: %v", err)
		}
		return nil
	}
}
