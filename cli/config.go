package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/n8nmcp/config"
	"github.com/petal-labs/n8nmcp/n8n"
)

const notConfiguredMessage = "n8n API not configured. Pass --n8n-url and --n8n-key, or set N8N_API_URL and N8N_API_KEY."

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to n8nmcp.yaml (default: ./n8nmcp.yaml, then ~/.n8nmcp/config.yaml)")
	cmd.Flags().String("n8n-url", "", "n8n API base URL, e.g. https://n8n.example.com/api/v1")
	cmd.Flags().String("n8n-key", "", "n8n API key")
}

// loadConfig resolves the configuration for cmd. Flags that were set
// explicitly win over the environment and the config file.
func loadConfig(cmd *cobra.Command, extra ...func(*config.Config)) (config.Config, string, error) {
	explicitPath, _ := cmd.Flags().GetString("config")

	overrides := []func(*config.Config){func(cfg *config.Config) {
		if v, ok := changedString(cmd, "n8n-url"); ok {
			cfg.N8N.APIURL = v
		}
		if v, ok := changedString(cmd, "n8n-key"); ok {
			cfg.N8N.APIKey = v
		}
	}}
	overrides = append(overrides, extra...)

	cfg, path, err := config.Load(explicitPath, overrides...)
	if err != nil {
		return config.Config{}, "", exitError(exitValidation, "invalid configuration: %v", err)
	}
	return cfg, path, nil
}

func changedString(cmd *cobra.Command, name string) (string, bool) {
	if !cmd.Flags().Changed(name) {
		return "", false
	}
	v, _ := cmd.Flags().GetString(name)
	return strings.TrimSpace(v), true
}

// newN8NClient builds a client from cfg, or fails when credentials are
// missing.
func newN8NClient(cfg config.Config) (*n8n.Client, error) {
	if cfg.N8N.APIURL == "" || cfg.N8N.APIKey == "" {
		return nil, exitError(exitValidation, "%s", notConfiguredMessage)
	}
	return n8n.NewClient(n8n.Config{
		BaseURL: cfg.N8N.APIURL,
		APIKey:  cfg.N8N.APIKey,
		Timeout: cfg.N8N.Timeout,
	}), nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
