package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/petal-labs/n8nmcp/n8n"
)

// NewHealthCmd creates the "health" subcommand. It probes the configured
// n8n API directly, without a running server.
func NewHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the configured n8n API",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
	addConfigFlags(cmd)
	return cmd
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newN8NClient(cfg)
	if err != nil {
		return err
	}

	result := client.HealthCheck(cmd.Context())
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return exitError(exitRuntime, "encoding result: %v", err)
	}
	if result.Status != n8n.HealthOK {
		return exitError(exitRemote, "n8n API unreachable: %s", result.Message)
	}
	return nil
}
