package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/n8nmcp/mcpclient"
	"github.com/petal-labs/n8nmcp/server"
	"github.com/petal-labs/n8nmcp/tool"
)

// NewToolsCmd creates the "tools" command group.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List and call the n8n workflow tools",
	}
	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsCallCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available tools",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
	cmd.Flags().Bool("json", false, "Print tool definitions with input schemas as JSON")
	cmd.Flags().String("endpoint", "", "List the tools of a running server at this MCP URL instead")
	return cmd
}

type toolListing struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	endpoint, _ := cmd.Flags().GetString("endpoint")

	var listings []toolListing
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		session, err := dialEndpoint(cmd, endpoint, nil)
		if err != nil {
			return err
		}
		defer session.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), dialTimeout)
		defer cancel()
		tools, err := session.ListTools(ctx)
		if err != nil {
			return exitError(exitRemote, "listing tools: %v", err)
		}
		for _, t := range tools {
			listings = append(listings, toolListing(t))
		}
	} else {
		for _, def := range tool.NewToolset(nil).Definitions() {
			schema, err := json.Marshal(def.InputSchema)
			if err != nil {
				return exitError(exitRuntime, "encoding schema for %s: %v", def.Name, err)
			}
			listings = append(listings, toolListing{Name: def.Name, Description: def.Description, InputSchema: schema})
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\n", l.Name, firstSentence(l.Description))
	}
	return w.Flush()
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}

func newToolsCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: "Call one tool and print its JSON result",
		Long: "Call one tool directly against n8n, or through a running server when --endpoint is set.\n" +
			"--args takes a JSON object, or @path to read it from a file.",
		Args: cobra.ExactArgs(1),
		RunE: runToolsCall,
	}
	addConfigFlags(cmd)
	cmd.Flags().String("args", "{}", "Tool arguments as a JSON object, or @file")
	cmd.Flags().String("endpoint", "", "MCP URL of a running server, e.g. http://localhost:8787/mcp")
	return cmd
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	rawArgs, err := readArgs(cmd)
	if err != nil {
		return err
	}

	endpoint, _ := cmd.Flags().GetString("endpoint")
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		return callRemote(cmd, endpoint, name, rawArgs)
	}
	return callLocal(cmd, name, rawArgs)
}

func readArgs(cmd *cobra.Command) (json.RawMessage, error) {
	value, _ := cmd.Flags().GetString("args")
	value = strings.TrimSpace(value)
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, exitError(exitValidation, "reading --args file: %v", err)
		}
		value = strings.TrimSpace(string(data))
	}
	if value == "" {
		value = "{}"
	}
	if !json.Valid([]byte(value)) {
		return nil, exitError(exitValidation, "--args is not valid JSON")
	}
	return json.RawMessage(value), nil
}

func callLocal(cmd *cobra.Command, name string, rawArgs json.RawMessage) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newN8NClient(cfg)
	if err != nil {
		return err
	}

	resp, callErr := tool.NewToolset(client).Call(cmd.Context(), name, rawArgs)
	fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
	if callErr != nil {
		return exitError(exitCodeForTool(tool.ErrorCode(callErr)), "%v", callErr)
	}
	return nil
}

func callRemote(cmd *cobra.Command, endpoint, name string, rawArgs json.RawMessage) error {
	headers := map[string]string{}
	if v, ok := changedString(cmd, "n8n-url"); ok {
		headers[server.HeaderAPIURL] = v
	}
	if v, ok := changedString(cmd, "n8n-key"); ok {
		headers[server.HeaderAPIKey] = v
	}
	session, err := dialEndpoint(cmd, endpoint, headers)
	if err != nil {
		return err
	}
	defer session.Close()

	result, err := session.CallTool(cmd.Context(), name, rawArgs)
	if err != nil {
		return exitError(exitRemote, "calling %s: %v", name, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Text)
	if result.IsError {
		code := errorCodeFromText(result.Text)
		return exitError(exitCodeForTool(code), "%s failed with %s", name, code)
	}
	return nil
}

const dialTimeout = 30 * time.Second

// dialEndpoint opens an initialized MCP session against endpoint.
func dialEndpoint(cmd *cobra.Command, endpoint string, headers map[string]string) (*mcpclient.Session, error) {
	if u, err := url.Parse(endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, exitError(exitValidation, "--endpoint %q must be an http or https URL", endpoint)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), dialTimeout)
	defer cancel()
	session, err := mcpclient.Dial(ctx, mcpclient.Config{
		Endpoint: endpoint,
		Headers:  headers,
		Version:  cmd.Root().Version,
	})
	if err != nil {
		return nil, exitError(exitRemote, "connecting to %s: %v", endpoint, err)
	}
	return session, nil
}

// errorCodeFromText extracts error.code from a tool error payload.
func errorCodeFromText(text string) string {
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return tool.ToolErrorCodeInternal
	}
	return envelope.Error.Code
}
