package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/chat"
	"github.com/shinshin86/aituber-onair-sub001/pkg/config"
	"github.com/shinshin86/aituber-onair-sub001/pkg/debug"
	"github.com/shinshin86/aituber-onair-sub001/pkg/engine"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
	"github.com/shinshin86/aituber-onair-sub001/pkg/toolserver"
)

// options holds the CLI flags.
type options struct {
	// ConfigPath is an explicit config file.
	ConfigPath string
	// Debug overrides the configured debug categories.
	Debug string
	// Provider selects a configured provider by name.
	Provider string
	// Model overrides the provider's default model.
	Model string
	// System is prepended as a system message.
	System string
	// ToolsFile names a JSON file holding an array of tool definitions.
	ToolsFile string
	// ToolServers are MCP endpoints whose tools are offered to the model
	// as ordinary function tools.
	ToolServers []string
	// ToolServerToken is sent as a bearer token to every tool server.
	ToolServerToken string
	// Resolve runs the returned tool uses on the tool servers once and
	// prints their results.
	Resolve bool
	// NoStream requests a one-shot response.
	NoStream bool
	// JSON prints the completion as JSON.
	JSON bool
	// PrintMetrics writes the metrics collected during the run to stderr.
	PrintMetrics bool
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "onair-chat [prompt]",
		Short:         "Send a prompt to an LLM vendor and print the normalized completion",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				fmt.Fprintln(stderr, "error:", err)
				return err
			}
			if err = runChat(cmd, cfg, opts, args, stdin, stdout); err != nil {
				fmt.Fprintln(stderr, "error:", err)
			}
			if opts.PrintMetrics && cfg.Metrics.Enabled {
				if merr := writeMetrics(stderr); merr != nil && err == nil {
					err = merr
				}
			}
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: ONAIR_CONFIG, ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Debug, "debug", "", "debug categories, comma-separated (e.g. streaming,negotiate or all)")

	flags := cmd.Flags()
	flags.StringVarP(&opts.Provider, "provider", "p", "", "provider name (default: default_provider)")
	flags.StringVarP(&opts.Model, "model", "m", "", "model override")
	flags.StringVar(&opts.System, "system", "", "system prompt")
	flags.StringVar(&opts.ToolsFile, "tools", "", "JSON file with tool definitions")
	flags.StringArrayVar(&opts.ToolServers, "tool-server", nil, "MCP endpoint whose tools are offered to the model (repeatable)")
	flags.StringVar(&opts.ToolServerToken, "tool-server-token", "", "bearer token for --tool-server endpoints")
	flags.BoolVar(&opts.Resolve, "resolve", false, "run returned tool uses on the tool servers and print the results")
	flags.BoolVar(&opts.NoStream, "no-stream", false, "request a one-shot response")
	flags.BoolVar(&opts.JSON, "json", false, "print the completion as JSON")
	flags.BoolVar(&opts.PrintMetrics, "print-metrics", false, "print collected metrics to stderr")

	cmd.AddCommand(newProvidersCommand(opts, stdout))
	return cmd
}

func newProvidersCommand(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			for _, p := range cfg.Providers {
				marker := " "
				if p.Name == cfg.DefaultProvider {
					marker = "*"
				}
				fmt.Fprintf(stdout, "%s %s\t%s\t%s\t%s\n", marker, p.Name, p.Vendor, p.DefaultModel, p.BaseURL)
			}
			return nil
		},
	}
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Debug != "" {
		cfg.Logging.Debug = opts.Debug
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)
	if cats := debug.Categories(); len(cats) > 0 {
		slog.Info("debug logging enabled", "categories", strings.Join(cats, ","))
	}
	return cfg, nil
}

func runChat(cmd *cobra.Command, cfg *config.Config, opts *options, args []string, stdin io.Reader, stdout io.Writer) error {
	prompt, err := readPrompt(args, stdin)
	if err != nil {
		return err
	}

	if opts.Model != "" {
		p, ok := cfg.Provider(opts.Provider)
		if !ok {
			return fmt.Errorf("provider %q is not configured", opts.Provider)
		}
		p.DefaultModel = opts.Model
	}

	svc, err := chat.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	req := &provider.ChatRequest{Stream: !opts.NoStream}
	if opts.System != "" {
		req.Messages = append(req.Messages, provider.SystemMessage(opts.System))
	}
	req.Messages = append(req.Messages, provider.UserMessage(prompt))
	if opts.ToolsFile != "" {
		if req.Tools, err = readTools(opts.ToolsFile); err != nil {
			return err
		}
	}

	var tools *toolserver.Set
	if len(opts.ToolServers) > 0 {
		if tools, err = connectToolServers(cmd.Context(), opts); err != nil {
			return err
		}
		defer tools.Close()
		offered, err := tools.Tools(cmd.Context())
		if err != nil {
			return err
		}
		req.Tools = append(req.Tools, offered...)
	}

	var hooks engine.Hooks
	streamed := false
	if req.Stream && !opts.JSON {
		hooks.OnPartial = func(text string) {
			streamed = true
			io.WriteString(stdout, text)
		}
	}
	hooks.OnMalformed = func(err error) {
		slog.Warn("skipped malformed frame", "error", err)
	}

	c, err := svc.Complete(cmd.Context(), opts.Provider, req, hooks)
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}
	if err := printCompletion(stdout, c, streamed); err != nil {
		return err
	}

	if tools == nil || !opts.Resolve {
		return nil
	}
	results, err := tools.Resolve(cmd.Context(), c.Blocks)
	for _, r := range results {
		fmt.Fprintf(stdout, "tool_result %s %s\n", r.ToolUseID, debug.Truncate(r.Content, 200))
	}
	return err
}

func connectToolServers(ctx context.Context, opts *options) (*toolserver.Set, error) {
	var clients []*toolserver.Client
	for _, u := range opts.ToolServers {
		c := toolserver.New(provider.ToolServer{Name: u, URL: u, AuthorizationToken: opts.ToolServerToken})
		if err := c.Connect(ctx); err != nil {
			toolserver.NewSet(clients...).Close()
			return nil, err
		}
		clients = append(clients, c)
	}
	return toolserver.NewSet(clients...), nil
}

// readPrompt joins the arguments, or reads stdin when there are none.
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}

func readTools(path string) ([]provider.Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tools: %w", err)
	}
	var tools []provider.Tool
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, fmt.Errorf("parsing tools %s: %w", path, err)
	}
	return tools, nil
}

// printCompletion writes what the partial hook did not: the text when
// nothing streamed, then one line per tool or result block.
func printCompletion(w io.Writer, c *api.ToolChatCompletion, streamed bool) error {
	if !streamed {
		io.WriteString(w, c.Text())
	}
	if c.Text() != "" {
		io.WriteString(w, "\n")
	}
	for _, b := range c.Blocks {
		var err error
		switch b := b.(type) {
		case api.ToolUseBlock:
			_, err = fmt.Fprintf(w, "tool_use %s %s %s\n", b.ID, b.Name, b.Input)
		case api.RemoteToolUseBlock:
			_, err = fmt.Fprintf(w, "mcp_tool_use %s %s/%s %s\n", b.ID, b.ServerName, b.Name, b.Input)
		case api.ToolResultBlock:
			_, err = fmt.Fprintf(w, "tool_result %s %s\n", b.ToolUseID, debug.Truncate(b.Content, 200))
		case api.RemoteToolResultBlock:
			_, err = fmt.Fprintf(w, "mcp_tool_result %s %s\n", b.ToolUseID, debug.Truncate(b.Content, 200))
		}
		if err != nil {
			return err
		}
	}
	if c.Usage != nil {
		slog.Info("usage", "input_tokens", c.Usage.InputTokens, "output_tokens", c.Usage.OutputTokens)
	}
	return nil
}

// writeMetrics dumps the default registry in the text exposition format.
func writeMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "onair_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
