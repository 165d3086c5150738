// analyze-csv runs the schema analysis pipeline on a local CSV file and
// prints the CREATE TABLE statement, the full analysis, or a column table.
// It reads the same config.yaml and environment variables as the server.
//
// Usage:
//
//	analyze-csv orders.csv --table orders --format table
//	AI_API_KEY=... analyze-csv orders.csv --ai --format json
//	AI_API_KEY=... analyze-csv check-ai
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/schemasense/pkg/config"
	"github.com/ekaya-inc/schemasense/pkg/llm"
	"github.com/ekaya-inc/schemasense/pkg/logging"
	"github.com/ekaya-inc/schemasense/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

type options struct {
	configPath string
	logLevel   string
	tableName  string
	format     string
	useAI      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "analyze-csv <file.csv>",
		Short:        "Infer a MySQL schema from a CSV file",
		Args:         cobra.ExactArgs(1),
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args[0])
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigFile, "path to config.yaml (optional)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.Flags().StringVarP(&opts.tableName, "table", "t", "", "table name for the generated DDL (default from config)")
	root.Flags().StringVarP(&opts.format, "format", "f", formatDDL, "output format: ddl, json, yaml or table")
	root.Flags().BoolVar(&opts.useAI, "ai", false, "use the configured AI provider for column descriptions")

	root.AddCommand(newCheckAICmd(opts))
	return root
}

func newCheckAICmd(opts *options) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check-ai",
		Short: "Check that the configured AI provider answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			llmConfig := services.EffectiveLLMConfig(&cfg.AI)
			if llmConfig == nil {
				return fmt.Errorf("AI is not configured: set AI_API_KEY and ai.model")
			}

			client, err := llm.NewClientFromConfig(llmConfig, logger)
			if err != nil {
				return err
			}

			result := llm.NewConnectionTester(timeout).Test(cmd.Context(), client)
			result.Provider = llmConfig.Provider

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("AI check failed: %s", result.Message)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")
	return cmd
}

func setup(opts *options) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFile(opts.configPath, Version)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env, opts.logLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runAnalyze(cmd *cobra.Command, opts *options, path string) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}

	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	svc, err := services.NewAnalysisServiceFromConfig(cfg, opts.useAI, logger)
	if err != nil {
		return err
	}
	if opts.useAI && !svc.HasRemoteDescriptions() {
		fmt.Fprintln(cmd.ErrOrStderr(), "AI is not configured, using rule-based descriptions")
	}

	result, err := svc.Analyze(cmd.Context(), services.AnalyzeRequest{
		FileName:  filepath.Base(path),
		TableName: opts.tableName,
		Content:   content,
	})
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), result, opts.format)
}
