// Package cmd implements the jira-mcp-server command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jira-mcp-server/internal/application"
	"jira-mcp-server/internal/domain"
)

const defaultConfigFile = "config.yaml"

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "jira-mcp-server",
	Short: "MCP server exposing Jira issues as tools",
	Long: `jira-mcp-server speaks the Model Context Protocol over stdio or HTTP/SSE
and exposes Jira Cloud operations as tools. Plain text sent by the client is
converted to Atlassian Document Format, and status names are resolved to
workflow transitions.`,
	Version:       application.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigFile, "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}

// configPath returns the file to load. The default file is optional; a
// path given with --config must exist.
func configPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("config") {
		return cfgFile
	}
	if _, err := os.Stat(cfgFile); err == nil {
		return cfgFile
	}
	return ""
}

// loadConfig loads the configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*domain.Config, error) {
	cfg, err := domain.LoadConfig(configPath(cmd))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Log.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
