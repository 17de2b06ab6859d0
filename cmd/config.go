package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jira-mcp-server/internal/domain"
)

var (
	initBaseURL  string
	initUsername string
	initForce    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a starter configuration for a Jira site. The API token is not
written to the file; store it with 'jira-mcp-server auth set'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if initBaseURL == "" {
			return errors.New("--base-url is required")
		}
		if _, err := os.Stat(cfgFile); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
		}

		cfg := domain.DefaultConfig(initBaseURL, initUsername)
		if initUsername == "" {
			cfg.Jira.Auth = nil
		}
		if err := cfg.Jira.Validate("Jira"); err != nil {
			return err
		}
		if err := domain.SaveConfig(cfg, cfgFile); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", cfgFile)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Jira:      %s\n", cfg.Jira.BaseURL)
		fmt.Fprintf(out, "Transport: %s\n", cfg.Transport.Type)
		if cfg.Jira.Auth == nil {
			fmt.Fprintln(out, "Auth:      none (tool calls must carry credentials)")
		} else {
			fmt.Fprintf(out, "Auth:      %s\n", cfg.Jira.Auth.Type)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initBaseURL, "base-url", "", "Jira site URL (e.g. https://your-org.atlassian.net)")
	configInitCmd.Flags().StringVar(&initUsername, "username", "", "Atlassian account email")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
