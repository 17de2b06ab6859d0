package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"jira-mcp-server/internal/application"
	"jira-mcp-server/internal/domain"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool catalogue as JSON",
	Long:  `Print the tool definitions returned by tools/list, including input schemas.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := application.NewJiraHandler(nil, domain.NewResponseMapper(), domain.NewAuthenticationManager(nil))
		tools := application.NewRequestRouter(handler).ListAllTools()

		out, err := json.MarshalIndent(map[string]any{"tools": tools}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
