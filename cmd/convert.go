package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jira-mcp-server/internal/adf"
)

var convertOpts adf.Options

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert text to an ADF document",
	Long: `Convert plain or markdown-ish text to the Atlassian Document Format JSON
that is sent to Jira for descriptions and comments. Reads the file, or stdin
when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()
			in = f
		}

		text, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		out, err := json.MarshalIndent(adf.NewConverter(convertOpts).Convert(string(text)), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	convertCmd.Flags().BoolVar(&convertOpts.MergeLists, "merge-lists", false, "fold adjacent list lines into one list")
	convertCmd.Flags().BoolVar(&convertOpts.CodeBlocks, "code-blocks", false, "turn ``` fenced lines into code blocks")
	convertCmd.Flags().BoolVar(&convertOpts.InlineMarks, "inline-marks", false, "parse **strong**, *em*, `code` and links")
	rootCmd.AddCommand(convertCmd)
}
