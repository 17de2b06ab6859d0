package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jira-mcp-server/internal/credential"
	"jira-mcp-server/internal/domain"
)

// secretStore is replaced in tests.
var secretStore interface {
	Set(key, value string) error
	Delete(key string) error
} = credential.NewStore()

var authUsername string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Jira secret in the OS keyring",
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the API token (or bearer token) in the keyring",
	Long: `Store the Jira secret in the OS keyring. The secret is read without echo
when stdin is a terminal, otherwise from the first line of stdin. Set
jira.auth.keyring to true in the configuration to use it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := readSecret(cmd)
		if err != nil {
			return err
		}
		if secret == "" {
			return errors.New("secret must not be empty")
		}

		key := domain.SecretKey("jira", authUsername)
		if err := secretStore.Set(key, secret); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Secret stored under %q\n", key)
		return nil
	},
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		key := domain.SecretKey("jira", authUsername)
		if err := secretStore.Delete(key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Secret %q removed\n", key)
		return nil
	},
}

func readSecret(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Secret (input hidden): ")
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	authCmd.PersistentFlags().StringVar(&authUsername, "username", "", "account the secret belongs to (as in jira.auth.username)")
	authCmd.AddCommand(authSetCmd, authDeleteCmd)
	rootCmd.AddCommand(authCmd)
}
