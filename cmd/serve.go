package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jira-mcp-server/internal/adf"
	"jira-mcp-server/internal/application"
	"jira-mcp-server/internal/credential"
	"jira-mcp-server/internal/domain"
	"jira-mcp-server/internal/infrastructure"
	"jira-mcp-server/internal/logging"
	"jira-mcp-server/internal/transition"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server on the configured transport.

With the stdio transport requests are read from stdin and responses written
to stdout; logs go to stderr. With the http transport clients open an SSE
stream on GET /mcp and post requests to the endpoint it announces.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Log, os.Stderr)

		if err := cfg.ResolveSecrets(credential.NewStore().Get); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, newTransport(cfg, logger), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newTransport(cfg *domain.Config, logger zerolog.Logger) domain.Transport {
	if cfg.Transport.Type == "http" {
		return domain.NewHTTPTransport(cfg.Transport.HTTP.Host, cfg.Transport.HTTP.Port, logger)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn().Msg("stdin is a terminal; the stdio transport expects an MCP client on the other end")
	}
	return domain.NewStdioTransport(logger)
}

// serve runs the server until ctx ends or the transport closes.
func serve(ctx context.Context, cfg *domain.Config, transport domain.Transport, logger zerolog.Logger) error {
	server, err := newServer(cfg, transport, logger)
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case <-server.Done():
	}

	if err := server.Close(); err != nil {
		return fmt.Errorf("closing server: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires the Jira client, tool handler and router on top of
// transport.
func newServer(cfg *domain.Config, transport domain.Transport, logger zerolog.Logger) (*application.Server, error) {
	authManager := domain.NewAuthenticationManagerFromConfig(cfg)

	newTracker := func(httpClient *http.Client) (domain.IssueTracker, error) {
		client, err := infrastructure.NewJiraClient(cfg.Jira.BaseURL, httpClient, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	var tracker domain.IssueTracker
	if authManager.HasCredentials("jira") {
		httpClient, err := authManager.GetAuthenticatedClient("jira")
		if err != nil {
			return nil, fmt.Errorf("creating Jira client: %w", err)
		}
		if tracker, err = newTracker(httpClient); err != nil {
			return nil, err
		}
	} else {
		logger.Info().Msg("no default Jira credentials configured; tool calls must carry auth")
	}

	opts := []application.JiraHandlerOption{
		application.WithTrackerFactory(newTracker),
		application.WithConverter(adf.NewConverter(documentOptions(cfg.Documents))),
		application.WithHandlerLogger(logger),
	}
	if cfg.Transitions.RetryOnConflict {
		opts = append(opts, application.WithResolverOptions(
			transition.WithRetryOnConflict(nil),
			transition.WithLogger(logger),
		))
	}

	handler := application.NewJiraHandler(tracker, domain.NewResponseMapper(), authManager, opts...)
	router := application.NewRequestRouter(handler)

	logger.Info().
		Str("jira", cfg.Jira.BaseURL).
		Int("tools", len(router.ListAllTools())).
		Msg("jira handler registered")

	return application.NewServer(transport, router, cfg, logger), nil
}

func documentOptions(d domain.DocumentsConfig) adf.Options {
	return adf.Options{
		MergeLists:  d.MergeLists,
		CodeBlocks:  d.CodeBlocks,
		InlineMarks: d.InlineMarks,
	}
}
