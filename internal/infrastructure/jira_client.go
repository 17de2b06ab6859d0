package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"github.com/rs/zerolog"

	"jira-mcp-server/internal/domain"
)

// JiraClient talks to the Jira Cloud REST API v3. Requests are built and
// sent through go-jira; payloads are the domain types so that descriptions
// and comments travel as ADF documents.
type JiraClient struct {
	baseURL string
	client  *jira.Client
	logger  zerolog.Logger
}

// NewJiraClient creates a client for the site at baseURL
// (e.g. "https://example.atlassian.net"). httpClient should come from the
// AuthenticationManager.
func NewJiraClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) (*JiraClient, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	client, err := jira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jira client: %w", err)
	}
	return &JiraClient{
		baseURL: baseURL,
		client:  client,
		logger:  logger.With().Str("component", "jira").Logger(),
	}, nil
}

// BaseURL returns the configured base URL for the Jira site.
func (c *JiraClient) BaseURL() string {
	return c.baseURL
}

// do sends one request. v receives the decoded answer; a nil v discards the
// body, which is how 204 answers are handled. Non-2xx answers come back as
// domain.HTTPError carrying Jira's error body.
func (c *JiraClient) do(ctx context.Context, method, path string, body, v any) error {
	req, err := c.client.NewRequestWithContext(ctx, method, "rest/api/3/"+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req, v)
	if resp == nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("failed to execute request: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("jira request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return domain.NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(data)))
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetIssue retrieves an issue by key, with field names and rendered fields
// expanded.
func (c *JiraClient) GetIssue(ctx context.Context, issueKey string) (*domain.Issue, error) {
	var issue domain.Issue
	path := "issue/" + url.PathEscape(issueKey) + "?expand=names,renderedFields"
	if err := c.do(ctx, http.MethodGet, path, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// CreateIssue creates an issue and returns its id and key.
func (c *JiraClient) CreateIssue(ctx context.Context, issue *domain.IssueCreate) (*domain.CreatedIssue, error) {
	var created domain.CreatedIssue
	if err := c.do(ctx, http.MethodPost, "issue", issue, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateIssue changes the given fields of an issue.
func (c *JiraClient) UpdateIssue(ctx context.Context, issueKey string, update *domain.IssueUpdate) error {
	return c.do(ctx, http.MethodPut, "issue/"+url.PathEscape(issueKey), update, nil)
}

// AddComment adds a comment to an issue.
func (c *JiraClient) AddComment(ctx context.Context, issueKey string, comment *domain.CommentCreate) (*domain.CreatedComment, error) {
	var created domain.CreatedComment
	if err := c.do(ctx, http.MethodPost, "issue/"+url.PathEscape(issueKey)+"/comment", comment, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SearchIssues runs a JQL search.
func (c *JiraClient) SearchIssues(ctx context.Context, search *domain.SearchRequest) (*domain.SearchResults, error) {
	var results domain.SearchResults
	if err := c.do(ctx, http.MethodPost, "search", search, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// GetProject retrieves project details.
func (c *JiraClient) GetProject(ctx context.Context, projectKey string) (*domain.Project, error) {
	var project domain.Project
	if err := c.do(ctx, http.MethodGet, "project/"+url.PathEscape(projectKey), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// FetchTransitions lists the transitions available for an issue.
func (c *JiraClient) FetchTransitions(ctx context.Context, issueKey string) ([]domain.Transition, error) {
	var list domain.TransitionList
	if err := c.do(ctx, http.MethodGet, "issue/"+url.PathEscape(issueKey)+"/transitions", nil, &list); err != nil {
		return nil, err
	}
	return list.Transitions, nil
}

// ExecuteTransition applies a transition to an issue.
func (c *JiraClient) ExecuteTransition(ctx context.Context, issueKey, transitionID string) error {
	body := &domain.TransitionRequest{Transition: domain.TransitionRef{ID: transitionID}}
	return c.do(ctx, http.MethodPost, "issue/"+url.PathEscape(issueKey)+"/transitions", body, nil)
}
