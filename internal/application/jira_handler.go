package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"jira-mcp-server/internal/adf"
	"jira-mcp-server/internal/domain"
	"jira-mcp-server/internal/transition"
)

// Tool name constants for Jira operations
const (
	ToolJiraCreateIssue    = "jira_create_issue"
	ToolJiraUpdateIssue    = "jira_update_issue"
	ToolJiraAddComment     = "jira_add_comment"
	ToolJiraGetIssue       = "jira_get_issue"
	ToolJiraSearchIssues   = "jira_search_issues"
	ToolJiraTransition     = "jira_transition_issue"
	ToolJiraGetProjectInfo = "jira_get_project_info"
)

const (
	defaultIssueType  = "Task"
	defaultMaxResults = 50
	unassigned        = "Unassigned"
)

var defaultSearchFields = []string{"summary", "status", "assignee", "priority"}

// TrackerFactory builds an IssueTracker on top of an authenticated client.
// It is used for tool calls that carry their own credentials.
type TrackerFactory func(httpClient *http.Client) (domain.IssueTracker, error)

// JiraHandler implements ToolHandler for Jira operations. Text arguments
// that end up in descriptions or comments are converted to ADF; status
// names are resolved to transition ids.
type JiraHandler struct {
	tracker     domain.IssueTracker
	newTracker  TrackerFactory
	mapper      domain.ResponseMapper
	authManager *domain.AuthenticationManager
	converter   *adf.Converter
	resolveOpts []transition.Option
	logger      zerolog.Logger
}

// JiraHandlerOption configures a JiraHandler.
type JiraHandlerOption func(*JiraHandler)

// WithTrackerFactory enables per-call credentials.
func WithTrackerFactory(f TrackerFactory) JiraHandlerOption {
	return func(h *JiraHandler) { h.newTracker = f }
}

// WithConverter replaces the default text-to-ADF converter.
func WithConverter(c *adf.Converter) JiraHandlerOption {
	return func(h *JiraHandler) { h.converter = c }
}

// WithResolverOptions passes options to every transition resolver.
func WithResolverOptions(opts ...transition.Option) JiraHandlerOption {
	return func(h *JiraHandler) { h.resolveOpts = append(h.resolveOpts, opts...) }
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(logger zerolog.Logger) JiraHandlerOption {
	return func(h *JiraHandler) { h.logger = logger }
}

// NewJiraHandler creates a new JiraHandler. tracker may be nil when no
// default credentials are configured; every call must then carry auth.
func NewJiraHandler(tracker domain.IssueTracker, mapper domain.ResponseMapper, authManager *domain.AuthenticationManager, opts ...JiraHandlerOption) *JiraHandler {
	h := &JiraHandler{
		tracker:     tracker,
		mapper:      mapper,
		authManager: authManager,
		converter:   adf.NewConverter(adf.Options{}),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ToolName returns the identifier for this handler.
func (h *JiraHandler) ToolName() string {
	return "jira"
}

// getAuthSchema returns the schema for optional authentication parameters.
func getAuthSchema() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "Optional authentication credentials (if not provided, uses server config)",
		"properties": map[string]any{
			"type": map[string]any{
				"type":        "string",
				"description": "Authentication type: 'basic' or 'token'",
				"enum":        []string{"basic", "token"},
			},
			"username": domain.StringProperty("Username or email for basic authentication"),
			"password": domain.StringProperty("Password or API token for basic authentication"),
			"token":    domain.StringProperty("Bearer token for token authentication"),
		},
	}
}

func issueKeyProperty() map[string]any {
	return domain.StringProperty(`Issue key (e.g., "PROJ-123")`)
}

// ListTools returns available tools for Jira operations.
func (h *JiraHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolJiraCreateIssue,
			Description: "Create a new Jira issue",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]any{
					"project":     domain.StringProperty(`Project key (e.g., "PROJ")`),
					"summary":     domain.StringProperty("Issue summary/title"),
					"description": domain.StringProperty("Issue description (supports Jira markdown)"),
					"issueType":   domain.StringPropertyWithDefault(`Issue type (e.g., "Task", "Bug", "Story")`, defaultIssueType),
					"priority":    domain.StringPropertyWithDefault(`Priority (e.g., "High", "Medium", "Low")`, "Medium"),
					"labels":      domain.StringArrayProperty("Array of labels"),
					"assignee":    domain.StringProperty("Assignee username or email"),
					"auth":        getAuthSchema(),
				},
				Required: []string{"project", "summary", "description"},
			},
		},
		{
			Name:        ToolJiraUpdateIssue,
			Description: "Update an existing Jira issue",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]any{
					"issueKey":    issueKeyProperty(),
					"summary":     domain.StringProperty("New summary/title"),
					"description": domain.StringProperty("New description"),
					"status":      domain.StringProperty(`New status (e.g., "In Progress", "Done")`),
					"assignee":    domain.StringProperty("New assignee username or email"),
					"labels":      domain.StringArrayProperty("Array of labels to set"),
					"auth":        getAuthSchema(),
				},
				Required: []string{"issueKey"},
			},
		},
		{
			Name:        ToolJiraAddComment,
			Description: "Add a comment to a Jira issue",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]any{
					"issueKey": issueKeyProperty(),
					"comment":  domain.StringProperty("Comment text (supports Jira markdown)"),
					"auth":     getAuthSchema(),
				},
				Required: []string{"issueKey", "comment"},
			},
		},
		{
			Name:        ToolJiraGetIssue,
			Description: "Get details of a Jira issue",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]any{
					"issueKey": issueKeyProperty(),
					"auth":     getAuthSchema(),
				},
				Required: []string{"issueKey"},
			},
		},
		{
			Name:        ToolJiraSearchIssues,
			Description: "Search for Jira issues using JQL",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]any{
					"jql":        domain.StringProperty(`JQL query string (e.g., "project = PROJ AND status = Open")`),
					"maxResults": domain.NumberProperty("Maximum number of results", defaultMaxResults),
					"fields":     domain.StringArrayProperty("Fields to include in results"),
					"auth":       getAuthSchema(),
				},
				Required: []string{"jql"},
			},
		},
		{
			Name:        ToolJiraTransition,
			Description: "Transition an issue to a new status",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]any{
					"issueKey":       issueKeyProperty(),
					"transitionName": domain.StringProperty(`Transition name (e.g., "Start Progress", "Done")`),
					"transitionId":   domain.StringProperty("Transition ID (used instead of transitionName)"),
					"auth":           getAuthSchema(),
				},
				Required: []string{"issueKey"},
			},
		},
		{
			Name:        ToolJiraGetProjectInfo,
			Description: "Get information about a Jira project",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]any{
					"projectKey": domain.StringProperty(`Project key (e.g., "PROJ")`),
					"auth":       getAuthSchema(),
				},
				Required: []string{"projectKey"},
			},
		},
	}
}

// trackerForRequest returns the tracker for a call: one built from the
// call's own credentials, or the default one.
func (h *JiraHandler) trackerForRequest(args map[string]any) (domain.IssueTracker, error) {
	creds, err := domain.ExtractCredentialsFromArguments(args)
	if err != nil {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("invalid credentials: %v", err),
		}
	}

	if creds != nil {
		if h.newTracker == nil {
			return nil, &domain.Error{
				Code:    domain.AuthenticationError,
				Message: "per-request credentials are not supported by this server",
			}
		}
		httpClient, err := h.authManager.GetAuthenticatedClientWithCredentials(creds)
		if err != nil {
			return nil, &domain.Error{
				Code:    domain.AuthenticationError,
				Message: fmt.Sprintf("failed to create authenticated client: %v", err),
			}
		}
		tracker, err := h.newTracker(httpClient)
		if err != nil {
			return nil, &domain.Error{Code: domain.ConfigurationError, Message: err.Error()}
		}
		return tracker, nil
	}

	if h.tracker == nil {
		return nil, &domain.Error{
			Code:    domain.AuthenticationError,
			Message: "authentication required: no credentials provided and no default credentials configured",
		}
	}
	return h.tracker, nil
}

// Handle processes an MCP tool call request for Jira operations.
// Bad arguments are returned as *domain.Error; failed Jira calls become
// error results.
func (h *JiraHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]any)
	}

	var handle func(context.Context, domain.IssueTracker, map[string]any) (any, error)
	switch req.Name {
	case ToolJiraCreateIssue:
		handle = h.handleCreateIssue
	case ToolJiraUpdateIssue:
		handle = h.handleUpdateIssue
	case ToolJiraAddComment:
		handle = h.handleAddComment
	case ToolJiraGetIssue:
		handle = h.handleGetIssue
	case ToolJiraSearchIssues:
		handle = h.handleSearchIssues
	case ToolJiraTransition:
		handle = h.handleTransition
	case ToolJiraGetProjectInfo:
		handle = h.handleGetProjectInfo
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown Jira tool: %s", req.Name),
		}
	}

	tracker, err := h.trackerForRequest(req.Arguments)
	if err != nil {
		return nil, err
	}

	result, err := handle(ctx, tracker, req.Arguments)
	if err != nil {
		var rpcErr *domain.Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		h.logger.Warn().Err(err).Str("tool", req.Name).Msg("jira call failed")
		return h.mapper.MapToolError(err), nil
	}

	return h.mapper.MapToToolResponse(result)
}

func browseURL(tracker domain.IssueTracker, key string) string {
	return tracker.BaseURL() + "/browse/" + key
}

func nameOf(n *domain.Named) string {
	if n == nil {
		return ""
	}
	return n.Name
}

type createIssueResult struct {
	Success  bool   `json:"success"`
	IssueKey string `json:"issueKey"`
	IssueID  string `json:"issueId"`
	URL      string `json:"url"`
}

func (h *JiraHandler) handleCreateIssue(ctx context.Context, tracker domain.IssueTracker, args map[string]any) (any, error) {
	project, err := getStringParam(args, "project", true)
	if err != nil {
		return nil, err
	}
	summary, err := getStringParam(args, "summary", true)
	if err != nil {
		return nil, err
	}
	description, err := getStringParam(args, "description", false)
	if err != nil {
		return nil, err
	}
	issueType, err := getStringParam(args, "issueType", false)
	if err != nil {
		return nil, err
	}
	if issueType == "" {
		issueType = defaultIssueType
	}
	priority, err := getStringParam(args, "priority", false)
	if err != nil {
		return nil, err
	}
	assignee, err := getStringParam(args, "assignee", false)
	if err != nil {
		return nil, err
	}
	labels, err := getStringSliceParam(args, "labels")
	if err != nil {
		return nil, err
	}

	create := &domain.IssueCreate{
		Fields: domain.IssueCreateFields{
			Project:     domain.ProjectRef{Key: project},
			Summary:     summary,
			Description: h.converter.Convert(description),
			IssueType:   domain.NameRef{Name: issueType},
		},
	}
	if priority != "" {
		create.Fields.Priority = &domain.NameRef{Name: priority}
	}
	if len(labels) > 0 {
		create.Fields.Labels = labels
	}
	if assignee != "" {
		create.Fields.Assignee = &domain.NameRef{Name: assignee}
	}

	created, err := tracker.CreateIssue(ctx, create)
	if err != nil {
		return nil, err
	}

	return createIssueResult{
		Success:  true,
		IssueKey: created.Key,
		IssueID:  created.ID.String(),
		URL:      browseURL(tracker, created.Key),
	}, nil
}

type updateIssueResult struct {
	Success   bool   `json:"success"`
	IssueKey  string `json:"issueKey"`
	Message   string `json:"message"`
	NewStatus string `json:"newStatus,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// handleUpdateIssue applies field changes and then, when status is given,
// moves the issue through the matching transition. An unknown status does
// not fail the call; it is reported as a warning.
func (h *JiraHandler) handleUpdateIssue(ctx context.Context, tracker domain.IssueTracker, args map[string]any) (any, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}
	summary, err := getStringParam(args, "summary", false)
	if err != nil {
		return nil, err
	}
	description, err := getStringParam(args, "description", false)
	if err != nil {
		return nil, err
	}
	status, err := getStringParam(args, "status", false)
	if err != nil {
		return nil, err
	}
	assignee, err := getStringParam(args, "assignee", false)
	if err != nil {
		return nil, err
	}
	labels, err := getStringSliceParam(args, "labels")
	if err != nil {
		return nil, err
	}

	update := &domain.IssueUpdate{
		Fields: domain.IssueUpdateFields{
			Summary: summary,
		},
	}
	if labels != nil {
		update.Fields.Labels = &labels
	}
	if description != "" {
		update.Fields.Description = h.converter.Convert(description)
	}
	if assignee != "" {
		update.Fields.Assignee = &domain.NameRef{Name: assignee}
	}

	hasFieldChanges := summary != "" || description != "" || assignee != "" || labels != nil
	if hasFieldChanges || status == "" {
		if err := tracker.UpdateIssue(ctx, issueKey, update); err != nil {
			return nil, err
		}
	}

	result := updateIssueResult{
		Success:  true,
		IssueKey: issueKey,
		Message:  "Issue updated successfully",
	}

	if status != "" {
		resolver := transition.NewResolver(tracker, h.resolveOpts...)
		t, err := resolver.Transition(ctx, issueKey, status)
		var notFound *domain.TransitionNotFoundError
		switch {
		case errors.As(err, &notFound):
			result.Warning = notFound.Error()
		case err != nil:
			return nil, err
		default:
			result.NewStatus = t.Name
		}
	}

	return result, nil
}

type addCommentResult struct {
	Success   bool   `json:"success"`
	CommentID string `json:"commentId"`
	IssueKey  string `json:"issueKey"`
}

func (h *JiraHandler) handleAddComment(ctx context.Context, tracker domain.IssueTracker, args map[string]any) (any, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}
	comment, err := getStringParam(args, "comment", true)
	if err != nil {
		return nil, err
	}

	created, err := tracker.AddComment(ctx, issueKey, &domain.CommentCreate{Body: h.converter.Convert(comment)})
	if err != nil {
		return nil, err
	}

	return addCommentResult{
		Success:   true,
		CommentID: created.ID.String(),
		IssueKey:  issueKey,
	}, nil
}

type issueResult struct {
	Key         string          `json:"key"`
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"`
	Status      string          `json:"status"`
	Assignee    string          `json:"assignee"`
	Priority    string          `json:"priority,omitempty"`
	Created     string          `json:"created,omitempty"`
	Updated     string          `json:"updated,omitempty"`
	Labels      []string        `json:"labels"`
	URL         string          `json:"url"`
}

func (h *JiraHandler) handleGetIssue(ctx context.Context, tracker domain.IssueTracker, args map[string]any) (any, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}

	issue, err := tracker.GetIssue(ctx, issueKey)
	if err != nil {
		return nil, err
	}

	f := issue.Fields
	result := issueResult{
		Key:         issue.Key,
		Summary:     f.Summary,
		Description: f.Description,
		Status:      nameOf(f.Status),
		Assignee:    unassigned,
		Priority:    nameOf(f.Priority),
		Created:     f.Created,
		Updated:     f.Updated,
		Labels:      f.Labels,
		URL:         browseURL(tracker, issue.Key),
	}
	if len(result.Description) == 0 {
		result.Description = json.RawMessage("null")
	}
	if result.Labels == nil {
		result.Labels = []string{}
	}
	if f.Assignee != nil && f.Assignee.DisplayName != "" {
		result.Assignee = f.Assignee.DisplayName
	}
	return result, nil
}

type searchIssue struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Status   string `json:"status,omitempty"`
	Assignee string `json:"assignee,omitempty"`
	Priority string `json:"priority,omitempty"`
}

type searchResult struct {
	Total  int           `json:"total"`
	Issues []searchIssue `json:"issues"`
}

func (h *JiraHandler) handleSearchIssues(ctx context.Context, tracker domain.IssueTracker, args map[string]any) (any, error) {
	jql, err := getStringParam(args, "jql", true)
	if err != nil {
		return nil, err
	}
	maxResults, err := getIntParam(args, "maxResults", defaultMaxResults)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	fields, err := getStringSliceParam(args, "fields")
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		fields = defaultSearchFields
	}

	results, err := tracker.SearchIssues(ctx, &domain.SearchRequest{
		JQL:        jql,
		MaxResults: maxResults,
		Fields:     fields,
	})
	if err != nil {
		return nil, err
	}

	out := searchResult{Total: results.Total, Issues: make([]searchIssue, 0, len(results.Issues))}
	for _, issue := range results.Issues {
		item := searchIssue{
			Key:      issue.Key,
			Summary:  issue.Fields.Summary,
			Status:   nameOf(issue.Fields.Status),
			Priority: nameOf(issue.Fields.Priority),
		}
		if issue.Fields.Assignee != nil {
			item.Assignee = issue.Fields.Assignee.DisplayName
		}
		out.Issues = append(out.Issues, item)
	}
	return out, nil
}

type transitionResult struct {
	Success      bool   `json:"success"`
	IssueKey     string `json:"issueKey"`
	NewStatus    string `json:"newStatus,omitempty"`
	TransitionID string `json:"transitionId,omitempty"`
}

// handleTransition moves an issue by transition name, or directly by id
// when transitionId is given.
func (h *JiraHandler) handleTransition(ctx context.Context, tracker domain.IssueTracker, args map[string]any) (any, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}
	transitionName, err := getStringParam(args, "transitionName", false)
	if err != nil {
		return nil, err
	}
	transitionID, err := getStringParam(args, "transitionId", false)
	if err != nil {
		return nil, err
	}

	if transitionID != "" {
		if err := tracker.ExecuteTransition(ctx, issueKey, transitionID); err != nil {
			return nil, err
		}
		return transitionResult{Success: true, IssueKey: issueKey, TransitionID: transitionID}, nil
	}

	if transitionName == "" {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "either transitionName or transitionId must be provided",
		}
	}

	t, err := transition.NewResolver(tracker, h.resolveOpts...).Transition(ctx, issueKey, transitionName)
	if err != nil {
		return nil, err
	}

	return transitionResult{Success: true, IssueKey: issueKey, NewStatus: t.Name}, nil
}

type projectResult struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Lead        string   `json:"lead,omitempty"`
	IssueTypes  []string `json:"issueTypes"`
	URL         string   `json:"url"`
}

func (h *JiraHandler) handleGetProjectInfo(ctx context.Context, tracker domain.IssueTracker, args map[string]any) (any, error) {
	projectKey, err := getStringParam(args, "projectKey", true)
	if err != nil {
		return nil, err
	}

	project, err := tracker.GetProject(ctx, projectKey)
	if err != nil {
		return nil, err
	}

	result := projectResult{
		Key:         project.Key,
		Name:        project.Name,
		Description: project.Description,
		IssueTypes:  make([]string, 0, len(project.IssueTypes)),
		URL:         browseURL(tracker, project.Key),
	}
	if project.Lead != nil {
		result.Lead = project.Lead.DisplayName
	}
	for _, it := range project.IssueTypes {
		result.IssueTypes = append(result.IssueTypes, it.Name)
	}
	return result, nil
}
