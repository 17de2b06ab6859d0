package domain

import (
	"context"
)

// IssueTracker is the set of Jira REST operations the tools need.
// Every call is a single HTTP round trip; failures are returned unchanged
// (non-2xx answers as HTTPError).
type IssueTracker interface {
	// BaseURL returns the site root used to build browse links.
	BaseURL() string

	GetIssue(ctx context.Context, issueKey string) (*Issue, error)
	CreateIssue(ctx context.Context, issue *IssueCreate) (*CreatedIssue, error)
	UpdateIssue(ctx context.Context, issueKey string, update *IssueUpdate) error
	AddComment(ctx context.Context, issueKey string, comment *CommentCreate) (*CreatedComment, error)
	SearchIssues(ctx context.Context, search *SearchRequest) (*SearchResults, error)
	GetProject(ctx context.Context, projectKey string) (*Project, error)

	// FetchTransitions lists the transitions currently legal for the issue,
	// in the order Jira returns them.
	FetchTransitions(ctx context.Context, issueKey string) ([]Transition, error)
	// ExecuteTransition applies the transition with the given id.
	ExecuteTransition(ctx context.Context, issueKey, transitionID string) error
}
