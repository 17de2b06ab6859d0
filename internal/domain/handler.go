package domain

import (
	"context"
)

// ToolHandler serves a family of tools sharing a name prefix
// (e.g. every jira_* tool).
type ToolHandler interface {
	// Handle executes one tool call.
	Handle(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

	// ListTools returns the tools this handler serves.
	ListTools() []ToolDefinition

	// ToolName returns the prefix the router dispatches on.
	ToolName() string
}
