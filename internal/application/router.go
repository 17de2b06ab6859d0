package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"jira-mcp-server/internal/domain"
)

// RequestRouter dispatches MCP tool requests to the ToolHandler registered
// for the tool name prefix.
type RequestRouter struct {
	handlers map[string]domain.ToolHandler
}

// NewRequestRouter creates a new RequestRouter with the provided handlers.
// Handlers are registered by their ToolName() identifier.
func NewRequestRouter(handlers ...domain.ToolHandler) *RequestRouter {
	router := &RequestRouter{
		handlers: make(map[string]domain.ToolHandler),
	}

	for _, handler := range handlers {
		router.handlers[handler.ToolName()] = handler
	}

	return router
}

// Route dispatches a tool request based on the tool name.
// Tool names follow the pattern: <handler>_<operation> (e.g. jira_get_issue).
func (r *RequestRouter) Route(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	handlerName := extractHandlerName(req.Name)
	if handlerName == "" {
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("invalid tool name format: %s (expected format: <handler>_<operation>)", req.Name),
		}
	}

	handler, exists := r.handlers[handlerName]
	if !exists {
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown tool: %s", req.Name),
		}
	}

	return handler.Handle(ctx, req)
}

// ListAllTools aggregates tool definitions from all registered handlers,
// ordered by handler name.
func (r *RequestRouter) ListAllTools() []domain.ToolDefinition {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	allTools := []domain.ToolDefinition{}
	for _, name := range names {
		allTools = append(allTools, r.handlers[name].ListTools()...)
	}
	return allTools
}

// GetHandler returns the handler registered under handlerName.
func (r *RequestRouter) GetHandler(handlerName string) (domain.ToolHandler, bool) {
	handler, exists := r.handlers[handlerName]
	return handler, exists
}

// extractHandlerName returns the part of a tool name before the first
// underscore: "jira_get_issue" -> "jira".
func extractHandlerName(toolName string) string {
	idx := strings.Index(toolName, "_")
	if idx <= 0 {
		return ""
	}
	return toolName[:idx]
}
