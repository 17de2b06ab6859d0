package domain

// ToolDefinition describes a tool advertised through tools/list.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// ToolRequest is the params object of a tools/call request.
type ToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResponse is the result object of a tools/call request.
// Failures of the underlying Jira call are reported with IsError set,
// not as JSON-RPC errors.
type ToolResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one piece of tool output. Only "text" is produced.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// JSONSchema is the subset of JSON Schema used for tool input.
type JSONSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
}

// StringProperty declares a string argument.
func StringProperty(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// StringPropertyWithDefault declares a string argument with a documented default.
func StringPropertyWithDefault(description, def string) map[string]any {
	p := StringProperty(description)
	p["default"] = def
	return p
}

// NumberProperty declares a numeric argument with a documented default.
func NumberProperty(description string, def int) map[string]any {
	return map[string]any{"type": "number", "description": description, "default": def}
}

// StringArrayProperty declares an array-of-strings argument.
func StringArrayProperty(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}
