package domain

// ResponseMapper converts tool results and failures into MCP responses.
type ResponseMapper interface {
	// MapToToolResponse renders a successful result as a text block holding
	// indented JSON.
	MapToToolResponse(result any) (*ToolResponse, error)

	// MapToolError renders a failed Jira call as a tool result with IsError
	// set. The error message is passed through unchanged.
	MapToolError(err error) *ToolResponse

	// MapError converts an error to a JSON-RPC error object.
	MapError(err error) *Error
}
