package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DefaultResponseMapper is the default implementation of ResponseMapper.
type DefaultResponseMapper struct{}

// NewResponseMapper creates a new instance of DefaultResponseMapper.
func NewResponseMapper() ResponseMapper {
	return &DefaultResponseMapper{}
}

// MapToToolResponse converts a tool result to MCP format.
func (m *DefaultResponseMapper) MapToToolResponse(result any) (*ToolResponse, error) {
	if result == nil {
		return textResponse("{}", false), nil
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}

	return textResponse(string(jsonBytes), false), nil
}

// MapToolError converts a failed Jira call into an error result.
func (m *DefaultResponseMapper) MapToolError(err error) *ToolResponse {
	payload := map[string]any{
		"success": false,
		"error":   err.Error(),
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		payload["statusCode"] = httpErr.StatusCode
	}
	var notFound *TransitionNotFoundError
	if errors.As(err, &notFound) {
		payload["availableTransitions"] = notFound.Available
	}

	jsonBytes, marshalErr := json.MarshalIndent(payload, "", "  ")
	if marshalErr != nil {
		return textResponse(err.Error(), true)
	}
	return textResponse(string(jsonBytes), true)
}

func textResponse(text string, isError bool) *ToolResponse {
	return &ToolResponse{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// MapError converts an error to a JSON-RPC error, mapping HTTP status codes
// from Jira to the application error codes.
func (m *DefaultResponseMapper) MapError(err error) *Error {
	if err == nil {
		return nil
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return mapHTTPError(httpErr)
	}

	var notFound *TransitionNotFoundError
	if errors.As(err, &notFound) {
		return &Error{
			Code:    APIError,
			Message: notFound.Error(),
			Data:    map[string]any{"available": notFound.Available},
		}
	}

	return &Error{
		Code:    InternalError,
		Message: err.Error(),
	}
}

// mapHTTPError maps HTTP status codes to JSON-RPC error codes.
func mapHTTPError(httpErr HTTPError) *Error {
	var code int
	var message string

	switch httpErr.StatusCode {
	case http.StatusUnauthorized:
		code = AuthenticationError
		message = "Authentication failed"
	case http.StatusForbidden:
		code = AuthenticationError
		message = "Access forbidden - insufficient permissions"
	case http.StatusNotFound:
		code = APIError
		message = "Resource not found"
	case http.StatusBadRequest:
		code = InvalidParams
		message = "Bad request - invalid parameters"
	case http.StatusConflict:
		code = APIError
		message = "Conflict - the issue changed state"
	case http.StatusTooManyRequests:
		code = RateLimitError
		message = "Rate limit exceeded"
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		code = NetworkError
		message = http.StatusText(httpErr.StatusCode)
	default:
		code = APIError
		message = fmt.Sprintf("Jira error: %s", httpErr.Message)
	}

	errorData := map[string]any{
		"statusCode": httpErr.StatusCode,
		"message":    httpErr.Message,
	}
	if httpErr.Body != "" {
		errorData["body"] = httpErr.Body
	}

	return &Error{
		Code:    code,
		Message: message,
		Data:    errorData,
	}
}
