package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx answer from the Jira REST API. Body holds the raw
// response body so callers see Jira's own error messages.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface for HTTPError.
func (e HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Message, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(statusCode int, message string, body string) HTTPError {
	return HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Body:       body,
	}
}

// IsConflict reports whether err is a 409 answer from Jira, which is how a
// transition that is no longer valid for the issue's current status fails.
func IsConflict(err error) bool {
	var httpErr HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusConflict
}

// TransitionNotFoundError is returned when no transition of an issue
// matches the requested status name.
type TransitionNotFoundError struct {
	IssueKey  string
	Name      string
	Available []string
}

func (e *TransitionNotFoundError) Error() string {
	return fmt.Sprintf("Transition \"%s\" not found. Available: %s", e.Name, strings.Join(e.Available, ", "))
}
