package application

import (
	"fmt"

	"jira-mcp-server/internal/domain"
)

// getStringParam extracts a string parameter from the arguments map.
// Returns an error if the parameter is required but missing or not a string.
func getStringParam(args map[string]any, name string, required bool) (string, error) {
	value, exists := args[name]
	if !exists || value == nil {
		if required {
			return "", missingParam(name)
		}
		return "", nil
	}

	strValue, ok := value.(string)
	if !ok {
		return "", &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("parameter %s must be a string", name),
		}
	}

	if required && strValue == "" {
		return "", missingParam(name)
	}

	return strValue, nil
}

// getIntParam extracts an integer parameter, falling back to def when absent.
// A present value of the wrong type is an error even for optional parameters.
func getIntParam(args map[string]any, name string, def int) (int, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return def, nil
	}

	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("parameter %s must be an integer", name),
		}
	}
}

// getStringSliceParam extracts an array-of-strings parameter. Absent
// parameters yield nil.
func getStringSliceParam(args map[string]any, name string) ([]string, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return nil, nil
	}

	invalid := &domain.Error{
		Code:    domain.InvalidParams,
		Message: fmt.Sprintf("parameter %s must be an array of strings", name),
	}

	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalid
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalid
	}
}

func missingParam(name string) *domain.Error {
	return &domain.Error{
		Code:    domain.InvalidParams,
		Message: fmt.Sprintf("missing required parameter: %s", name),
	}
}
