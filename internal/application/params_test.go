package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jira-mcp-server/internal/domain"
)

func requireInvalidParams(t *testing.T, err error) {
	t.Helper()
	var rpcErr *domain.Error
	require.True(t, errors.As(err, &rpcErr), "expected *domain.Error, got %v", err)
	assert.Equal(t, domain.InvalidParams, rpcErr.Code)
}

func TestGetStringParam(t *testing.T) {
	args := map[string]any{"key": "PROJ-1", "empty": "", "num": 3.0, "nil": nil}

	v, err := getStringParam(args, "key", true)
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", v)

	v, err = getStringParam(args, "missing", false)
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = getStringParam(args, "nil", false)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = getStringParam(args, "missing", true)
	requireInvalidParams(t, err)

	_, err = getStringParam(args, "empty", true)
	requireInvalidParams(t, err)

	_, err = getStringParam(args, "num", false)
	requireInvalidParams(t, err)
}

func TestGetIntParam(t *testing.T) {
	args := map[string]any{"float": 25.0, "int": 7, "str": "10"}

	v, err := getIntParam(args, "float", 50)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	v, err = getIntParam(args, "int", 50)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = getIntParam(args, "missing", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	_, err = getIntParam(args, "str", 50)
	requireInvalidParams(t, err)
}

func TestGetStringSliceParam(t *testing.T) {
	args := map[string]any{
		"json":   []any{"a", "b"},
		"native": []string{"c"},
		"mixed":  []any{"a", 1.0},
		"scalar": "a",
	}

	v, err := getStringSliceParam(args, "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)

	v, err = getStringSliceParam(args, "native")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, v)

	v, err = getStringSliceParam(args, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = getStringSliceParam(args, "mixed")
	requireInvalidParams(t, err)

	_, err = getStringSliceParam(args, "scalar")
	requireInvalidParams(t, err)
}
