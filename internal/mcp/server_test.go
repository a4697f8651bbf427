package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry, err := tools.NewRegistry(0, log.NewNop())
	require.NoError(t, err)
	require.NoError(t, registry.Register(tools.NewCalculator()))
	return registry
}

func TestNewServerValidation(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := NewServer(Config{Version: "1.0"}, registry, log.NewNop())
	assert.Error(t, err)
	_, err = NewServer(Config{Name: "parley"}, registry, log.NewNop())
	assert.Error(t, err)
	_, err = NewServer(Config{Name: "parley", Version: "1.0"}, nil, log.NewNop())
	assert.Error(t, err)

	_, err = NewServer(Config{Name: "parley", Version: "1.0"}, registry, log.NewNop())
	assert.NoError(t, err)
}

func TestInvokeSuccess(t *testing.T) {
	srv, err := NewServer(Config{Name: "parley", Version: "test"}, newTestRegistry(t), log.NewNop())
	require.NoError(t, err)

	result, data, err := srv.invoke(context.Background(), "calculator",
		map[string]any{"expression": "2+2*3"})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "8")
	assert.NotNil(t, data)
}

func TestInvokeToolErrorIsErrorContent(t *testing.T) {
	srv, err := NewServer(Config{Name: "parley", Version: "test"}, newTestRegistry(t), log.NewNop())
	require.NoError(t, err)

	result, _, err := srv.invoke(context.Background(), "calculator",
		map[string]any{"expression": "1/0"})
	require.NoError(t, err)

	assert.True(t, result.IsError)
}

func TestInvokeUnknownTool(t *testing.T) {
	srv, err := NewServer(Config{Name: "parley", Version: "test"}, newTestRegistry(t), log.NewNop())
	require.NoError(t, err)

	result, _, err := srv.invoke(context.Background(), "nope", map[string]any{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
