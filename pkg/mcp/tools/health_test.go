package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterHealthTool(t *testing.T) {
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(mcpServer, HealthInfo{Version: "test-version"})

	names := listToolNames(t, mcpServer)
	assert.Contains(t, names, "health")
}

func TestHealthTool_Execute(t *testing.T) {
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(mcpServer, HealthInfo{Version: "1.2.3", Provider: "openai", Model: "gpt-4o"})

	result, rpcErr := callTool(t, mcpServer, "health", nil)
	require.Empty(t, rpcErr)
	require.False(t, result.IsError)

	var health healthResult
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Equal(t, "openai", health.Provider)
	assert.Equal(t, "gpt-4o", health.Model)
}

func TestHealthTool_VersionWithSpecialChars(t *testing.T) {
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	versionWithQuotes := `1.0.0-beta"test`
	RegisterHealthTool(mcpServer, HealthInfo{Version: versionWithQuotes})

	result, rpcErr := callTool(t, mcpServer, "health", nil)
	require.Empty(t, rpcErr)

	var health healthResult
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &health))
	assert.Equal(t, versionWithQuotes, health.Version)
	assert.Empty(t, health.Provider)
}
