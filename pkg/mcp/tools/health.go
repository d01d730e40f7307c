package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// HealthInfo describes the running server to the health tool.
type HealthInfo struct {
	Version  string
	Provider string
	Model    string
}

type healthResult struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// RegisterHealthTool adds a health check tool reporting the version and the configured model.
func RegisterHealthTool(s *server.MCPServer, info HealthInfo) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and the configured model"),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := json.Marshal(healthResult{
			Status:   "ok",
			Version:  info.Version,
			Provider: info.Provider,
			Model:    info.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
