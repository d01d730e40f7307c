package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/logging"
)

// ToolCallLogger logs every MCP tool call with its duration and outcome.
type ToolCallLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewToolCallLogger creates a ToolCallLogger.
func NewToolCallLogger(logger *zap.Logger) *ToolCallLogger {
	return &ToolCallLogger{logger: logger.Named("tool-calls")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *ToolCallLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *ToolCallLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *ToolCallLogger) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	startTime := a.loadAndDeleteStart(id)
	summary := summarizeResult(result)

	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Any("params", summarizeParams(req.Params.Arguments)),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()),
		zap.Bool("is_error", summary.IsError),
	}
	if summary.Findings > 0 {
		fields = append(fields, zap.Int("findings", summary.Findings))
	}
	if summary.IsError {
		a.logger.Warn("Tool call returned an error result", append(fields, zap.String("preview", summary.Preview))...)
		return
	}
	a.logger.Info("Tool call completed", fields...)
}

func (a *ToolCallLogger) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	startTime := a.loadAndDeleteStart(id)
	a.logger.Error("Tool call failed",
		zap.String("tool", req.Params.Name),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()),
		zap.String("error", logging.SanitizeError(err)))
}

func (a *ToolCallLogger) loadAndDeleteStart(id any) time.Time {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time)
	}
	return time.Now()
}

// summarizeParams keeps parameter names and short values. Schema and description
// payloads are reduced to a preview.
func summarizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	summary := make(map[string]any, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			summary[k] = logging.Preview(s)
			continue
		}
		summary[k] = v
	}
	return summary
}

type resultSummary struct {
	IsError  bool
	Preview  string
	Findings int
}

// summarizeResult previews the first text content and counts audit findings in JSON results.
func summarizeResult(result *mcplib.CallToolResult) resultSummary {
	if result == nil {
		return resultSummary{}
	}

	summary := resultSummary{IsError: result.IsError}
	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		summary.Preview = logging.Preview(tc.Text)

		var partial struct {
			Findings []json.RawMessage `json:"findings"`
		}
		if err := json.Unmarshal([]byte(tc.Text), &partial); err == nil {
			summary.Findings = len(partial.Findings)
		}
		break
	}
	return summary
}
