//go:build debug

package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// debugDir receives one file per request, response and error when built with -tags debug.
var debugDir = filepath.Join(os.TempDir(), "schema-enrichment-llm-conversations")

func init() {
	if err := os.MkdirAll(debugDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: cannot create LLM debug directory %s: %v\n", debugDir, err)
	}
}

func writeDebugFile(prefix, kind string, headers [][2]string, body string) {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 72) + "\n")
	fmt.Fprintf(&b, "%-16s %s\n", "TIMESTAMP:", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "%-16s %s\n", "TYPE:", strings.ToUpper(kind))
	for _, h := range headers {
		fmt.Fprintf(&b, "%-16s %s\n", h[0]+":", h[1])
	}
	b.WriteString(strings.Repeat("=", 72) + "\n\n")
	b.WriteString(body)
	b.WriteString("\n")

	path := filepath.Join(debugDir, prefix+"_"+kind+".txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: cannot write LLM debug file %s: %v\n", path, err)
	}
}

// debugWriteRequest writes the prompt pair and returns the prefix shared by the later files.
func debugWriteRequest(conversationID uuid.UUID, model, systemMessage, prompt string) string {
	prefix := time.Now().Format("20060102_150405.000") + "_" + conversationID.String()
	writeDebugFile(prefix, "request", [][2]string{
		{"MODEL", model},
		{"CONVERSATION", conversationID.String()},
	}, "--- system ---\n"+systemMessage+"\n\n--- prompt ---\n"+prompt)
	return prefix
}

func debugWriteResponse(prefix, conversationID, model, response string, durationMs int64) {
	writeDebugFile(prefix, "response", [][2]string{
		{"MODEL", model},
		{"CONVERSATION", conversationID},
		{"DURATION", fmt.Sprintf("%dms", durationMs)},
	}, response)
}

func debugWriteError(prefix, conversationID, model, errMsg string, durationMs int64) {
	writeDebugFile(prefix, "error", [][2]string{
		{"MODEL", model},
		{"CONVERSATION", conversationID},
		{"DURATION", fmt.Sprintf("%dms", durationMs)},
	}, errMsg)
}
