//go:build !debug

package llm

import "github.com/google/uuid"

func debugWriteRequest(uuid.UUID, string, string, string) string { return "" }

func debugWriteResponse(string, string, string, string, int64) {}

func debugWriteError(string, string, string, string, int64) {}
