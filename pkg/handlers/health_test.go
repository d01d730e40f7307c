package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{Version: "test-version", Env: "test"}
	cfg.App.Name = "llm-metadata"
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.Model = "claude-sonnet"
	cfg.LLM.APIKey = "sk-ant-secret"
	cfg.PromptStore.Type = "postgres"
	cfg.PromptStore.DSN = "postgres://user:hunter2@db/prompts"
	return cfg
}

func TestHealthHandler_Health(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(testConfig(), zap.NewNop()).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %q", rec.Body.String())
	}
}

func TestHealthHandler_Ping(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(testConfig(), zap.NewNop()).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	for _, secret := range []string{"sk-ant-secret", "hunter2"} {
		if strings.Contains(body, secret) {
			t.Errorf("ping response leaks %q: %s", secret, body)
		}
	}

	var response PingResponse
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Version != "test-version" || response.Service != "llm-metadata" {
		t.Errorf("unexpected identity: %+v", response)
	}
	if response.Provider != "anthropic" || response.Model != "claude-sonnet" {
		t.Errorf("unexpected model: %+v", response)
	}
	if response.PromptStore != "postgres" {
		t.Errorf("expected prompt store postgres, got %q", response.PromptStore)
	}
}

func TestHealthHandler_PingMemoryStore(t *testing.T) {
	cfg := testConfig()
	cfg.PromptStore.Type = ""

	rec := httptest.NewRecorder()
	NewHealthHandler(cfg, zap.NewNop()).Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	var response PingResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.PromptStore != config.PromptStoreMemory {
		t.Errorf("expected memory store, got %q", response.PromptStore)
	}
}

func TestHealthHandler_RejectsPost(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(testConfig(), zap.NewNop()).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
