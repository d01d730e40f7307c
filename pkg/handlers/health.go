package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"

	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/config"
)

// PingResponse describes the running service.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Environment string `json:"environment"`
	Provider    string `json:"llm_provider"`
	Model       string `json:"llm_model"`
	PromptStore string `json:"prompt_store"`
}

// HealthHandler serves the health endpoints next to the MCP HTTP transport.
type HealthHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler with the given configuration.
func NewHealthHandler(cfg *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, logger: logger.Named("health")}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health returns a plain "ok" for liveness probes.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping reports the version and the configured model. Secrets and DSNs are never included.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	promptStore := h.cfg.PromptStore.Type
	if h.cfg.UsesMemoryStore() {
		promptStore = config.PromptStoreMemory
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     h.cfg.App.Name,
		GoVersion:   runtime.Version(),
		Environment: h.cfg.Env,
		Provider:    h.cfg.LLM.Provider,
		Model:       h.cfg.LLM.Model,
		PromptStore: promptStore,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
