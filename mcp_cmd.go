package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/handlers"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/mcp"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/mcp/tools"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/middleware"
)

const mcpShutdownTimeout = 10 * time.Second

func mcpCmd(opts *rootOptions) *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve describe_schema and render_ddl as MCP tools",
		Long: "Serves the pipeline as MCP tools over stdio, or over streamable HTTP at /mcp when --http is set. " +
			"Logs go to stderr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := newMCPServer(cmd.Context(), a)
			if err != nil {
				return err
			}
			if httpAddr == "" {
				return s.ServeStdio()
			}
			return serveMCPHTTP(cmd.Context(), a, s, httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "listen address for streamable HTTP, e.g. :8080")
	return cmd
}

func newMCPServer(ctx context.Context, a *app) (*mcp.Server, error) {
	if err := a.openPromptStore(ctx); err != nil {
		return nil, err
	}
	svc, err := a.newSchemaService()
	if err != nil {
		return nil, err
	}

	s := mcp.NewServer(a.cfg.App.Name, Version, a.logger)
	tools.RegisterHealthTool(s.MCP(), tools.HealthInfo{
		Version:  Version,
		Provider: a.cfg.LLM.Provider,
		Model:    a.cfg.LLM.Model,
	})
	tools.RegisterSchemaTools(s.MCP(), &tools.SchemaToolDeps{
		Service:  svc,
		Resolver: a.resolver,
	})
	return s, nil
}

// serveMCPHTTP serves the MCP transport at /mcp and the health endpoints until ctx is done.
func serveMCPHTTP(ctx context.Context, a *app, s *mcp.Server, addr string) error {
	logger := a.logger
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.NewStreamableHTTPServer())
	handlers.NewHealthHandler(a.cfg, logger).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           middleware.RequestLogger(logger.Named("http"))(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving MCP over HTTP", zap.String("addr", addr), zap.String("path", "/mcp"))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), mcpShutdownTimeout)
	defer cancel()
	logger.Info("Shutting down MCP server")
	return httpServer.Shutdown(shutdownCtx)
}
