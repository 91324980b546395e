// Package server mounts the board HTTP API and the MCP endpoint on one listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/tackboard/internal/adapters/server/common"
	"github.com/evanschultz/tackboard/internal/adapters/server/httpapi"
	"github.com/evanschultz/tackboard/internal/adapters/server/mcpapi"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBindAddress = "127.0.0.1:5437"
	defaultAPIPath     = "/api/v1"
	defaultMCPPath     = "/mcp"
	defaultName        = "tackboard"
	shutdownGrace      = 5 * time.Second
)

// Config is the listener and mount configuration for serve mode.
type Config struct {
	Bind    string
	APIPath string
	MCPPath string
	Name    string
	Version string
}

// Dependencies carries what the transports call into.
type Dependencies struct {
	Boards common.BoardService
	// Ready reports storage readiness for /readyz. Nil means always ready.
	Ready  func(context.Context) error
	Logger *log.Logger
}

// NewHandler builds the root handler and returns the config it resolved.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	resolved, err := cfg.withDefaults()
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Boards == nil {
		return nil, Config{}, errors.New("board service dependency is required")
	}

	mcp, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    resolved.Name,
		ServerVersion: resolved.Version,
		EndpointPath:  resolved.MCPPath,
	}, deps.Boards)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(resolved.APIPath, httpapi.NewHandler(deps.Boards))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/readyz", readinessHandler(deps.Ready))
	mux.Handle(resolved.MCPPath, mcp)
	mux.Handle(resolved.APIPath, api)
	mux.Handle(resolved.APIPath+"/", api)
	return logRequests(mux, deps.Logger), resolved, nil
}

// Run serves until ctx is canceled, then drains in-flight requests.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	handler, resolved, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	srv := &http.Server{
		Addr:              resolved.Bind,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if deps.Logger != nil {
		deps.Logger.Info("serving", "bind", resolved.Bind, "api", resolved.APIPath, "mcp", resolved.MCPPath)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// withDefaults fills blanks and rejects an API path that shadows the MCP path.
func (c Config) withDefaults() (Config, error) {
	c.Bind = orDefault(c.Bind, defaultBindAddress)
	c.APIPath = normalizeEndpoint(c.APIPath, defaultAPIPath)
	c.MCPPath = normalizeEndpoint(c.MCPPath, defaultMCPPath)
	if c.APIPath == c.MCPPath {
		return Config{}, fmt.Errorf("api and mcp endpoints must differ: both %q", c.APIPath)
	}
	c.Name = orDefault(c.Name, defaultName)
	c.Version = orDefault(c.Version, "dev")
	return c, nil
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

// normalizeEndpoint returns path as "/a/b" with no trailing slash, or fallback for a blank or root path.
func normalizeEndpoint(path, fallback string) string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return fallback
	}
	return "/" + trimmed
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, "{\"status\":%q}\n", status)
}

// readinessHandler reports 503 while ready returns an error.
func readinessHandler(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ok")
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests logs one debug line per request when logger is set.
func logRequests(next http.Handler, logger *log.Logger) http.Handler {
	if logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(started))
	})
}
