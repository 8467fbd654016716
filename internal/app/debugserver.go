package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// resourceView is the JSON shape of one resource on /resources.
type resourceView struct {
	Type         string `json:"type"`
	Path         string `json:"path"`
	State        string `json:"state"`
	RefCount     int32  `json:"ref_count"`
	LoadRequests int32  `json:"load_requests"`
	InMemory     bool   `json:"in_memory,omitempty"`
	Error        string `json:"error,omitempty"`
}

// router builds the debug HTTP routes:
//   - GET /health: liveness
//   - GET /metrics: Prometheus metrics
//   - GET /resources: every resource held by the manager
func (a *App) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	r.Get("/resources", a.resourcesHandler)
	return r
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Debug("Debug request served.",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) resourcesHandler(w http.ResponseWriter, _ *http.Request) {
	snapshot := a.manager.Snapshot()
	views := make([]resourceView, 0, len(snapshot))
	for _, info := range snapshot {
		views = append(views, resourceView{
			Type:         info.Type,
			Path:         info.Path,
			State:        info.State.String(),
			RefCount:     info.RefCount,
			LoadRequests: info.LoadRequests,
			InMemory:     info.InMemory,
			Error:        info.Err,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		a.logger.Error("Failed to encode resources.", "error", err)
	}
}

// startDebugServer runs the debug server in the background. A zero port
// disables it.
func (a *App) startDebugServer() {
	if a.config.HTTPPort <= 0 {
		a.logger.Debug("Debug server not started: disabled.")
		return
	}

	addr := fmt.Sprintf(":%d", a.config.HTTPPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("Debug server starting.", "address", fmt.Sprintf("http://localhost%s", addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Debug server failed unexpectedly.", "error", err)
		}
	}()
}

func (a *App) stopDebugServer() error {
	if a.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Debug server shutdown failed.", "error", err)
		return err
	}
	a.logger.Debug("Debug server shut down gracefully.")
	return nil
}
