package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/handlers"
	"github.com/akolanti/ContractIntelAPI/internal/middleware"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var _logger = logger_i.NewLogger("Server")

// ErrForcedShutdown means draining did not finish within ShutdownContextTimeout.
var ErrForcedShutdown = errors.New("shutdown timed out")

// ShutdownParams are torn down in field order: HTTP first so no new jobs arrive,
// then the workers, then the external services they were using.
type ShutdownParams struct {
	GracefulShutdown <-chan os.Signal
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// RegisterRoutes mounts every API route on r, each behind the middleware chain.
func RegisterRoutes(r chi.Router, h *handlers.Handler) {
	r.Post("/ingest", middleware.Wrap(h.PostIngestHandler))
	r.Get("/documents/{id}", middleware.Wrap(h.GetDocumentHandler))
	r.Post("/documents/{id}/reprocess", middleware.Wrap(h.ReprocessHandler))
	r.Get("/documents/{id}/findings", middleware.Wrap(h.GetFindingsHandler))
	r.Get("/documents/{id}/jobs", middleware.Wrap(h.GetDocumentJobsHandler))
	r.Get("/jobs/{id}", middleware.Wrap(h.GetJobHandler))
	r.Post("/extract", middleware.Wrap(h.ExtractHandler))
	r.Post("/ask", middleware.Wrap(h.AskHandler))
	r.Get("/ask/stream", middleware.Wrap(h.AskStreamHandler))
	r.Post("/audit", middleware.Wrap(h.AuditHandler))
	r.Get("/stats", middleware.Wrap(h.StatsHandler))
	// probes skip the rate limiter
	r.Get("/healthz", h.HealthHandler)
}

func NewHTTPServer(listenAddr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: config.ReadTimeout,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}
}

// Serve blocks until srv stops. A stop caused by Shutdown is not logged as a crash.
func Serve(srv *http.Server) {
	_logger.Info("Server is listening at", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", srv.Addr)
	}
}

// ShutDownHandler waits for a signal and then drains everything in params order.
func ShutDownHandler(srv *http.Server, params ShutdownParams) error {
	state := <-params.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if srv != nil {
			srv.SetKeepAlivesEnabled(false)
			if err := srv.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(params.WorkerStop)
		params.Group.Wait()
		params.CloseServices()
	}()

	select {
	case <-done:
		_logger.Info("Graceful shutdown complete")
		return nil
	case <-ctx.Done():
		_logger.Error("Forced shutdown, workers still running")
		return ErrForcedShutdown
	}
}
