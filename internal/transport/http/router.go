// Package httptransport wires public endpoints. Handlers delegate to domain
// services so transport concerns remain isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linkage/internal/contact/handler"
	"linkage/internal/transport/http/shared"
)

// Pinger reports backing store health. Stores without a meaningful check pass
// nil and the health endpoint reports process liveness only.
type Pinger func(ctx context.Context) error

// NewRouter mounts the identify handler plus the operational endpoints.
func NewRouter(h *handler.Handler, logger *slog.Logger, ping Pinger) http.Handler {
	r := chi.NewRouter()

	h.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				if logger != nil {
					logger.ErrorContext(req.Context(), "health check failed", "error", err.Error())
				}
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
