// Package handler is the thin HTTP layer over contact resolution. It decodes
// and validates input, delegates to the service, and translates results and
// failures; no consolidation logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"linkage/internal/contact/service"
	"linkage/internal/platform/metrics"
	"linkage/internal/platform/middleware"
	"linkage/internal/transport/http/shared"
	dErrors "linkage/pkg/domain-errors"
)

// Service defines the interface for contact resolution operations.
type Service interface {
	Resolve(ctx context.Context, email, phoneNumber *string) (*service.Resolution, error)
}

//go:generate mockgen -source=handler.go -destination=mocks/identify-mocks.go -package=mocks Service

// Handler handles the identify endpoint.
type Handler struct {
	logger         *slog.Logger
	contacts       Service
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

// New creates the identify Handler.
func New(contacts Service, logger *slog.Logger, m *metrics.Metrics, requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Handler{
		logger:         logger,
		contacts:       contacts,
		metrics:        m,
		requestTimeout: requestTimeout,
	}
}

// Register mounts the identify route with its middleware chain.
func (h *Handler) Register(r chi.Router) {
	identifyRouter := chi.NewRouter()
	identifyRouter.Use(middleware.Recovery(h.logger))
	identifyRouter.Use(middleware.RequestID)
	identifyRouter.Use(middleware.Logger(h.logger))
	identifyRouter.Use(middleware.Timeout(h.requestTimeout))
	identifyRouter.Use(middleware.ContentTypeJSON)
	identifyRouter.Use(middleware.Latency(h.metrics))
	identifyRouter.Post("/identify", h.handleIdentify)

	r.Mount("/", identifyRouter)
}

func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid identify request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	email := req.Email
	phoneNumber := req.PhoneNumber.stringPtr()
	if isBlank(email) && isBlank(phoneNumber) {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "either email or phoneNumber must be provided"))
		return
	}

	resolution, err := h.contacts.Resolve(ctx, email, phoneNumber)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) || dErrors.Is(err, dErrors.CodeBadRequest) {
			h.logger.WarnContext(ctx, "identify request rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve contact",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to resolve contact"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, toIdentifyResponse(resolution))
}

func isBlank(value *string) bool {
	return value == nil || *value == ""
}
