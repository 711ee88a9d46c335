package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledgerguard/internal/authorize"
	"ledgerguard/internal/policy"
	"ledgerguard/pkg/platform/httputil"
	"ledgerguard/pkg/requestcontext"
)

// Service defines the interface for authorization operations.
type Service interface {
	AuthorizeRaw(ctx context.Context, rawDoc, rawPolicy []byte) (*authorize.Result, error)
	ValidatePolicy(raw []byte) error
}

// Handler wires authorization endpoints to the authorize service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an authorization handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts authorization endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/authorize", h.HandleAuthorize)
	r.Post("/v1/policies/validate", h.HandleValidatePolicy)
}

// HandleAuthorize handles POST /v1/authorize requests.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[AuthorizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.AuthorizeRaw(ctx, req.Document, req.Policy)
	if err != nil {
		h.writeAuthorizeError(w, err)
		return
	}

	h.logger.DebugContext(ctx, "authorize request served",
		"request_id", requestID,
		"outcome", result.Outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// writeAuthorizeError maps authorization error kinds to statuses. The service
// has already logged the decision.
func (h *Handler) writeAuthorizeError(w http.ResponseWriter, err error) {
	var ae *authorize.Error
	if !errors.As(err, &ae) {
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "")
		return
	}
	switch ae.Kind {
	case authorize.KindValidation:
		httputil.WriteJSON(w, http.StatusForbidden, DeniedResponse{
			Error:       string(ae.Kind),
			Message:     ae.Message,
			Diagnostics: ae.Diagnostics,
		})
	case authorize.KindInvalidPolicy:
		httputil.WriteJSON(w, http.StatusBadRequest, KindErrorResponse{
			Error:      string(ae.Kind),
			Message:    ae.Message,
			Violations: policy.ViolationsOf(err),
		})
	case authorize.KindMalformedDocument:
		httputil.WriteJSON(w, http.StatusBadRequest, KindErrorResponse{
			Error:   string(ae.Kind),
			Message: err.Error(),
		})
	case authorize.KindProviderUnavailable:
		w.Header().Set("Retry-After", "1")
		httputil.WriteJSON(w, http.StatusServiceUnavailable, KindErrorResponse{
			Error:   string(ae.Kind),
			Message: ae.Message,
		})
	default:
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "")
	}
}

// HandleValidatePolicy handles POST /v1/policies/validate requests. The body is
// the policy document itself.
func (h *Handler) HandleValidatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read policy body",
			"request_id", requestID,
			"error", err,
		)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, httputil.CodeBadRequest, "request body too large")
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeBadRequest, "could not read body")
		return
	}

	if err := h.service.ValidatePolicy(raw); err != nil {
		violations := policy.ViolationsOf(err)
		if violations == nil {
			h.logger.ErrorContext(ctx, "policy validation failed",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "")
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, ValidatePolicyResponse{Violations: violations})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidatePolicyResponse{Valid: true})
}
