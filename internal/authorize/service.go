package authorize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ledgerguard/internal/audit"
	"ledgerguard/internal/authorize/metrics"
	"ledgerguard/internal/authorize/ports"
	"ledgerguard/internal/document"
	"ledgerguard/internal/policy"
	"ledgerguard/pkg/requestcontext"
)

// DefaultTimeout bounds one authorization call.
const DefaultTimeout = 5 * time.Second

// Service runs the engine with a deadline and records every decision in
// logs, metrics, traces and the audit trail.
type Service struct {
	engine         *Engine
	timeout        time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher ports.AuditPublisher
	tracer         trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

// WithTimeout sets the per-call deadline. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func NewService(engine *Engine, opts ...Option) *Service {
	s := &Service{
		engine:  engine,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		tracer:  otel.Tracer("ledgerguard/authorize"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidatePolicy checks a raw policy document without evaluating anything.
func (s *Service) ValidatePolicy(raw []byte) error {
	return policy.Validate(raw)
}

// AuthorizeRaw parses a raw document and policy and authorizes the document.
func (s *Service) AuthorizeRaw(ctx context.Context, rawDoc, rawPolicy []byte) (*Result, error) {
	p, err := policy.Parse(rawPolicy)
	if err != nil {
		err = newError(KindInvalidPolicy, err, "policy is not valid")
		s.record(ctx, "", nil, err, 0)
		return nil, err
	}
	doc, err := document.Parse(rawDoc)
	if err != nil {
		err = newError(KindMalformedDocument, err, "document could not be read")
		s.record(ctx, "", nil, err, 0)
		return nil, err
	}
	return s.Authorize(ctx, doc, p)
}

// Authorize evaluates doc against p.
func (s *Service) Authorize(ctx context.Context, doc document.Document, p *policy.Policy) (*Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "authorize.Authorize",
		trace.WithAttributes(AttrDocumentType.String(doc.Type())))
	defer span.End()

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.engine.Authorize(callCtx, doc, p)
	if err != nil && KindOf(err) == "" {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = NewProviderUnavailable(err)
		} else {
			err = NewVerificationFailed(err)
		}
	}

	if err != nil {
		span.SetAttributes(AttrOutcome.String(string(KindOf(err))))
		span.SetAttributes(diagnosticAttributes(DiagnosticsOf(err))...)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
	} else {
		span.SetAttributes(AttrOutcome.String(string(result.Outcome)))
	}

	s.record(ctx, doc.Type(), result, err, time.Since(start))
	return result, err
}

// record logs, counts and audits one decision.
func (s *Service) record(ctx context.Context, docType string, result *Result, err error, elapsed time.Duration) {
	requestID := requestcontext.RequestID(ctx)
	s.metrics.ObserveAuthorizeLatency(elapsed)

	event := audit.Event{DocumentType: docType}
	switch {
	case err == nil && result.Outcome == OutcomeNotApplicable:
		event.Action = audit.ActionDocumentNotApplicable
		event.Decision = string(result.Outcome)
		s.logger.InfoContext(ctx, "policy does not apply to document",
			"request_id", requestID,
			"document_type", docType,
		)
	case err == nil:
		event.Action = audit.ActionDocumentAuthorized
		event.Decision = string(result.Outcome)
		event.Details = map[string]any{"objects": result.Objects}
		s.logger.InfoContext(ctx, "document authorized",
			"request_id", requestID,
			"document_type", docType,
			"signed_objects", len(result.Objects),
			"duration_ms", elapsed.Milliseconds(),
		)
	case IsDenied(err):
		event.Action = audit.ActionDocumentDenied
		event.Decision = string(KindValidation)
		event.Reason = err.Error()
		if d := DiagnosticsOf(err); d != nil {
			event.Details = map[string]any{
				"signatureCount":            d.SignatureCount,
				"verifiedSignatures":        d.VerifiedSignatures,
				"minimumSignaturesRequired": d.MinimumSignaturesRequired,
				"trustedSigners":            d.TrustedSigners,
				"keyResults":                d.KeyResults,
			}
		}
		s.logger.InfoContext(ctx, "document denied",
			"request_id", requestID,
			"document_type", docType,
			"error", err,
		)
	default:
		event.Action = audit.ActionAuthorizationError
		event.Decision = string(KindOf(err))
		event.Reason = err.Error()
		s.logger.ErrorContext(ctx, "authorization failed",
			"request_id", requestID,
			"document_type", docType,
			"kind", KindOf(err),
			"retryable", IsRetryable(err),
			"error", err,
		)
	}

	if err == nil {
		s.metrics.IncrementOutcome(string(result.Outcome))
	} else {
		s.metrics.IncrementOutcome(string(KindOf(err)))
	}

	if s.auditPublisher == nil {
		return
	}
	if auditErr := s.auditPublisher.Emit(ctx, event); auditErr != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"action", event.Action,
			"error", auditErr,
		)
	}
}
