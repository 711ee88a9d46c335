package adapters

import (
	"context"
	"errors"
	"time"

	"ledgerguard/internal/authorize"
	"ledgerguard/internal/authorize/metrics"
	"ledgerguard/internal/document"
	"ledgerguard/internal/signature"
	"ledgerguard/pkg/platform/sentinel"
)

// SignatureProvider is the verification capability being adapted.
type SignatureProvider interface {
	Verify(ctx context.Context, obj document.Document, proofs []document.Proof) ([]signature.KeyResult, error)
}

// SignatureVerifier adapts a signature provider to the engine's Verifier port
// and translates provider failures into authorization error kinds.
type SignatureVerifier struct {
	provider SignatureProvider
	metrics  *metrics.Metrics
}

// NewSignatureVerifier wraps provider. m may be nil.
func NewSignatureVerifier(provider SignatureProvider, m *metrics.Metrics) *SignatureVerifier {
	return &SignatureVerifier{provider: provider, metrics: m}
}

// Verify delegates to the provider.
func (v *SignatureVerifier) Verify(ctx context.Context, obj document.Document, proofs []document.Proof) ([]signature.KeyResult, error) {
	start := time.Now()
	results, err := v.provider.Verify(ctx, obj, proofs)
	v.metrics.ObserveVerifyLatency(len(proofs), time.Since(start))
	if err != nil {
		return nil, translate(err)
	}
	return results, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable),
		errors.Is(err, sentinel.ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return authorize.NewProviderUnavailable(err)
	default:
		return authorize.NewVerificationFailed(err)
	}
}
