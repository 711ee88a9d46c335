// Package authorize decides whether a signed ledger document satisfies a
// threshold signature policy.
package authorize

import (
	"context"
	"errors"

	"ledgerguard/internal/authorize/ports"
	"ledgerguard/internal/document"
	"ledgerguard/internal/policy"
	"ledgerguard/internal/signature"
)

// Engine evaluates documents against policies. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	verifier   ports.Verifier
	profile    document.Profile
	unfiltered policy.UnfilteredMode
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithProfile selects where signed objects and signatures are found.
func WithProfile(p document.Profile) EngineOption {
	return func(e *Engine) {
		e.profile = p
	}
}

// WithUnfilteredMode decides whether policies without a filter apply.
func WithUnfilteredMode(m policy.UnfilteredMode) EngineOption {
	return func(e *Engine) {
		e.unfiltered = m
	}
}

// NewEngine returns an engine verifying signatures through verifier.
func NewEngine(verifier ports.Verifier, opts ...EngineOption) *Engine {
	e := &Engine{
		verifier:   verifier,
		profile:    document.DefaultProfile(),
		unfiltered: policy.UnfilteredApplies,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type signedObject struct {
	obj    document.Document
	proofs []document.Proof
}

// Authorize runs filter, extract, verify, correlate, dedupe and compare.
// Unauthorized documents yield an *Error; every signed object of an envelope
// must meet the threshold on its own.
func (e *Engine) Authorize(ctx context.Context, doc document.Document, p *policy.Policy) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, newError(KindInvalidPolicy, err, "policy is not valid")
	}

	docType := doc.Type()
	if !p.AppliesToAny(doc.Types(), e.unfiltered) {
		return &Result{Outcome: OutcomeNotApplicable, DocumentType: docType}, nil
	}

	objs, err := e.profile.SignedObjects(doc)
	if err != nil {
		return nil, newError(KindMalformedDocument, err, "signed objects could not be read")
	}
	signed := make([]signedObject, 0, len(objs))
	for _, obj := range objs {
		proofs, err := e.profile.Proofs(obj)
		if err != nil {
			return nil, newError(KindMalformedDocument, err, "signatures could not be read")
		}
		// Never spend verification work on an object that cannot reach the floor.
		if len(proofs) < p.MinimumSignaturesRequired {
			return nil, &Error{
				Kind:    KindValidation,
				Message: "the signature requirements have not been met",
				Diagnostics: &Diagnostics{
					DocumentType:              obj.Type(),
					SignatureCount:            len(proofs),
					MinimumSignaturesRequired: p.MinimumSignaturesRequired,
					TrustedSigners:            NewTrustLedger(p.ApprovedSigners).Snapshot(),
					KeyResults:                []signature.KeyResult{},
				},
			}
		}
		signed = append(signed, signedObject{obj: obj, proofs: proofs})
	}

	result := &Result{Outcome: OutcomeAuthorized, DocumentType: docType}
	for _, so := range signed {
		diag, err := e.evaluate(ctx, so, p)
		if err != nil {
			return nil, err
		}
		result.Objects = append(result.Objects, *diag)
	}
	return result, nil
}

func (e *Engine) evaluate(ctx context.Context, so signedObject, p *policy.Policy) (*Diagnostics, error) {
	ledger := NewTrustLedger(p.ApprovedSigners)

	raw, err := e.verifier.Verify(ctx, so.obj, so.proofs)
	if err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		if ctx.Err() != nil {
			return nil, NewProviderUnavailable(err)
		}
		return nil, NewVerificationFailed(err)
	}

	results := ApplyTrust(raw, ledger)
	for _, r := range results {
		ledger.CreditResult(r)
	}

	diag := &Diagnostics{
		DocumentType:              so.obj.Type(),
		SignatureCount:            len(so.proofs),
		VerifiedSignatures:        ledger.Count(),
		MinimumSignaturesRequired: p.MinimumSignaturesRequired,
		TrustedSigners:            ledger.Snapshot(),
		KeyResults:                results,
	}
	if diag.VerifiedSignatures < p.MinimumSignaturesRequired {
		return nil, &Error{
			Kind:        KindValidation,
			Message:     "the signature requirements have not been met",
			Diagnostics: diag,
		}
	}
	return diag, nil
}
