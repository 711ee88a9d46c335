package signature

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ledgerguard/internal/document"
	"ledgerguard/internal/keys"
	"ledgerguard/pkg/platform/sentinel"
)

// Per-proof failure messages carried in KeyResult.Error.
const (
	ErrMsgNoCreator       = "proof has no creator"
	ErrMsgNotDereferenced = "URL could not be dereferenced"
	ErrMsgBadEncoding     = "signatureValue is not base64url"
	ErrMsgBadSignature    = "signature verification failed"
)

// KeyResult is the outcome of verifying one proof. Records are built per call
// and never stored.
type KeyResult struct {
	KeyID    string `json:"keyId"`
	OwnerID  string `json:"ownerId"`
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

// Provider verifies the proofs of a signed object against resolved keys.
type Provider struct {
	resolver    keys.Resolver
	profile     document.Profile
	concurrency int
	logger      *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithProfile sets which fields are stripped before hashing the document.
func WithProfile(p document.Profile) Option {
	return func(pr *Provider) {
		pr.profile = p
	}
}

// WithConcurrency bounds how many proofs of one object verify in parallel.
func WithConcurrency(n int) Option {
	return func(pr *Provider) {
		if n > 0 {
			pr.concurrency = n
		}
	}
}

// WithLogger sets the logger for per-proof failures.
func WithLogger(l *slog.Logger) Option {
	return func(pr *Provider) {
		pr.logger = l
	}
}

// NewProvider returns a provider resolving keys through resolver.
func NewProvider(resolver keys.Resolver, opts ...Option) *Provider {
	p := &Provider{
		resolver:    resolver,
		profile:     document.DefaultProfile(),
		concurrency: 8,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verify checks every proof of obj. Results keep the order of proofs.
// A proof that cannot be verified yields a record with Verified false and an
// Error; only an unavailable key source or a done context fails the call.
func (p *Provider) Verify(ctx context.Context, obj document.Document, proofs []document.Proof) ([]KeyResult, error) {
	docHash, err := canonicalHash(p.profile.Unsigned(obj))
	if err != nil {
		return nil, err
	}

	results := make([]KeyResult, len(proofs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, proof := range proofs {
		g.Go(func() error {
			res, err := p.verifyOne(gctx, docHash, proof)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Provider) verifyOne(ctx context.Context, docHash []byte, proof document.Proof) (KeyResult, error) {
	res := KeyResult{KeyID: Creator(proof)}
	if res.KeyID == "" {
		res.Error = ErrMsgNoCreator
		return res, nil
	}
	if t := proof.String(FieldType); t != SuiteEd25519Signature2018 {
		res.Error = fmt.Sprintf("unsupported signature type %q", t)
		return res, nil
	}

	key, err := p.resolver.ResolveKey(ctx, res.KeyID)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return res, fmt.Errorf("resolve key %q: %w", res.KeyID, err)
	case errors.Is(err, sentinel.ErrNotFound):
		res.Error = ErrMsgNotDereferenced
		return res, nil
	default:
		p.logger.WarnContext(ctx, "key resolution failed", "key_id", res.KeyID, "error", err)
		res.Error = ErrMsgNotDereferenced
		return res, nil
	}
	res.OwnerID = key.Owner

	if key.Type != keys.TypeEd25519 || len(key.PublicKey) != ed25519.PublicKeySize {
		res.Error = fmt.Sprintf("key type %q is not usable for %s", key.Type, SuiteEd25519Signature2018)
		return res, nil
	}

	sig, err := base64.RawURLEncoding.DecodeString(proof.String(FieldSignatureValue))
	if err != nil || len(sig) != ed25519.SignatureSize {
		res.Error = ErrMsgBadEncoding
		return res, nil
	}

	data, err := verifyData(docHash, proof)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	if !ed25519.Verify(ed25519.PublicKey(key.PublicKey), data, sig) {
		res.Error = ErrMsgBadSignature
		return res, nil
	}
	res.Verified = true
	return res, nil
}
