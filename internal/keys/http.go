package keys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ledgerguard/internal/keys/metrics"
	"ledgerguard/pkg/platform/circuit"
	"ledgerguard/pkg/platform/sentinel"
)

const maxKeyDocumentBytes = 64 << 10

// HTTPResolver fetches keys from a key directory at GET {base}/keys/{id}.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// HTTPOption configures an HTTPResolver.
type HTTPOption func(*HTTPResolver)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(r *HTTPResolver) {
		r.client = c
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(r *HTTPResolver) {
		r.breaker = b
	}
}

// WithLogger sets the logger used for breaker transitions.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(r *HTTPResolver) {
		r.logger = l
	}
}

// WithMetrics records lookup latency.
func WithMetrics(m *metrics.Metrics) HTTPOption {
	return func(r *HTTPResolver) {
		r.metrics = m
	}
}

// NewHTTPResolver builds a resolver for the key directory at baseURL.
func NewHTTPResolver(baseURL string, opts ...HTTPOption) *HTTPResolver {
	r := &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: circuit.New("key-directory"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveKey fetches one key. 404 means the key does not exist; 5xx responses,
// transport failures and an open circuit mean the directory is unavailable.
func (r *HTTPResolver) ResolveKey(ctx context.Context, keyID string) (*Key, error) {
	if err := r.breaker.Allow(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", sentinel.ErrUnavailable, r.breaker.Name(), err)
	}

	start := time.Now()
	key, outcome, err := r.fetch(ctx, keyID)
	r.metrics.ObserveResolveLatency(outcome, time.Since(start))

	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.WarnContext(ctx, "key directory circuit opened", "breaker", r.breaker.Name(), "error", err)
		}
	case ctx.Err() != nil:
		// caller gave up; says nothing about the directory
	default:
		if _, change := r.breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "key directory circuit closed", "breaker", r.breaker.Name())
		}
	}
	return key, err
}

func (r *HTTPResolver) fetch(ctx context.Context, keyID string) (*Key, string, error) {
	endpoint := r.baseURL + "/keys/" + url.PathEscape(keyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "invalid", fmt.Errorf("build key request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "canceled", fmt.Errorf("fetch key %q: %w", keyID, ctxErr)
		}
		return nil, "unavailable", fmt.Errorf("fetch key %q: %w: %v", keyID, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, "not_found", notFound(keyID)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, "unavailable", fmt.Errorf("fetch key %q: status %d: %w", keyID, resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, "rejected", fmt.Errorf("fetch key %q: unexpected status %d", keyID, resp.StatusCode)
	}

	var key Key
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeyDocumentBytes)).Decode(&key); err != nil {
		return nil, "invalid", fmt.Errorf("decode key %q: %w", keyID, err)
	}
	if key.ID == "" {
		key.ID = keyID
	}
	if key.ID != keyID {
		return nil, "invalid", fmt.Errorf("key directory returned %q for %q", key.ID, keyID)
	}
	if err := key.Validate(); err != nil {
		return nil, "invalid", err
	}
	return &key, "found", nil
}
