package keys

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerguard/pkg/platform/circuit"
	"ledgerguard/pkg/platform/sentinel"
)

func TestHTTPResolver(t *testing.T) {
	key := testKey(t, "did:v1:alpha/keys/1", "did:v1:alpha")

	var calls atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusOK)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		code := int(status.Load())
		if code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		if r.URL.EscapedPath() != "/keys/did:v1:alpha%2Fkeys%2F1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(key)
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		r := NewHTTPResolver(srv.URL + "/")
		got, err := r.ResolveKey(ctx, key.ID)
		require.NoError(t, err)
		assert.Equal(t, key, *got)
	})

	t.Run("not found", func(t *testing.T) {
		r := NewHTTPResolver(srv.URL)
		_, err := r.ResolveKey(ctx, "did:v1:nobody/keys/9")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("server errors are unavailability and open the circuit", func(t *testing.T) {
		status.Store(http.StatusBadGateway)
		defer status.Store(http.StatusOK)

		r := NewHTTPResolver(srv.URL, WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithProbeEvery(100))))
		for i := 0; i < 2; i++ {
			_, err := r.ResolveKey(ctx, key.ID)
			assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		}

		before := calls.Load()
		_, err := r.ResolveKey(ctx, key.ID)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.ErrorIs(t, err, sentinel.ErrCircuitOpen)
		assert.Equal(t, before, calls.Load(), "open circuit must not reach the directory")
	})

	t.Run("unexpected client status", func(t *testing.T) {
		status.Store(http.StatusForbidden)
		defer status.Store(http.StatusOK)

		_, err := NewHTTPResolver(srv.URL).ResolveKey(ctx, key.ID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
		assert.NotErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("transport failure", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()
		_, err := NewHTTPResolver(dead.URL).ResolveKey(ctx, key.ID)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("deadline", func(t *testing.T) {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer slow.Close()

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := NewHTTPResolver(slow.URL).ResolveKey(cctx, key.ID)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestHTTPResolver_RejectsMismatchedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(Key{ID: "did:v1:other/keys/1", Type: TypeEd25519, Owner: "did:v1:other", PublicKey: []byte{1}})
	}))
	defer srv.Close()

	_, err := NewHTTPResolver(srv.URL).ResolveKey(context.Background(), "did:v1:alpha/keys/1")
	assert.Error(t, err)
}
