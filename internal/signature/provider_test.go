package signature_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerguard/internal/document"
	"ledgerguard/internal/keys"
	"ledgerguard/internal/signature"
	"ledgerguard/pkg/platform/sentinel"
	"ledgerguard/pkg/testutil"
)

func proofsOf(t *testing.T, doc document.Document) []document.Proof {
	t.Helper()
	proofs, err := document.DefaultProfile().Proofs(doc)
	require.NoError(t, err)
	return proofs
}

func TestProvider_Verify(t *testing.T) {
	ctx := context.Background()
	alpha1 := testutil.NewSigner(t, "did:v1:alpha", 1)
	alpha2 := testutil.NewSigner(t, "did:v1:alpha", 2)
	beta := testutil.NewSigner(t, "did:v1:beta", 1)
	provider := signature.NewProvider(testutil.Resolver(alpha1, alpha2, beta))

	t.Run("verifies every proof in order", func(t *testing.T) {
		doc := testutil.Sign(t, testutil.Operation("r1"), alpha1, beta, alpha2)

		results, err := provider.Verify(ctx, doc, proofsOf(t, doc))
		require.NoError(t, err)
		assert.Equal(t, []signature.KeyResult{
			{KeyID: alpha1.KeyID, OwnerID: "did:v1:alpha", Verified: true},
			{KeyID: beta.KeyID, OwnerID: "did:v1:beta", Verified: true},
			{KeyID: alpha2.KeyID, OwnerID: "did:v1:alpha", Verified: true},
		}, results)
	})

	t.Run("survives a parse round trip", func(t *testing.T) {
		doc := testutil.Sign(t, testutil.Operation("r2"), alpha1)
		raw, err := jsonMarshal(doc)
		require.NoError(t, err)
		parsed, err := document.Parse(raw)
		require.NoError(t, err)

		results, err := provider.Verify(ctx, parsed, proofsOf(t, parsed))
		require.NoError(t, err)
		assert.True(t, results[0].Verified)
	})

	t.Run("tampered document fails", func(t *testing.T) {
		doc := testutil.Sign(t, testutil.Operation("r3"), alpha1)
		doc["record"] = map[string]any{"id": "r3", "value": 43}

		results, err := provider.Verify(ctx, doc, proofsOf(t, doc))
		require.NoError(t, err)
		assert.False(t, results[0].Verified)
		assert.Equal(t, signature.ErrMsgBadSignature, results[0].Error)
		assert.Equal(t, "did:v1:alpha", results[0].OwnerID)
	})

	t.Run("proof signed by a different key fails", func(t *testing.T) {
		doc := testutil.Sign(t, testutil.Operation("r4"), alpha1)
		proof := doc[document.FieldSignature].(map[string]any)
		proof[signature.FieldCreator] = beta.KeyID

		results, err := provider.Verify(ctx, doc, proofsOf(t, doc))
		require.NoError(t, err)
		assert.False(t, results[0].Verified)
		assert.Equal(t, "did:v1:beta", results[0].OwnerID)
	})

	t.Run("unknown key is not dereferenced", func(t *testing.T) {
		stranger := testutil.NewSigner(t, "did:v1:stranger", 1)
		doc := testutil.Sign(t, testutil.Operation("r5"), stranger)

		results, err := provider.Verify(ctx, doc, proofsOf(t, doc))
		require.NoError(t, err)
		assert.Equal(t, signature.KeyResult{KeyID: stranger.KeyID, Error: signature.ErrMsgNotDereferenced}, results[0])
	})

	t.Run("malformed proofs become records", func(t *testing.T) {
		doc := testutil.Operation("r6")
		doc[document.FieldProof] = []any{
			map[string]any{"type": signature.SuiteEd25519Signature2018},
			map[string]any{"type": "RsaSignature2018", "creator": alpha1.KeyID},
			map[string]any{"type": signature.SuiteEd25519Signature2018, "creator": alpha1.KeyID, "signatureValue": "***"},
		}

		results, err := provider.Verify(ctx, doc, proofsOf(t, doc))
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, signature.ErrMsgNoCreator, results[0].Error)
		assert.Contains(t, results[1].Error, "unsupported signature type")
		assert.Equal(t, signature.ErrMsgBadEncoding, results[2].Error)
		for _, r := range results {
			assert.False(t, r.Verified)
		}
	})

	t.Run("verificationMethod alias", func(t *testing.T) {
		doc := testutil.Sign(t, testutil.Operation("r7"), beta)
		proof := doc[document.FieldSignature].(map[string]any)
		delete(proof, signature.FieldCreator)
		proof[signature.FieldVerificationMethod] = beta.KeyID

		results, err := provider.Verify(ctx, doc, proofsOf(t, doc))
		require.NoError(t, err)
		assert.Equal(t, beta.KeyID, results[0].KeyID)
		// creator is part of the signed options, so renaming it breaks the signature
		assert.False(t, results[0].Verified)
	})
}

type unavailableResolver struct{}

func (unavailableResolver) ResolveKey(context.Context, string) (*keys.Key, error) {
	return nil, sentinel.ErrUnavailable
}

func TestProvider_VerifyUnavailable(t *testing.T) {
	alpha := testutil.NewSigner(t, "did:v1:alpha", 1)
	doc := testutil.Sign(t, testutil.Operation("r1"), alpha)

	_, err := signature.NewProvider(unavailableResolver{}).Verify(context.Background(), doc, proofsOf(t, doc))
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestProvider_VerifyCanceled(t *testing.T) {
	alpha := testutil.NewSigner(t, "did:v1:alpha", 1)
	doc := testutil.Sign(t, testutil.Operation("r1"), alpha)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := signature.NewProvider(testutil.Resolver(alpha), signature.WithConcurrency(1)).Verify(ctx, doc, proofsOf(t, doc))
	assert.True(t, errors.Is(err, context.Canceled))
}
