package authorize

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ledgerguard/internal/authorize/ports/mocks"
	"ledgerguard/internal/document"
	"ledgerguard/internal/policy"
	"ledgerguard/internal/signature"
	"ledgerguard/pkg/platform/sentinel"
)

const (
	alpha     = "did:v1:alpha"
	alphaKey1 = "did:v1:alpha/keys/1"
	alphaKey2 = "did:v1:alpha/keys/2"
	beta      = "did:v1:beta"
	betaKey1  = "did:v1:beta/keys/1"
	delta     = "did:v1:delta"
	deltaKey1 = "did:v1:delta/keys/1"
)

func operation(n int) document.Document {
	proofs := make([]any, n)
	for i := range proofs {
		proofs[i] = map[string]any{"type": signature.SuiteEd25519Signature2018}
	}
	return document.Document{"type": "CreateWebLedgerRecord", "signature": proofs}
}

func verified(keyID, owner string) signature.KeyResult {
	return signature.KeyResult{KeyID: keyID, OwnerID: owner, Verified: true}
}

func newEngine(t *testing.T, opts ...EngineOption) (*Engine, *mocks.MockVerifier) {
	ctrl := gomock.NewController(t)
	v := mocks.NewMockVerifier(ctrl)
	return NewEngine(v, opts...), v
}

func TestEngine_InvalidPolicy(t *testing.T) {
	engine, _ := newEngine(t) // no Verify expectation: the provider must not be called

	_, err := engine.Authorize(context.Background(), operation(1), &policy.Policy{Kind: "Other", MinimumSignaturesRequired: 0})
	require.Error(t, err)
	assert.Equal(t, KindInvalidPolicy, KindOf(err))
	assert.NotEmpty(t, policy.ViolationsOf(err))
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
}

func TestEngine_NotApplicable(t *testing.T) {
	engine, _ := newEngine(t)
	p := policy.New([]string{alpha}, 1, policy.ByType("UpdateWebLedgerRecord"))

	res, err := engine.Authorize(context.Background(), operation(1), p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotApplicable, res.Outcome)
	assert.Equal(t, "CreateWebLedgerRecord", res.DocumentType)
}

func TestEngine_UnfilteredSkipMode(t *testing.T) {
	engine, _ := newEngine(t, WithUnfilteredMode(policy.UnfilteredSkips))

	res, err := engine.Authorize(context.Background(), operation(1), policy.New([]string{alpha}, 1))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotApplicable, res.Outcome)
}

func TestEngine_MalformedDocument(t *testing.T) {
	engine, _ := newEngine(t)
	p := policy.New([]string{alpha}, 1)

	for name, doc := range map[string]document.Document{
		"no signature":     {"type": "CreateWebLedgerRecord"},
		"event without ops": {"type": "WebLedgerEvent"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Authorize(context.Background(), doc, p)
			assert.Equal(t, KindMalformedDocument, KindOf(err))
			assert.ErrorIs(t, err, document.ErrMalformedDocument)
		})
	}
}

func TestEngine_FastFail(t *testing.T) {
	engine, _ := newEngine(t) // Verify is never expected

	_, err := engine.Authorize(context.Background(), operation(1), policy.New([]string{alpha, beta}, 2))
	require.True(t, IsDenied(err))
	assert.Equal(t, &Diagnostics{
		DocumentType:              "CreateWebLedgerRecord",
		SignatureCount:            1,
		MinimumSignaturesRequired: 2,
		TrustedSigners:            map[string]bool{alpha: false, beta: false},
		KeyResults:                []signature.KeyResult{},
	}, DiagnosticsOf(err))
}

func TestEngine_EmptySignatureListIsDenied(t *testing.T) {
	for _, field := range []string{document.FieldSignature, document.FieldProof} {
		t.Run(field, func(t *testing.T) {
			engine, _ := newEngine(t) // Verify is never expected
			doc := document.Document{"type": "CreateWebLedgerRecord", field: []any{}}

			_, err := engine.Authorize(context.Background(), doc, policy.New([]string{alpha}, 1))
			require.True(t, IsDenied(err), "got %v", err)
			diag := DiagnosticsOf(err)
			require.NotNil(t, diag)
			assert.Zero(t, diag.SignatureCount)
			assert.Equal(t, 1, diag.MinimumSignaturesRequired)
		})
	}
}

func TestEngine_DiagnosticsShapeWithoutApprovedSigners(t *testing.T) {
	engine, v := newEngine(t)
	v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]signature.KeyResult{verified(alphaKey1, alpha)}, nil)

	_, err := engine.Authorize(context.Background(), operation(1), policy.New([]string{}, 1))
	require.True(t, IsDenied(err))

	raw, err := json.Marshal(DiagnosticsOf(err))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"trustedSigners":{}`)
	assert.Contains(t, string(raw), `"keyResults":[`)
}

func TestEngine_TypeArrayMatchesAnyEntry(t *testing.T) {
	engine, v := newEngine(t)
	v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]signature.KeyResult{verified(alphaKey1, alpha)}, nil)
	doc := operation(1)
	doc["type"] = []any{"Foo", "WebLedgerOperation"}

	res, err := engine.Authorize(context.Background(), doc, policy.New([]string{alpha}, 1, policy.ByType("WebLedgerOperation")))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthorized, res.Outcome)
	assert.Equal(t, "Foo", res.DocumentType)
}

func TestEngine_RepeatedCallsAgree(t *testing.T) {
	tests := []struct {
		name    string
		signers []string
		minimum int
		results []signature.KeyResult
	}{
		{"authorized", []string{alpha, beta}, 2, []signature.KeyResult{verified(alphaKey1, alpha), verified(betaKey1, beta)}},
		{"denied", []string{alpha, beta}, 2, []signature.KeyResult{verified(alphaKey1, alpha), verified(deltaKey1, delta)}},
		{"fast fail", []string{alpha, beta}, 3, []signature.KeyResult{verified(alphaKey1, alpha), verified(betaKey1, beta)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, v := newEngine(t)
			v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.results, nil).AnyTimes()
			doc := operation(len(tt.results))
			p := policy.New(tt.signers, tt.minimum)

			res1, err1 := engine.Authorize(context.Background(), doc, p)
			res2, err2 := engine.Authorize(context.Background(), doc, p)

			assert.True(t, reflect.DeepEqual(res1, res2), "results differ: %+v vs %+v", res1, res2)
			assert.Equal(t, KindOf(err1), KindOf(err2))
			assert.True(t, reflect.DeepEqual(DiagnosticsOf(err1), DiagnosticsOf(err2)),
				"diagnostics differ: %+v vs %+v", DiagnosticsOf(err1), DiagnosticsOf(err2))
		})
	}
}

func TestEngine_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		signers   []string
		minimum   int
		results   []signature.KeyResult
		wantCount int
		wantOK    bool
	}{
		{
			name:      "single trusted owner",
			signers:   []string{alpha},
			minimum:   1,
			results:   []signature.KeyResult{verified(alphaKey1, alpha)},
			wantCount: 1,
			wantOK:    true,
		},
		{
			name:      "same owner twice counts once",
			signers:   []string{alpha, beta},
			minimum:   2,
			results:   []signature.KeyResult{verified(alphaKey1, alpha), verified(alphaKey2, alpha)},
			wantCount: 1,
		},
		{
			name:      "two owners",
			signers:   []string{alpha, beta},
			minimum:   2,
			results:   []signature.KeyResult{verified(alphaKey1, alpha), verified(betaKey1, beta)},
			wantCount: 2,
			wantOK:    true,
		},
		{
			name:      "untrusted signer adds nothing",
			signers:   []string{alpha, beta, "did:v1:gamma"},
			minimum:   3,
			results:   []signature.KeyResult{verified(alphaKey1, alpha), verified(betaKey1, beta), verified(deltaKey1, delta)},
			wantCount: 2,
		},
		{
			name:      "keys listed separately count separately",
			signers:   []string{alphaKey1, alphaKey2},
			minimum:   2,
			results:   []signature.KeyResult{verified(alphaKey1, alpha), verified(alphaKey2, alpha)},
			wantCount: 2,
			wantOK:    true,
		},
		{
			name:    "failed verification never credits",
			signers: []string{alpha, beta},
			minimum: 2,
			results: []signature.KeyResult{
				verified(alphaKey1, alpha),
				{KeyID: betaKey1, OwnerID: beta, Error: signature.ErrMsgBadSignature},
			},
			wantCount: 1,
		},
		{
			name:      "minimum above signer count is unsatisfiable",
			signers:   []string{alpha},
			minimum:   2,
			results:   []signature.KeyResult{verified(alphaKey1, alpha), verified(alphaKey2, alpha)},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, v := newEngine(t)
			doc := operation(len(tt.results))
			v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Len(len(tt.results))).Return(tt.results, nil)

			res, err := engine.Authorize(context.Background(), doc, policy.New(tt.signers, tt.minimum))
			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, OutcomeAuthorized, res.Outcome)
				require.Len(t, res.Objects, 1)
				assert.Equal(t, tt.wantCount, res.Objects[0].VerifiedSignatures)
				return
			}
			require.True(t, IsDenied(err), "got %v", err)
			diag := DiagnosticsOf(err)
			require.NotNil(t, diag)
			assert.Equal(t, tt.wantCount, diag.VerifiedSignatures)
			assert.Equal(t, len(tt.results), diag.SignatureCount)
			assert.Equal(t, tt.minimum, diag.MinimumSignaturesRequired)
			assert.Len(t, diag.TrustedSigners, len(tt.signers))
			assert.Len(t, diag.KeyResults, len(tt.results))
		})
	}
}

func TestEngine_DenialMarksUntrustedRecords(t *testing.T) {
	engine, v := newEngine(t)
	v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]signature.KeyResult{verified(alphaKey1, alpha), verified(deltaKey1, delta)}, nil)

	_, err := engine.Authorize(context.Background(), operation(2), policy.New([]string{alpha, beta}, 2))
	diag := DiagnosticsOf(err)
	require.NotNil(t, diag)
	assert.Equal(t, map[string]bool{alpha: true, beta: false}, diag.TrustedSigners)
	assert.Equal(t, signature.KeyResult{KeyID: deltaKey1, OwnerID: delta, Error: ErrMsgNotTrusted}, diag.KeyResults[1])
}

func TestEngine_VerifierErrors(t *testing.T) {
	t.Run("typed errors pass through", func(t *testing.T) {
		engine, v := newEngine(t)
		v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, NewProviderUnavailable(sentinel.ErrUnavailable))

		_, err := engine.Authorize(context.Background(), operation(1), policy.New([]string{alpha}, 1))
		assert.True(t, IsRetryable(err))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("untyped errors fail closed", func(t *testing.T) {
		engine, v := newEngine(t)
		cause := errors.New("jsonld expansion failed")
		v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, cause)

		_, err := engine.Authorize(context.Background(), operation(1), policy.New([]string{alpha}, 1))
		assert.Equal(t, KindValidation, KindOf(err))
		assert.ErrorIs(t, err, cause)
		assert.Nil(t, DiagnosticsOf(err))
	})
}

func TestEngine_EventEnvelope(t *testing.T) {
	op := func() map[string]any {
		return map[string]any{"type": "CreateWebLedgerRecord", "signature": map[string]any{"type": signature.SuiteEd25519Signature2018}}
	}
	event := document.Document{"type": "WebLedgerEvent", "operation": []any{op(), op()}}
	p := policy.New([]string{alpha}, 1, policy.ByType("WebLedgerEvent"))

	t.Run("every operation must pass", func(t *testing.T) {
		engine, v := newEngine(t)
		gomock.InOrder(
			v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return([]signature.KeyResult{verified(alphaKey1, alpha)}, nil),
			v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return([]signature.KeyResult{verified(deltaKey1, delta)}, nil),
		)

		_, err := engine.Authorize(context.Background(), event, p)
		assert.True(t, IsDenied(err))
	})

	t.Run("ledger is not shared between operations", func(t *testing.T) {
		engine, v := newEngine(t)
		v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]signature.KeyResult{verified(alphaKey1, alpha)}, nil).Times(2)

		res, err := engine.Authorize(context.Background(), event, p)
		require.NoError(t, err)
		require.Len(t, res.Objects, 2)
		assert.Equal(t, 1, res.Objects[1].VerifiedSignatures)
	})

	t.Run("filter matches the envelope type", func(t *testing.T) {
		engine, _ := newEngine(t)
		res, err := engine.Authorize(context.Background(), event, policy.New([]string{alpha}, 1, policy.ByType("CreateWebLedgerRecord")))
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotApplicable, res.Outcome)
	})
}
