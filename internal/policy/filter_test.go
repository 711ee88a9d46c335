package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplies(t *testing.T) {
	signers := []string{"did:v1:a"}
	tests := []struct {
		name    string
		policy  *Policy
		docType string
		mode    UnfilteredMode
		want    bool
	}{
		{"no filter applies by default", New(signers, 1), "WebLedgerOperation", UnfilteredApplies, true},
		{"no filter skipped in strict mode", New(signers, 1), "WebLedgerOperation", UnfilteredSkips, false},
		{"type accepted", New(signers, 1, ByType("WebLedgerOperation")), "WebLedgerOperation", UnfilteredSkips, true},
		{"type not accepted", New(signers, 1, ByType("WebLedgerOperation")), "WebLedgerEvent", UnfilteredApplies, false},
		{"any filter entry may match", New(signers, 1, ByType("A"), ByType("B")), "B", UnfilteredApplies, true},
		{"unknown filter kind never matches", New(signers, 1, Filter{Kind: "ByColour", AcceptedTypes: []string{"X"}}), "X", UnfilteredApplies, false},
		{"empty document type", New(signers, 1, ByType("X")), "", UnfilteredApplies, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Applies(tt.docType, tt.mode))
		})
	}
}

func TestAppliesToAny(t *testing.T) {
	p := New([]string{"did:v1:a"}, 1, ByType("WebLedgerOperation"))

	assert.True(t, p.AppliesToAny([]string{"Foo", "WebLedgerOperation"}, UnfilteredApplies))
	assert.False(t, p.AppliesToAny([]string{"Foo", "Bar"}, UnfilteredApplies))
	assert.False(t, p.AppliesToAny(nil, UnfilteredApplies))
	assert.True(t, New([]string{"did:v1:a"}, 1).AppliesToAny(nil, UnfilteredApplies))
}

func TestParseUnfilteredMode(t *testing.T) {
	m, err := ParseUnfilteredMode("")
	require.NoError(t, err)
	assert.Equal(t, UnfilteredApplies, m)

	m, err = ParseUnfilteredMode("skip")
	require.NoError(t, err)
	assert.Equal(t, UnfilteredSkips, m)

	_, err = ParseUnfilteredMode("sometimes")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	p := New([]string{" did:v1:a ", "did:v1:a", "", "did:v1:b"}, 2)
	assert.Equal(t, KindSignatureValidator2017, p.Kind)
	assert.Equal(t, []string{"did:v1:a", "did:v1:b"}, p.ApprovedSigners)
	assert.True(t, p.IsApproved("did:v1:b"))
	assert.False(t, p.IsApproved("did:v1:c"))
	assert.False(t, p.IsApproved(""))
}
