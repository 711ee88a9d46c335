package testutil

import (
	"crypto/ed25519"
	"fmt"
	"testing"
	"time"

	"ledgerguard/internal/document"
	"ledgerguard/internal/keys"
	"ledgerguard/internal/signature"
)

// Signer is an Ed25519 key pair owned by a principal, for building signed
// fixtures.
type Signer struct {
	Owner   string
	KeyID   string
	Private ed25519.PrivateKey
	Key     keys.Key
}

// NewSigner generates key number n of owner ("<owner>/keys/<n>").
func NewSigner(t testing.TB, owner string, n int) Signer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	id := fmt.Sprintf("%s/keys/%d", owner, n)
	return Signer{
		Owner:   owner,
		KeyID:   id,
		Private: priv,
		Key:     keys.Key{ID: id, Type: keys.TypeEd25519, Owner: owner, PublicKey: pub},
	}
}

// Resolver serves the public keys of signers.
func Resolver(signers ...Signer) *keys.MemoryResolver {
	ks := make([]keys.Key, 0, len(signers))
	for _, s := range signers {
		ks = append(ks, s.Key)
	}
	return keys.NewMemoryResolver(ks...)
}

// Sign adds one proof per signer to doc using the default profile.
func Sign(t testing.TB, doc document.Document, signers ...Signer) document.Document {
	t.Helper()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, s := range signers {
		var err error
		doc, err = signature.Sign(doc, s.Private, signature.Options{Creator: s.KeyID, Created: created}, document.DefaultProfile())
		if err != nil {
			t.Fatalf("sign with %s: %v", s.KeyID, err)
		}
	}
	return doc
}

// Operation returns an unsigned WebLedgerOperation fixture.
func Operation(record string) document.Document {
	return document.Document{
		"@context": "https://w3id.org/webledger/v1",
		"type":     "CreateWebLedgerRecord",
		"record": map[string]any{
			"id":    record,
			"value": 42,
		},
	}
}
