// Package keys resolves the public keys that signatures name as their creator.
package keys

import (
	"context"
	"fmt"

	"ledgerguard/pkg/platform/sentinel"
)

// TypeEd25519 is the key type verified by the Ed25519Signature2018 suite.
const TypeEd25519 = "Ed25519VerificationKey2018"

// Key is a public verification key and the principal that controls it.
type Key struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Owner     string `json:"owner"`
	PublicKey []byte `json:"publicKey"`
}

// Resolver dereferences a key identifier.
// Implementations return an error wrapping sentinel.ErrNotFound for unknown
// keys and sentinel.ErrUnavailable when the backing service cannot answer.
type Resolver interface {
	ResolveKey(ctx context.Context, keyID string) (*Key, error)
}

// Store persists keys so resolvers can serve them.
type Store interface {
	Resolver
	Save(ctx context.Context, key Key) error
}

// Validate checks that a key can be stored and used.
func (k Key) Validate() error {
	switch {
	case k.ID == "":
		return fmt.Errorf("key id is required: %w", sentinel.ErrInvalidInput)
	case k.Owner == "":
		return fmt.Errorf("key %q: owner is required: %w", k.ID, sentinel.ErrInvalidInput)
	case k.Type == "":
		return fmt.Errorf("key %q: type is required: %w", k.ID, sentinel.ErrInvalidInput)
	case len(k.PublicKey) == 0:
		return fmt.Errorf("key %q: public key is required: %w", k.ID, sentinel.ErrInvalidInput)
	}
	return nil
}

func notFound(keyID string) error {
	return fmt.Errorf("key %q: %w", keyID, sentinel.ErrNotFound)
}
