//go:generate mockgen -source=verifier.go -destination=mocks/verifier.go -package=mocks
//go:generate mockgen -source=audit.go -destination=mocks/audit.go -package=mocks

package ports

import (
	"context"

	"ledgerguard/internal/document"
	"ledgerguard/internal/signature"
)

// Verifier checks the cryptographic soundness of the proofs on one signed
// object. It knows nothing about policies; trust is applied afterwards.
//
// Per-proof failures are returned as unverified records. A returned error
// means verification as a whole could not complete.
type Verifier interface {
	Verify(ctx context.Context, obj document.Document, proofs []document.Proof) ([]signature.KeyResult, error)
}
