// Package signature implements the Ed25519Signature2018 suite over canonical
// JSON and verifies the proofs embedded in ledger documents.
package signature

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"ledgerguard/internal/document"
)

// SuiteEd25519Signature2018 is the proof type produced and verified here.
const SuiteEd25519Signature2018 = "Ed25519Signature2018"

// Proof fields.
const (
	FieldType               = "type"
	FieldCreator            = "creator"
	FieldVerificationMethod = "verificationMethod"
	FieldCreated            = "created"
	FieldSignatureValue     = "signatureValue"
)

// Creator returns the key id named by a proof. verificationMethod is accepted
// as an alias of creator.
func Creator(p document.Proof) string {
	if c := p.String(FieldCreator); c != "" {
		return c
	}
	return p.String(FieldVerificationMethod)
}

// canonicalHash returns sha256 of the RFC 8785 form of v.
func canonicalHash(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode for canonicalization: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	sum := sha256.Sum256(canon)
	return sum[:], nil
}

// VerifyData is the byte string a proof signs: the hash of the proof options
// (the proof minus its signatureValue) followed by the hash of the unsigned
// document.
func VerifyData(unsigned document.Document, proof document.Proof) ([]byte, error) {
	docHash, err := canonicalHash(unsigned)
	if err != nil {
		return nil, err
	}
	return verifyData(docHash, proof)
}

func verifyData(docHash []byte, proof document.Proof) ([]byte, error) {
	options := make(map[string]any, len(proof))
	for k, v := range proof {
		if k != FieldSignatureValue {
			options[k] = v
		}
	}
	optHash, err := canonicalHash(options)
	if err != nil {
		return nil, err
	}
	return append(optHash, docHash...), nil
}

// Options describe a proof to create.
type Options struct {
	Creator string
	Created time.Time
}

// Sign appends an Ed25519Signature2018 proof to the profile's first signature
// field of doc and returns the signed copy. Existing proofs are kept.
func Sign(doc document.Document, priv ed25519.PrivateKey, opts Options, profile document.Profile) (document.Document, error) {
	if opts.Creator == "" {
		return nil, fmt.Errorf("sign: creator is required")
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("sign: invalid ed25519 private key length %d", len(priv))
	}
	created := opts.Created
	if created.IsZero() {
		created = time.Now()
	}

	proof := document.Proof{
		FieldType:    SuiteEd25519Signature2018,
		FieldCreator: opts.Creator,
		FieldCreated: created.UTC().Format(time.RFC3339),
	}
	data, err := VerifyData(profile.Unsigned(doc), proof)
	if err != nil {
		return nil, err
	}
	proof[FieldSignatureValue] = base64.RawURLEncoding.EncodeToString(ed25519.Sign(priv, data))

	field := document.FieldSignature
	if len(profile.SignatureFields) > 0 {
		field = profile.SignatureFields[0]
	}
	signed := doc.Without()
	switch existing := doc[field].(type) {
	case nil:
		signed[field] = map[string]any(proof)
	case map[string]any:
		signed[field] = []any{existing, map[string]any(proof)}
	case []any:
		signed[field] = append(append([]any(nil), existing...), map[string]any(proof))
	default:
		return nil, fmt.Errorf("sign: %q holds %T", field, existing)
	}
	return signed, nil
}
