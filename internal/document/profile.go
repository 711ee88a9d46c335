package document

import "fmt"

// Profile describes where signatures live for the document families a ledger
// accepts, so one engine serves events, operations and configurations alike.
type Profile struct {
	// SignatureFields are checked in order; exactly one may be populated.
	SignatureFields []string
	// Envelopes maps a document type to the field holding the objects that
	// carry signatures. An envelope is authorized by authorizing each of them.
	Envelopes map[string]string
}

// DefaultProfile reads "signature" or "proof", and treats a WebLedgerEvent as
// an envelope around its "operation" entries.
func DefaultProfile() Profile {
	return Profile{
		SignatureFields: []string{FieldSignature, FieldProof},
		Envelopes:       map[string]string{"WebLedgerEvent": "operation"},
	}
}

// SignedObjects returns the objects of doc that must each carry signatures.
func (p Profile) SignedObjects(doc Document) ([]Document, error) {
	field, ok := p.Envelopes[doc.Type()]
	if !ok {
		return []Document{doc}, nil
	}
	switch v := doc[field].(type) {
	case map[string]any:
		return []Document{Document(v)}, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: %q is empty", ErrMalformedDocument, field)
		}
		out := make([]Document, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrMalformedDocument, field, i)
			}
			out = append(out, Document(obj))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s document has no %q", ErrMalformedDocument, doc.Type(), field)
	}
}

// Proofs extracts the signatures of obj using the profile's signature fields.
func (p Profile) Proofs(obj Document) ([]Proof, error) {
	fields := p.SignatureFields
	if len(fields) == 0 {
		fields = DefaultProfile().SignatureFields
	}
	return Proofs(obj, fields)
}

// Unsigned returns obj without any of the profile's signature fields.
func (p Profile) Unsigned(obj Document) Document {
	fields := p.SignatureFields
	if len(fields) == 0 {
		fields = DefaultProfile().SignatureFields
	}
	return obj.Without(fields...)
}
