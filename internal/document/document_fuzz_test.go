package document

import (
	"errors"
	"testing"
)

// FuzzExtract feeds arbitrary bytes through parsing and signature extraction.
//
// Justification: documents arrive from untrusted ledger peers. Extraction must
// never panic and must either return proofs or a malformed-document error.
func FuzzExtract(f *testing.F) {
	f.Add([]byte(`{"type":"WebLedgerOperation","signature":{"creator":"k"}}`))
	f.Add([]byte(`{"type":"WebLedgerEvent","operation":[{"proof":[{"creator":"k"}]}]}`))
	f.Add([]byte(`{"signature":[1,2,3]}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`{"type":["A",{"b":1}],"proof":null}`))
	f.Add([]byte{0xff, 0x00})

	profile := DefaultProfile()
	f.Fuzz(func(t *testing.T, raw []byte) {
		doc, err := Parse(raw)
		if err != nil {
			if !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("parse error must be malformed-document, got %v", err)
			}
			return
		}
		objs, err := profile.SignedObjects(doc)
		if err != nil {
			if !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		for _, obj := range objs {
			proofs, err := profile.Proofs(obj)
			for i, p := range proofs {
				if p == nil {
					t.Fatalf("proof %d is nil", i)
				}
			}
			if err != nil && !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("unexpected error kind: %v", err)
			}
		}
	})
}
