// Package document reads ledger documents and the signatures embedded in them.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedDocument marks documents whose shape prevents evaluation:
// not an object, no signature field, or signature entries that are not objects.
var ErrMalformedDocument = errors.New("malformed document")

const (
	FieldType      = "type"
	FieldSignature = "signature"
	FieldProof     = "proof"
)

// Document is a decoded JSON object. Numbers are kept as json.Number so the
// canonical form matches what the signer produced.
type Document map[string]any

// Proof is one signature object embedded in a document.
type Proof map[string]any

// Parse decodes raw JSON into a Document.
func Parse(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformedDocument)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document must be a JSON object", ErrMalformedDocument)
	}
	return Document(obj), nil
}

// Type returns the document type. JSON-LD style type arrays yield their first
// string entry.
func (d Document) Type() string {
	switch t := d[FieldType].(type) {
	case string:
		return t
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Types returns every string entry of the document type, in order.
func (d Document) Types() []string {
	switch t := d[FieldType].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Without returns a shallow copy of d minus the named fields.
func (d Document) Without(fields ...string) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// String returns the string value of key, or "" when absent or not a string.
func (p Proof) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Proofs extracts the signature objects held under the first populated field
// of fields. A single object counts as a one-element list and an empty list
// yields no proofs. Exactly one field may be populated.
func Proofs(obj Document, fields []string) ([]Proof, error) {
	var (
		found string
		raw   any
	)
	for _, f := range fields {
		v, ok := obj[f]
		if !ok || v == nil {
			continue
		}
		if found != "" {
			return nil, fmt.Errorf("%w: both %q and %q are populated", ErrMalformedDocument, found, f)
		}
		found, raw = f, v
	}
	if found == "" {
		return nil, fmt.Errorf("%w: no signature found", ErrMalformedDocument)
	}

	switch v := raw.(type) {
	case map[string]any:
		return []Proof{Proof(v)}, nil
	case []any:
		out := make([]Proof, 0, len(v))
		for i, item := range v {
			p, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrMalformedDocument, found, i)
			}
			out = append(out, Proof(p))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q must be an object or an array of objects", ErrMalformedDocument, found)
	}
}
