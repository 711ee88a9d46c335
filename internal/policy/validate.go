package policy

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ledgerguard/pkg/platform/sentinel"
	pstrings "ledgerguard/pkg/platform/strings"
)

//go:embed policy.schema.json
var schemaJSON []byte

const schemaURL = "https://schemas.ledgerguard.local/policy.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("policy schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("policy schema compile failed: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Violation is one problem found in a policy. Field is a JSON pointer into the
// policy document; the empty string refers to the document itself.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a policy.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid policy"
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field == "" {
			msgs = append(msgs, v.Message)
			continue
		}
		msgs = append(msgs, v.Field+": "+v.Message)
	}
	return "invalid policy: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return sentinel.ErrInvalidInput
}

// ViolationsOf returns the violations carried by err, if any.
func ViolationsOf(err error) []Violation {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}

// Validate checks a raw policy document against the policy schema and reports
// all violations at once.
func Validate(raw []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &ValidationError{Violations: []Violation{{Message: "policy is not valid JSON: " + err.Error()}}}
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var schemaErr *jsonschema.ValidationError
	if !errors.As(err, &schemaErr) {
		return fmt.Errorf("policy schema validation: %w", err)
	}
	return &ValidationError{Violations: leafViolations(schemaErr)}
}

// leafViolations flattens the schema's basic output to the failing keywords.
func leafViolations(ve *jsonschema.ValidationError) []Violation {
	var out []Violation
	seen := make(map[Violation]struct{})
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			v := Violation{Field: e.InstanceLocation, Message: e.Message}
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				out = append(out, v)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Parse validates a raw policy document and decodes it. Approved signers are
// trimmed and deduplicated.
func Parse(raw []byte) (*Policy, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var p Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Violations: []Violation{{Message: err.Error()}}}
	}
	p.ApprovedSigners = pstrings.DedupeAndTrim(p.ApprovedSigners)
	return &p, nil
}

// Validate checks a decoded policy with the same rules the schema enforces.
// It is the precondition the engine runs before evaluating any document.
func (p *Policy) Validate() error {
	if p == nil {
		return &ValidationError{Violations: []Violation{{Message: "policy is required"}}}
	}
	var vs []Violation
	if p.Kind != KindSignatureValidator2017 {
		vs = append(vs, Violation{Field: "/kind", Message: fmt.Sprintf("value must be %q", KindSignatureValidator2017)})
	}
	if p.ApprovedSigners == nil {
		vs = append(vs, Violation{Message: "missing properties: 'approvedSigners'"})
	}
	for i, s := range p.ApprovedSigners {
		if !isURL(s) {
			vs = append(vs, Violation{Field: fmt.Sprintf("/approvedSigners/%d", i), Message: fmt.Sprintf("%q is not valid 'uri'", s)})
		}
	}
	if p.MinimumSignaturesRequired < 1 {
		vs = append(vs, Violation{Field: "/minimumSignaturesRequired", Message: fmt.Sprintf("must be >= 1 but found %d", p.MinimumSignaturesRequired)})
	}
	for i, f := range p.ApplicabilityFilter {
		if f.Kind != FilterKindByType {
			vs = append(vs, Violation{Field: fmt.Sprintf("/applicabilityFilter/%d/kind", i), Message: fmt.Sprintf("value must be %q", FilterKindByType)})
		}
		if f.AcceptedTypes == nil {
			vs = append(vs, Violation{Field: fmt.Sprintf("/applicabilityFilter/%d", i), Message: "missing properties: 'acceptedTypes'"})
		}
	}
	if len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}
	return nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}
