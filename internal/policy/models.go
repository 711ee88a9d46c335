package policy

import (
	"fmt"
	"slices"

	"ledgerguard/pkg/platform/sentinel"
	"ledgerguard/pkg/platform/strings"
)

const (
	// KindSignatureValidator2017 is the only policy kind the engine evaluates.
	KindSignatureValidator2017 = "SignatureValidator2017"
	// FilterKindByType restricts a policy to a set of document types.
	FilterKindByType = "ValidatorFilterByType"
)

// Policy is a threshold authorization rule: at least MinimumSignaturesRequired
// distinct ApprovedSigners entries must have verified signatures on a document.
// An approved signer names either a key or the principal owning keys.
type Policy struct {
	Kind                      string   `json:"kind"`
	ApprovedSigners           []string `json:"approvedSigners"`
	MinimumSignaturesRequired int      `json:"minimumSignaturesRequired"`
	ApplicabilityFilter       []Filter `json:"applicabilityFilter,omitempty"`
}

// Filter selects the document types a policy governs.
type Filter struct {
	Kind          string   `json:"kind"`
	AcceptedTypes []string `json:"acceptedTypes"`
}

// ByType returns a type filter accepting the given document types.
func ByType(types ...string) Filter {
	return Filter{Kind: FilterKindByType, AcceptedTypes: types}
}

// New builds a SignatureValidator2017 policy. Signers are trimmed and
// duplicates collapse to one entry.
func New(signers []string, minimum int, filters ...Filter) *Policy {
	return &Policy{
		Kind:                      KindSignatureValidator2017,
		ApprovedSigners:           strings.DedupeAndTrim(signers),
		MinimumSignaturesRequired: minimum,
		ApplicabilityFilter:       filters,
	}
}

// IsApproved reports whether id is listed as an approved signer.
func (p *Policy) IsApproved(id string) bool {
	return id != "" && slices.Contains(p.ApprovedSigners, id)
}

// UnfilteredMode decides what a policy without an applicability filter does.
type UnfilteredMode string

const (
	// UnfilteredApplies evaluates every document against an unfiltered policy.
	UnfilteredApplies UnfilteredMode = "apply"
	// UnfilteredSkips treats an unfiltered policy as governing nothing.
	UnfilteredSkips UnfilteredMode = "skip"
)

// ParseUnfilteredMode parses "apply" or "skip". The empty string means apply.
func ParseUnfilteredMode(s string) (UnfilteredMode, error) {
	switch UnfilteredMode(s) {
	case "", UnfilteredApplies:
		return UnfilteredApplies, nil
	case UnfilteredSkips:
		return UnfilteredSkips, nil
	default:
		return "", fmt.Errorf("unfiltered policy mode %q: %w", s, sentinel.ErrInvalidInput)
	}
}
