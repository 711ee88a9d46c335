package policy

import "slices"

// Applies reports whether the policy governs documents of docType.
// With filters configured, some ValidatorFilterByType entry must list docType.
// Without filters the outcome is decided by mode.
func (p *Policy) Applies(docType string, mode UnfilteredMode) bool {
	return p.AppliesToAny([]string{docType}, mode)
}

// AppliesToAny is Applies for documents carrying several types, as JSON-LD
// type arrays do. One accepted type is enough.
func (p *Policy) AppliesToAny(docTypes []string, mode UnfilteredMode) bool {
	if len(p.ApplicabilityFilter) == 0 {
		return mode != UnfilteredSkips
	}
	for _, f := range p.ApplicabilityFilter {
		if f.Kind != FilterKindByType {
			continue
		}
		for _, t := range docTypes {
			if t != "" && slices.Contains(f.AcceptedTypes, t) {
				return true
			}
		}
	}
	return false
}
