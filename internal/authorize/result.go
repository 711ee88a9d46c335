package authorize

import "ledgerguard/internal/signature"

// Outcome of a successful authorization call.
type Outcome string

const (
	OutcomeAuthorized    Outcome = "authorized"
	OutcomeNotApplicable Outcome = "not_applicable"
)

// Result is returned when a document is authorized or the policy does not
// govern it. Objects holds one entry per signed object evaluated.
type Result struct {
	Outcome      Outcome
	DocumentType string
	Objects      []Diagnostics
}

// Diagnostics explains one threshold evaluation. Audit tooling depends on
// these field names; trustedSigners and keyResults are always present, empty
// when nothing was approved or verified.
type Diagnostics struct {
	DocumentType              string                `json:"documentType,omitempty"`
	SignatureCount            int                   `json:"signatureCount"`
	VerifiedSignatures        int                   `json:"verifiedSignatures"`
	MinimumSignaturesRequired int                   `json:"minimumSignaturesRequired"`
	TrustedSigners            map[string]bool       `json:"trustedSigners"`
	KeyResults                []signature.KeyResult `json:"keyResults"`
}
