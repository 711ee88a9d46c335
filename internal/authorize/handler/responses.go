package handler

import (
	"ledgerguard/internal/authorize"
	"ledgerguard/internal/policy"
)

// AuthorizeResponse is returned with 200 for authorized and not applicable
// documents.
type AuthorizeResponse struct {
	Outcome      string                  `json:"outcome"`
	DocumentType string                  `json:"documentType,omitempty"`
	Diagnostics  []authorize.Diagnostics `json:"diagnostics,omitempty"`
}

// DeniedResponse is returned with 403. Diagnostics fields are inlined.
type DeniedResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	*authorize.Diagnostics
}

// KindErrorResponse is returned for every other authorization error kind.
type KindErrorResponse struct {
	Error      string             `json:"error"`
	Message    string             `json:"message,omitempty"`
	Violations []policy.Violation `json:"violations,omitempty"`
}

// ValidatePolicyResponse is returned by POST /v1/policies/validate.
type ValidatePolicyResponse struct {
	Valid      bool               `json:"valid"`
	Violations []policy.Violation `json:"violations,omitempty"`
}

// FromResult converts a domain Result to an HTTP response.
func FromResult(result *authorize.Result) *AuthorizeResponse {
	return &AuthorizeResponse{
		Outcome:      string(result.Outcome),
		DocumentType: result.DocumentType,
		Diagnostics:  result.Objects,
	}
}
