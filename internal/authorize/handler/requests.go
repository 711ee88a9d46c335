package handler

import (
	"bytes"
	"encoding/json"
	"errors"
)

// AuthorizeRequest is the HTTP request body for POST /v1/authorize. Both
// members are kept raw so the service parses them with its own rules.
type AuthorizeRequest struct {
	Document json.RawMessage `json:"document"`
	Policy   json.RawMessage `json:"policy"`
}

// Validate implements httputil.Validatable.
func (r *AuthorizeRequest) Validate() error {
	if r == nil {
		return errors.New("request body is required")
	}
	if isAbsent(r.Document) {
		return errors.New("document is required")
	}
	if isAbsent(r.Policy) {
		return errors.New("policy is required")
	}
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
