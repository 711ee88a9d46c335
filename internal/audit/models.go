package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names an audited authorization result.
type Action string

const (
	ActionDocumentAuthorized    Action = "document_authorized"
	ActionDocumentDenied        Action = "document_denied"
	ActionDocumentNotApplicable Action = "document_not_applicable"
	ActionAuthorizationError    Action = "authorization_error"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID           uuid.UUID
	Timestamp    time.Time
	Action       Action
	DocumentType string
	// Decision is the outcome or error kind.
	Decision  string
	Reason    string
	RequestID string
	// Details holds the diagnostics of the evaluation.
	Details map[string]any
}
