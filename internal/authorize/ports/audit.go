package ports

import (
	"context"

	"ledgerguard/internal/audit"
)

// AuditPublisher records authorization decisions. Defined here to keep the
// authorize module independent of the audit sink in use.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
