package authorize

import "ledgerguard/internal/signature"

// TrustLedger tracks which approved signers have been credited during one
// evaluation. It is created per signed object and never shared.
type TrustLedger struct {
	credited map[string]bool
}

// NewTrustLedger starts every approved signer uncredited. Duplicate entries
// collapse.
func NewTrustLedger(approved []string) *TrustLedger {
	l := &TrustLedger{credited: make(map[string]bool, len(approved))}
	for _, id := range approved {
		l.credited[id] = false
	}
	return l
}

// Has reports whether id is an entry of the ledger.
func (l *TrustLedger) Has(id string) bool {
	_, ok := l.credited[id]
	return id != "" && ok
}

// Credit marks entry id. Returns true only when id is an entry that was not
// yet credited.
func (l *TrustLedger) Credit(id string) bool {
	credited, ok := l.credited[id]
	if !ok || credited {
		return false
	}
	l.credited[id] = true
	return true
}

// CreditResult credits the entry a verified record matches: its key when the
// key is listed, otherwise its owner. A record credits at most one entry.
func (l *TrustLedger) CreditResult(r signature.KeyResult) bool {
	if !r.Verified {
		return false
	}
	if l.Has(r.KeyID) {
		return l.Credit(r.KeyID)
	}
	if l.Has(r.OwnerID) {
		return l.Credit(r.OwnerID)
	}
	return false
}

// Count is the number of distinct credited entries.
func (l *TrustLedger) Count() int {
	n := 0
	for _, ok := range l.credited {
		if ok {
			n++
		}
	}
	return n
}

// Snapshot copies the ledger state.
func (l *TrustLedger) Snapshot() map[string]bool {
	out := make(map[string]bool, len(l.credited))
	for k, v := range l.credited {
		out[k] = v
	}
	return out
}
