package authorize

import "ledgerguard/internal/signature"

// ErrMsgNotTrusted marks a sound signature whose key and owner are both
// outside the approved signers.
const ErrMsgNotTrusted = "key owner is not trusted"

// ApplyTrust returns a copy of results in which verified records whose key and
// owner are both unknown to the ledger are downgraded to unverified.
func ApplyTrust(results []signature.KeyResult, ledger *TrustLedger) []signature.KeyResult {
	out := make([]signature.KeyResult, len(results))
	for i, r := range results {
		if r.Verified && !ledger.Has(r.KeyID) && !ledger.Has(r.OwnerID) {
			r.Verified = false
			r.Error = ErrMsgNotTrusted
		}
		out[i] = r
	}
	return out
}
