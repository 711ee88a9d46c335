package authorize

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys.
const (
	AttrDocumentType       = attribute.Key("ledgerguard.document.type")
	AttrOutcome            = attribute.Key("ledgerguard.authorize.outcome")
	AttrSignatureCount     = attribute.Key("ledgerguard.authorize.signature_count")
	AttrVerifiedSignatures = attribute.Key("ledgerguard.authorize.verified_signatures")
	AttrMinimum            = attribute.Key("ledgerguard.authorize.minimum")
)

func diagnosticAttributes(d *Diagnostics) []attribute.KeyValue {
	if d == nil {
		return nil
	}
	return []attribute.KeyValue{
		AttrSignatureCount.Int(d.SignatureCount),
		AttrVerifiedSignatures.Int(d.VerifiedSignatures),
		AttrMinimum.Int(d.MinimumSignaturesRequired),
	}
}
