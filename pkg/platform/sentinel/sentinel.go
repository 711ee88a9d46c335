package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Resolvers, stores and providers return
// these (optionally wrapped) so the authorization layer can translate them into
// its own error kinds.
//
// These represent factual states about resources, not policy outcomes:
// - ErrNotFound: key or record does not exist
// - ErrUnavailable: a backing service could not be reached or timed out
// - ErrInvalidInput: caller supplied structurally invalid data
// - ErrCircuitOpen: a guarded dependency is failing fast
//
// Authorization denials are never expressed with these values.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidInput = errors.New("invalid input")
	ErrCircuitOpen  = errors.New("circuit open")
)
