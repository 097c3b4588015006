package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Storage backends and config
// fetchers return these (optionally wrapped) so services can translate them
// into domain errors.
//
//   - ErrNotFound: no persisted value for the key
//   - ErrInvalidState: persisted bytes cannot be decoded or decrypted
//   - ErrUnavailable: backend or remote source temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
