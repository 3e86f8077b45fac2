package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrBadFilter     = errors.New("invalid filter expression")
	ErrBadArtifact   = errors.New("invalid model artifact")
	ErrMissingSource = errors.New("missing dataset source")
	ErrInvalidConfig = errors.New("invalid configuration")
)
