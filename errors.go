package websec

import "errors"

// ErrInvalidConfig is returned (wrapped, with detail) when a Suite is
// constructed from a configuration that would weaken a security guarantee.
// This is the one error class that must abort startup loudly: per-request
// security failures are returned as boolean results instead, so callers
// cannot fail open by ignoring an error.
var ErrInvalidConfig = errors.New("websec: invalid config")
