package scoring

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrUnsupportedPolicy = errors.New("unsupported scoring policy")
	ErrInvalidConfig     = errors.New("invalid scoring configuration")
)
