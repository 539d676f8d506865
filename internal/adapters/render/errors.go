package render

import "errors"

// Sentinel kinds for sink errors.
var (
	ErrNotPrepared = errors.New("sink not prepared for gender")
	ErrOpen        = errors.New("open standings output failed")
)
