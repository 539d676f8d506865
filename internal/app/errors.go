package service

import "errors"

// Sentinel kinds for run-level failures.
var (
	ErrNoSource      = errors.New("service has no source")
	ErrLoadSeries    = errors.New("load series failed")
	ErrUnknownFormat = errors.New("unknown output format")
)
