package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound       = errors.New("series not found")
	ErrInvalidDataset = errors.New("invalid dataset")
)
