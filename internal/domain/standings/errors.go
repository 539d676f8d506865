package standings

import (
	"errors"
	"fmt"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/internal/domain/scoring"
)

// Sentinel kinds for series-fatal conditions. None of them are retried.
var (
	ErrUnsupportedPolicy     = scoring.ErrUnsupportedPolicy
	ErrInvalidConfig         = scoring.ErrInvalidConfig
	ErrMissingDivisionConfig = errors.New("series scores divisions but has no divisions configured")
	ErrDivisionConflict      = errors.New("runner division conflict")
	ErrDuplicateResult       = errors.New("runner has more than one result in race")
	ErrNoRaces               = errors.New("series has no active races")
	ErrSource                = errors.New("result source failed")
	ErrSinkIO                = errors.New("render sink failed")
)

// SeriesError reports the series whose render was aborted and why.
type SeriesError struct {
	SeriesID   int
	SeriesName string
	// Gender is empty when the failure happened before any gender was processed.
	Gender model.Gender
	Err    error
}

func (e *SeriesError) Error() string {
	if e.Gender == "" {
		return fmt.Sprintf("series %q (id %d): %v", e.SeriesName, e.SeriesID, e.Err)
	}
	return fmt.Sprintf("series %q (id %d) %s: %v", e.SeriesName, e.SeriesID, e.Gender.Label(), e.Err)
}

func (e *SeriesError) Unwrap() error { return e.Err }
