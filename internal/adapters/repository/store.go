// Package repository supplies series, races, divisions and results to the
// standings engine from a YAML dataset or a sqlite database.
package repository

import (
	"context"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/internal/domain/standings"
)

// Store is a standings source that also lists the series to render.
//
// A race belongs to a series when it has at least one result in that series.
type Store interface {
	standings.Source

	// ActiveSeries returns the active series ordered by ID.
	ActiveSeries(ctx context.Context) ([]model.Series, error)
	// Series returns one series by name, or ErrNotFound.
	Series(ctx context.Context, name string) (model.Series, error)

	Close() error
}
