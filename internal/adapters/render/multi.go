package render

import (
	"context"
	"errors"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/internal/domain/standings"
)

// Multi broadcasts every call to its children in order.
type Multi struct {
	sinks []standings.Sink
}

// NewMulti creates a fan-out over sinks.
func NewMulti(sinks ...standings.Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Add appends a child sink.
func (m *Multi) Add(s standings.Sink) {
	m.sinks = append(m.sinks, s)
}

// Len returns the number of children.
func (m *Multi) Len() int { return len(m.sinks) }

// Prepare prepares every child and returns the race count reported by the
// last one. Children are assumed to agree.
func (m *Multi) Prepare(ctx context.Context, g model.Gender, seriesName string, seriesID, year int) (int, error) {
	var n int
	var errs []error
	for _, s := range m.sinks {
		count, err := s.Prepare(ctx, g, seriesName, seriesID, year)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n = count
	}
	return n, errors.Join(errs...)
}

func (m *Multi) ClearLine(g model.Gender) {
	for _, s := range m.sinks {
		s.ClearLine(g)
	}
}

func (m *Multi) SetPlace(g model.Gender, place string) {
	for _, s := range m.sinks {
		s.SetPlace(g, place)
	}
}

func (m *Multi) SetName(g model.Gender, name string) {
	for _, s := range m.sinks {
		s.SetName(g, name)
	}
}

func (m *Multi) SetRace(g model.Gender, raceNum int, value string) {
	for _, s := range m.sinks {
		s.SetRace(g, raceNum, value)
	}
}

func (m *Multi) SetTotal(g model.Gender, total string) {
	for _, s := range m.sinks {
		s.SetTotal(g, total)
	}
}

func (m *Multi) Render(g model.Gender) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Render(g))
	}
	return errors.Join(errs...)
}

func (m *Multi) SkipLine(g model.Gender) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.SkipLine(g))
	}
	return errors.Join(errs...)
}

// Abort forwards to every child that can drop buffered output.
func (m *Multi) Abort() {
	for _, s := range m.sinks {
		if a, ok := s.(standings.Aborter); ok {
			a.Abort()
		}
	}
}

// Close closes every child, even after a failure.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
