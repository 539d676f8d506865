package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/okian/gpstandings/internal/domain/model"
)

// Memory is a read-only Store over a decoded Dataset.
type Memory struct {
	series    []model.Series
	divisions map[int][]model.Division
	races     map[int]model.Race
	// results keeps dataset order; the engine relies on stable ordering
	// among equal values.
	results []model.RaceResult
	// seriesRaces maps series ID to the set of race IDs with results in it.
	seriesRaces map[int]map[int]struct{}
}

// NewMemory validates d and builds a store.
func NewMemory(d Dataset) (*Memory, error) {
	m := &Memory{
		divisions:   make(map[int][]model.Division),
		races:       make(map[int]model.Race),
		seriesRaces: make(map[int]map[int]struct{}),
	}
	seen := make(map[int]bool)
	for _, rec := range d.Series {
		s, err := rec.toSeries()
		if err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: duplicate series id %d", ErrInvalidDataset, s.ID)
		}
		seen[s.ID] = true
		m.series = append(m.series, s)
	}
	slices.SortFunc(m.series, func(a, b model.Series) int { return cmp.Compare(a.ID, b.ID) })

	for _, rec := range d.Divisions {
		if !seen[rec.SeriesID] {
			return nil, fmt.Errorf("%w: division %d-%d references unknown series %d", ErrInvalidDataset, rec.Low, rec.High, rec.SeriesID)
		}
		m.divisions[rec.SeriesID] = append(m.divisions[rec.SeriesID], model.Division{
			SeriesID: rec.SeriesID,
			Bounds:   model.Bounds{Low: rec.Low, High: rec.High},
			Active:   rec.Active,
		})
	}
	for _, rec := range d.Races {
		r, err := rec.toRace()
		if err != nil {
			return nil, err
		}
		if _, dup := m.races[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate race id %d", ErrInvalidDataset, r.ID)
		}
		m.races[r.ID] = r
	}
	for _, rec := range d.Results {
		r, err := rec.toResult()
		if err != nil {
			return nil, err
		}
		if _, ok := m.races[r.RaceID]; !ok {
			return nil, fmt.Errorf("%w: result of %q references unknown race %d", ErrInvalidDataset, r.RunnerName, r.RaceID)
		}
		if !seen[r.SeriesID] {
			return nil, fmt.Errorf("%w: result of %q references unknown series %d", ErrInvalidDataset, r.RunnerName, r.SeriesID)
		}
		m.results = append(m.results, r)
		set, ok := m.seriesRaces[r.SeriesID]
		if !ok {
			set = make(map[int]struct{})
			m.seriesRaces[r.SeriesID] = set
		}
		set[r.RaceID] = struct{}{}
	}
	return m, nil
}

// LoadMemory reads the YAML dataset at path into a Memory store.
func LoadMemory(path string) (*Memory, error) {
	d, err := ReadDataset(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(d)
}

func (m *Memory) ActiveSeries(ctx context.Context) ([]model.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Series
	for _, s := range m.series {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) Series(ctx context.Context, name string) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}
	for _, s := range m.series {
		if s.Name == name {
			return s, nil
		}
	}
	return model.Series{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (m *Memory) Races(ctx context.Context, seriesID int) ([]model.Race, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Race
	for id := range m.seriesRaces[seriesID] {
		if r := m.races[id]; r.Active {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b model.Race) int {
		if c := cmp.Compare(a.Number, b.Number); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) Divisions(ctx context.Context, seriesID int) ([]model.Division, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Division
	for _, d := range m.divisions[seriesID] {
		if d.Active {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Division) int { return cmp.Compare(a.Low, b.Low) })
	return out, nil
}

func (m *Memory) Results(ctx context.Context, raceID, seriesID int, g model.Gender, col model.Column) ([]model.RaceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.RaceResult
	for _, r := range m.results {
		if r.RaceID == raceID && r.SeriesID == seriesID && r.Gender == g {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b model.RaceResult) int { return cmp.Compare(a.Value(col), b.Value(col)) })
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
