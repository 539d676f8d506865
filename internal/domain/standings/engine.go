// Package standings turns per-race results into ranked series standings and
// drives a Sink with the rendered lines.
package standings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/internal/domain/scoring"
	"github.com/okian/gpstandings/pkg/logger"
	"github.com/okian/gpstandings/pkg/metrics"
)

// Source supplies the already-scoped input of one series.
type Source interface {
	// Races returns the active races of the series ordered by race number.
	Races(ctx context.Context, seriesID int) ([]model.Race, error)
	// Divisions returns the active divisions of the series ordered by low bound.
	Divisions(ctx context.Context, seriesID int) ([]model.Division, error)
	// Results returns the results of one race, series and gender ordered by
	// col ascending.
	Results(ctx context.Context, raceID, seriesID int, g model.Gender, col model.Column) ([]model.RaceResult, error)
}

// Sink consumes rendered standings. Per gender the engine calls Prepare once,
// then any number of ClearLine/Set*/Render groups with optional SkipLine, and
// finally Close once after every gender.
type Sink interface {
	// Prepare opens the output for a gender and returns the number of race columns.
	Prepare(ctx context.Context, g model.Gender, seriesName string, seriesID, year int) (int, error)
	ClearLine(g model.Gender)
	SetPlace(g model.Gender, place string)
	SetName(g model.Gender, name string)
	SetRace(g model.Gender, raceNum int, value string)
	SetTotal(g model.Gender, total string)
	Render(g model.Gender) error
	SkipLine(g model.Gender) error
	Close() error
}

// Aborter is implemented by sinks that can drop buffered output. The engine
// calls Abort before Close when a series fails.
type Aborter interface {
	Abort()
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine renders series standings. It holds no per-series state; every
// RenderSeries call owns its accumulators.
type Engine struct {
	source Source
	logger logger.Logger
}

// NewEngine creates an engine reading from src.
func NewEngine(src Source, opts ...Option) *Engine {
	e := &Engine{source: src, logger: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Column header labels.
const (
	placeHeader    = "Place"
	divisionHeader = "Age Group"
	overallHeader  = "Overall"
)

// RenderSeries computes the standings of s for both genders and writes them
// to sink. The sink is always closed, after Abort when the series failed and
// the sink is an Aborter. Failures are returned as *SeriesError; a close
// failure is joined onto the render failure.
func (e *Engine) RenderSeries(ctx context.Context, s model.Series, sink Sink) (err error) {
	start := time.Now()
	defer func() {
		if a, ok := sink.(Aborter); ok && err != nil {
			a.Abort()
		}
		if cerr := sink.Close(); cerr != nil {
			closeErr := fmt.Errorf("%w: close: %w", ErrSinkIO, cerr)
			var se *SeriesError
			if errors.As(err, &se) {
				se.Err = errors.Join(se.Err, closeErr)
			} else {
				err = &SeriesError{SeriesID: s.ID, SeriesName: s.Name, Err: errors.Join(err, closeErr)}
			}
		}
		metrics.RecordRenderDuration(float64(time.Since(start).Milliseconds()))
	}()

	fail := func(g model.Gender, cause error) error {
		return &SeriesError{SeriesID: s.ID, SeriesName: s.Name, Gender: g, Err: cause}
	}

	policy, err := scoring.New(s.Scoring)
	if err != nil {
		return fail("", err)
	}
	if err := scoring.Validate(policy, s); err != nil {
		return fail("", err)
	}

	var divisions []model.Division
	if s.ByDivision {
		divisions, err = e.source.Divisions(ctx, s.ID)
		if err != nil {
			return fail("", fmt.Errorf("%w: divisions: %w", ErrSource, err))
		}
		if len(divisions) == 0 {
			return fail("", ErrMissingDivisionConfig)
		}
	}

	races, err := e.source.Races(ctx, s.ID)
	if err != nil {
		return fail("", fmt.Errorf("%w: races: %w", ErrSource, err))
	}
	if len(races) == 0 {
		return fail("", ErrNoRaces)
	}
	year := races[0].Year()

	for _, g := range model.Genders {
		if err := ctx.Err(); err != nil {
			return fail(g, err)
		}
		if err := e.renderGender(ctx, s, policy, g, year, races, divisions, sink); err != nil {
			return fail(g, err)
		}
	}
	return nil
}

func (e *Engine) renderGender(ctx context.Context, s model.Series, policy scoring.Policy, g model.Gender, year int,
	races []model.Race, divisions []model.Division, sink Sink) error {
	numRaces, err := sink.Prepare(ctx, g, s.Name, s.ID, year)
	if err != nil {
		return fmt.Errorf("%w: prepare: %w", ErrSinkIO, err)
	}
	if numRaces != len(races) {
		e.logger.Warn(ctx, "sink race count differs from scanned races",
			logger.String("series", s.Name), logger.Int("sink", numRaces), logger.Int("races", len(races)))
	}

	acc := NewAccumulator(s.ByDivision, divisions)
	for _, race := range races {
		entries, err := e.scoreRace(ctx, s, policy, g, race)
		if err != nil {
			return err
		}
		if err := acc.AddRace(entries); err != nil {
			return fmt.Errorf("race %d: %w", race.Number, err)
		}
	}

	numbers := make([]int, len(races))
	for i, r := range races {
		numbers[i] = r.Number
	}
	w := lineWriter{sink: sink, gender: g, raceNumbers: numbers}

	if s.ByDivision {
		if err := w.header(placeHeader, divisionHeader); err != nil {
			return err
		}
		for _, d := range divisions {
			if err := w.header("", d.Label()); err != nil {
				return err
			}
			ranked := Rank(acc.Members(d.Bounds), ByDivision, s.MaxRaces)
			if err := w.standings(ranked); err != nil {
				return err
			}
			if err := w.skip(); err != nil {
				return err
			}
		}
	}

	if err := w.header(placeHeader, overallHeader); err != nil {
		return err
	}
	ranked := Rank(acc.Runners(), ByGender, s.MaxRaces)
	if err := w.standings(ranked); err != nil {
		return err
	}
	metrics.RecordRunnersRanked(len(ranked))
	e.logger.Debug(ctx, "gender standings rendered",
		logger.String("series", s.Name), logger.String("gender", string(g)), logger.Int("runners", len(ranked)))
	return w.skip()
}

// scoreRace fetches one race's field, reconstructs placements from the
// configured order and scores every result.
func (e *Engine) scoreRace(ctx context.Context, s model.Series, policy scoring.Policy, g model.Gender, race model.Race) ([]Entry, error) {
	results, err := e.source.Results(ctx, race.ID, s.ID, g, policy.OrderBy())
	if err != nil {
		return nil, fmt.Errorf("%w: race %d results: %w", ErrSource, race.Number, err)
	}
	if s.Order == model.Descending {
		results = slices.Clone(results)
		slices.Reverse(results)
	}

	divPlace := make(map[model.Bounds]int)
	entries := make([]Entry, len(results))
	for i, r := range results {
		r.GenderPlace = i + 1
		divPlace[r.Division]++
		r.DivisionPlace = divPlace[r.Division]

		entry := Entry{
			Runner:   r.RunnerName,
			Division: r.Division,
			Gender:   policy.Gender(r, len(results), s),
		}
		entry.DivisionPoints, entry.HasDivision = policy.Division(r, s)
		entries[i] = entry
	}
	metrics.RecordResultsScored(len(results))
	return entries, nil
}

// lineWriter drives the Set*/Render protocol for one gender.
type lineWriter struct {
	sink        Sink
	gender      model.Gender
	raceNumbers []int
}

func (w lineWriter) header(place, name string) error {
	w.sink.ClearLine(w.gender)
	w.sink.SetPlace(w.gender, place)
	w.sink.SetName(w.gender, name)
	return w.render()
}

func (w lineWriter) standings(ranked []Standing) error {
	for _, st := range ranked {
		w.sink.ClearLine(w.gender)
		w.sink.SetPlace(w.gender, strconv.Itoa(st.Place))
		w.sink.SetName(w.gender, st.Name)
		for i, num := range w.raceNumbers {
			value := ""
			if i < len(st.Points) && st.Points[i].Valid {
				value = scoring.Format(st.Points[i].Value)
			}
			w.sink.SetRace(w.gender, num, value)
		}
		w.sink.SetTotal(w.gender, scoring.Format(st.Total))
		if err := w.render(); err != nil {
			return err
		}
	}
	return nil
}

func (w lineWriter) render() error {
	if err := w.sink.Render(w.gender); err != nil {
		return fmt.Errorf("%w: render: %w", ErrSinkIO, err)
	}
	return nil
}

func (w lineWriter) skip() error {
	if err := w.sink.SkipLine(w.gender); err != nil {
		return fmt.Errorf("%w: skip line: %w", ErrSinkIO, err)
	}
	return nil
}

// IsSeriesError reports whether err aborted a single series render, as opposed
// to a cancellation the caller should stop on.
func IsSeriesError(err error) bool {
	var se *SeriesError
	return errors.As(err, &se) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
