// Package service renders the standings of every active series in turn.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/internal/domain/standings"
	"github.com/okian/gpstandings/pkg/logger"
	"github.com/okian/gpstandings/pkg/metrics"
)

// Source lists the series to render and supplies their input.
type Source interface {
	standings.Source
	ActiveSeries(ctx context.Context) ([]model.Series, error)
}

// SinkFactory builds a fresh sink for one series.
type SinkFactory func(s model.Series) (standings.Sink, error)

// Failure is one series whose render was aborted.
type Failure struct {
	Series string
	Reason string
	Err    error
}

// Report summarizes a Run.
type Report struct {
	Rendered []string
	Failed   []Failure
}

// Service drives the engine over the active series.
type Service struct {
	source  Source
	sinks   SinkFactory
	filter  []string
	logger  logger.Logger
	engine  *standings.Engine
	nowFunc func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets the series and results source.
func WithSource(src Source) Option {
	return func(s *Service) { s.source = src }
}

// WithSinkFactory sets how per-series sinks are built.
func WithSinkFactory(f SinkFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.sinks = f
		}
	}
}

// WithSeriesFilter restricts Run to the named series.
func WithSeriesFilter(names ...string) Option {
	return func(s *Service) { s.filter = names }
}

// New constructs a Service. Without a sink factory the standings are
// computed and discarded.
func New(opts ...Option) *Service {
	s := &Service{
		logger:  logger.Nop(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source != nil {
		if s.sinks == nil {
			s.sinks = func(model.Series) (standings.Sink, error) { return discard{races: s.source}, nil }
		}
		s.engine = standings.NewEngine(s.source, standings.WithLogger(s.logger.Named("engine")))
	}
	return s
}

// Run renders every selected active series. A series-fatal error is logged
// and counted and the run moves on; the returned error is non-nil only when
// the series list cannot be loaded or ctx ends.
func (s *Service) Run(ctx context.Context) (Report, error) {
	var report Report
	if s.source == nil {
		return report, ErrNoSource
	}
	all, err := s.source.ActiveSeries(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrLoadSeries, err)
	}
	series := s.selected(ctx, all)
	s.logger.Info(ctx, "rendering standings", logger.Int("series", len(series)))

	for _, ser := range series {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		start := s.nowFunc()
		err := s.renderOne(ctx, ser)
		if err == nil {
			metrics.RecordSeriesRendered()
			report.Rendered = append(report.Rendered, ser.Name)
			s.logger.Info(ctx, "series rendered",
				logger.String("series", ser.Name), logger.Duration("took", s.nowFunc().Sub(start)))
			continue
		}
		if !standings.IsSeriesError(err) {
			return report, err
		}
		reason := Reason(err)
		metrics.RecordSeriesFailed(reason)
		report.Failed = append(report.Failed, Failure{Series: ser.Name, Reason: reason, Err: err})
		s.logger.Error(ctx, "series render aborted",
			logger.String("series", ser.Name), logger.String("reason", reason), logger.Error(err))
	}
	return report, nil
}

func (s *Service) renderOne(ctx context.Context, ser model.Series) error {
	sink, err := s.sinks(ser)
	if err != nil {
		return &standings.SeriesError{SeriesID: ser.ID, SeriesName: ser.Name, Err: fmt.Errorf("%w: %w", standings.ErrSinkIO, err)}
	}
	return s.engine.RenderSeries(ctx, ser, sink)
}

func (s *Service) selected(ctx context.Context, all []model.Series) []model.Series {
	if len(s.filter) == 0 {
		return all
	}
	var out []model.Series
	for _, ser := range all {
		if slices.Contains(s.filter, ser.Name) {
			out = append(out, ser)
		}
	}
	for _, name := range s.filter {
		if !slices.ContainsFunc(all, func(ser model.Series) bool { return ser.Name == name }) {
			s.logger.Warn(ctx, "requested series is not active", logger.String("series", name))
		}
	}
	return out
}

// Reason maps a series failure to its metrics label.
func Reason(err error) string {
	switch {
	case errors.Is(err, standings.ErrUnsupportedPolicy):
		return metrics.ReasonUnsupportedPolicy
	case errors.Is(err, standings.ErrMissingDivisionConfig):
		return metrics.ReasonMissingDivisions
	case errors.Is(err, standings.ErrInvalidConfig):
		return metrics.ReasonInvalidConfig
	case errors.Is(err, standings.ErrDivisionConflict):
		return metrics.ReasonDivisionConflict
	case errors.Is(err, standings.ErrDuplicateResult):
		return metrics.ReasonDuplicateResult
	case errors.Is(err, standings.ErrNoRaces):
		return metrics.ReasonNoRaces
	case errors.Is(err, standings.ErrSinkIO):
		return metrics.ReasonSinkIO
	case errors.Is(err, standings.ErrSource):
		return metrics.ReasonSource
	default:
		return metrics.ReasonOther
	}
}

// discard counts races and drops every line.
type discard struct {
	races Source
}

func (d discard) Prepare(ctx context.Context, _ model.Gender, _ string, seriesID, _ int) (int, error) {
	races, err := d.races.Races(ctx, seriesID)
	return len(races), err
}

func (discard) ClearLine(model.Gender)            {}
func (discard) SetPlace(model.Gender, string)     {}
func (discard) SetName(model.Gender, string)      {}
func (discard) SetRace(model.Gender, int, string) {}
func (discard) SetTotal(model.Gender, string)     {}
func (discard) Render(model.Gender) error         { return nil }
func (discard) SkipLine(model.Gender) error       { return nil }
func (discard) Close() error                      { return nil }
