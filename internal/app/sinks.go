package service

import (
	"fmt"
	"io"

	"github.com/okian/gpstandings/internal/adapters/render"
	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/internal/domain/standings"
)

// SinkConfig describes the per-series outputs.
type SinkConfig struct {
	Dir       string
	Formats   []string
	ClubName  string
	NameWidth int
	// Console, when non-nil, also receives a table per gender.
	Console io.Writer
	// Open replaces file creation under Dir.
	Open render.OpenFunc
}

// FileSinks returns a factory that fans each series out to the configured
// formats.
func FileSinks(races render.RaceLister, cfg SinkConfig) (SinkFactory, error) {
	for _, f := range cfg.Formats {
		if !render.ValidFormat(f) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	}
	return func(model.Series) (standings.Sink, error) {
		m := render.NewMulti()
		for _, f := range cfg.Formats {
			switch f {
			case render.FormatText:
				m.Add(render.NewText(races, cfg.Dir,
					render.WithNameWidth(cfg.NameWidth),
					render.WithClubName(cfg.ClubName),
					render.WithTextOpener(cfg.Open)))
			case render.FormatExcel:
				m.Add(render.NewExcel(races, cfg.Dir, render.WithExcelOpener(cfg.Open)))
			}
		}
		if cfg.Console != nil {
			m.Add(render.NewConsole(races, cfg.Console))
		}
		return m, nil
	}, nil
}
