package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/okian/gpstandings/internal/adapters/repository"
	service "github.com/okian/gpstandings/internal/app"
	"github.com/okian/gpstandings/internal/config"
	"github.com/okian/gpstandings/pkg/logger"
	"github.com/okian/gpstandings/pkg/metrics"
)

// ErrSeriesFailed is returned when at least one series could not be rendered.
var ErrSeriesFailed = errors.New("series render failed")

type globals struct {
	Config string `help:"YAML config file. Overrides GPSTANDINGS_CONFIG." type:"path" short:"c"`
}

var cli struct {
	globals

	Render renderCmd `cmd:"" default:"withargs" help:"Render the standings of every active series."`
	Import importCmd `cmd:"" help:"Import a YAML dataset into the sqlite database."`
}

// runContext is bound into every command's Run.
type runContext struct {
	ctx    context.Context
	stdout io.Writer
	globals
}

type renderCmd struct {
	Output  string   `help:"Directory for standings files." type:"path" short:"o"`
	Print   bool     `help:"Also print each standings table to stdout."`
	Series  []string `help:"Only render the named series."`
	Metrics string   `help:"Write a Prometheus textfile snapshot to this path after the run." type:"path"`
}

func (c *renderCmd) Run(rc *runContext) error {
	ctx := rc.ctx
	cfg, err := loadConfig(ctx, rc.Config)
	if err != nil {
		return err
	}
	if c.Output != "" {
		cfg.OutputDir = c.Output
	}
	if len(c.Series) > 0 {
		cfg.Series = c.Series
	}
	if c.Metrics != "" {
		cfg.MetricsPath = c.Metrics
	}
	log := logger.Named("gpstandings")

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn(ctx, "close store", logger.Error(err))
		}
	}()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	sinkCfg := service.SinkConfig{
		Dir:       cfg.OutputDir,
		Formats:   cfg.Formats,
		ClubName:  cfg.ClubName,
		NameWidth: cfg.NameWidth,
	}
	if c.Print {
		sinkCfg.Console = rc.stdout
	}
	sinks, err := service.FileSinks(store, sinkCfg)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithSource(store),
		service.WithSinkFactory(sinks),
		service.WithSeriesFilter(cfg.Series...),
	)
	report, runErr := svc.Run(ctx)
	log.Info(ctx, "run finished",
		logger.Int("rendered", len(report.Rendered)), logger.Int("failed", len(report.Failed)))

	if cfg.MetricsPath != "" {
		if err := metrics.WriteTextfile(cfg.MetricsPath); err != nil {
			log.Error(ctx, "write metrics textfile", logger.String("path", cfg.MetricsPath), logger.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrSeriesFailed, len(report.Failed), len(report.Failed)+len(report.Rendered))
	}
	return nil
}

type importCmd struct {
	Dataset string `arg:"" help:"YAML dataset to import." type:"existingfile"`
}

func (c *importCmd) Run(rc *runContext) error {
	ctx := rc.ctx
	cfg, err := loadConfig(ctx, rc.Config)
	if err != nil {
		return err
	}
	d, err := repository.ReadDataset(c.Dataset)
	if err != nil {
		return err
	}
	db, err := repository.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Import(ctx, d); err != nil {
		return err
	}
	logger.Named("gpstandings").Info(ctx, "dataset imported",
		logger.String("dataset", c.Dataset), logger.Int("series", len(d.Series)),
		logger.Int("races", len(d.Races)), logger.Int("results", len(d.Results)))
	return nil
}

// loadConfig loads configuration and applies its logging settings.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	cfg, err := config.Load(ctx, config.WithFile(path))
	if err != nil {
		return nil, err
	}
	if cfg.LogJSON {
		if err := logger.Init(logger.WithJSON(true)); err != nil {
			return nil, err
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Source {
	case config.SourceSQLite:
		return repository.Open(ctx, cfg.DatabaseDSN)
	default:
		return repository.LoadMemory(cfg.DatasetPath)
	}
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name("gpstandings"),
		kong.Description("Render running-club grand prix standings."),
		kong.UsageOnError(),
	)
	err := kctx.Run(&runContext{ctx: ctx, stdout: os.Stdout, globals: cli.globals})
	kctx.FatalIfErrorf(err)
}
