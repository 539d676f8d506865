package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gpstandings/internal/adapters/render"
	"github.com/okian/gpstandings/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Source, convey.ShouldEqual, config.SourceYAML)
			convey.So(cfg.Formats, convey.ShouldResemble, []string{render.FormatText})
			convey.So(cfg.NameWidth, convey.ShouldEqual, 40)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, ".")
				convey.So(cfg.Series, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GPSTANDINGS_OUTPUT_DIR", "/tmp/out")
			_ = os.Setenv("GPSTANDINGS_FORMATS", "txt, XLSX")
			_ = os.Setenv("GPSTANDINGS_NAME_WIDTH", "30")
			_ = os.Setenv("GPSTANDINGS_SERIES", "grandprix,decathlon")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/tmp/out")
				convey.So(cfg.Formats, convey.ShouldResemble, []string{"txt", "xlsx"})
				convey.So(cfg.NameWidth, convey.ShouldEqual, 30)
				convey.So(cfg.Series, convey.ShouldResemble, []string{"grandprix", "decathlon"})
			})
		})

		convey.Convey("When loading config with a YAML file and env vars", func() {
			path := writeConfig(t, `
source: sqlite
database_dsn: "file:gp.db"
formats: [xlsx]
club_name: FSRC
name_width: 25
`)
			_ = os.Setenv("GPSTANDINGS_CONFIG", path)
			_ = os.Setenv("GPSTANDINGS_NAME_WIDTH", "35")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Source, convey.ShouldEqual, config.SourceSQLite)
				convey.So(cfg.DatabaseDSN, convey.ShouldEqual, "file:gp.db")
				convey.So(cfg.Formats, convey.ShouldResemble, []string{"xlsx"})
				convey.So(cfg.ClubName, convey.ShouldEqual, "FSRC")
				convey.So(cfg.NameWidth, convey.ShouldEqual, 35)
			})
		})

		convey.Convey("When WithFile names the file", func() {
			path := writeConfig(t, "output_dir: standings\n")
			_ = os.Setenv("GPSTANDINGS_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx, config.WithFile(path))

			convey.Convey("Then it wins over GPSTANDINGS_CONFIG", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "standings")
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("GPSTANDINGS_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML", func() {
			_ = os.Setenv("GPSTANDINGS_CONFIG", writeConfig(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid values", func() {
			cases := map[string]string{
				"GPSTANDINGS_SOURCE":     "postgres",
				"GPSTANDINGS_FORMATS":    "pdf",
				"GPSTANDINGS_NAME_WIDTH": "0",
			}
			for key, val := range cases {
				convey.Convey("With "+key+"="+val, func() {
					_ = os.Setenv(key, val)

					cfg, err := config.Load(ctx)

					convey.Convey("Then it should return a validation error", func() {
						convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
						convey.So(cfg, convey.ShouldBeNil)
					})
				})
			}
		})

		convey.Convey("When loading config with a non-numeric width", func() {
			_ = os.Setenv("GPSTANDINGS_NAME_WIDTH", "wide")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"GPSTANDINGS_CONFIG",
		"GPSTANDINGS_OUTPUT_DIR",
		"GPSTANDINGS_FORMATS",
		"GPSTANDINGS_NAME_WIDTH",
		"GPSTANDINGS_SERIES",
		"GPSTANDINGS_SOURCE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "gpstandings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
