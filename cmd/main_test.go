package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/okian/gpstandings/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const testDataset = `
series:
  - {id: 1, name: grandprix, active: true, scoring: by-time, max_races: 2}
  - {id: 2, name: broken, active: true, scoring: by-magic}
races:
  - {id: 10, number: 1, name: Turkey Trot, date: 2013-11-28, active: true}
  - {id: 11, number: 2, name: Frosty 5K, date: 2013-12-14, active: true}
results:
  - {race_id: 10, series_id: 1, runner_name: Ava, gender: F, time: 1100}
  - {race_id: 10, series_id: 1, runner_name: Bea, gender: F, time: 1200}
  - {race_id: 11, series_id: 1, runner_name: Bea, gender: F, time: 1150}
  - {race_id: 10, series_id: 1, runner_name: Cal, gender: M, time: 1000}
  - {race_id: 10, series_id: 2, runner_name: Ava, gender: F, time: 1100}
`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderCommand(t *testing.T) {
	convey.Convey("Given a dataset and a config file", t, func() {
		convey.So(logger.Init(logger.WithOutput(io.Discard)), convey.ShouldBeNil)
		dir := t.TempDir()
		dataset := writeFile(t, dir, "dataset.yaml", testDataset)
		cfgPath := writeFile(t, dir, "config.yaml", "dataset_path: "+dataset+"\nformats: [txt, xlsx]\n")
		out := filepath.Join(dir, "out")
		var stdout bytes.Buffer
		rc := &runContext{ctx: context.Background(), stdout: &stdout, globals: globals{Config: cfgPath}}

		convey.Convey("When rendering every series with printing and metrics", func() {
			cmd := &renderCmd{Output: out, Print: true, Metrics: filepath.Join(dir, "gp.prom")}
			err := cmd.Run(rc)

			convey.Convey("Then the broken series fails the run", func() {
				convey.So(errors.Is(err, ErrSeriesFailed), convey.ShouldBeTrue)
			})

			convey.Convey("And the good series is written in every format", func() {
				for _, name := range []string{"2013-grandprix-Women.txt", "2013-grandprix-Men.txt", "2013-grandprix.xlsx"} {
					_, statErr := os.Stat(filepath.Join(out, name))
					convey.So(statErr, convey.ShouldBeNil)
				}
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Bea")
			})

			convey.Convey("And a metrics snapshot is written", func() {
				b, readErr := os.ReadFile(filepath.Join(dir, "gp.prom"))
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldContainSubstring, "gpstandings_render_series_failed_total")
			})
		})

		convey.Convey("When rendering only the good series", func() {
			err := (&renderCmd{Output: out, Series: []string{"grandprix"}}).Run(rc)

			convey.Convey("Then the run succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				b, readErr := os.ReadFile(filepath.Join(out, "2013-grandprix-Women.txt"))
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldContainSubstring, "Women's 2013 grandprix standings")
			})
		})

		convey.Convey("When the dataset is imported into sqlite and rendered from there", func() {
			dsn := "file:" + filepath.Join(dir, "gp.db")
			sqlCfg := writeFile(t, dir, "sqlite.yaml", "source: sqlite\ndatabase_dsn: \""+dsn+"\"\n")
			src := &runContext{ctx: context.Background(), stdout: &stdout, globals: globals{Config: sqlCfg}}

			convey.So((&importCmd{Dataset: dataset}).Run(src), convey.ShouldBeNil)
			err := (&renderCmd{Output: out, Series: []string{"grandprix"}}).Run(src)

			convey.Convey("Then the same standings are produced", func() {
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(out, "2013-grandprix-Women.txt"))
				convey.So(statErr, convey.ShouldBeNil)
			})
		})
	})
}

func TestCommandLine(t *testing.T) {
	convey.Convey("Given the command line parser", t, func() {
		var c struct {
			globals
			Render renderCmd `cmd:"" default:"withargs"`
			Import importCmd `cmd:""`
		}
		parser, err := kong.New(&c, kong.Exit(func(int) {}))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When no command is given", func() {
			kctx, err := parser.Parse([]string{"--series", "grandprix", "--series", "decathlon", "-o", "out"})

			convey.Convey("Then render is the default command", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(kctx.Command(), convey.ShouldEqual, "render")
				convey.So(c.Render.Series, convey.ShouldResemble, []string{"grandprix", "decathlon"})
			})
		})

		convey.Convey("When only a render flag is given", func() {
			kctx, err := parser.Parse([]string{"-o", "out"})

			convey.Convey("Then it still selects render", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(kctx.Command(), convey.ShouldEqual, "render")
				convey.So(filepath.Base(c.Render.Output), convey.ShouldEqual, "out")
			})
		})

		convey.Convey("When import is named", func() {
			kctx, err := parser.Parse([]string{"import", "main_test.go"})

			convey.Convey("Then import takes its dataset argument", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(kctx.Command(), convey.ShouldEqual, "import <dataset>")
				convey.So(filepath.Base(c.Import.Dataset), convey.ShouldEqual, "main_test.go")
			})
		})
	})
}
