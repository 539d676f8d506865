package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/okian/gpstandings/internal/domain/model"
)

// Console prints the standings of each gender as a table when closed.
type Console struct {
	races RaceLister
	out   io.Writer

	tables map[model.Gender]*consoleTable
}

type consoleTable struct {
	tw    table.Writer
	races []int
	line  line
}

// NewConsole creates a console sink. A nil writer means stdout.
func NewConsole(races RaceLister, out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{races: races, out: out, tables: make(map[model.Gender]*consoleTable)}
}

func (c *Console) Prepare(ctx context.Context, g model.Gender, seriesName string, seriesID, year int) (int, error) {
	races, err := c.races.Races(ctx, seriesID)
	if err != nil {
		return 0, fmt.Errorf("list races: %w", err)
	}
	ct := &consoleTable{tw: table.NewWriter(), races: raceNumbers(races)}
	ct.tw.SetOutputMirror(c.out)
	ct.tw.SetTitle(fmt.Sprintf("%s's %d %s standings", g.Label(), year, seriesName))
	header := table.Row{"Place", "Name"}
	for _, num := range ct.races {
		header = append(header, strconv.Itoa(num))
	}
	ct.tw.AppendHeader(append(header, totalHeader))
	ct.tw.SetStyle(table.StyleLight)
	c.tables[g] = ct
	return len(races), nil
}

func (c *Console) ClearLine(g model.Gender) {
	if ct, ok := c.tables[g]; ok {
		ct.line.clear()
	}
}

func (c *Console) SetPlace(g model.Gender, place string) {
	if ct, ok := c.tables[g]; ok {
		ct.line.place = place
	}
}

func (c *Console) SetName(g model.Gender, name string) {
	if ct, ok := c.tables[g]; ok {
		ct.line.name = name
	}
}

func (c *Console) SetRace(g model.Gender, raceNum int, value string) {
	if ct, ok := c.tables[g]; ok {
		ct.line.setRace(raceNum, value)
	}
}

func (c *Console) SetTotal(g model.Gender, total string) {
	if ct, ok := c.tables[g]; ok {
		ct.line.total = total
	}
}

func (c *Console) Render(g model.Gender) error {
	ct, ok := c.tables[g]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPrepared, g)
	}
	row := table.Row{ct.line.place, ct.line.name}
	for _, num := range ct.races {
		row = append(row, ct.line.races[num])
	}
	ct.tw.AppendRow(append(row, ct.line.total))
	return nil
}

// SkipLine starts a new section of the table.
func (c *Console) SkipLine(g model.Gender) error {
	ct, ok := c.tables[g]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPrepared, g)
	}
	ct.tw.AppendSeparator()
	return nil
}

// Abort drops every prepared table so Close prints nothing.
func (c *Console) Abort() {
	clear(c.tables)
}

// Close prints every prepared table, women first.
func (c *Console) Close() error {
	for _, g := range model.Genders {
		ct, ok := c.tables[g]
		if !ok {
			continue
		}
		ct.tw.Render()
		if _, err := fmt.Fprintln(c.out); err != nil {
			return err
		}
		delete(c.tables, g)
	}
	return nil
}
