package render

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/pkg/metrics"
	excelize "github.com/xuri/excelize/v2"
)

// ExcelOption configures an Excel sink.
type ExcelOption func(*Excel)

// WithExcelOpener replaces the file opener.
func WithExcelOpener(open OpenFunc) ExcelOption {
	return func(e *Excel) {
		if open != nil {
			e.open = open
		}
	}
}

// Excel writes one workbook per series, <year>-<series>.xlsx, with a sheet
// per gender. The workbook is written on Close.
type Excel struct {
	races RaceLister
	open  OpenFunc

	file   *excelize.File
	name   string
	sheets map[model.Gender]*excelSheet
}

type excelSheet struct {
	name  string
	row   int
	races []int
	line  line
}

// NewExcel creates an Excel sink writing under dir.
func NewExcel(races RaceLister, dir string, opts ...ExcelOption) *Excel {
	e := &Excel{races: races, open: DirOpener(dir)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExcelFileName returns the workbook name for a series.
func ExcelFileName(year int, seriesName string) string {
	return fmt.Sprintf("%d-%s.xlsx", year, seriesName)
}

// Prepare adds the gender sheet, creating the workbook on first use.
func (e *Excel) Prepare(ctx context.Context, g model.Gender, seriesName string, seriesID, year int) (int, error) {
	races, err := e.races.Races(ctx, seriesID)
	if err != nil {
		return 0, fmt.Errorf("list races: %w", err)
	}
	if e.file == nil {
		e.file = excelize.NewFile()
		e.name = ExcelFileName(year, seriesName)
		e.sheets = make(map[model.Gender]*excelSheet)
		if err := e.file.SetSheetName(e.file.GetSheetName(0), g.Label()); err != nil {
			return 0, err
		}
	} else if _, err := e.file.NewSheet(g.Label()); err != nil {
		return 0, err
	}
	sh := &excelSheet{name: g.Label(), races: raceNumbers(races)}
	e.sheets[g] = sh

	if err := e.setRow(sh, []any{fmt.Sprintf("%s's %d %s standings", g.Label(), year, seriesName)}); err != nil {
		return 0, err
	}
	for _, r := range races {
		if err := e.setRow(sh, []any{"Race " + strconv.Itoa(r.Number), r.Name, r.Date.Format(dateLayout)}); err != nil {
			return 0, err
		}
	}
	sh.row++

	header := []any{"Place", "Name"}
	for _, num := range sh.races {
		header = append(header, num)
	}
	header = append(header, totalHeader)
	if err := e.setRow(sh, header); err != nil {
		return 0, err
	}
	if err := e.file.SetColWidth(sh.name, "B", "B", float64(DefaultNameWidth)/2); err != nil {
		return 0, err
	}
	return len(races), nil
}

func (e *Excel) sheet(g model.Gender) (*excelSheet, bool) {
	sh, ok := e.sheets[g]
	return sh, ok
}

func (e *Excel) ClearLine(g model.Gender) {
	if sh, ok := e.sheet(g); ok {
		sh.line.clear()
	}
}

func (e *Excel) SetPlace(g model.Gender, place string) {
	if sh, ok := e.sheet(g); ok {
		sh.line.place = place
	}
}

func (e *Excel) SetName(g model.Gender, name string) {
	if sh, ok := e.sheet(g); ok {
		sh.line.name = name
	}
}

func (e *Excel) SetRace(g model.Gender, raceNum int, value string) {
	if sh, ok := e.sheet(g); ok {
		sh.line.setRace(raceNum, value)
	}
}

func (e *Excel) SetTotal(g model.Gender, total string) {
	if sh, ok := e.sheet(g); ok {
		sh.line.total = total
	}
}

// Render writes the current line as the next row. Numeric cells are stored as
// numbers.
func (e *Excel) Render(g model.Gender) error {
	sh, ok := e.sheet(g)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPrepared, g)
	}
	cells := []any{cellValue(sh.line.place), sh.line.name}
	for _, num := range sh.races {
		cells = append(cells, cellValue(sh.line.races[num]))
	}
	cells = append(cells, cellValue(sh.line.total))
	return e.setRow(sh, cells)
}

// SkipLine leaves an empty row.
func (e *Excel) SkipLine(g model.Gender) error {
	sh, ok := e.sheet(g)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPrepared, g)
	}
	sh.row++
	return nil
}

// Abort drops the workbook so Close writes nothing.
func (e *Excel) Abort() {
	if e.file != nil {
		_ = e.file.Close()
	}
	e.file, e.sheets, e.name = nil, nil, ""
}

// Close writes the workbook and resets the sink for the next series.
func (e *Excel) Close() error {
	if e.file == nil {
		return nil
	}
	defer func() {
		e.file, e.sheets, e.name = nil, nil, ""
	}()

	w, err := e.open(e.name)
	if err != nil {
		return errors.Join(err, e.file.Close())
	}
	_, werr := e.file.WriteTo(w)
	cerr := w.Close()
	ferr := e.file.Close()
	if err := errors.Join(werr, cerr, ferr); err != nil {
		return err
	}
	metrics.RecordFileWritten("xlsx")
	return nil
}

func (e *Excel) setRow(sh *excelSheet, cells []any) error {
	sh.row++
	for i, v := range cells {
		if v == "" {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(i+1, sh.row)
		if err != nil {
			return err
		}
		if err := e.file.SetCellValue(sh.name, ref, v); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}
