package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/pkg/metrics"
)

// Fixed-width column sizes.
const (
	DefaultNameWidth = 40
	placeWidth       = 5
	raceWidth        = 5
	totalWidth       = 10
	totalHeader      = "Total Pts."
	dateLayout       = "2006-01-02"
)

// TextOption configures a Text sink.
type TextOption func(*Text)

// WithNameWidth sets the width of the name column.
func WithNameWidth(w int) TextOption {
	return func(t *Text) {
		if w > 0 {
			t.nameWidth = w
		}
	}
}

// WithClubName sets the prefix of the title line.
func WithClubName(name string) TextOption {
	return func(t *Text) { t.club = name }
}

// WithTextOpener replaces the file opener, e.g. to capture output in tests.
func WithTextOpener(open OpenFunc) TextOption {
	return func(t *Text) {
		if open != nil {
			t.open = open
		}
	}
}

// Text writes one fixed-width table per gender to
// <year>-<series>-<Women|Men>.txt. Tables are buffered and written on Close.
type Text struct {
	races     RaceLister
	open      OpenFunc
	club      string
	nameWidth int

	out map[model.Gender]*textOutput
}

type textOutput struct {
	name  string
	w     bytes.Buffer
	races []int
	line  line
}

// NewText creates a text sink writing under dir.
func NewText(races RaceLister, dir string, opts ...TextOption) *Text {
	t := &Text{
		races:     races,
		open:      DirOpener(dir),
		nameWidth: DefaultNameWidth,
		out:       make(map[model.Gender]*textOutput),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TextFileName returns the file the sink writes for one gender.
func TextFileName(year int, seriesName string, g model.Gender) string {
	return fmt.Sprintf("%d-%s-%s.txt", year, seriesName, g.Label())
}

// Prepare starts the gender table with the title, race list and column
// header.
func (t *Text) Prepare(ctx context.Context, g model.Gender, seriesName string, seriesID, year int) (int, error) {
	races, err := t.races.Races(ctx, seriesID)
	if err != nil {
		return 0, fmt.Errorf("list races: %w", err)
	}
	if prev, ok := t.out[g]; ok {
		if err := t.write(prev); err != nil {
			return 0, err
		}
		delete(t.out, g)
	}
	o := &textOutput{name: TextFileName(year, seriesName, g), races: raceNumbers(races)}
	t.out[g] = o

	title := fmt.Sprintf("%s's %d %s standings", g.Label(), year, seriesName)
	if t.club != "" {
		title = t.club + " " + title
	}
	fmt.Fprintf(&o.w, "%s\n\n", title)
	for _, r := range races {
		fmt.Fprintf(&o.w, "\tRace %d: %s: %s\n", r.Number, r.Name, r.Date.Format(dateLayout))
	}
	o.w.WriteString("\n")

	o.line.clear()
	o.line.total = totalHeader
	for _, num := range o.races {
		o.line.setRace(num, strconv.Itoa(num))
	}
	if err := t.Render(g); err != nil {
		return 0, err
	}
	return len(races), nil
}

func (t *Text) ClearLine(g model.Gender) {
	if o, ok := t.out[g]; ok {
		o.line.clear()
	}
}

func (t *Text) SetPlace(g model.Gender, place string) {
	if o, ok := t.out[g]; ok {
		o.line.place = place
	}
}

func (t *Text) SetName(g model.Gender, name string) {
	if o, ok := t.out[g]; ok {
		o.line.name = name
	}
}

func (t *Text) SetRace(g model.Gender, raceNum int, value string) {
	if o, ok := t.out[g]; ok {
		o.line.setRace(raceNum, value)
	}
}

func (t *Text) SetTotal(g model.Gender, total string) {
	if o, ok := t.out[g]; ok {
		o.line.total = total
	}
}

// Render writes the current line.
func (t *Text) Render(g model.Gender) error {
	o, ok := t.out[g]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPrepared, g)
	}
	fmt.Fprintf(&o.w, "%-*s %-*s ", placeWidth, o.line.place, t.nameWidth, o.line.name)
	for _, num := range o.races {
		fmt.Fprintf(&o.w, "%-*s ", raceWidth, o.line.races[num])
	}
	_, err := fmt.Fprintf(&o.w, "%-*s\n", totalWidth, o.line.total)
	return err
}

// SkipLine writes a blank line.
func (t *Text) SkipLine(g model.Gender) error {
	o, ok := t.out[g]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPrepared, g)
	}
	_, err := o.w.WriteString("\n")
	return err
}

// Abort drops every buffered table so Close writes nothing.
func (t *Text) Abort() {
	clear(t.out)
}

// Close writes every buffered gender table to its file.
func (t *Text) Close() error {
	var errs []error
	for _, g := range model.Genders {
		o, ok := t.out[g]
		if !ok {
			continue
		}
		if err := t.write(o); err != nil {
			errs = append(errs, err)
		}
		delete(t.out, g)
	}
	return errors.Join(errs...)
}

func (t *Text) write(o *textOutput) error {
	f, err := t.open(o.name)
	if err != nil {
		return err
	}
	_, werr := f.Write(o.w.Bytes())
	if err := errors.Join(werr, f.Close()); err != nil {
		return err
	}
	metrics.RecordFileWritten("txt")
	return nil
}
