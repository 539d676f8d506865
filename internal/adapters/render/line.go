// Package render holds the standings sinks: a fan-out, fixed-width text
// files, Excel workbooks and a console table.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/gpstandings/internal/domain/model"
)

// RaceLister lists the active races of a series ordered by race number.
type RaceLister interface {
	Races(ctx context.Context, seriesID int) ([]model.Race, error)
}

// OpenFunc opens the named output file for writing.
type OpenFunc func(name string) (io.WriteCloser, error)

// DirOpener creates files under dir.
func DirOpener(dir string) OpenFunc {
	return func(name string) (io.WriteCloser, error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOpen, err)
		}
		return f, nil
	}
}

// line is the cell state between ClearLine and Render.
type line struct {
	place string
	name  string
	total string
	races map[int]string
}

func (l *line) clear() {
	l.place, l.name, l.total = "", "", ""
	clear(l.races)
}

func (l *line) setRace(num int, value string) {
	if l.races == nil {
		l.races = make(map[int]string)
	}
	l.races[num] = value
}

func raceNumbers(races []model.Race) []int {
	nums := make([]int, len(races))
	for i, r := range races {
		nums[i] = r.Number
	}
	return nums
}
