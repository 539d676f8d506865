package standings

import (
	"fmt"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Points is one race cell of a runner's series. Valid is false for a race the
// runner did not run, which is distinct from a scored zero.
type Points struct {
	Value decimal.Decimal
	Valid bool
}

// Scored returns a valid cell holding d.
func Scored(d decimal.Decimal) Points { return Points{Value: d, Valid: true} }

// Entry is one scored result handed to the accumulator.
type Entry struct {
	Runner   string
	Division model.Bounds
	Gender   decimal.Decimal
	// DivisionPoints is only meaningful when HasDivision is set.
	DivisionPoints decimal.Decimal
	HasDivision    bool
}

// Runner is the per-series record of one runner.
type Runner struct {
	Name     string
	Division model.Bounds
	// ByGender always has one cell per race processed.
	ByGender []Points
	// ByDivision mirrors ByGender when divisions are tracked, else nil.
	ByDivision []Points
}

// Accumulator collects race-aligned point cells for every runner seen in a
// series scan. It belongs to a single render pass.
type Accumulator struct {
	byDivision bool
	configured map[model.Bounds]bool
	members    map[model.Bounds][]*Runner

	runners map[string]*Runner
	order   []*Runner
	races   int
}

// NewAccumulator creates an empty accumulator. divisions is ignored unless
// byDivision is set.
func NewAccumulator(byDivision bool, divisions []model.Division) *Accumulator {
	a := &Accumulator{
		byDivision: byDivision,
		runners:    make(map[string]*Runner),
	}
	if byDivision {
		a.configured = make(map[model.Bounds]bool, len(divisions))
		a.members = make(map[model.Bounds][]*Runner, len(divisions))
		for _, d := range divisions {
			a.configured[d.Bounds] = true
		}
	}
	return a
}

// Races returns how many races have been added.
func (a *Accumulator) Races() int { return a.races }

// Runner returns the record for name.
func (a *Accumulator) Runner(name string) (*Runner, bool) {
	r, ok := a.runners[name]
	return r, ok
}

// Runners returns every tracked runner in order of first sighting.
func (a *Accumulator) Runners() []*Runner { return a.order }

// Members returns the runners registered in division b in order of first sighting.
func (a *Accumulator) Members(b model.Bounds) []*Runner { return a.members[b] }

// AddRace records one race. Every tracked runner gains exactly one cell; new
// runners are back-filled with empty cells for earlier races. The entries are
// checked before anything is recorded, so a failed call leaves the
// accumulator unchanged.
func (a *Accumulator) AddRace(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Runner]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateResult, e.Runner)
		}
		seen[e.Runner] = struct{}{}
		if !a.byDivision {
			continue
		}
		if r, ok := a.runners[e.Runner]; ok {
			if r.Division != e.Division {
				return fmt.Errorf("%w: %q first seen in %s, now in %s", ErrDivisionConflict, e.Runner, r.Division, e.Division)
			}
		} else if !a.configured[e.Division] {
			return fmt.Errorf("%w: %q has bounds %s which match no configured division", ErrDivisionConflict, e.Runner, e.Division)
		}
	}

	for _, e := range entries {
		r := a.runners[e.Runner]
		if r == nil {
			r = a.track(e)
		}
		r.ByGender = append(r.ByGender, Scored(e.Gender))
		if a.byDivision {
			cell := Points{}
			if e.HasDivision {
				cell = Scored(e.DivisionPoints)
			}
			r.ByDivision = append(r.ByDivision, cell)
		}
	}
	for _, r := range a.order {
		if _, ran := seen[r.Name]; !ran {
			r.ByGender = append(r.ByGender, Points{})
			if a.byDivision {
				r.ByDivision = append(r.ByDivision, Points{})
			}
		}
	}
	a.races++
	return nil
}

func (a *Accumulator) track(e Entry) *Runner {
	r := &Runner{
		Name:     e.Runner,
		Division: e.Division,
		ByGender: make([]Points, a.races, a.races+1),
	}
	if a.byDivision {
		r.ByDivision = make([]Points, a.races, a.races+1)
		a.members[e.Division] = append(a.members[e.Division], r)
	}
	a.runners[e.Runner] = r
	a.order = append(a.order, r)
	return r
}
