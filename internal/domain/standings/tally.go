package standings

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// Standing is one ranked line of a grouping.
type Standing struct {
	Place  int
	Name   string
	Points []Points
	Total  decimal.Decimal
}

// Total sums the best maxRaces valid cells. Empty cells are dropped before
// selection. maxRaces <= 0 counts every valid cell.
func Total(cells []Points, maxRaces int) decimal.Decimal {
	values := make([]decimal.Decimal, 0, len(cells))
	for _, c := range cells {
		if c.Valid {
			values = append(values, c.Value)
		}
	}
	slices.SortFunc(values, func(a, b decimal.Decimal) int { return b.Cmp(a) })
	if maxRaces > 0 && maxRaces < len(values) {
		values = values[:maxRaces]
	}
	return decimal.Sum(decimal.Zero, values...)
}

// Rank totals each runner's cells, orders by total descending with ties broken
// by name, and numbers places 1..N with no shared places. Runners with no
// valid cell are left out.
func Rank(runners []*Runner, cells func(*Runner) []Points, maxRaces int) []Standing {
	out := make([]Standing, 0, len(runners))
	for _, r := range runners {
		c := cells(r)
		if !slices.ContainsFunc(c, func(p Points) bool { return p.Valid }) {
			continue
		}
		out = append(out, Standing{Name: r.Name, Points: c, Total: Total(c, maxRaces)})
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for i := range out {
		out[i].Place = i + 1
	}
	return out
}

// ByGender selects the gender cells of a runner.
func ByGender(r *Runner) []Points { return r.ByGender }

// ByDivision selects the division cells of a runner.
func ByDivision(r *Runner) []Points { return r.ByDivision }
