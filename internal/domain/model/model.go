// Package model contains the race, series and result types passed between layers.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Gender is the top-level standings bucket.
type Gender string

const (
	Female Gender = "F"
	Male   Gender = "M"
)

// Genders lists the buckets in render order.
var Genders = []Gender{Female, Male}

// Valid reports whether g is one of the known buckets.
func (g Gender) Valid() bool { return g == Female || g == Male }

// Label returns the word used in standings headers and file names.
func (g Gender) Label() string {
	switch g {
	case Female:
		return "Women"
	case Male:
		return "Men"
	default:
		return string(g)
	}
}

// Direction describes which end of the order column is better.
type Direction string

const (
	// Ascending means lower values rank first (e.g. finish time).
	Ascending Direction = "ascending"
	// Descending means higher values rank first (e.g. age-graded percent).
	Descending Direction = "descending"
)

// Column names the result field results are ordered by.
type Column string

const (
	ColumnTime      Column = "time"
	ColumnAgTime    Column = "agtime"
	ColumnAgPercent Column = "agpercent"
)

// Open-ended division sentinels.
const (
	DivisionUnder = 0
	DivisionOver  = 99
)

// Bounds is an inclusive age band.
type Bounds struct {
	Low  int
	High int
}

// Label renders the band the way standings headers show it.
func (b Bounds) Label() string {
	switch {
	case b.Low == DivisionUnder:
		return fmt.Sprintf("%d & Under", b.High)
	case b.High == DivisionOver:
		return fmt.Sprintf("%d & Over", b.Low)
	default:
		return fmt.Sprintf("%d to %d", b.Low, b.High)
	}
}

func (b Bounds) String() string { return fmt.Sprintf("(%d,%d)", b.Low, b.High) }

// Division is a series-scoped age band.
type Division struct {
	SeriesID int
	Bounds
	Active bool
}

// Race is one event of a series.
type Race struct {
	ID     int
	Number int
	Name   string
	Date   time.Time
	Active bool
}

// Year is the calendar year the race was run in.
func (r Race) Year() int { return r.Date.Year() }

// Series holds a named competition and its scoring configuration.
type Series struct {
	ID     int
	Name   string
	Active bool

	// Scoring is the policy token, e.g. "by-time".
	Scoring string
	Order   Direction

	ByDivision bool
	// AverageTie is accepted for compatibility; placements are never averaged.
	AverageTie bool

	Multiplier decimal.Decimal
	// MaxGenderPoints nil means the ceiling is the field size of each race.
	MaxGenderPoints   *int
	MaxDivisionPoints *int
	// MaxRaces caps how many of a runner's best results count. Zero counts all.
	MaxRaces int
}

// RaceResult is one runner's result in one race of one series.
type RaceResult struct {
	RaceID     int
	SeriesID   int
	RunnerID   int
	RunnerName string
	Gender     Gender
	Division   Bounds

	GenderPlace   int
	DivisionPlace int

	// Time and AgTime are in seconds.
	Time      float64
	AgTime    float64
	AgPercent float64
}

// Value returns the field named by col.
func (r RaceResult) Value(col Column) float64 {
	switch col {
	case ColumnAgTime:
		return r.AgTime
	case ColumnAgPercent:
		return r.AgPercent
	default:
		return r.Time
	}
}
