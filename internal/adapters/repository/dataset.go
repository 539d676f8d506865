package repository

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Dataset is the on-disk form of series, divisions, races and results.
type Dataset struct {
	Series    []SeriesRecord   `yaml:"series"`
	Divisions []DivisionRecord `yaml:"divisions"`
	Races     []RaceRecord     `yaml:"races"`
	Results   []ResultRecord   `yaml:"results"`
}

type SeriesRecord struct {
	ID                int    `yaml:"id"`
	Name              string `yaml:"name"`
	Active            bool   `yaml:"active"`
	Scoring           string `yaml:"scoring"`
	Order             string `yaml:"order"`
	ByDivision        bool   `yaml:"by_division"`
	AverageTie        bool   `yaml:"average_tie"`
	Multiplier        string `yaml:"multiplier"`
	MaxGenderPoints   *int   `yaml:"max_gender_points"`
	MaxDivisionPoints *int   `yaml:"max_division_points"`
	MaxRaces          int    `yaml:"max_races"`
}

type DivisionRecord struct {
	SeriesID int  `yaml:"series_id"`
	Low      int  `yaml:"low"`
	High     int  `yaml:"high"`
	Active   bool `yaml:"active"`
}

type RaceRecord struct {
	ID     int    `yaml:"id"`
	Number int    `yaml:"number"`
	Name   string `yaml:"name"`
	Date   string `yaml:"date"`
	Active bool   `yaml:"active"`
}

type ResultRecord struct {
	RaceID     int     `yaml:"race_id"`
	SeriesID   int     `yaml:"series_id"`
	RunnerID   int     `yaml:"runner_id"`
	RunnerName string  `yaml:"runner_name"`
	Gender     string  `yaml:"gender"`
	DivLow     int     `yaml:"div_low"`
	DivHigh    int     `yaml:"div_high"`
	Time       float64 `yaml:"time"`
	AgTime     float64 `yaml:"agtime"`
	AgPercent  float64 `yaml:"agpercent"`
}

// DecodeDataset reads a YAML dataset.
func DecodeDataset(r io.Reader) (Dataset, error) {
	var d Dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && err != io.EOF {
		return Dataset{}, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	return d, nil
}

// ReadDataset reads a YAML dataset from path.
func ReadDataset(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()
	return DecodeDataset(f)
}

// toSeries converts a record, defaulting the multiplier to 1 and the order to
// ascending.
func (r SeriesRecord) toSeries() (model.Series, error) {
	mult := decimal.NewFromInt(1)
	if s := strings.TrimSpace(r.Multiplier); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return model.Series{}, fmt.Errorf("%w: series %q multiplier: %w", ErrInvalidDataset, r.Name, err)
		}
		mult = d
	}
	order := model.Ascending
	switch strings.ToLower(strings.TrimSpace(r.Order)) {
	case "", string(model.Ascending), "lowtohigh":
	case string(model.Descending), "hightolow":
		order = model.Descending
	default:
		return model.Series{}, fmt.Errorf("%w: series %q order %q", ErrInvalidDataset, r.Name, r.Order)
	}
	return model.Series{
		ID:                r.ID,
		Name:              r.Name,
		Active:            r.Active,
		Scoring:           r.Scoring,
		Order:             order,
		ByDivision:        r.ByDivision,
		AverageTie:        r.AverageTie,
		Multiplier:        mult,
		MaxGenderPoints:   r.MaxGenderPoints,
		MaxDivisionPoints: r.MaxDivisionPoints,
		MaxRaces:          r.MaxRaces,
	}, nil
}

func (r RaceRecord) toRace() (model.Race, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return model.Race{}, fmt.Errorf("%w: race %d date: %w", ErrInvalidDataset, r.ID, err)
	}
	return model.Race{ID: r.ID, Number: r.Number, Name: r.Name, Date: date, Active: r.Active}, nil
}

func (r ResultRecord) toResult() (model.RaceResult, error) {
	g := model.Gender(strings.ToUpper(strings.TrimSpace(r.Gender)))
	if !g.Valid() {
		return model.RaceResult{}, fmt.Errorf("%w: result of %q in race %d has gender %q", ErrInvalidDataset, r.RunnerName, r.RaceID, r.Gender)
	}
	return model.RaceResult{
		RaceID:     r.RaceID,
		SeriesID:   r.SeriesID,
		RunnerID:   r.RunnerID,
		RunnerName: r.RunnerName,
		Gender:     g,
		Division:   model.Bounds{Low: r.DivLow, High: r.DivHigh},
		Time:       r.Time,
		AgTime:     r.AgTime,
		AgPercent:  r.AgPercent,
	}, nil
}
