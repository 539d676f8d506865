// Package scoring maps a single race result to standings points.
package scoring

import (
	"fmt"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Recognized policy tokens.
const (
	ByTime             = "by-time"
	ByAgeGradedTime    = "by-age-graded-time"
	ByAgeGradedPercent = "by-age-graded-percent"
)

// Policy computes points for one result. Implementations are stateless.
type Policy interface {
	// Name returns the policy token.
	Name() string
	// OrderBy returns the result column the race field is ranked on.
	OrderBy() model.Column
	// Gender returns the points earned within the gender field of fieldSize results.
	Gender(r model.RaceResult, fieldSize int, s model.Series) decimal.Decimal
	// Division returns the points earned within the division. ok is false when
	// the policy does not score divisions.
	Division(r model.RaceResult, s model.Series) (points decimal.Decimal, ok bool)
}

// New returns the policy for token.
func New(token string) (Policy, error) {
	switch token {
	case ByTime:
		return placement{name: ByTime, column: model.ColumnTime}, nil
	case ByAgeGradedTime:
		return placement{name: ByAgeGradedTime, column: model.ColumnAgTime}, nil
	case ByAgeGradedPercent:
		return percent{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPolicy, token)
	}
}

// Validate checks the parts of the series configuration the policy depends on.
func Validate(p Policy, s model.Series) error {
	if s.Multiplier.IsNegative() {
		return fmt.Errorf("%w: multiplier %s is negative", ErrInvalidConfig, s.Multiplier)
	}
	if s.MaxGenderPoints != nil && *s.MaxGenderPoints < 0 {
		return fmt.Errorf("%w: max gender points %d is negative", ErrInvalidConfig, *s.MaxGenderPoints)
	}
	if s.MaxDivisionPoints != nil && *s.MaxDivisionPoints < 0 {
		return fmt.Errorf("%w: max division points %d is negative", ErrInvalidConfig, *s.MaxDivisionPoints)
	}
	if _, scoresDivisions := p.(placement); scoresDivisions && s.ByDivision && s.MaxDivisionPoints == nil {
		return fmt.Errorf("%w: series scores divisions but has no max division points", ErrInvalidConfig)
	}
	if s.MaxRaces < 0 {
		return fmt.Errorf("%w: max races %d is negative", ErrInvalidConfig, s.MaxRaces)
	}
	return nil
}

// placement awards multiplier * (ceiling - place + 1), floored at zero.
type placement struct {
	name   string
	column model.Column
}

func (p placement) Name() string          { return p.name }
func (p placement) OrderBy() model.Column { return p.column }

func (p placement) Gender(r model.RaceResult, fieldSize int, s model.Series) decimal.Decimal {
	ceiling := fieldSize
	if s.MaxGenderPoints != nil {
		ceiling = *s.MaxGenderPoints
	}
	return fromPlace(s.Multiplier, ceiling, r.GenderPlace)
}

func (p placement) Division(r model.RaceResult, s model.Series) (decimal.Decimal, bool) {
	if !s.ByDivision || s.MaxDivisionPoints == nil {
		return decimal.Zero, false
	}
	return fromPlace(s.Multiplier, *s.MaxDivisionPoints, r.DivisionPlace), true
}

func fromPlace(multiplier decimal.Decimal, ceiling, place int) decimal.Decimal {
	pts := multiplier.Mul(decimal.NewFromInt(int64(ceiling - place + 1)))
	if pts.IsNegative() {
		return decimal.Zero
	}
	return pts
}

// percent awards round(multiplier * agpercent), floored at zero. Divisions are
// not scored under this policy.
type percent struct{}

func (percent) Name() string          { return ByAgeGradedPercent }
func (percent) OrderBy() model.Column { return model.ColumnAgPercent }

func (percent) Gender(r model.RaceResult, _ int, s model.Series) decimal.Decimal {
	pts := s.Multiplier.Mul(decimal.NewFromFloat(r.AgPercent)).Round(0)
	if pts.IsNegative() {
		return decimal.Zero
	}
	return pts
}

func (percent) Division(model.RaceResult, model.Series) (decimal.Decimal, bool) {
	return decimal.Zero, false
}

// Format renders points as an integer literal when there is no fractional
// part, otherwise as the shortest decimal.
func Format(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.Truncate(0).String()
	}
	return d.String()
}
