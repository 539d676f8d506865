package scoring_test

import (
	"errors"
	"testing"

	"github.com/okian/gpstandings/internal/domain/model"
	scoring "github.com/okian/gpstandings/internal/domain/scoring"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func intp(v int) *int { return &v }

func series(token string) model.Series {
	return model.Series{Name: "grandprix", Scoring: token, Multiplier: decimal.NewFromInt(1)}
}

func TestNew(t *testing.T) {
	Convey("Given policy tokens", t, func() {
		Convey("When the token is known", func() {
			for token, col := range map[string]model.Column{
				scoring.ByTime:             model.ColumnTime,
				scoring.ByAgeGradedTime:    model.ColumnAgTime,
				scoring.ByAgeGradedPercent: model.ColumnAgPercent,
			} {
				p, err := scoring.New(token)
				So(err, ShouldBeNil)
				So(p.Name(), ShouldEqual, token)
				So(p.OrderBy(), ShouldEqual, col)
			}
		})

		Convey("When the token is unknown", func() {
			p, err := scoring.New("by-vibes")

			Convey("Then it fails with ErrUnsupportedPolicy", func() {
				So(p, ShouldBeNil)
				So(errors.Is(err, scoring.ErrUnsupportedPolicy), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "by-vibes")
			})
		})
	})
}

func TestPlacementScoring(t *testing.T) {
	Convey("Given the by-time policy", t, func() {
		p, _ := scoring.New(scoring.ByTime)
		s := series(scoring.ByTime)

		Convey("When no gender ceiling is configured", func() {
			Convey("Then the field size is the ceiling", func() {
				for place, want := range map[int]int64{1: 3, 2: 2, 3: 1} {
					got := p.Gender(model.RaceResult{GenderPlace: place}, 3, s)
					So(got.Equal(decimal.NewFromInt(want)), ShouldBeTrue)
				}
			})

			Convey("And the points over a full field sum to n(n+1)/2 times the multiplier", func() {
				s.Multiplier = decimal.RequireFromString("1.5")
				n := 17
				sum := decimal.Zero
				for place := 1; place <= n; place++ {
					sum = sum.Add(p.Gender(model.RaceResult{GenderPlace: place}, n, s))
				}
				want := s.Multiplier.Mul(decimal.NewFromInt(int64(n * (n + 1) / 2)))
				So(sum.Equal(want), ShouldBeTrue)
			})
		})

		Convey("When a gender ceiling is configured", func() {
			s.MaxGenderPoints = intp(10)

			Convey("Then the ceiling is used regardless of field size", func() {
				got := p.Gender(model.RaceResult{GenderPlace: 1}, 40, s)
				So(got.Equal(decimal.NewFromInt(10)), ShouldBeTrue)
			})

			Convey("And places past the ceiling floor at zero", func() {
				got := p.Gender(model.RaceResult{GenderPlace: 25}, 40, s)
				So(got.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When divisions are scored", func() {
			s.ByDivision = true
			s.MaxDivisionPoints = intp(5)
			s.Multiplier = decimal.NewFromInt(2)

			Convey("Then the fixed division ceiling is used", func() {
				got, ok := p.Division(model.RaceResult{DivisionPlace: 2}, s)
				So(ok, ShouldBeTrue)
				So(got.Equal(decimal.NewFromInt(8)), ShouldBeTrue)
			})

			Convey("And division places past the ceiling floor at zero", func() {
				got, ok := p.Division(model.RaceResult{DivisionPlace: 9}, s)
				So(ok, ShouldBeTrue)
				So(got.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When divisions are not scored", func() {
			_, ok := p.Division(model.RaceResult{DivisionPlace: 1}, s)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given the by-age-graded-time policy", t, func() {
		p, _ := scoring.New(scoring.ByAgeGradedTime)
		s := series(scoring.ByAgeGradedTime)
		s.ByDivision = true
		s.MaxDivisionPoints = intp(3)

		Convey("Then it scores placements like by-time", func() {
			So(p.Gender(model.RaceResult{GenderPlace: 2}, 4, s).Equal(decimal.NewFromInt(3)), ShouldBeTrue)
			got, ok := p.Division(model.RaceResult{DivisionPlace: 1}, s)
			So(ok, ShouldBeTrue)
			So(got.Equal(decimal.NewFromInt(3)), ShouldBeTrue)
		})
	})
}

func TestPercentScoring(t *testing.T) {
	Convey("Given the by-age-graded-percent policy", t, func() {
		p, _ := scoring.New(scoring.ByAgeGradedPercent)
		s := series(scoring.ByAgeGradedPercent)

		Convey("When the multiplier is one", func() {
			Convey("Then the percent is rounded", func() {
				So(p.Gender(model.RaceResult{AgPercent: 72.4}, 10, s).Equal(decimal.NewFromInt(72)), ShouldBeTrue)
				So(p.Gender(model.RaceResult{AgPercent: 72.5}, 10, s).Equal(decimal.NewFromInt(73)), ShouldBeTrue)
			})
		})

		Convey("When the multiplier is fractional", func() {
			s.Multiplier = decimal.RequireFromString("0.5")
			So(p.Gender(model.RaceResult{AgPercent: 81}, 10, s).Equal(decimal.NewFromInt(41)), ShouldBeTrue)
		})

		Convey("When the percent is negative", func() {
			So(p.Gender(model.RaceResult{AgPercent: -3}, 10, s).IsZero(), ShouldBeTrue)
		})

		Convey("When divisions are requested", func() {
			s.ByDivision = true
			s.MaxDivisionPoints = intp(10)
			_, ok := p.Division(model.RaceResult{DivisionPlace: 1}, s)

			Convey("Then no division score is defined", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given series configurations", t, func() {
		byTime, _ := scoring.New(scoring.ByTime)
		byPercent, _ := scoring.New(scoring.ByAgeGradedPercent)

		Convey("When the configuration is complete", func() {
			So(scoring.Validate(byTime, series(scoring.ByTime)), ShouldBeNil)
		})

		Convey("When the multiplier is negative", func() {
			s := series(scoring.ByTime)
			s.Multiplier = decimal.NewFromInt(-1)
			So(errors.Is(scoring.Validate(byTime, s), scoring.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When a point ceiling is negative", func() {
			neg := -3

			Convey("Then a negative gender ceiling is rejected", func() {
				s := series(scoring.ByTime)
				s.MaxGenderPoints = &neg
				So(errors.Is(scoring.Validate(byTime, s), scoring.ErrInvalidConfig), ShouldBeTrue)
			})

			Convey("And a negative division ceiling is rejected the same way", func() {
				s := series(scoring.ByTime)
				s.ByDivision = true
				s.MaxDivisionPoints = &neg
				So(errors.Is(scoring.Validate(byTime, s), scoring.ErrInvalidConfig), ShouldBeTrue)
				So(errors.Is(scoring.Validate(byPercent, s), scoring.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When divisions are scored without a division ceiling", func() {
			s := series(scoring.ByTime)
			s.ByDivision = true

			Convey("Then placement policies reject it", func() {
				So(errors.Is(scoring.Validate(byTime, s), scoring.ErrInvalidConfig), ShouldBeTrue)
			})

			Convey("And the percent policy ignores it", func() {
				So(scoring.Validate(byPercent, s), ShouldBeNil)
			})
		})
	})
}

func TestFormat(t *testing.T) {
	Convey("Given point values", t, func() {
		So(scoring.Format(decimal.NewFromInt(13)), ShouldEqual, "13")
		So(scoring.Format(decimal.RequireFromString("13.000")), ShouldEqual, "13")
		So(scoring.Format(decimal.RequireFromString("12.50")), ShouldEqual, "12.5")
		So(scoring.Format(decimal.Zero), ShouldEqual, "0")
	})
}
