package standings_test

import (
	"errors"
	"testing"

	"github.com/okian/gpstandings/internal/domain/model"
	"github.com/okian/gpstandings/internal/domain/standings"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	kids   = model.Bounds{Low: 0, High: 13}
	youth  = model.Bounds{Low: 14, High: 29}
	divSet = []model.Division{{Bounds: kids, Active: true}, {Bounds: youth, Active: true}}
)

func pts(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func entry(name string, gender int64) standings.Entry {
	return standings.Entry{Runner: name, Gender: pts(gender)}
}

func divEntry(name string, b model.Bounds, gender, div int64) standings.Entry {
	return standings.Entry{Runner: name, Division: b, Gender: pts(gender), DivisionPoints: pts(div), HasDivision: true}
}

func TestAccumulatorAlignment(t *testing.T) {
	Convey("Given an accumulator without divisions", t, func() {
		acc := standings.NewAccumulator(false, nil)

		Convey("When runners first appear in different races", func() {
			So(acc.AddRace([]standings.Entry{entry("Ann", 3), entry("Bea", 2)}), ShouldBeNil)
			So(acc.AddRace(nil), ShouldBeNil)
			So(acc.AddRace([]standings.Entry{entry("Cal", 5), entry("Ann", 4)}), ShouldBeNil)

			Convey("Then every runner has one cell per race", func() {
				So(acc.Races(), ShouldEqual, 3)
				for _, r := range acc.Runners() {
					So(len(r.ByGender), ShouldEqual, acc.Races())
					So(r.ByDivision, ShouldBeNil)
				}
			})

			Convey("And late runners are back-filled with empty cells", func() {
				cal, ok := acc.Runner("Cal")
				So(ok, ShouldBeTrue)
				So(cal.ByGender[0].Valid, ShouldBeFalse)
				So(cal.ByGender[1].Valid, ShouldBeFalse)
				So(cal.ByGender[2].Valid, ShouldBeTrue)
				So(cal.ByGender[2].Value.Equal(pts(5)), ShouldBeTrue)
			})

			Convey("And a race without results adds an empty cell for tracked runners", func() {
				ann, _ := acc.Runner("Ann")
				So(ann.ByGender[1].Valid, ShouldBeFalse)
				bea, _ := acc.Runner("Bea")
				So(bea.ByGender[2].Valid, ShouldBeFalse)
			})

			Convey("And runners are kept in order of first sighting", func() {
				names := []string{}
				for _, r := range acc.Runners() {
					names = append(names, r.Name)
				}
				So(names, ShouldResemble, []string{"Ann", "Bea", "Cal"})
			})
		})

		Convey("When a runner scores zero", func() {
			So(acc.AddRace([]standings.Entry{entry("Dee", 0)}), ShouldBeNil)

			Convey("Then the cell is valid, not empty", func() {
				dee, _ := acc.Runner("Dee")
				So(dee.ByGender[0].Valid, ShouldBeTrue)
				So(dee.ByGender[0].Value.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When a runner appears twice in one race", func() {
			err := acc.AddRace([]standings.Entry{entry("Ann", 3), entry("Ann", 2)})

			Convey("Then it is rejected and nothing is recorded", func() {
				So(errors.Is(err, standings.ErrDuplicateResult), ShouldBeTrue)
				So(acc.Races(), ShouldEqual, 0)
				So(acc.Runners(), ShouldBeEmpty)
			})
		})
	})
}

func TestAccumulatorDivisions(t *testing.T) {
	Convey("Given an accumulator tracking divisions", t, func() {
		acc := standings.NewAccumulator(true, divSet)

		Convey("When runners are added", func() {
			So(acc.AddRace([]standings.Entry{divEntry("Ann", kids, 3, 2), divEntry("Bea", youth, 2, 2), divEntry("Cat", kids, 1, 1)}), ShouldBeNil)
			So(acc.AddRace([]standings.Entry{divEntry("Bea", youth, 2, 2)}), ShouldBeNil)

			Convey("Then each runner is registered once in their division", func() {
				So(len(acc.Members(kids)), ShouldEqual, 2)
				So(acc.Members(kids)[0].Name, ShouldEqual, "Ann")
				So(len(acc.Members(youth)), ShouldEqual, 1)
			})

			Convey("And division cells stay aligned with gender cells", func() {
				for _, r := range acc.Runners() {
					So(len(r.ByDivision), ShouldEqual, len(r.ByGender))
				}
				ann, _ := acc.Runner("Ann")
				So(ann.ByDivision[1].Valid, ShouldBeFalse)
			})
		})

		Convey("When a runner reappears with different bounds", func() {
			So(acc.AddRace([]standings.Entry{divEntry("Ann", kids, 3, 2)}), ShouldBeNil)
			err := acc.AddRace([]standings.Entry{divEntry("Ann", youth, 3, 2)})

			Convey("Then a division conflict is reported", func() {
				So(errors.Is(err, standings.ErrDivisionConflict), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Ann")
				So(acc.Races(), ShouldEqual, 1)
			})
		})

		Convey("When a result carries bounds no division covers", func() {
			err := acc.AddRace([]standings.Entry{divEntry("Eve", model.Bounds{Low: 30, High: 39}, 1, 1)})
			So(errors.Is(err, standings.ErrDivisionConflict), ShouldBeTrue)
		})

		Convey("When the policy does not score divisions", func() {
			So(acc.AddRace([]standings.Entry{{Runner: "Ann", Division: kids, Gender: pts(70)}}), ShouldBeNil)

			Convey("Then the division cell is empty", func() {
				ann, _ := acc.Runner("Ann")
				So(ann.ByDivision[0].Valid, ShouldBeFalse)
				So(ann.ByGender[0].Valid, ShouldBeTrue)
			})
		})
	})
}
