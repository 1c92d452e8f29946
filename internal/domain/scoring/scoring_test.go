package scoring_test

import (
	"testing"

	scoring "github.com/okian/pugbot/internal/domain/scoring"
	"github.com/okian/pugbot/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHybrid_Score(t *testing.T) {
	Convey("Given a default hybrid scorer", t, func() {
		scorer := scoring.NewHybrid()

		Convey("When scoring a default-rated player with an unknown tier", func() {
			result := scorer.Score(scoring.Input{PlayerID: "p1", Rating: 1000, Tier: tier.Unknown})

			Convey("Then the score is exactly zero", func() {
				So(result.PlayerID, ShouldEqual, "p1")
				So(result.Score, ShouldEqual, 0)
			})
		})

		Convey("When scoring a tier 1 player at 1400", func() {
			result := scorer.Score(scoring.Input{PlayerID: "p2", Rating: 1400, Tier: 1})

			Convey("Then tier weight and rating offset add up", func() {
				So(result.TierWeight, ShouldEqual, 4)
				So(result.RatingOffset, ShouldEqual, 2)
				So(result.Score, ShouldEqual, 6)
			})
		})

		Convey("When scoring players below the baseline", func() {
			low := scorer.Score(scoring.Input{Rating: 800})
			high := scorer.Score(scoring.Input{Rating: 1200})

			Convey("Then offsets are symmetric around the baseline", func() {
				So(low.Score, ShouldEqual, -1)
				So(high.Score, ShouldEqual, 1)
			})
		})

		Convey("When the same input is scored twice", func() {
			in := scoring.Input{PlayerID: "p3", Rating: 1337, Tier: 2.5}

			Convey("Then the result is identical", func() {
				So(scorer.Score(in), ShouldResemble, scorer.Score(in))
			})
		})
	})

	Convey("Given a scorer with custom normalization", t, func() {
		scorer := scoring.NewHybrid(scoring.WithBaseline(1500), scoring.WithScale(100), scoring.WithScale(-1))

		Convey("Then the options apply and a non-positive scale is ignored", func() {
			So(scorer.Score(scoring.Input{Rating: 1600, Tier: 4}).Score, ShouldEqual, 2)
		})
	})
}
