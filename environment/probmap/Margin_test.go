package probmap

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func filledGrid(value float64) *mat.Dense {
	data := make([]float64, 100)
	for i := range data {
		data[i] = value
	}
	return mat.NewDense(10, 10, data)
}

func TestSafetyMargin(t *testing.T) {
	params := DefaultMarginParams()

	Convey("When the safety margin is computed", t, func() {
		Convey("Away from the border of an empty map the margin is -threshold", func() {
			margin := SafetyMargin(4, 4, params, filledGrid(0))
			So(margin, ShouldAlmostEqual, -params.Threshold, 1e-9)

			margin = SafetyMarginGrid(4, 4, params, filledGrid(0))
			So(margin, ShouldAlmostEqual, -params.Threshold, 1e-9)
		})

		Convey("Cells outside the map count as obstacles", func() {
			corner := SafetyMargin(0, 0, params, filledGrid(0))
			So(corner, ShouldBeGreaterThan, -params.Threshold)

			corner = SafetyMarginGrid(0, 0, params, filledGrid(0))
			So(corner, ShouldBeGreaterThan, -params.Threshold)
		})

		Convey("A fully occupied map is in the failure set everywhere", func() {
			So(SafetyMargin(4.3, 5.6, params, filledGrid(1)), ShouldBeGreaterThan, 0)
			So(SafetyMarginGrid(4.3, 5.6, params, filledGrid(1)), ShouldBeGreaterThan, 0)
		})

		Convey("The margin is scaled", func() {
			scaled := params
			scaled.Scaling = 2
			So(SafetyMargin(4, 4, scaled, filledGrid(0)), ShouldAlmostEqual,
				-2*params.Threshold, 1e-9)
		})
	})
}

func TestTargetMargin(t *testing.T) {
	Convey("When the target margin is computed", t, func() {
		rect := Rect{X: 1, Y: 1, W: 2, H: 1}

		Convey("The rectangle margin is negative inside and positive outside", func() {
			So(RectMargin(1, 1, rect), ShouldEqual, -0.5)
			So(RectMargin(2, 1, rect), ShouldEqual, 0)
			So(RectMargin(1, 3, rect), ShouldEqual, 1.5)
			So(rect.Contains(1.5, 1.2), ShouldBeTrue)
		})

		Convey("The margin of a union of targets is the smallest margin", func() {
			other := Rect{X: 5, Y: 5, W: 1, H: 1}
			targets := []Rect{rect, other}
			So(TargetMargin(5, 5, 1, targets), ShouldEqual, -0.5)
			So(TargetMargin(1, 1, 3, targets), ShouldEqual, -1.5)
		})
	})
}

func TestGrid(t *testing.T) {
	Convey("When grids are generated", t, func() {
		Convey("The three block map has its rows reversed", func() {
			grid, err := GenGrid(ThreeBlock)
			So(err, ShouldBeNil)
			So(mat.Row(nil, 2, grid), ShouldResemble,
				[]float64{1, 1, 0.8, 0.7, 0, 0, 0.7, 0.8, 1, 1})
		})

		Convey("Unknown maps are rejected", func() {
			_, err := GenGrid("maze")
			So(err, ShouldNotBeNil)
		})

		Convey("Local maps read cells outside the map as obstacles", func() {
			local := LocalMap(1, filledGrid(0), 0.2, -0.1)
			So(local, ShouldResemble, []float64{1, 1, 0, 0, 0})
		})
	})
}
