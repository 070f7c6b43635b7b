package probmap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/reachavoid/utils/floatutils"
)

// divisions is the number of sub-cells per cell side used when
// accumulating obstacle probabilities
const divisions = 5

// MarginParams determines how obstacle probabilities are turned into a
// safety margin.
//
// Each cell within CutoffRadius of the state contributes
// Beta / (d + Beta/Threshold) times its obstacle probability, where d
// is the cell's distance to the state. The safety margin is
// Scaling * (sum - Threshold), which is positive inside the failure
// set. Given these parameters, a "safety bubble" of radius R with no
// obstacles, surrounded by obstacles out to CutoffRadius, is safe if
// Threshold < 2π * Beta * (CutoffRadius - R).
type MarginParams struct {
	Scaling      float64
	Beta         float64
	CutoffRadius float64
	Threshold    float64
}

// DefaultMarginParams returns MarginParams with a characteristic
// radius of 0.5
func DefaultMarginParams() MarginParams {
	return MarginParams{
		Scaling:      1.0,
		Beta:         1.0,
		CutoffRadius: 2.0,
		Threshold:    1.2 * math.Pi,
	}
}

// Validate checks the MarginParams for consistency
func (p MarginParams) Validate() error {
	if p.Scaling <= 0 {
		return fmt.Errorf("validate: scaling must be positive")
	}
	if p.Beta <= 0 {
		return fmt.Errorf("validate: beta must be positive")
	}
	if p.CutoffRadius <= 0 {
		return fmt.Errorf("validate: cutoff radius must be positive")
	}
	if p.Threshold <= 0 {
		return fmt.Errorf("validate: threshold must be positive")
	}
	return nil
}

// weight returns the contribution of an obstacle at distance d
func (p MarginParams) weight(d float64) float64 {
	return p.Beta / (d + p.Beta/p.Threshold)
}

// SafetyMargin returns the safety margin g(x) of the state (x, y) on
// the obstacle probability map grid. Each cell is divided into
// divisions x divisions sub-cells, and every sub-cell within the
// cutoff radius of the state contributes to the margin. Sub-cells
// outside the map are treated as obstacles.
func SafetyMargin(x, y float64, p MarginParams, grid mat.Matrix) float64 {
	step := 1.0 / divisions
	area := 1.0 / (divisions * divisions)

	closestX, closestY := nearestCell(grid, x, y)

	// The cell holding the state contributes at the threshold weight
	margin := p.Threshold * grid.At(closestX, closestY) * area

	xs := floatutils.Arange(x-p.CutoffRadius, x+p.CutoffRadius+step, step)
	ys := floatutils.Arange(y-p.CutoffRadius, y+p.CutoffRadius+step, step)
	for _, i := range xs {
		for _, j := range ys {
			dist := math.Hypot(x-i, y-j)
			cellI := floatutils.RoundHalfEven(i)
			cellJ := floatutils.RoundHalfEven(j)

			if (cellI == closestX && cellJ == closestY) ||
				dist > p.CutoffRadius {
				continue
			}

			prob := obstacleProbability(grid, cellI, cellJ)
			margin += p.weight(dist) * prob * area
		}
	}

	return p.Scaling * (margin - p.Threshold)
}

// SafetyMarginGrid returns the safety margin of the state (x, y)
// assuming the state is located at the centre of its nearest cell.
// Whole cells within the cutoff radius contribute to the margin.
func SafetyMarginGrid(x, y float64, p MarginParams,
	grid mat.Matrix) float64 {
	closestX, closestY := nearestCell(grid, x, y)

	margin := p.Threshold * grid.At(closestX, closestY)

	low := floatutils.RoundHalfEven(float64(closestX) - p.CutoffRadius)
	high := floatutils.RoundHalfEven(float64(closestX) + p.CutoffRadius + 1)
	lowY := floatutils.RoundHalfEven(float64(closestY) - p.CutoffRadius)
	highY := floatutils.RoundHalfEven(float64(closestY) + p.CutoffRadius + 1)

	for i := low; i < high; i++ {
		for j := lowY; j < highY; j++ {
			dist := math.Hypot(float64(closestX-i), float64(closestY-j))
			if (i == closestX && j == closestY) || dist > p.CutoffRadius {
				continue
			}
			margin += p.weight(dist) * obstacleProbability(grid, i, j)
		}
	}

	return p.Scaling * (margin - p.Threshold)
}

// Rect is an axis-aligned rectangle with centre (X, Y), width W along
// the x axis, and height H along the y axis
type Rect struct {
	X, Y float64
	W, H float64
}

// Contains returns whether (x, y) lies within the rectangle
func (r Rect) Contains(x, y float64) bool {
	return RectMargin(x, y, r) <= 0
}

// RectMargin returns the signed margin between (x, y) and the
// rectangle r. The margin is negative inside the rectangle and
// positive outside.
func RectMargin(x, y float64, r Rect) float64 {
	dx := math.Abs(x - r.X)
	dy := math.Abs(y - r.Y)
	return math.Max(dy-r.H/2, dx-r.W/2)
}

// TargetMargin returns the target margin l(x) of (x, y) with respect
// to the union of the target rectangles. The margin is non-positive if
// and only if (x, y) lies in some target.
func TargetMargin(x, y, scaling float64, targets []Rect) float64 {
	margin := math.Inf(1)
	for _, target := range targets {
		margin = math.Min(margin, RectMargin(x, y, target))
	}
	return scaling * margin
}
