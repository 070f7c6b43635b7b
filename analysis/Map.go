package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/reachavoid/agent"
	"github.com/samuelfneumann/reachavoid/environment"
)

// Axes returns nx evenly spaced x coordinates and ny evenly spaced y
// coordinates spanning the first two dimensions of bounds, endpoints
// included
func Axes(bounds []r1.Interval, nx, ny int) ([]float64, []float64, error) {
	if len(bounds) < 2 {
		return nil, nil, fmt.Errorf("axes: at least 2 dimensions required")
	}
	if nx < 2 || ny < 2 {
		return nil, nil, fmt.Errorf("axes: at least 2 points are needed "+
			"along each axis \n\thave(%v, %v)", nx, ny)
	}
	xs := floats.Span(make([]float64, nx), bounds[0].Min, bounds[0].Max)
	ys := floats.Span(make([]float64, ny), bounds[1].Min, bounds[1].Max)
	return xs, ys, nil
}

// mapOver evaluates f at each point of an nx x ny grid spanning bounds.
// Element (i, j) of the returned matrix is f(xs[i], ys[j]).
func mapOver(bounds []r1.Interval, nx, ny int,
	f func(state mat.Vector) (float64, error)) (*mat.Dense, error) {
	xs, ys, err := Axes(bounds, nx, ny)
	if err != nil {
		return nil, err
	}

	values := mat.NewDense(nx, ny, nil)
	state := mat.NewVecDense(2, nil)
	for i, x := range xs {
		for j, y := range ys {
			state.SetVec(0, x)
			state.SetVec(1, y)
			v, err := f(state)
			if err != nil {
				return nil, err
			}
			values.Set(i, j, v)
		}
	}
	return values, nil
}

// ValueMap returns the predicted value of each point on an nx x ny
// grid spanning bounds
func ValueMap(valuer agent.Valuer, bounds []r1.Interval, nx,
	ny int) (*mat.Dense, error) {
	values, err := mapOver(bounds, nx, ny, valuer.Value)
	if err != nil {
		return nil, fmt.Errorf("valueMap: %v", err)
	}
	return values, nil
}

// SafetyMap returns the safety margin g(x) of each point on an nx x ny
// grid spanning the environment's bounds
func SafetyMap(env environment.ReachAvoider, nx, ny int) (*mat.Dense,
	error) {
	values, err := mapOver(env.Bounds(), nx, ny,
		func(state mat.Vector) (float64, error) {
			return env.SafetyMargin(state), nil
		})
	if err != nil {
		return nil, fmt.Errorf("safetyMap: %v", err)
	}
	return values, nil
}

// TerminalMap returns max(l(x), g(x)) at each point on an nx x ny grid
// spanning the environment's bounds. This is the value of a state from
// which the episode ends immediately.
func TerminalMap(env environment.ReachAvoider, nx, ny int) (*mat.Dense,
	error) {
	values, err := mapOver(env.Bounds(), nx, ny,
		func(state mat.Vector) (float64, error) {
			return math.Max(env.TargetMargin(state),
				env.SafetyMargin(state)), nil
		})
	if err != nil {
		return nil, fmt.Errorf("terminalMap: %v", err)
	}
	return values, nil
}
