package probmap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/reachavoid/environment"
	"github.com/samuelfneumann/reachavoid/timestep"
)

// maxStartTries bounds the number of starting states sampled when
// looking for a state outside the failure and target sets
const maxStartTries = 1000

// PointMass implements a point mass moving at constant speed on a
// probabilistic obstacle map. The state is the (x, y) position of the
// point mass in map coordinates, and each discrete action selects one
// of a number of evenly spaced headings.
//
// An episode ends when the state the agent acts from is in the failure
// set (Failure) or the target set (Success), checked in that order.
// Episodes can also be cut off by a step limit (Timeout).
type PointMass struct {
	Config
	grid    *mat.Dense
	starter *environment.UniformStarter
	limit   environment.StepLimit
	bounds  []r1.Interval

	state       *mat.VecDense
	currentStep timestep.TimeStep
}

// New returns a new PointMass environment described by config. The
// seed determines the sequence of starting states.
func New(config Config, seed uint64) (*PointMass, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	grid, err := GenGrid(config.Map)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	rows, cols := grid.Dims()
	bounds := []r1.Interval{
		{Min: -0.5, Max: float64(rows) - 0.5},
		{Min: -0.5, Max: float64(cols) - 0.5},
	}

	p := &PointMass{
		Config:  config,
		grid:    grid,
		starter: environment.NewUniformStarter(bounds, seed),
		limit:   environment.NewStepLimit(config.MaxSteps),
		bounds:  bounds,
	}
	return p, nil
}

// Grid returns the obstacle probability map
func (p *PointMass) Grid() mat.Matrix {
	return p.grid
}

// Bounds returns the bounds of the map in each state dimension
func (p *PointMass) Bounds() []r1.Interval {
	return p.bounds
}

// SafetyMargin returns the safety margin g(x) of a state
func (p *PointMass) SafetyMargin(state mat.Vector) float64 {
	if p.GridMargin {
		return SafetyMarginGrid(state.AtVec(0), state.AtVec(1), p.Margin,
			p.grid)
	}
	return SafetyMargin(state.AtVec(0), state.AtVec(1), p.Margin, p.grid)
}

// TargetMargin returns the target margin l(x) of a state
func (p *PointMass) TargetMargin(state mat.Vector) float64 {
	return TargetMargin(state.AtVec(0), state.AtVec(1), p.TargetScaling,
		p.Targets)
}

// Reset resets the environment to a new starting state
func (p *PointMass) Reset() (timestep.TimeStep, error) {
	start := p.starter.Start()
	if p.KeepOutOf {
		tries := 1
		for p.SafetyMargin(start) > 0 || p.TargetMargin(start) <= 0 {
			if tries >= maxStartTries {
				return timestep.TimeStep{}, fmt.Errorf("reset: could not "+
					"sample a starting state outside the failure and "+
					"target sets in %d tries", maxStartTries)
			}
			start = p.starter.Start()
			tries++
		}
	}
	return p.ResetTo(start)
}

// ResetTo starts a new episode at the given state
func (p *PointMass) ResetTo(state *mat.VecDense) (timestep.TimeStep, error) {
	if state.Len() != 2 {
		return timestep.TimeStep{}, fmt.Errorf("resetTo: state must be "+
			"2-dimensional \n\thave(%v)", state.Len())
	}
	p.state = mat.VecDenseCopyOf(state)
	p.currentStep = p.newStep(timestep.First, 0, 0)
	return p.currentStep, nil
}

// Step takes a single environmental step
func (p *PointMass) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if p.state == nil {
		return timestep.TimeStep{}, true, fmt.Errorf("step: environment " +
			"must be reset before stepping")
	}
	if p.currentStep.Last() {
		return timestep.TimeStep{}, true, fmt.Errorf("step: episode has " +
			"ended, environment must be reset")
	}
	if action.Len() != 1 {
		return timestep.TimeStep{}, false, fmt.Errorf("step: actions must "+
			"be 1-dimensional \n\thave(%v)", action.Len())
	}
	a := int(action.AtVec(0))
	if a < 0 || a >= p.Headings {
		return timestep.TimeStep{}, false, fmt.Errorf("step: illegal "+
			"action %v \n\twant([0, %v))", a, p.Headings)
	}

	// Whether the episode ends depends on the state acted from
	g := p.currentStep.SafetyMargin
	l := p.currentStep.TargetMargin

	var cost float64
	var end timestep.EndType
	switch {
	case g > 0:
		cost, end = p.FailureCost, timestep.Failure
	case l <= 0:
		cost, end = p.SuccessCost, timestep.Success
	default:
		cost, end = p.StepCost, timestep.NotEnded
	}

	heading := 2 * math.Pi * float64(a) / float64(p.Headings)
	dist := p.Speed * p.DT
	p.state.SetVec(0, p.state.AtVec(0)+dist*math.Cos(heading))
	p.state.SetVec(1, p.state.AtVec(1)+dist*math.Sin(heading))

	step := p.newStep(timestep.Mid, cost, p.currentStep.Number+1)
	if end != timestep.NotEnded {
		step.SetEnd(end)
	}
	done := p.limit.End(&step)

	p.currentStep = step
	return step, done, nil
}

// newStep returns a timestep observing the current state
func (p *PointMass) newStep(t timestep.StepType, cost float64,
	n int) timestep.TimeStep {
	obs := mat.VecDenseCopyOf(p.state)
	step := timestep.New(t, cost, p.Discount, obs, n)
	step.SafetyMargin = p.SafetyMargin(obs)
	step.TargetMargin = p.TargetMargin(obs)
	return step
}

// ObservationSpec returns the observation specification of the
// environment
func (p *PointMass) ObservationSpec() environment.Spec {
	return environment.Spec{
		Shape:       mat.NewVecDense(2, nil),
		Type:        environment.Observation,
		LowerBound:  mat.NewVecDense(2, []float64{p.bounds[0].Min, p.bounds[1].Min}),
		UpperBound:  mat.NewVecDense(2, []float64{p.bounds[0].Max, p.bounds[1].Max}),
		Cardinality: environment.Continuous,
	}
}

// ActionSpec returns the action specification of the environment
func (p *PointMass) ActionSpec() environment.Spec {
	return environment.NewDiscreteActionSpec(p.Headings)
}

// DiscountSpec returns the discount specification of the environment
func (p *PointMass) DiscountSpec() environment.Spec {
	return environment.Spec{
		Shape:       mat.NewVecDense(1, nil),
		Type:        environment.Discount,
		LowerBound:  mat.NewVecDense(1, []float64{p.Discount}),
		UpperBound:  mat.NewVecDense(1, []float64{p.Discount}),
		Cardinality: environment.Continuous,
	}
}

// String implements the fmt.Stringer interface
func (p *PointMass) String() string {
	return fmt.Sprintf("PointMass | Map: %v  |  Headings: %v  |  "+
		"Targets: %v", p.Map, p.Headings, p.Targets)
}
