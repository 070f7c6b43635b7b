// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended. Only a TimeStep of
// StepType Last carries a meaningful EndType.
type EndType int

const (
	// NotEnded is the EndType of First and Mid timesteps
	NotEnded EndType = iota

	// Timeout denotes an episode cut off by a step limit. The state
	// reached is not absorbing and should still be bootstrapped from.
	Timeout

	// Success denotes that the target set was reached
	Success

	// Failure denotes that the failure set was entered
	Failure
)

func (e EndType) String() string {
	switch e {
	case Timeout:
		return "Timeout"
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	default:
		return "NotEnded"
	}
}

// TimeStep packages together a single timestep in an environment.
//
// SafetyMargin and TargetMargin are the margins g(x) and l(x) of the
// observed state: g(x) > 0 inside the failure set and l(x) <= 0 inside
// the target set.
type TimeStep struct {
	StepType
	EndType
	Reward      float64
	Discount    float64
	Observation *mat.VecDense
	Number      int

	SafetyMargin float64
	TargetMargin float64
}

// New returns a new TimeStep with zero margins
func New(t StepType, r, d float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{
		StepType:    t,
		Reward:      r,
		Discount:    d,
		Observation: o,
		Number:      n,
	}
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep) Last() bool {
	return t.StepType == Last
}

// Terminal returns whether the TimeStep ended its episode in an
// absorbing state, i.e. by success or failure rather than a timeout.
func (t TimeStep) Terminal() bool {
	return t.Last() && (t.EndType == Success || t.EndType == Failure)
}

// SetEnd marks the TimeStep as the last in its episode with the given
// EndType
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.EndType = e
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  End: %v  |  Reward:  %.2f  |  " +
		"Discount: %.2f  |  Step Number:  %v  |  g(x): %.3f  |  l(x): %.3f"

	return fmt.Sprintf(str, t.StepType, t.EndType, t.Reward, t.Discount,
		t.Number, t.SafetyMargin, t.TargetMargin)
}
