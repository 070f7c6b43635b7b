package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (s, a, r, s') tuple together with the
// safety and target margins of s.
//
// NextState is nil if the transition ended in an absorbing state.
type Transition struct {
	State     *mat.VecDense
	Action    int
	Reward    float64
	NextState *mat.VecDense

	SafetyMargin float64
	TargetMargin float64
}

// NewTransition creates a Transition from taking action in step and
// arriving at nextStep. The margins are taken from step, the state the
// action was taken in.
func NewTransition(step TimeStep, action int, nextStep TimeStep) Transition {
	var next *mat.VecDense
	if !nextStep.Terminal() {
		next = nextStep.Observation
	}

	return Transition{
		State:        step.Observation,
		Action:       action,
		Reward:       nextStep.Reward,
		NextState:    next,
		SafetyMargin: step.SafetyMargin,
		TargetMargin: step.TargetMargin,
	}
}

// Terminal returns whether the transition ended in an absorbing state
func (t Transition) Terminal() bool {
	return t.NextState == nil
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | a: %d  |  r: %.3f  |  terminal: %v  |  "+
		"g(s): %.3f  |  l(s): %.3f", t.Action, t.Reward, t.Terminal(),
		t.SafetyMargin, t.TargetMargin)
}
