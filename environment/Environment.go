// Package environment outlines the interfaces and structs needed to
// implement concrete reach-avoid environments
package environment

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/reachavoid/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should be ended. If an episode should
// end, End() modifies the argument timestep so that it is the last
// timestep of the episode with the appropriate EndType.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment
type Environment interface {
	// Reset resets the environment to a new starting state, returning
	// the first timestep of the episode
	Reset() (timestep.TimeStep, error)

	// Step takes a single environmental step given some action,
	// returning the next timestep and whether the episode has ended
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec
}

// ReachAvoider is an environment with a failure set and a target set,
// each described by a margin function over states.
//
// SafetyMargin returns g(x), which is positive if and only if x is in
// the failure set. TargetMargin returns l(x), which is non-positive if
// and only if x is in the target set.
type ReachAvoider interface {
	Environment
	SafetyMargin(state mat.Vector) float64
	TargetMargin(state mat.Vector) float64

	// ResetTo starts a new episode at a specific state
	ResetTo(state *mat.VecDense) (timestep.TimeStep, error)

	// Bounds returns the bounds of each state dimension
	Bounds() []r1.Interval
}
