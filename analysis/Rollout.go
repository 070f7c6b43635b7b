// Package analysis implements tools for evaluating learned reach-avoid
// value functions: greedy rollouts, confusion matrices against
// ground-truth labels, and value heatmaps.
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/reachavoid/environment"
	ts "github.com/samuelfneumann/reachavoid/timestep"
)

// Result is the outcome of a rollout
type Result int

const (
	Failure    Result = -1 // Entered the failure set
	Unfinished Result = 0  // Neither set reached within the horizon
	Success    Result = 1  // Reached the target set
)

func (r Result) String() string {
	switch r {
	case Failure:
		return "Failure"
	case Success:
		return "Success"
	default:
		return "Unfinished"
	}
}

// Actor selects actions in states
type Actor interface {
	SelectAction(t ts.TimeStep) (*mat.VecDense, error)
}

// Trajectory is a sequence of states visited in a rollout together
// with their safety and target margins
type Trajectory struct {
	States        []*mat.VecDense
	SafetyMargins []float64
	TargetMargins []float64
	Result        Result
}

// Len returns the number of states in the trajectory
func (t Trajectory) Len() int {
	return len(t.States)
}

// Rollout runs the actor in the environment from start for at most
// horizon steps. If start is nil, the environment is reset to a
// starting state of its own choosing.
func Rollout(env environment.ReachAvoider, actor Actor, start *mat.VecDense,
	horizon int) (Trajectory, error) {
	var step ts.TimeStep
	var err error
	if start == nil {
		step, err = env.Reset()
	} else {
		step, err = env.ResetTo(start)
	}
	if err != nil {
		return Trajectory{}, fmt.Errorf("rollout: could not reset: %v", err)
	}

	var traj Trajectory
	traj.record(step)

	for i := 0; i < horizon && !step.Last(); i++ {
		action, err := actor.SelectAction(step)
		if err != nil {
			return Trajectory{}, fmt.Errorf("rollout: %v", err)
		}

		step, _, err = env.Step(action)
		if err != nil {
			return Trajectory{}, fmt.Errorf("rollout: %v", err)
		}
		traj.record(step)
	}

	switch step.EndType {
	case ts.Success:
		traj.Result = Success
	case ts.Failure:
		traj.Result = Failure
	default:
		traj.Result = Unfinished
	}
	return traj, nil
}

func (t *Trajectory) record(step ts.TimeStep) {
	t.States = append(t.States, mat.VecDenseCopyOf(step.Observation))
	t.SafetyMargins = append(t.SafetyMargins, step.SafetyMargin)
	t.TargetMargins = append(t.TargetMargins, step.TargetMargin)
}

// Rollouts runs a rollout from each starting state, or n rollouts from
// starting states chosen by the environment if starts is empty
func Rollouts(env environment.ReachAvoider, actor Actor,
	starts []*mat.VecDense, n, horizon int) ([]Trajectory, error) {
	if len(starts) == 0 {
		starts = make([]*mat.VecDense, n)
	}

	trajectories := make([]Trajectory, len(starts))
	for i, start := range starts {
		traj, err := Rollout(env, actor, start, horizon)
		if err != nil {
			return nil, fmt.Errorf("rollouts: rollout %d: %v", i, err)
		}
		trajectories[i] = traj
	}
	return trajectories, nil
}

// Rates holds the fraction of rollouts with each result
type Rates struct {
	Success    float64
	Failure    float64
	Unfinished float64
}

// RolloutRates returns the fraction of successful, failed, and
// unfinished rollouts
func RolloutRates(trajectories []Trajectory) Rates {
	if len(trajectories) == 0 {
		return Rates{}
	}

	var rates Rates
	for _, traj := range trajectories {
		switch traj.Result {
		case Success:
			rates.Success++
		case Failure:
			rates.Failure++
		default:
			rates.Unfinished++
		}
	}

	n := float64(len(trajectories))
	rates.Success /= n
	rates.Failure /= n
	rates.Unfinished /= n
	return rates
}
