// Package agent defines an agent interface
package agent

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/reachavoid/network"
	"github.com/samuelfneumann/reachavoid/timestep"
)

// ErrNotReady is returned by Learner.Step when the learner cannot yet
// perform an update, e.g. when its replay memory holds too few
// transitions. It is not a failure and training should continue.
var ErrNotReady = errors.New("learner not ready to update")

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner, returning the loss
	// of the update
	Step() (float64, error)

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should have pointers to the same weights so that
// any changes the learner makes to the weights are reflected in the
// actions the Policy chooses
type Policy interface {
	SelectAction(t timestep.TimeStep) (*mat.VecDense, error)
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Valuer predicts the value of states
type Valuer interface {
	// Value returns the predicted value of an observation
	Value(obs mat.Vector) (float64, error)
}

// EGreedyNNPolicy implements an epsilon greedy policy using neural
// network function approximation. The policy does not own a VM; the
// graph of the network must be run before SelectAction is called.
type EGreedyNNPolicy interface {
	network.NeuralNet
	SetEpsilon(float64)
	Epsilon() float64

	// SelectAction selects an action using the action values computed
	// by the last run of the network's graph, returning the action and
	// its predicted value
	SelectAction() (int, float64, error)
}
