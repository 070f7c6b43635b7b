// Package policy implements policies using nonlinear function
// approximation with Gorgonia.
package policy

import (
	"fmt"
	"math/rand"

	"github.com/samuelfneumann/reachavoid/agent"
	"github.com/samuelfneumann/reachavoid/network"
	"github.com/samuelfneumann/reachavoid/utils/floatutils"
)

// EGreedyMin implements an epsilon greedy policy over action costs
// using a feedforward neural network. Given an environment with N
// actions, the network produces N outputs, each predicting the cost of
// a distinct action. The greedy action is the action of minimum cost.
//
// EGreedyMin does not have a VM of its own. An external VM should be
// used to run the computational graph of the policy, and the VM should
// always be run before selecting an action:
//
//		Set up VM with policy's graph:	vm = NewTapeMachine(policy.Graph())
//		Set input to policy's network:	policy.SetInput(obs)
//		Predict the action values:		vm.RunAll()
//		Select an action:				action, _, err = policy.SelectAction()
type EGreedyMin struct {
	network.NeuralNet
	epsilon float64

	rng  *rand.Rand
	seed int64
}

// NewEGreedyMin returns a new EGreedyMin policy which selects actions
// using the predictions of net. The network must have a batch size of
// 1.
func NewEGreedyMin(epsilon float64, net network.NeuralNet,
	seed int64) (*EGreedyMin, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newEGreedyMin: policy network must have "+
			"batch size 1 \n\thave(%v)", net.BatchSize())
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newEGreedyMin: epsilon must be in [0, 1]")
	}

	return &EGreedyMin{
		NeuralNet: net,
		epsilon:   epsilon,
		rng:       rand.New(rand.NewSource(seed)),
		seed:      seed,
	}, nil
}

// Network returns the neural network function approximator that the
// policy uses.
func (e *EGreedyMin) Network() network.NeuralNet {
	return e.NeuralNet
}

// SetEpsilon sets the value for epsilon in the epsilon greedy policy.
func (e *EGreedyMin) SetEpsilon(ε float64) {
	e.epsilon = ε
}

// Epsilon gets the value of epsilon for the policy.
func (e *EGreedyMin) Epsilon() float64 {
	return e.epsilon
}

// SelectAction selects an action according to the action values
// generated from the last run of the computational graph. This
// funtion returns the action selected as well as the approximated value
// of that action.
func (e *EGreedyMin) SelectAction() (int, float64, error) {
	if e.Output() == nil {
		return 0, 0, fmt.Errorf("selectAction: vm must be run before " +
			"selecting an action")
	}

	// Get the action values from the last run of the computational graph
	actionValues := e.Output().Data().([]float64)

	// With probability epsilon return a random action
	if e.epsilon > 0 && e.rng.Float64() < e.epsilon {
		action := e.rng.Intn(len(actionValues))
		return action, actionValues[action], nil
	}

	// If multiple actions have min value, return a random min-valued
	// action
	_, minIndices := floatutils.MinSlice(actionValues)
	action := minIndices[e.rng.Intn(len(minIndices))]
	return action, actionValues[action], nil
}

var _ agent.EGreedyNNPolicy = &EGreedyMin{}
