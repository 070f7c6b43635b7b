package ddqn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/reachavoid/network"
)

// WarmupSampler returns a batch of row-major states and the value
// each state should be regressed towards
type WarmupSampler func() (states, targets []float64, err error)

// QWarmup regresses all action values of the online network of a DDQN
// agent towards a fixed target value per state. The regression uses a
// separate copy of the online network and solver, so the agent's
// solver state is untouched. Finish must be called to copy the learned
// weights back into the agent, or Close to discard them.
type QWarmup struct {
	agent *DDQN

	net       network.NeuralNet
	vm        G.VM
	solver    G.Solver
	targets   *G.Node
	cost      *G.Node
	costVal   *G.Value
	batchSize int
	closed    bool
}

// NewQWarmup returns a new QWarmup for the agent which regresses
// batches of batchSize states
func (d *DDQN) NewQWarmup(batchSize int) (*QWarmup, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("newQWarmup: batch size must be positive")
	}

	net, err := d.trainNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newQWarmup: could not clone network: %v",
			err)
	}

	targets := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithName("warmupTargets"),
		G.WithShape(batchSize, d.numActions),
		G.WithInit(G.Zeroes()),
	)
	cost, err := addLoss(d.loss, net.Prediction(), targets)
	if err != nil {
		return nil, fmt.Errorf("newQWarmup: %v", err)
	}
	costVal := new(G.Value)
	G.Read(cost, costVal)

	if _, err := G.Grad(cost, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("newQWarmup: could not compute gradient: %v",
			err)
	}
	vm := G.NewTapeMachine(net.Graph(), G.BindDualValues(net.Learnables()...))

	return &QWarmup{
		agent:     d,
		net:       net,
		vm:        vm,
		solver:    d.solver.Config.Create(),
		targets:   targets,
		cost:      cost,
		costVal:   costVal,
		batchSize: batchSize,
	}, nil
}

// Step takes a single gradient step regressing each action value of
// each state towards the target of the state, returning the loss
func (q *QWarmup) Step(states, targets []float64) (float64, error) {
	if q.closed {
		return 0, fmt.Errorf("step: warmup is closed")
	}
	if len(targets) != q.batchSize {
		return 0, fmt.Errorf("step: incorrect number of targets "+
			"\n\twant(%v)\n\thave(%v)", q.batchSize, len(targets))
	}
	if err := q.net.SetInput(states); err != nil {
		return 0, fmt.Errorf("step: %v", err)
	}

	numActions := q.agent.numActions
	backing := make([]float64, q.batchSize*numActions)
	for i, target := range targets {
		for j := 0; j < numActions; j++ {
			backing[i*numActions+j] = target
		}
	}
	t := tensor.New(
		tensor.WithShape(q.batchSize, numActions),
		tensor.WithBacking(backing),
	)
	if err := G.Let(q.targets, t); err != nil {
		return 0, fmt.Errorf("step: could not set targets: %v", err)
	}

	if err := q.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("step: %v", err)
	}
	defer q.vm.Reset()
	loss := (*q.costVal).Data().(float64)

	if q.agent.maxGradNorm > 0 {
		if _, err := clipGradNorm(q.net.Learnables(),
			q.agent.maxGradNorm); err != nil {
			return 0, fmt.Errorf("step: %v", err)
		}
	}
	if err := q.solver.Step(q.net.Model()); err != nil {
		return 0, fmt.Errorf("step: could not step solver: %v", err)
	}

	return loss, nil
}

// Finish copies the warmed up weights into every network of the agent
// and releases the resources of the QWarmup
func (q *QWarmup) Finish() error {
	if q.closed {
		return fmt.Errorf("finish: warmup is closed")
	}
	d := q.agent
	if err := d.trainNet.Set(q.net); err != nil {
		return fmt.Errorf("finish: %v", err)
	}
	if err := d.targetNet.Set(q.net); err != nil {
		return fmt.Errorf("finish: %v", err)
	}
	if err := d.syncOnline(); err != nil {
		return fmt.Errorf("finish: %v", err)
	}
	return q.Close()
}

// Close releases the resources of the QWarmup without changing the
// agent. Closing a closed QWarmup is a no-op.
func (q *QWarmup) Close() error {
	if q.closed {
		return nil
	}
	q.closed = true
	return q.vm.Close()
}

// WarmupQ regresses the action values of the agent towards the targets
// returned by sample for the given number of iterations, then copies
// the learned weights into the online and target networks. The loss
// of the final iteration is returned.
func (d *DDQN) WarmupQ(batchSize, iterations int,
	sample WarmupSampler) (float64, error) {
	warmup, err := d.NewQWarmup(batchSize)
	if err != nil {
		return 0, fmt.Errorf("warmupQ: %v", err)
	}

	var loss float64
	for i := 0; i < iterations; i++ {
		states, targets, err := sample()
		if err != nil {
			warmup.Close()
			return 0, fmt.Errorf("warmupQ: could not sample: %v", err)
		}
		if loss, err = warmup.Step(states, targets); err != nil {
			warmup.Close()
			return 0, fmt.Errorf("warmupQ: %v", err)
		}
	}

	if err := warmup.Finish(); err != nil {
		return 0, fmt.Errorf("warmupQ: %v", err)
	}
	return loss, nil
}
