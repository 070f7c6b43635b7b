// Package ddqn implements a Double Deep Q-Network which minimizes
// costs, with support for the discounted reach-avoid Bellman backup.
package ddqn

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/reachavoid/agent"
	"github.com/samuelfneumann/reachavoid/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/reachavoid/environment"
	"github.com/samuelfneumann/reachavoid/expreplay"
	"github.com/samuelfneumann/reachavoid/network"
	"github.com/samuelfneumann/reachavoid/solver"
	ts "github.com/samuelfneumann/reachavoid/timestep"
)

// DDQN implements the Double Deep Q-Network algorithm for minimizing
// costs. Action values are costs-to-go, so greedy actions are those of
// minimum value.
//
// In RA mode, the update target is the discounted reach-avoid Bellman
// backup over the safety margin g and target margin l of each state,
// so that the learned value of a state is positive if the state can
// not reach the target set without first entering the failure set.
// In Normal mode the update target is the usual r + γ * Q(s', a').
//
// In both modes the next action a' is chosen greedily by the online
// network and, if the agent is Double, evaluated by the target
// network.
type DDQN struct {
	mode       Mode
	double     bool
	numActions int
	features   int
	batchSize  int

	// Action selection policies. Both policies share a single network
	// of batch size 1 which holds the online weights.
	behaviourPolicy *policy.EGreedyMin
	greedyPolicy    *policy.EGreedyMin
	policyVM        G.VM

	// Online network with a batch of inputs whose weights are adapted
	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     *solver.Solver
	loss       Loss

	// Copy of the online network used to select next actions
	evalNet   network.NeuralNet
	evalNetVM G.VM

	// Network that evaluates next actions for the update target
	targetNet   network.NeuralNet
	targetNetVM G.VM

	// Input nodes of the trainNet graph
	selectedActions *G.Node // One-hot actions taken in each state
	updateTargets   *G.Node // Update target of each state-action pair

	cost    *G.Node
	costVal *G.Value

	maxGradNorm float64

	// Target network updates
	softUpdate         bool
	tau                float64
	hardUpdateInterval int
	gradientSteps      int

	// Hyperparameter schedules
	epsilon       float64
	epsilonEnd    float64
	epsilonPeriod int
	epsilonDecay  float64
	gamma         float64
	gammaPeriod   int
	gammaDecay    float64
	lrPeriod      int
	lrDecay       float64
	epoch         int

	replay *expreplay.Memory

	// Previous timestep, used to construct transitions
	prevStep ts.TimeStep

	eval bool // Whether or not in evaluation mode
}

// New creates and returns a new DDQN agent
func New(env environment.Environment, config Config,
	seed int64) (*DDQN, error) {
	numActions, err := env.ActionSpec().NumActions()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// Ensure the configuration is valid
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	batchSize := config.BatchSize()
	features := env.ObservationSpec().Shape.Len()

	// Policy network for selecting actions
	policyNet, err := network.NewMultiHeadMLP(
		features,
		1, // For the policy, we only need to select a single action
		numActions,
		G.NewGraph(),
		config.PolicyLayers,
		config.Biases,
		config.InitWFn.InitWFn(),
		config.Activations,
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy network: %v",
			err)
	}
	behaviourPolicy, err := policy.NewEGreedyMin(config.Epsilon, policyNet,
		seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}
	greedyPolicy, err := policy.NewEGreedyMin(0.0, policyNet, seed+1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create greedy policy: %v",
			err)
	}
	policyVM := G.NewTapeMachine(policyNet.Graph())

	// Create a training network which learns the weights
	trainNet, err := policyNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning network: %v",
			err)
	}
	gTrain := trainNet.Graph()

	// Action selected in each state. This is needed to compute the loss
	// using the correct action value since the network outputs an
	// action value for each environmental action
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batchSize, numActions),
		G.WithInit(G.Zeroes()),
	)
	updateTargets := G.NewVector(
		gTrain,
		tensor.Float64,
		G.WithName("updateTarget"),
		G.WithShape(batchSize),
		G.WithInit(G.Zeroes()),
	)

	selectedActionsValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	cost, err := addLoss(config.loss(), selectedActionsValue, updateTargets)
	if err != nil {
		return nil, fmt.Errorf("new: could not create loss: %v", err)
	}
	costVal := new(G.Value)
	G.Read(cost, costVal)

	// Compute the gradient with respect to the loss
	if _, err = G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}

	// Compile the trainNet graph into a VM
	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Learnables()...),
	)

	evalNet, err := policyNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create evaluation network: "+
			"%v", err)
	}
	evalNetVM := G.NewTapeMachine(evalNet.Graph())

	// Create the target network which provides the update target
	targetNet, err := policyNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	// Each agent owns its solver so that learning rate schedules do not
	// leak into the configuration
	s := *config.Solver
	s.Solver = s.Config.Create()

	replay, err := config.ExpReplay.Create(features, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	return &DDQN{
		mode:       config.Mode,
		double:     config.Double,
		numActions: numActions,
		features:   features,
		batchSize:  batchSize,

		behaviourPolicy: behaviourPolicy,
		greedyPolicy:    greedyPolicy,
		policyVM:        policyVM,

		trainNet:   trainNet,
		trainNetVM: trainNetVM,
		solver:     &s,
		loss:       config.loss(),

		evalNet:   evalNet,
		evalNetVM: evalNetVM,

		targetNet:   targetNet,
		targetNetVM: targetNetVM,

		selectedActions: selectedActions,
		updateTargets:   updateTargets,
		cost:            cost,
		costVal:         costVal,

		maxGradNorm: config.MaxGradNorm,

		softUpdate:         config.SoftUpdate,
		tau:                config.Tau,
		hardUpdateInterval: config.HardUpdateInterval,

		epsilon:       config.Epsilon,
		epsilonEnd:    config.EpsilonEnd,
		epsilonPeriod: config.EpsilonPeriod,
		epsilonDecay:  config.EpsilonDecay,
		gamma:         config.Gamma,
		gammaPeriod:   config.GammaPeriod,
		gammaDecay:    config.GammaDecay,
		lrPeriod:      config.LRPeriod,
		lrDecay:       config.LRDecay,

		replay: replay,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DDQN) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		log.WithField("step", t.Number).Warn("ObserveFirst() should only " +
			"be called on the first timestep")
	}
	d.prevStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep. The transition from the previously observed timestep is
// added to the replay buffer.
func (d *DDQN) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods cannot have "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}
	if d.prevStep.Observation == nil {
		return fmt.Errorf("observe: ObserveFirst() must be called before " +
			"Observe()")
	}

	a := int(action.AtVec(0))
	if a < 0 || a >= d.numActions {
		return fmt.Errorf("observe: illegal action %v", a)
	}

	transition := ts.NewTransition(d.prevStep, a, nextStep)
	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: %v", err)
	}

	d.prevStep = nextStep
	return nil
}

// Step updates the weights of the Agent's networks using a single
// minibatch of transitions sampled from the replay buffer, returning
// the loss on the minibatch. If the replay buffer does not yet hold
// enough transitions, Step returns agent.ErrNotReady.
func (d *DDQN) Step() (float64, error) {
	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return 0, agent.ErrNotReady
	} else if err != nil {
		return 0, fmt.Errorf("step: could not sample from replay: %v", err)
	}

	targets, err := d.computeTargets(batch)
	if err != nil {
		return 0, fmt.Errorf("step: %v", err)
	}

	// Set the inputs of the training graph
	if err := d.trainNet.SetInput(batch.States); err != nil {
		return 0, fmt.Errorf("step: could not set trainNet input: %v", err)
	}
	actions := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(oneHot(batch.Actions, d.numActions)),
	)
	if err := G.Let(d.selectedActions, actions); err != nil {
		return 0, fmt.Errorf("step: could not set actions: %v", err)
	}
	targetTensor := tensor.New(
		tensor.WithShape(d.batchSize),
		tensor.WithBacking(targets),
	)
	if err := G.Let(d.updateTargets, targetTensor); err != nil {
		return 0, fmt.Errorf("step: could not set update targets: %v", err)
	}

	// Run the learning step
	if err := d.trainNetVM.RunAll(); err != nil {
		return 0, fmt.Errorf("step: could not run trainNet: %v", err)
	}
	loss := (*d.costVal).Data().(float64)

	if d.maxGradNorm > 0 {
		_, err := clipGradNorm(d.trainNet.Learnables(), d.maxGradNorm)
		if err != nil {
			return 0, fmt.Errorf("step: %v", err)
		}
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return 0, fmt.Errorf("step: could not step solver: %v", err)
	}
	d.trainNetVM.Reset()
	d.gradientSteps++

	if err := d.updateTargetNet(); err != nil {
		return 0, fmt.Errorf("step: %v", err)
	}

	// Keep the policy and evaluation networks up to date
	if err := d.syncOnline(); err != nil {
		return 0, fmt.Errorf("step: %v", err)
	}

	return loss, nil
}

// computeTargets computes the update targets of a batch of
// transitions
func (d *DDQN) computeTargets(batch expreplay.Batch) ([]float64, error) {
	// a' = argmin Q(s', a') using the online network
	onlineValues, err := runNet(d.evalNet, d.evalNetVM, batch.NextStates)
	if err != nil {
		return nil, fmt.Errorf("computeTargets: could not compute next "+
			"action values: %v", err)
	}
	nextActions := argminRows(onlineValues, d.numActions)

	values := onlineValues
	if d.double {
		values, err = runNet(d.targetNet, d.targetNetVM, batch.NextStates)
		if err != nil {
			return nil, fmt.Errorf("computeTargets: could not compute "+
				"target action values: %v", err)
		}
	}
	nextValues := gatherActions(values, nextActions, d.numActions)

	if d.mode == RA {
		return reachAvoidTargets(nextValues, batch.Terminal,
			batch.SafetyMargins, batch.TargetMargins, d.gamma), nil
	}
	return costTargets(nextValues, batch.Terminal, batch.Rewards,
		d.gamma), nil
}

// updateTargetNet updates the target network towards the online
// network
func (d *DDQN) updateTargetNet() error {
	if d.softUpdate {
		if err := d.targetNet.Polyak(d.trainNet, d.tau); err != nil {
			return fmt.Errorf("updateTargetNet: %v", err)
		}
	} else if d.gradientSteps%d.hardUpdateInterval == 0 {
		if err := d.targetNet.Set(d.trainNet); err != nil {
			return fmt.Errorf("updateTargetNet: %v", err)
		}
	}
	return nil
}

// syncOnline copies the online weights to the networks which act and
// select next actions
func (d *DDQN) syncOnline() error {
	if err := d.behaviourPolicy.Set(d.trainNet); err != nil {
		return fmt.Errorf("syncOnline: could not set policy: %v", err)
	}
	if err := d.evalNet.Set(d.trainNet); err != nil {
		return fmt.Errorf("syncOnline: could not set eval net: %v", err)
	}
	return nil
}

// runNet runs a network's graph on a batch of inputs, returning a copy
// of the network's output
func runNet(net network.NeuralNet, vm G.VM, input []float64) ([]float64,
	error) {
	if err := net.SetInput(input); err != nil {
		return nil, err
	}
	if err := vm.RunAll(); err != nil {
		return nil, err
	}
	defer vm.Reset()

	output := net.Output().Data().([]float64)
	values := make([]float64, len(output))
	copy(values, output)
	return values, nil
}

// SelectAction runs the policy's VM and then returns an action
// selected by the behaviour policy in training mode or the greedy
// policy in evaluation mode.
func (d *DDQN) SelectAction(t ts.TimeStep) (*mat.VecDense, error) {
	p := d.behaviourPolicy
	if d.eval {
		p = d.greedyPolicy
	}

	if _, err := runNet(p, d.policyVM, t.Observation.RawVector().Data); err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}

	action, _, err := p.SelectAction()
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}
	return mat.NewVecDense(1, []float64{float64(action)}), nil
}

// ActionValues returns the predicted value of each action in a state
func (d *DDQN) ActionValues(obs mat.Vector) ([]float64, error) {
	if obs.Len() != d.features {
		return nil, fmt.Errorf("actionValues: invalid observation size "+
			"\n\twant(%v)\n\thave(%v)", d.features, obs.Len())
	}
	input := mat.VecDenseCopyOf(obs).RawVector().Data
	values, err := runNet(d.greedyPolicy, d.policyVM, input)
	if err != nil {
		return nil, fmt.Errorf("actionValues: %v", err)
	}
	return values, nil
}

// Value returns the predicted value of a state, the minimum action
// value in the state
func (d *DDQN) Value(obs mat.Vector) (float64, error) {
	values, err := d.ActionValues(obs)
	if err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}
	return values[argminRows(values, d.numActions)[0]], nil
}

// EndEpisode applies the hyperparameter schedules at the end of an
// episode
func (d *DDQN) EndEpisode() {
	if decayLR(d.epoch, d.lrPeriod) {
		lr := d.solver.StepSize() * d.lrDecay
		if err := d.solver.SetStepSize(lr); err != nil {
			log.WithError(err).Warn("could not decay learning rate")
		}
	}

	if atPeriod(d.epoch, d.epsilonPeriod) {
		d.epsilon = decayEpsilon(d.epsilon, d.epsilonDecay, d.epsilonEnd)
		d.behaviourPolicy.SetEpsilon(d.epsilon)
	}

	if atPeriod(d.epoch, d.gammaPeriod) {
		d.gamma = annealGamma(d.gamma, d.gammaDecay)
	}

	d.epoch++
}

// Save saves the online network to a file
func (d *DDQN) Save(filename string) error {
	data, err := network.Encode(d.trainNet)
	if err != nil {
		return errors.Wrap(err, "save: could not encode network")
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrapf(err, "save: could not write %v", filename)
	}
	return nil
}

// Load loads the weights of a network saved with Save into both the
// online and target networks
func (d *DDQN) Load(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "load: could not read %v", filename)
	}

	net, err := network.Decode(data)
	if err != nil {
		return errors.Wrapf(err, "load: could not decode %v", filename)
	}
	if net.Features() != d.features || net.Outputs() != d.numActions {
		return fmt.Errorf("load: incompatible network \n\twant(%v -> %v)"+
			"\n\thave(%v -> %v)", d.features, d.numActions, net.Features(),
			net.Outputs())
	}

	if err := d.trainNet.Set(net); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	if err := d.targetNet.Set(net); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return d.syncOnline()
}

// Eval sets the agent into evaluation mode
func (d *DDQN) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DDQN) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DDQN) IsEval() bool {
	return d.eval
}

// Epsilon returns the current exploration rate
func (d *DDQN) Epsilon() float64 {
	return d.epsilon
}

// Gamma returns the current discount factor
func (d *DDQN) Gamma() float64 {
	return d.gamma
}

// StepSize returns the current learning rate
func (d *DDQN) StepSize() float64 {
	return d.solver.StepSize()
}

// ReplayLen returns the number of transitions in the replay buffer
func (d *DDQN) ReplayLen() int {
	return d.replay.Len()
}

// ReplayReady returns whether the replay buffer holds enough
// transitions to update
func (d *DDQN) ReplayReady() bool {
	return d.replay.Ready()
}

// GradientSteps returns the number of gradient steps taken
func (d *DDQN) GradientSteps() int {
	return d.gradientSteps
}

// Close closes all VMs used by the agent
func (d *DDQN) Close() error {
	for _, vm := range []G.VM{d.policyVM, d.trainNetVM, d.evalNetVM,
		d.targetNetVM} {
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return nil
}

var _ agent.Closer = &DDQN{}
var _ agent.Valuer = &DDQN{}
