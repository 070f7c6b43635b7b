package ddqn

import (
	"fmt"

	"github.com/samuelfneumann/reachavoid/agent"
	"github.com/samuelfneumann/reachavoid/environment"
	"github.com/samuelfneumann/reachavoid/expreplay"
	"github.com/samuelfneumann/reachavoid/initwfn"
	"github.com/samuelfneumann/reachavoid/network"
	"github.com/samuelfneumann/reachavoid/solver"
)

func init() {
	// Register Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.EGreedyDDQNMLP, Config{})
}

// Mode determines the update target of the DDQN agent
type Mode string

const (
	// RA uses the discounted reach-avoid Bellman backup over the
	// safety and target margins of each state
	RA Mode = "RA"

	// Normal uses the standard cost-minimizing Q-learning target
	Normal Mode = "Normal"
)

// Loss determines the regression loss between predicted action values
// and their update targets
type Loss string

const (
	Huber Loss = "Huber" // Smooth L1 loss with threshold 1
	MSE   Loss = "MSE"
)

// Config implements a configuration for a DDQN agent
type Config struct {
	Mode Mode

	PolicyLayers []int                 // Layer sizes in neural net
	Biases       []bool                // Whether each layer should have a bias
	Activations  []*network.Activation // Activation of each layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	Loss Loss

	// Exploration schedule: every EpsilonPeriod episodes,
	// ε <- max(ε * EpsilonDecay, EpsilonEnd)
	Epsilon       float64
	EpsilonEnd    float64
	EpsilonPeriod int
	EpsilonDecay  float64

	// Discount schedule: every GammaPeriod episodes,
	// γ <- min(1 - (1 - γ) * GammaDecay, 1)
	Gamma       float64
	GammaPeriod int
	GammaDecay  float64

	// Learning rate schedule: every LRPeriod episodes, α <- α * LRDecay
	LRPeriod int
	LRDecay  float64

	// Maximum global L2 norm of the gradient, <= 0 for no clipping
	MaxGradNorm float64

	// Double determines whether the target network evaluates the
	// next action. The next action is always chosen by the online
	// network.
	Double bool

	// Target net updates
	SoftUpdate         bool    // Polyak average every gradient step
	Tau                float64 // Polyak averaging constant
	HardUpdateInterval int     // Gradient steps between hard updates

	// Experience replay parameters
	ExpReplay expreplay.Config
}

// DefaultConfig returns a reach-avoid DDQN configuration
func DefaultConfig() Config {
	adam, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: %v", err))
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: %v", err))
	}

	return Config{
		Mode:         RA,
		PolicyLayers: []int{100, 20},
		Biases:       []bool{true, true},
		Activations:  []*network.Activation{network.TanH(), network.TanH()},
		Solver:       adam,
		InitWFn:      init,
		Loss:         Huber,

		Epsilon:       0.95,
		EpsilonEnd:    0.05,
		EpsilonPeriod: 100,
		EpsilonDecay:  0.6,

		Gamma:       0.9,
		GammaPeriod: 200,
		GammaDecay:  0.5,

		LRPeriod: 500,
		LRDecay:  0.8,

		MaxGradNorm: 1.0,
		Double:      true,

		SoftUpdate:         true,
		Tau:                0.01,
		HardUpdateInterval: 1000,

		ExpReplay: expreplay.Config{
			Capacity:  10000,
			BatchSize: 64,
		},
	}
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.BatchSize
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.EGreedyDDQNMLP
}

// loss returns the configured loss, defaulting to the Huber loss
func (c Config) loss() Loss {
	if c.Loss == "" {
		return Huber
	}
	return c.Loss
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDQN agent.
func (c Config) Validate() error {
	if c.Mode != RA && c.Mode != Normal {
		return fmt.Errorf("validate: unknown mode %q", c.Mode)
	}
	if l := c.loss(); l != Huber && l != MSE {
		return fmt.Errorf("validate: unknown loss %q", l)
	}

	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}
	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: a solver is required")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: a weight initializer is required")
	}
	if err := c.InitWFn.Validate(c.PolicyLayers); err != nil {
		return fmt.Errorf("validate: %v", err)
	}

	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [0, 1] "+
			"\n\thave(%v)", c.Epsilon)
	}
	if c.EpsilonEnd < 0 || c.EpsilonEnd > c.Epsilon {
		return fmt.Errorf("validate: final epsilon must be in [0, %v] "+
			"\n\thave(%v)", c.Epsilon, c.EpsilonEnd)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1] \n\thave(%v)",
			c.Gamma)
	}
	if c.EpsilonPeriod < 1 || c.GammaPeriod < 1 || c.LRPeriod < 1 {
		return fmt.Errorf("validate: schedule periods must be positive")
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon decay must be in (0, 1]")
	}
	if c.GammaDecay < 0 || c.GammaDecay > 1 {
		return fmt.Errorf("validate: gamma decay must be in [0, 1]")
	}
	if c.LRDecay <= 0 || c.LRDecay > 1 {
		return fmt.Errorf("validate: learning rate decay must be in (0, 1]")
	}

	if c.SoftUpdate && (c.Tau <= 0 || c.Tau > 1) {
		return fmt.Errorf("validate: tau must be in (0, 1] \n\thave(%v)",
			c.Tau)
	}
	if !c.SoftUpdate && c.HardUpdateInterval < 1 {
		return fmt.Errorf("validate: target networks must be updated at "+
			"positive intervals \n\twant(>0) \n\thave(%v)",
			c.HardUpdateInterval)
	}

	if err := c.ExpReplay.Validate(); err != nil {
		return fmt.Errorf("validate: invalid replay config: %v", err)
	}

	return nil
}

// CreateAgent creates a new DDQN agent based on the configuration
func (c Config) CreateAgent(e environment.Environment,
	seed int64) (agent.Agent, error) {
	return New(e, c, seed)
}
