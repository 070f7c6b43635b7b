// Package experiment implements functionality for training reach-avoid
// agents on PointMass environments
package experiment

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/reachavoid/agent"
	"github.com/samuelfneumann/reachavoid/agent/nonlinear/discrete/ddqn"
	"github.com/samuelfneumann/reachavoid/environment/probmap"
)

// Record summarizes a single training episode
type Record struct {
	Episode     int
	RunningCost float64 // Exponential moving average of episode costs
	Cost        float64 // Total cost of the episode
	Loss        float64 // Loss of the last update in the episode
}

// Config represents a configuration of a training experiment
type Config struct {
	Agent agent.TypedConfig
	Env   probmap.Config

	MaxEpisodes     int
	MaxEpisodeSteps int // 0 for no limit other than the environment's

	// Supervised warmup of the action values towards max(l(x), g(x))
	// on uniformly sampled states, 0 iterations for no warmup
	WarmupIterations int
	WarmupSamples    int

	// Every ReportPeriod episodes, greedy rollouts are run, progress is
	// logged, and the agent is checkpointed
	ReportPeriod   int
	Rollouts       int
	RolloutHorizon int

	// Training stops once the running cost falls to this threshold
	RunningCostThreshold float64

	// Checkpoint directory, empty for no checkpoints
	SaveDir   string
	MaxModels int // Checkpoints kept, 0 to keep all

	Seed int64
}

// DefaultConfig returns the default experiment configuration, a
// reach-avoid DDQN agent on the curvy map
func DefaultConfig() Config {
	return Config{
		Agent: agent.NewTypedConfig(ddqn.DefaultConfig()),
		Env:   probmap.DefaultConfig(),

		MaxEpisodes:     20000,
		MaxEpisodeSteps: 100,

		WarmupIterations: 1000,
		WarmupSamples:    100,

		ReportPeriod:   500,
		Rollouts:       100,
		RolloutHorizon: 200,

		RunningCostThreshold: -0.95,

		SaveDir:   "models",
		MaxModels: 5,
	}
}

// Validate checks a Config for consistency
func (c Config) Validate() error {
	if c.Agent.Config == nil {
		return fmt.Errorf("validate: an agent configuration is required")
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("validate: invalid agent: %v", err)
	}
	if err := c.Env.Validate(); err != nil {
		return fmt.Errorf("validate: invalid environment: %v", err)
	}

	if c.MaxEpisodes < 1 {
		return fmt.Errorf("validate: at least one episode is required")
	}
	if c.MaxEpisodeSteps < 0 {
		return fmt.Errorf("validate: episode step limit must be "+
			"non-negative \n\thave(%v)", c.MaxEpisodeSteps)
	}
	if c.WarmupIterations < 0 {
		return fmt.Errorf("validate: warmup iterations must be non-negative")
	}
	if c.WarmupIterations > 0 && c.WarmupSamples < 1 {
		return fmt.Errorf("validate: warmup requires a positive number of " +
			"samples")
	}
	if c.ReportPeriod < 1 {
		return fmt.Errorf("validate: report period must be positive")
	}
	if c.Rollouts < 0 || c.RolloutHorizon < 0 {
		return fmt.Errorf("validate: rollouts and rollout horizon must be " +
			"non-negative")
	}
	if c.MaxModels < 0 {
		return fmt.Errorf("validate: max models must be non-negative")
	}
	return nil
}

// Load loads a Config from a JSON file
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, errors.Wrap(err, "load: could not read config")
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrapf(err, "load: could not decode %v",
			filename)
	}
	return c, nil
}

// Save saves the Config to a JSON file
func (c Config) Save(filename string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return errors.Wrap(err, "save: could not encode config")
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrapf(err, "save: could not write %v", filename)
	}
	return nil
}
