package experiment

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/reachavoid/agent"
	"github.com/samuelfneumann/reachavoid/agent/nonlinear/discrete/ddqn"
	"github.com/samuelfneumann/reachavoid/analysis"
	"github.com/samuelfneumann/reachavoid/environment"
	"github.com/samuelfneumann/reachavoid/environment/probmap"
	"github.com/samuelfneumann/reachavoid/experiment/checkpointer"
	"github.com/samuelfneumann/reachavoid/experiment/tracker"
	ts "github.com/samuelfneumann/reachavoid/timestep"
	"github.com/samuelfneumann/reachavoid/utils/progressbar"
)

// Learner is an agent which can be trained by a Trainer
type Learner interface {
	agent.Closer
	agent.Valuer
	checkpointer.Saver

	WarmupQ(batch, iterations int, sample ddqn.WarmupSampler) (float64,
		error)
	ReplayReady() bool
	Epsilon() float64
	Gamma() float64
	StepSize() float64
}

// Trainer trains an agent online in a PointMass environment. Greedy
// rollouts are periodically run in a separate copy of the environment
// so that training episodes are never interrupted.
type Trainer struct {
	config Config

	env     *probmap.PointMass
	evalEnv *probmap.PointMass
	agent   Learner
	starter *environment.UniformStarter

	trackers     []tracker.Tracker
	checkpointer checkpointer.Checkpointer

	// Progress bars of warmups are written to progress
	progress io.Writer
	log      *log.Entry
}

// NewTrainer returns a new Trainer for the experiment described by c.
// Trackers track every timestep of the training episodes.
func NewTrainer(c Config, trackers ...tracker.Tracker) (*Trainer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newTrainer: %v", err)
	}

	seed := uint64(c.Seed)
	env, err := probmap.New(c.Env, seed)
	if err != nil {
		return nil, fmt.Errorf("newTrainer: could not create environment: "+
			"%v", err)
	}
	evalEnv, err := probmap.New(c.Env, seed+1)
	if err != nil {
		return nil, fmt.Errorf("newTrainer: could not create evaluation "+
			"environment: %v", err)
	}

	a, err := c.Agent.CreateAgent(env, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("newTrainer: could not create agent: %v", err)
	}
	learner, ok := a.(Learner)
	if !ok {
		return nil, fmt.Errorf("newTrainer: agent type %v cannot be trained",
			c.Agent.Type)
	}

	t := &Trainer{
		config:   c,
		env:      env,
		evalEnv:  evalEnv,
		agent:    learner,
		starter:  environment.NewUniformStarter(env.Bounds(), seed+2),
		trackers: trackers,
		progress: os.Stderr,
		log: log.WithFields(log.Fields{
			"agent": c.Agent.Type,
			"env":   env.String(),
		}),
	}

	if c.SaveDir != "" {
		rolling, err := checkpointer.NewRolling(c.SaveDir, c.MaxModels,
			learner)
		if err != nil {
			return nil, fmt.Errorf("newTrainer: %v", err)
		}
		t.checkpointer = checkpointer.NewNStep(c.ReportPeriod, rolling)
	}

	return t, nil
}

// SetProgressOutput sets the writer that warmup progress bars are
// written to
func (t *Trainer) SetProgressOutput(w io.Writer) {
	t.progress = w
}

// Agent returns the agent being trained
func (t *Trainer) Agent() Learner {
	return t.agent
}

// Env returns the training environment
func (t *Trainer) Env() *probmap.PointMass {
	return t.env
}

// Run runs the entire experiment, returning a Record of each training
// episode. Tracked data is saved once training ends.
func (t *Trainer) Run() ([]Record, error) {
	if err := t.warmupBuffer(); err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}
	if err := t.warmupQ(); err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}

	records := make([]Record, 0, t.config.MaxEpisodes)
	var runningCost float64
	for ep := 0; ep < t.config.MaxEpisodes; ep++ {
		cost, loss, steps, err := t.runEpisode()
		if err != nil {
			return records, fmt.Errorf("run: episode %d: %v", ep, err)
		}
		t.agent.EndEpisode()

		runningCost = 0.9*runningCost + 0.1*cost
		records = append(records, Record{
			Episode:     ep,
			RunningCost: runningCost,
			Cost:        cost,
			Loss:        loss,
		})
		t.log.WithFields(log.Fields{
			"episode": ep,
			"cost":    cost,
			"steps":   steps,
		}).Debug("episode complete")

		if ep%t.config.ReportPeriod == 0 {
			if err := t.report(ep, runningCost, cost); err != nil {
				return records, fmt.Errorf("run: %v", err)
			}
		}
		if t.checkpointer != nil {
			if err := t.checkpointer.Checkpoint(ep); err != nil {
				return records, fmt.Errorf("run: %v", err)
			}
		}

		if runningCost <= t.config.RunningCostThreshold {
			t.log.WithFields(log.Fields{
				"episode":      ep,
				"running_cost": runningCost,
			}).Info("solved")
			break
		}
	}

	if err := t.save(); err != nil {
		return records, fmt.Errorf("run: %v", err)
	}
	return records, nil
}

// warmupBuffer fills the replay buffer with one-step transitions from
// freshly sampled starting states until the agent is ready to learn
func (t *Trainer) warmupBuffer() error {
	var n int
	for !t.agent.ReplayReady() {
		step, err := t.env.Reset()
		if err != nil {
			return fmt.Errorf("warmupBuffer: %v", err)
		}
		if err := t.agent.ObserveFirst(step); err != nil {
			return fmt.Errorf("warmupBuffer: %v", err)
		}

		action, err := t.agent.SelectAction(step)
		if err != nil {
			return fmt.Errorf("warmupBuffer: %v", err)
		}
		next, _, err := t.env.Step(action)
		if err != nil {
			return fmt.Errorf("warmupBuffer: %v", err)
		}
		if err := t.agent.Observe(action, next); err != nil {
			return fmt.Errorf("warmupBuffer: %v", err)
		}
		n++
	}

	t.log.WithField("transitions", n).Info("replay buffer warmed up")
	return nil
}

// warmupQ regresses the agent's action values towards max(l(x), g(x))
// on uniformly sampled states
func (t *Trainer) warmupQ() error {
	iterations := t.config.WarmupIterations
	if iterations == 0 {
		return nil
	}
	samples := t.config.WarmupSamples

	bar := progressbar.NewProgressBar(t.progress, "warmup", 40, iterations)
	sample := func() ([]float64, []float64, error) {
		states := t.starter.StartN(samples)
		targets := make([]float64, samples)
		for i := range targets {
			state := states.RowView(i)
			targets[i] = math.Max(t.env.TargetMargin(state),
				t.env.SafetyMargin(state))
		}

		bar.Increment()
		bar.Display()
		return states.RawMatrix().Data, targets, nil
	}

	loss, err := t.agent.WarmupQ(samples, iterations, sample)
	bar.Close()
	if err != nil {
		return fmt.Errorf("warmupQ: %v", err)
	}

	t.log.WithField("loss", loss).Info("action values warmed up")
	return nil
}

// runEpisode runs a single training episode, returning the total cost
// of the episode, the loss of the last update, and the number of steps
// taken
func (t *Trainer) runEpisode() (float64, float64, int, error) {
	step, err := t.env.Reset()
	if err != nil {
		return 0, 0, 0, err
	}
	if err := t.agent.ObserveFirst(step); err != nil {
		return 0, 0, 0, err
	}
	t.track(step)

	var cost, loss float64
	maxSteps := t.config.MaxEpisodeSteps
	for done := false; !done; {
		var action *mat.VecDense
		action, err = t.agent.SelectAction(step)
		if err != nil {
			return 0, 0, 0, err
		}

		step, done, err = t.env.Step(action)
		if err != nil {
			return 0, 0, 0, err
		}
		if !done && maxSteps > 0 && step.Number >= maxSteps {
			step.SetEnd(ts.Timeout)
			done = true
		}
		cost += step.Reward
		t.track(step)

		if err := t.agent.Observe(action, step); err != nil {
			return 0, 0, 0, err
		}

		l, err := t.agent.Step()
		if err != nil && !errors.Is(err, agent.ErrNotReady) {
			return 0, 0, 0, err
		} else if err == nil {
			loss = l
		}
	}

	return cost, loss, step.Number, nil
}

// report runs greedy rollouts and logs the progress of training
func (t *Trainer) report(ep int, runningCost, cost float64) error {
	t.agent.Eval()
	defer t.agent.Train()

	trajectories, err := analysis.Rollouts(t.evalEnv, t.agent, nil,
		t.config.Rollouts, t.config.RolloutHorizon)
	if err != nil {
		return fmt.Errorf("report: %v", err)
	}
	rates := analysis.RolloutRates(trajectories)

	t.log.WithFields(log.Fields{
		"episode":      ep,
		"epsilon":      t.agent.Epsilon(),
		"gamma":        t.agent.Gamma(),
		"lr":           t.agent.StepSize(),
		"running_cost": runningCost,
		"cost":         cost,
		"success":      rates.Success,
		"failure":      rates.Failure,
		"unfinished":   rates.Unfinished,
	}).Info("report")
	return nil
}

// track tracks the current timestep by caching its data in each
// tracker
func (t *Trainer) track(step ts.TimeStep) {
	for _, tr := range t.trackers {
		tr.Track(step)
	}
}

// save saves the data of each tracker to disk
func (t *Trainer) save() error {
	for _, tr := range t.trackers {
		if err := tr.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Close releases the resources of the agent
func (t *Trainer) Close() error {
	return t.agent.Close()
}
