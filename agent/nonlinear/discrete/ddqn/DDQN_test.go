package ddqn

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/reachavoid/agent"
	"github.com/samuelfneumann/reachavoid/environment/probmap"
	"github.com/samuelfneumann/reachavoid/expreplay"
	"github.com/samuelfneumann/reachavoid/initwfn"
	"github.com/samuelfneumann/reachavoid/network"
	"github.com/samuelfneumann/reachavoid/solver"
	"github.com/samuelfneumann/reachavoid/timestep"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	adam, err := solver.NewDefaultAdam(1e-2, 1)
	require.NoError(t, err)

	c := DefaultConfig()
	c.PolicyLayers = []int{16}
	c.Biases = []bool{true}
	c.Activations = []*network.Activation{network.TanH()}
	c.Solver = adam
	c.EpsilonPeriod = 1
	c.GammaPeriod = 1
	c.LRPeriod = 1
	c.ExpReplay = expreplay.Config{
		Capacity:    200,
		BatchSize:   8,
		MinCapacity: 16,
	}
	return c
}

func newTestAgent(t *testing.T, c Config, seed int64) (*DDQN,
	*probmap.PointMass) {
	t.Helper()

	env, err := probmap.New(probmap.DefaultConfig(), uint64(seed))
	require.NoError(t, err)

	d, err := New(env, c, seed)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	return d, env
}

// runSteps interacts with the environment for n steps, updating the
// agent after each step and returning the losses of all updates
func runSteps(t *testing.T, d *DDQN, env *probmap.PointMass,
	n int) []float64 {
	t.Helper()

	step, err := env.Reset()
	require.NoError(t, err)
	require.NoError(t, d.ObserveFirst(step))

	var losses []float64
	for i := 0; i < n; i++ {
		action, err := d.SelectAction(step)
		require.NoError(t, err)

		var done bool
		step, done, err = env.Step(action)
		require.NoError(t, err)
		require.NoError(t, d.Observe(action, step))

		loss, err := d.Step()
		if !d.ReplayReady() {
			require.ErrorIs(t, err, agent.ErrNotReady)
		} else {
			require.NoError(t, err)
			require.False(t, math.IsNaN(loss))
			losses = append(losses, loss)
		}

		if done {
			d.EndEpisode()
			step, err = env.Reset()
			require.NoError(t, err)
			require.NoError(t, d.ObserveFirst(step))
		}
	}
	return losses
}

func TestDDQNStep(t *testing.T) {
	for _, mode := range []Mode{RA, Normal} {
		c := testConfig(t)
		c.Mode = mode
		d, env := newTestAgent(t, c, 1)

		losses := runSteps(t, d, env, 64)
		require.Len(t, losses, 64-15, "mode %v", mode)
		require.Equal(t, 64-15, d.GradientSteps())
		require.Equal(t, 64, d.ReplayLen())
	}
}

func TestDDQNHardUpdate(t *testing.T) {
	c := testConfig(t)
	c.SoftUpdate = false
	c.HardUpdateInterval = 4
	c.Loss = MSE
	c.Double = false
	d, env := newTestAgent(t, c, 2)

	runSteps(t, d, env, 40)
	require.Equal(t, 40-15, d.GradientSteps())
}

func TestDDQNObserveBeforeFirst(t *testing.T) {
	d, _ := newTestAgent(t, testConfig(t), 3)

	action, err := d.SelectAction(newFirstStep(t))
	require.NoError(t, err)
	require.Error(t, d.Observe(action, newFirstStep(t)))
}

func newFirstStep(t *testing.T) timestep.TimeStep {
	env, err := probmap.New(probmap.DefaultConfig(), 10)
	require.NoError(t, err)
	step, err := env.ResetTo(mat.NewVecDense(2, []float64{8, 3}))
	require.NoError(t, err)
	return step
}

func TestDDQNSchedules(t *testing.T) {
	c := testConfig(t)
	d, _ := newTestAgent(t, c, 4)

	// Epoch 0 only decays the learning rate
	d.EndEpisode()
	require.Equal(t, c.Epsilon, d.Epsilon())
	require.Equal(t, c.Gamma, d.Gamma())
	require.InDelta(t, 1e-2*c.LRDecay, d.StepSize(), 1e-12)

	d.EndEpisode()
	require.InDelta(t, c.Epsilon*c.EpsilonDecay, d.Epsilon(), 1e-12)
	require.InDelta(t, 1-(1-c.Gamma)*c.GammaDecay, d.Gamma(), 1e-12)
	require.InDelta(t, 1e-2*c.LRDecay*c.LRDecay, d.StepSize(), 1e-12)

	// The configured solver is not affected by the agent's schedule
	require.Equal(t, 1e-2, c.Solver.StepSize())

	for i := 0; i < 20; i++ {
		d.EndEpisode()
	}
	require.Equal(t, c.EpsilonEnd, d.Epsilon())
	require.LessOrEqual(t, d.Gamma(), 1.0)
}

func TestDDQNEvalGreedy(t *testing.T) {
	c := testConfig(t)
	c.Epsilon = 1.0
	d, _ := newTestAgent(t, c, 5)

	d.Eval()
	require.True(t, d.IsEval())

	step := newFirstStep(t)
	values, err := d.ActionValues(step.Observation)
	require.NoError(t, err)
	require.Len(t, values, probmap.DefaultConfig().Headings)

	value, err := d.Value(step.Observation)
	require.NoError(t, err)
	want := argminRows(values, len(values))[0]
	require.Equal(t, values[want], value)

	for i := 0; i < 10; i++ {
		action, err := d.SelectAction(step)
		require.NoError(t, err)
		require.Equal(t, values[int(action.AtVec(0))], value)
	}

	d.Train()
	require.False(t, d.IsEval())
}

func TestDDQNSaveLoad(t *testing.T) {
	c := testConfig(t)
	d, env := newTestAgent(t, c, 6)
	runSteps(t, d, env, 32)

	filename := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, d.Save(filename))

	loaded, _ := newTestAgent(t, c, 7)
	require.NoError(t, loaded.Load(filename))

	obs := mat.NewVecDense(2, []float64{4.2, 6.1})
	want, err := d.ActionValues(obs)
	require.NoError(t, err)
	have, err := loaded.ActionValues(obs)
	require.NoError(t, err)
	require.InDeltaSlice(t, want, have, 1e-9)

	require.Error(t, loaded.Load(filepath.Join(t.TempDir(), "missing.gob")))
}

func TestDDQNWarmupQ(t *testing.T) {
	c := testConfig(t)
	c.Loss = MSE
	d, _ := newTestAgent(t, c, 8)

	const batch = 16
	env, err := probmap.New(probmap.DefaultConfig(), 11)
	require.NoError(t, err)

	sample := func() ([]float64, []float64, error) {
		states := make([]float64, 0, batch*2)
		targets := make([]float64, batch)
		for i := range targets {
			step, err := env.Reset()
			if err != nil {
				return nil, nil, err
			}
			states = append(states, step.Observation.RawVector().Data...)
			targets[i] = 2.0
		}
		return states, targets, nil
	}

	loss, err := d.WarmupQ(batch, 500, sample)
	require.NoError(t, err)
	require.Less(t, loss, 0.25)

	value, err := d.Value(mat.NewVecDense(2, []float64{4, 4}))
	require.NoError(t, err)
	require.InDelta(t, 2.0, value, 0.5)

	// The warmup must not consume the agent's own solver schedule
	require.Equal(t, 0, d.GradientSteps())
}

func TestConfigValidateInitWFn(t *testing.T) {
	c := testConfig(t)
	require.NoError(t, c.Validate())

	zeroes, err := initwfn.NewZeroes()
	require.NoError(t, err)
	c.InitWFn = zeroes
	require.Error(t, c.Validate())

	c.PolicyLayers = nil
	c.Biases = nil
	c.Activations = nil
	require.NoError(t, c.Validate())

	c.PolicyLayers = []int{0}
	c.Biases = []bool{true}
	c.Activations = []*network.Activation{network.ReLU()}
	c.InitWFn, err = initwfn.NewHeU(1)
	require.NoError(t, err)
	require.Error(t, c.Validate())
}
