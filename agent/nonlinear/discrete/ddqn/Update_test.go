package ddqn

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/reachavoid/network"
	"github.com/samuelfneumann/reachavoid/timestep"
)

// fillReplay adds n deterministic transitions to the agent's replay
// buffer
func fillReplay(t *testing.T, d *DDQN, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		x, y := float64(i%10), float64(i/10)
		tr := timestep.Transition{
			State:        mat.NewVecDense(2, []float64{x, y}),
			Action:       i % d.numActions,
			Reward:       math.Sin(float64(i)),
			SafetyMargin: x - 5,
			TargetMargin: y - 1,
		}
		if i%9 != 0 {
			tr.NextState = mat.NewVecDense(2, []float64{y, x})
		}
		require.NoError(t, d.replay.Add(tr))
	}
}

// weights returns a copy of the values of a network's learnables
func weights(net network.NeuralNet) [][]float64 {
	learnables := net.Learnables()
	out := make([][]float64, len(learnables))
	for i, node := range learnables {
		data := node.Value().Data().([]float64)
		out[i] = append([]float64(nil), data...)
	}
	return out
}

func TestDDQNHardUpdateSync(t *testing.T) {
	c := testConfig(t)
	c.SoftUpdate = false
	c.HardUpdateInterval = 4
	d, _ := newTestAgent(t, c, 12)
	fillReplay(t, d, 40)

	require.Equal(t, weights(d.trainNet), weights(d.targetNet))

	for i := 1; i <= 12; i++ {
		_, err := d.Step()
		require.NoError(t, err)
		require.Equal(t, i, d.GradientSteps())

		if i%c.HardUpdateInterval == 0 {
			require.Equal(t, weights(d.trainNet), weights(d.targetNet),
				"step %v", i)
		} else {
			require.NotEqual(t, weights(d.trainNet), weights(d.targetNet),
				"step %v", i)
		}

		// Acting and next-action selection always use the online weights
		require.Equal(t, weights(d.trainNet), weights(d.evalNet))
	}
}

func TestDDQNSoftUpdate(t *testing.T) {
	c := testConfig(t)
	c.SoftUpdate = true
	c.Tau = 0.1
	d, _ := newTestAgent(t, c, 13)
	fillReplay(t, d, 40)

	for i := 0; i < 3; i++ {
		before := weights(d.targetNet)
		_, err := d.Step()
		require.NoError(t, err)

		online := weights(d.trainNet)
		after := weights(d.targetNet)
		for j := range after {
			for k := range after[j] {
				want := 0.9*before[j][k] + 0.1*online[j][k]
				require.InDelta(t, want, after[j][k], 1e-12)
			}
		}
	}
}

func TestDDQNDoubleTargets(t *testing.T) {
	c := testConfig(t)
	c.Mode = Normal
	c.SoftUpdate = false
	c.HardUpdateInterval = 1000
	d, _ := newTestAgent(t, c, 14)
	fillReplay(t, d, 40)

	for i := 0; i < 10; i++ {
		_, err := d.Step()
		require.NoError(t, err)
	}

	batch, err := d.replay.Sample()
	require.NoError(t, err)

	online, err := runNet(d.evalNet, d.evalNetVM, batch.NextStates)
	require.NoError(t, err)
	target, err := runNet(d.targetNet, d.targetNetVM, batch.NextStates)
	require.NoError(t, err)
	require.NotEqual(t, online, target)

	nextActions := argminRows(online, d.numActions)
	for _, double := range []bool{true, false} {
		d.double = double
		values := online
		if double {
			values = target
		}

		targets, err := d.computeTargets(batch)
		require.NoError(t, err)
		for i, a := range nextActions {
			want := batch.Rewards[i]
			if !batch.Terminal[i] {
				want += d.gamma * values[i*d.numActions+a]
			}
			require.InDelta(t, want, targets[i], 1e-12,
				"double %v, sample %v", double, i)
		}
	}
}

func TestClipGradNorm(t *testing.T) {
	for _, test := range []struct {
		maxNorm float64
		want    []float64
	}{
		{maxNorm: 1, want: []float64{0.6, 0.8}},
		{maxNorm: 100, want: []float64{30, 40}},
		{maxNorm: 0, want: []float64{30, 40}},
	} {
		g := G.NewGraph()
		w := G.NewVector(g, tensor.Float64, G.WithShape(2), G.WithName("w"),
			G.WithInit(G.Ones()))
		coef := G.NewVector(g, tensor.Float64, G.WithShape(2),
			G.WithName("coef"), G.WithValue(tensor.New(
				tensor.WithShape(2),
				tensor.WithBacking([]float64{30, 40}),
			)))
		cost := G.Must(G.Sum(G.Must(G.HadamardProd(w, coef))))
		_, err := G.Grad(cost, w)
		require.NoError(t, err)

		vm := G.NewTapeMachine(g, G.BindDualValues(w))
		require.NoError(t, vm.RunAll())

		norm, err := clipGradNorm(G.Nodes{w}, test.maxNorm)
		require.NoError(t, err)
		require.InDelta(t, 50.0, norm, 1e-9)

		grad, err := w.Grad()
		require.NoError(t, err)
		require.InDeltaSlice(t, test.want, grad.Data().([]float64), 1e-6)
		vm.Close()
	}
}

func TestDDQNWarmupQSamplerError(t *testing.T) {
	d, _ := newTestAgent(t, testConfig(t), 15)
	before := weights(d.trainNet)

	const batch = 4
	calls := 0
	sample := func() ([]float64, []float64, error) {
		calls++
		if calls > 3 {
			return nil, nil, errors.New("no more states")
		}
		return make([]float64, batch*2), make([]float64, batch), nil
	}

	_, err := d.WarmupQ(batch, 10, sample)
	require.Error(t, err)
	require.Equal(t, 4, calls)
	require.Equal(t, before, weights(d.trainNet))
	require.Equal(t, before, weights(d.targetNet))
}

func TestQWarmupClose(t *testing.T) {
	d, _ := newTestAgent(t, testConfig(t), 16)

	warmup, err := d.NewQWarmup(2)
	require.NoError(t, err)
	_, err = warmup.Step(make([]float64, 4), []float64{1, 1})
	require.NoError(t, err)

	require.NoError(t, warmup.Close())
	require.NoError(t, warmup.Close())

	_, err = warmup.Step(make([]float64, 4), []float64{1, 1})
	require.Error(t, err)
	require.Error(t, warmup.Finish())
}
