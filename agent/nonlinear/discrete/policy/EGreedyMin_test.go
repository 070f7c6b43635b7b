package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/reachavoid/network"
)

// newBiasPolicy returns a policy whose action values are always bias
func newBiasPolicy(t *testing.T, epsilon float64,
	bias []float64) (*EGreedyMin, G.VM) {
	t.Helper()

	net, err := network.NewMultiHeadMLP(1, 1, len(bias), G.NewGraph(),
		[]int{}, []bool{}, G.Zeroes(), []*network.Activation{})
	require.NoError(t, err)

	learnables := net.Learnables()
	require.Len(t, learnables, 2)
	b := tensor.New(
		tensor.WithShape(1, len(bias)),
		tensor.WithBacking(append([]float64{}, bias...)),
	)
	require.NoError(t, G.Let(learnables[1], b))

	p, err := NewEGreedyMin(epsilon, net, 1)
	require.NoError(t, err)

	vm := G.NewTapeMachine(p.Graph())
	t.Cleanup(func() { vm.Close() })

	require.NoError(t, p.SetInput([]float64{1}))
	require.NoError(t, vm.RunAll())
	return p, vm
}

func TestEGreedyMinGreedy(t *testing.T) {
	p, _ := newBiasPolicy(t, 0, []float64{1, -1, 2})

	for i := 0; i < 20; i++ {
		action, value, err := p.SelectAction()
		require.NoError(t, err)
		require.Equal(t, 1, action)
		require.Equal(t, -1.0, value)
	}
}

func TestEGreedyMinTies(t *testing.T) {
	p, _ := newBiasPolicy(t, 0, []float64{0, 3, 0})

	counts := make(map[int]int)
	for i := 0; i < 200; i++ {
		action, _, err := p.SelectAction()
		require.NoError(t, err)
		counts[action]++
	}
	require.Zero(t, counts[1])
	require.NotZero(t, counts[0])
	require.NotZero(t, counts[2])
}

func TestEGreedyMinExplore(t *testing.T) {
	p, _ := newBiasPolicy(t, 1, []float64{1, -1, 2})
	require.Equal(t, 1.0, p.Epsilon())

	counts := make(map[int]int)
	for i := 0; i < 300; i++ {
		action, _, err := p.SelectAction()
		require.NoError(t, err)
		counts[action]++
	}
	require.Len(t, counts, 3)

	p.SetEpsilon(0)
	action, _, err := p.SelectAction()
	require.NoError(t, err)
	require.Equal(t, 1, action)
}

func TestNewEGreedyMinErrors(t *testing.T) {
	net, err := network.NewMultiHeadMLP(1, 2, 3, G.NewGraph(), []int{},
		[]bool{}, G.Zeroes(), []*network.Activation{})
	require.NoError(t, err)

	_, err = NewEGreedyMin(0.1, net, 1)
	require.Error(t, err, "batch size must be 1")

	single, err := net.CloneWithBatch(1)
	require.NoError(t, err)
	_, err = NewEGreedyMin(1.5, single, 1)
	require.Error(t, err)
}
