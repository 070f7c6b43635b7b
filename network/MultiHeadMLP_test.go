package network

import (
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

func newTestNet(t *testing.T, batch int, init G.InitWFn) NeuralNet {
	net, err := NewMultiHeadMLP(2, batch, 2, G.NewGraph(), []int{3},
		[]bool{true}, init, []*Activation{ReLU()})
	require.NoError(t, err)
	return net
}

func runNet(t *testing.T, net NeuralNet, input []float64) []float64 {
	require.NoError(t, net.SetInput(input))
	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	require.NoError(t, vm.RunAll())
	return net.Output().Data().([]float64)
}

func TestMultiHeadMLPForward(t *testing.T) {
	net := newTestNet(t, 2, G.Ones())
	require.Equal(t, 2, net.Outputs())
	require.Equal(t, 2, net.Features())
	require.Len(t, net.Learnables(), 4)

	// Hidden units compute relu(x0 + x1), the output layer sums three
	// hidden units
	out := runNet(t, net, []float64{1, 1, -1, -2})
	require.Equal(t, []float64{6, 6, 0, 0}, out)

	require.Error(t, net.SetInput([]float64{1, 2, 3}))
}

func TestMultiHeadMLPSetPolyak(t *testing.T) {
	ones := newTestNet(t, 1, G.Ones())
	zeroes := newTestNet(t, 1, G.Zeroes())

	require.NoError(t, ones.Polyak(zeroes, 0.25))
	for _, w := range nodeData(ones.Learnables()[0]) {
		require.InDelta(t, 0.75, w, 1e-12)
	}

	require.NoError(t, ones.Set(zeroes))
	for _, node := range ones.Learnables() {
		for _, w := range nodeData(node) {
			require.Equal(t, 0.0, w)
		}
	}
}

func TestMultiHeadMLPCloneWithBatch(t *testing.T) {
	net := newTestNet(t, 4, G.Ones())
	clone, err := net.CloneWithBatch(1)
	require.NoError(t, err)
	require.Equal(t, 1, clone.BatchSize())

	require.Equal(t, []float64{6, 6}, runNet(t, clone, []float64{1, 1}))
}

func TestMultiHeadMLPGob(t *testing.T) {
	net := newTestNet(t, 1, G.GlorotU(1.0))
	data, err := Encode(net)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, net.Features(), decoded.Features())
	require.Equal(t, net.Outputs(), decoded.Outputs())

	input := []float64{0.3, -0.7}
	require.Equal(t, runNet(t, net, input), runNet(t, decoded, input))
}
