package environment

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/reachavoid/timestep"
)

func TestStepLimit(t *testing.T) {
	limit := NewStepLimit(3)

	step := timestep.New(timestep.Mid, 0, 1, mat.NewVecDense(1, nil), 2)
	require.False(t, limit.End(&step))

	step.Number = 3
	require.True(t, limit.End(&step))
	require.True(t, step.Last())
	require.Equal(t, timestep.Timeout, step.EndType)
	require.False(t, step.Terminal())
}

func TestUniformStarter(t *testing.T) {
	bounds := []r1.Interval{{Min: -1, Max: 1}, {Min: 2, Max: 3}}
	starter := NewUniformStarter(bounds, 7)

	states := starter.StartN(50)
	r, c := states.Dims()
	require.Equal(t, 50, r)
	require.Equal(t, 2, c)

	for i := 0; i < r; i++ {
		for j, b := range bounds {
			require.GreaterOrEqual(t, states.At(i, j), b.Min)
			require.LessOrEqual(t, states.At(i, j), b.Max)
		}
	}
}

func TestDiscreteActionSpec(t *testing.T) {
	spec := NewDiscreteActionSpec(4)
	n, err := spec.NumActions()
	require.NoError(t, err)
	require.Equal(t, 4, n)

	spec.Cardinality = Continuous
	_, err = spec.NumActions()
	require.Error(t, err)
}
