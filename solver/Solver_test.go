package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolverJSON(t *testing.T) {
	s, err := NewDefaultAdam(1e-3, 32)
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Solver
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, Adam, decoded.Type)
	require.Equal(t, s.Config, decoded.Config)
	require.NotNil(t, decoded.Solver)
}

func TestSolverUnknownType(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type": "SGDR", "Config": {}}`), &s)
	require.Error(t, err)
}

func TestSetStepSize(t *testing.T) {
	for _, create := range []func() (*Solver, error){
		func() (*Solver, error) { return NewDefaultAdam(0.1, 8) },
		func() (*Solver, error) { return NewVanilla(0.1, 8, -1) },
		func() (*Solver, error) { return NewDefaultRMSProp(0.1, 8) },
	} {
		s, err := create()
		require.NoError(t, err)
		require.Equal(t, 0.1, s.StepSize())

		require.NoError(t, s.SetStepSize(0.05))
		require.Equal(t, 0.05, s.StepSize())
		require.NotNil(t, s.Solver)

		require.Error(t, s.SetStepSize(0))
	}
}
