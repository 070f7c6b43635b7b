package ddqn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReachAvoidTargets(t *testing.T) {
	gamma := 0.9
	next := []float64{-1, 2, 5, 5, 5}
	terminal := []bool{false, false, true, true, true}
	g := []float64{-2, -2, 1, 1, -3}
	l := []float64{0.5, 0.5, -1, 2, -0.5}

	targets := reachAvoidTargets(next, terminal, g, l, gamma)

	// Non-terminal, next value below the target margin:
	// 0.9 * max(min(0.5, -1), -2) + 0.1 * max(0.5, -2)
	require.InDelta(t, 0.9*-1+0.1*0.5, targets[0], 1e-12)

	// Non-terminal, next value above the target margin
	require.InDelta(t, 0.9*0.5+0.1*0.5, targets[1], 1e-12)

	// Failure takes precedence over success
	require.Equal(t, 1.0, targets[2])

	// Failure
	require.Equal(t, 2.0, targets[3])

	// Success
	require.Equal(t, -0.5, targets[4])
}

func TestReachAvoidTargetsUndiscounted(t *testing.T) {
	// With γ = 1 the target reduces to max(min(l, v'), g)
	targets := reachAvoidTargets([]float64{-3}, []bool{false},
		[]float64{-1}, []float64{2}, 1.0)
	require.Equal(t, -1.0, targets[0])
}

func TestCostTargets(t *testing.T) {
	targets := costTargets([]float64{4, 4}, []bool{false, true},
		[]float64{1, -1}, 0.5)
	require.Equal(t, []float64{3, -1}, targets)
}

func TestGatherArgmin(t *testing.T) {
	values := []float64{
		3, 1, 2,
		0, 0, 5,
		7, 8, -9,
	}

	actions := argminRows(values, 3)
	require.Equal(t, []int{1, 0, 2}, actions)
	require.Equal(t, []float64{1, 0, -9}, gatherActions(values, actions, 3))
	require.Equal(t, []float64{3, 5, 8},
		gatherActions(values, []int{0, 2, 1}, 3))
}

func TestOneHot(t *testing.T) {
	require.Equal(t, []float64{0, 1, 0, 1, 0, 0}, oneHot([]int{1, 0}, 3))
}

func TestReachAvoidTargetsTerminalOutsideSets(t *testing.T) {
	targets := reachAvoidTargets([]float64{-7, 7}, []bool{true, true},
		[]float64{-1, -0.2}, []float64{0.5, 0.1}, 0.9)
	require.Equal(t, []float64{0.5, 0.1}, targets)
}
