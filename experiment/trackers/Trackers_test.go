package trackers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/reachavoid/experiment/tracker"
	ts "github.com/samuelfneumann/reachavoid/timestep"
)

// episode returns the timesteps of an episode with the given costs,
// the first of which is the cost of the first timestep
func episode(costs ...float64) []ts.TimeStep {
	steps := make([]ts.TimeStep, len(costs))
	for i, c := range costs {
		steps[i] = ts.New(ts.Mid, c, 1, nil, i)
	}
	steps[0].StepType = ts.First
	steps[len(steps)-1].SetEnd(ts.Success)
	return steps
}

func TestTrackers(t *testing.T) {
	dir := t.TempDir()
	cost := NewCost(filepath.Join(dir, "cost.bin"))
	length := NewEpisodeLength(filepath.Join(dir, "length.bin"))

	steps := append(episode(0, 0, 1), episode(0, -1)...)

	// Unfinished episodes are not recorded
	steps = append(steps, episode(0, 5)[:1]...)

	for _, step := range steps {
		cost.Track(step)
		length.Track(step)
	}
	require.Equal(t, []float64{1, -1}, cost.Data())
	require.Equal(t, []float64{2, 1}, length.Data())

	require.NoError(t, cost.Save())
	require.NoError(t, length.Save())

	data, err := tracker.LoadData(filepath.Join(dir, "cost.bin"))
	require.NoError(t, err)
	require.Equal(t, []float64{1, -1}, data)

	data, err = tracker.LoadData(filepath.Join(dir, "length.bin"))
	require.NoError(t, err)
	require.Equal(t, []float64{2, 1}, data)

	_, err = tracker.LoadData(filepath.Join(dir, "missing.bin"))
	require.Error(t, err)
}
