package analysis

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/reachavoid/environment/probmap"
	ts "github.com/samuelfneumann/reachavoid/timestep"
)

// constantActor always selects the same action
type constantActor int

func (c constantActor) SelectAction(ts.TimeStep) (*mat.VecDense, error) {
	return mat.NewVecDense(1, []float64{float64(c)}), nil
}

// sumValuer predicts the sum of the state's features
type sumValuer struct{}

func (sumValuer) Value(obs mat.Vector) (float64, error) {
	return mat.Sum(obs), nil
}

func newEnv(t *testing.T) *probmap.PointMass {
	env, err := probmap.New(probmap.DefaultConfig(), 1)
	require.NoError(t, err)
	return env
}

func TestRollout(t *testing.T) {
	env := newEnv(t)

	// Heading 2 of 8 moves in the +y direction, towards the target
	traj, err := Rollout(env, constantActor(2),
		mat.NewVecDense(2, []float64{8, 3}), 20)
	require.NoError(t, err)
	require.Equal(t, Success, traj.Result)
	require.GreaterOrEqual(t, traj.Len(), 4)
	require.Len(t, traj.SafetyMargins, traj.Len())
	require.LessOrEqual(t, traj.TargetMargins[traj.Len()-2], 0.0)

	traj, err = Rollout(env, constantActor(0),
		mat.NewVecDense(2, []float64{0, 0}), 20)
	require.NoError(t, err)
	require.Equal(t, Failure, traj.Result)
	require.Equal(t, 2, traj.Len())

	// A horizon of 0 never acts
	traj, err = Rollout(env, constantActor(0),
		mat.NewVecDense(2, []float64{8, 3}), 0)
	require.NoError(t, err)
	require.Equal(t, Unfinished, traj.Result)
	require.Equal(t, 1, traj.Len())
}

func TestRolloutsRates(t *testing.T) {
	env := newEnv(t)
	starts := []*mat.VecDense{
		mat.NewVecDense(2, []float64{8, 3}),
		mat.NewVecDense(2, []float64{0, 0}),
		mat.NewVecDense(2, []float64{0, 0}),
		mat.NewVecDense(2, []float64{8, 3}),
	}

	trajectories, err := Rollouts(env, constantActor(2), starts, 0, 20)
	require.NoError(t, err)
	require.Len(t, trajectories, 4)

	rates := RolloutRates(trajectories)
	require.Equal(t, Rates{Success: 0.5, Failure: 0.5}, rates)

	trajectories, err = Rollouts(env, constantActor(2), nil, 3, 1)
	require.NoError(t, err)
	require.Len(t, trajectories, 3)
	rates = RolloutRates(trajectories)
	require.InDelta(t, 1.0, rates.Success+rates.Failure+rates.Unfinished,
		1e-12)

	require.Equal(t, Rates{}, RolloutRates(nil))
}

func TestConfusionMatrix(t *testing.T) {
	labels := []float64{1, 2, -1, -2, 3, -3}
	preds := []float64{0.5, -0.5, -1, 1, 2, -2}

	c, err := ConfusionMatrix(labels, preds)
	require.NoError(t, err)
	require.Equal(t, Confusion{TP: 2, TN: 2, FP: 1, FN: 1}, c)
	require.InDelta(t, 4.0/6.0, c.Accuracy(), 1e-12)
	require.InDelta(t, 2.0/3.0, c.TPRate(), 1e-12)
	require.InDelta(t, 2.0/3.0, c.TNRate(), 1e-12)
	require.InDelta(t, 1.0/3.0, c.FPRate(), 1e-12)
	require.InDelta(t, 1.0/3.0, c.FNRate(), 1e-12)

	_, err = ConfusionMatrix(labels, preds[:2])
	require.Error(t, err)

	require.Zero(t, Confusion{}.Accuracy())
}

func TestMaps(t *testing.T) {
	bounds := []r1.Interval{{Min: 0, Max: 1}, {Min: -1, Max: 1}}
	values, err := ValueMap(sumValuer{}, bounds, 3, 5)
	require.NoError(t, err)

	r, c := values.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 5, c)
	require.Equal(t, -1.0, values.At(0, 0))
	require.Equal(t, 2.0, values.At(2, 4))
	require.Equal(t, 0.5, values.At(1, 2))

	_, err = ValueMap(sumValuer{}, bounds, 1, 5)
	require.Error(t, err)

	env := newEnv(t)
	safety, err := SafetyMap(env, 11, 11)
	require.NoError(t, err)

	// The corner of the map borders out of bounds cells
	require.Greater(t, safety.At(0, 0), 0.0)

	terminal, err := TerminalMap(env, 11, 11)
	require.NoError(t, err)
	for i := 0; i < 11; i++ {
		for j := 0; j < 11; j++ {
			require.GreaterOrEqual(t, terminal.At(i, j), safety.At(i, j))
		}
	}
}

func TestRenderHeatmap(t *testing.T) {
	env := newEnv(t)
	grid, err := SafetyMap(env, 20, 10)
	require.NoError(t, err)

	traj, err := Rollout(env, constantActor(2),
		mat.NewVecDense(2, []float64{8, 3}), 20)
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "safety.png")
	config := DefaultHeatmapConfig()
	require.NoError(t, RenderHeatmap(grid, env.Bounds(), []Trajectory{traj},
		filename, config))

	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, 20*config.CellSize, img.Bounds().Dx())
	require.Equal(t, 10*config.CellSize, img.Bounds().Dy())

	config.CellSize = 0
	require.Error(t, RenderHeatmap(grid, nil, nil, filename, config))
}

func TestDiverging(t *testing.T) {
	r, g, b := diverging(0, 1)
	require.Equal(t, [3]float64{1, 1, 1}, [3]float64{r, g, b})

	r, g, b = diverging(-2, 1)
	require.Equal(t, [3]float64{0, 0, 1}, [3]float64{r, g, b})

	r, g, b = diverging(0.5, 1)
	require.Equal(t, [3]float64{1, 0.5, 0.5}, [3]float64{r, g, b})
}
