package analysis

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// HeatmapConfig determines how a heatmap is drawn
type HeatmapConfig struct {
	CellSize int // Pixels per grid cell

	// Values with magnitude at least Scale are drawn at full colour. If
	// zero, the maximum magnitude in the grid is used.
	Scale float64

	// Draw the zero level set of the grid
	Contour bool
}

// DefaultHeatmapConfig returns the default heatmap configuration
func DefaultHeatmapConfig() HeatmapConfig {
	return HeatmapConfig{CellSize: 8, Contour: true}
}

// RenderHeatmap draws grid as a PNG heatmap and saves it to filename.
// Element (i, j) of grid is drawn at column i and row j counting from
// the bottom of the image. Negative values are drawn blue and positive
// values red, with white at 0. Trajectories are drawn over the heatmap
// in the coordinates given by bounds, coloured by their result.
func RenderHeatmap(grid mat.Matrix, bounds []r1.Interval,
	trajectories []Trajectory, filename string, c HeatmapConfig) error {
	nx, ny := grid.Dims()
	if c.CellSize < 1 {
		return fmt.Errorf("renderHeatmap: cell size must be positive")
	}
	if len(trajectories) > 0 && len(bounds) < 2 {
		return fmt.Errorf("renderHeatmap: bounds are required to draw " +
			"trajectories")
	}

	scale := c.Scale
	if scale <= 0 {
		scale = maxAbs(grid)
	}

	cell := float64(c.CellSize)
	width, height := nx*c.CellSize, ny*c.CellSize
	dc := gg.NewContext(width, height)

	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			r, g, b := diverging(grid.At(i, j), scale)
			dc.SetRGB(r, g, b)
			dc.DrawRectangle(float64(i)*cell, float64(ny-1-j)*cell, cell,
				cell)
			dc.Fill()
		}
	}

	if c.Contour {
		drawZeroContour(dc, grid, cell)
	}

	for _, traj := range trajectories {
		drawTrajectory(dc, traj, bounds, float64(width), float64(height))
	}

	if err := dc.SavePNG(filename); err != nil {
		return errors.Wrapf(err, "renderHeatmap: could not save %v", filename)
	}
	return nil
}

// diverging maps v in [-scale, scale] to a blue-white-red colour
func diverging(v, scale float64) (float64, float64, float64) {
	if scale == 0 || math.IsNaN(v) {
		return 1, 1, 1
	}
	t := math.Max(-1, math.Min(1, v/scale))
	if t < 0 {
		return 1 + t, 1 + t, 1
	}
	return 1, 1 - t, 1 - t
}

// drawZeroContour outlines the cell edges across which the grid
// changes sign
func drawZeroContour(dc *gg.Context, grid mat.Matrix, cell float64) {
	nx, ny := grid.Dims()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.5)

	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			positive := grid.At(i, j) > 0
			x := float64(i) * cell
			y := float64(ny-1-j) * cell

			// Right neighbour
			if i+1 < nx && (grid.At(i+1, j) > 0) != positive {
				dc.DrawLine(x+cell, y, x+cell, y+cell)
			}
			// Neighbour above
			if j+1 < ny && (grid.At(i, j+1) > 0) != positive {
				dc.DrawLine(x, y, x+cell, y)
			}
		}
	}
	dc.Stroke()
}

// drawTrajectory draws a trajectory over an image of the given size
// spanning bounds
func drawTrajectory(dc *gg.Context, traj Trajectory, bounds []r1.Interval,
	width, height float64) {
	if traj.Len() == 0 {
		return
	}

	px := func(x float64) float64 {
		return (x - bounds[0].Min) / (bounds[0].Max - bounds[0].Min) * width
	}
	py := func(y float64) float64 {
		return height - (y-bounds[1].Min)/(bounds[1].Max-bounds[1].Min)*height
	}

	switch traj.Result {
	case Success:
		dc.SetRGB(0, 0.6, 0)
	case Failure:
		dc.SetRGB(0.4, 0, 0.4)
	default:
		dc.SetRGB(0.3, 0.3, 0.3)
	}
	dc.SetLineWidth(2)

	for k, state := range traj.States {
		x, y := px(state.AtVec(0)), py(state.AtVec(1))
		if k == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	start := traj.States[0]
	dc.DrawCircle(px(start.AtVec(0)), py(start.AtVec(1)), 3)
	dc.Fill()
}

// maxAbs returns the maximum magnitude of the elements of m
func maxAbs(m mat.Matrix) float64 {
	r, c := m.Dims()
	var max float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := math.Abs(m.At(i, j)); v > max {
				max = v
			}
		}
	}
	return max
}
