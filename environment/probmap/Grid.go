// Package probmap implements a reach-avoid point mass environment on a
// probabilistic obstacle map. Each cell of the map holds the
// probability that the cell is occupied by an obstacle. Cell (i, j)
// of the map is centred on the point (x, y) = (i, j).
package probmap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/reachavoid/utils/floatutils"
)

// Shape names a predefined probabilistic obstacle map
type Shape string

const (
	Curvy      Shape = "curvy"
	ThreeBlock Shape = "three_block"
)

var curvy = []float64{
	0.9, 0.9, 0.8, 0.6, 0.3, 0.0, 0.3, 0.8, 0.9, 0.95,
	0.9, 0.9, 0.8, 0.6, 0.2, 0.0, 0.2, 0.3, 0.9, 0.95,
	0.9, 0.9, 0.4, 0.1, 0.1, 0.1, 0.2, 0.3, 0.9, 0.95,
	0.9, 0.6, 0.0, 0.1, 0.1, 0.1, 0.2, 0.5, 0.9, 0.95,
	0.4, 0.0, 0.0, 0.6, 1.0, 0.8, 0.6, 0.7, 0.9, 0.95,
	0.4, 0.0, 0.0, 0.6, 1.0, 0.8, 0.6, 0.8, 0.9, 0.95,
	0.9, 0.6, 0.0, 0.2, 0.2, 0.1, 0.1, 0.8, 0.9, 0.95,
	0.9, 0.9, 0.0, 0.0, 0.0, 0.0, 0.0, 0.6, 0.9, 0.95,
	0.5, 0.1, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.1, 0.5,
	0.1, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.1,
}

var threeBlock = []float64{
	0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
	0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
	0.0, 0.0, 0.8, 0.8, 1.0, 1.0, 0.8, 0.8, 0.0, 0.0,
	0.0, 0.0, 0.8, 0.9, 1.0, 1.0, 0.9, 0.8, 0.0, 0.0,
	0.0, 0.0, 0.0, 0.0, 0.8, 0.8, 0.0, 0.0, 0.0, 0.0,
	0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
	1.0, 1.0, 0.7, 0.7, 0.0, 0.0, 0.7, 0.7, 1.0, 1.0,
	1.0, 1.0, 0.8, 0.7, 0.0, 0.0, 0.7, 0.8, 1.0, 1.0,
	0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
	0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
}

// GenGrid returns a new 10x10 obstacle probability map of the given
// shape. The rows of the three_block map are stored in reverse order
// so that its first row lies along y = 0 when plotted.
func GenGrid(shape Shape) (*mat.Dense, error) {
	const size = 10

	switch shape {
	case Curvy:
		data := make([]float64, len(curvy))
		copy(data, curvy)
		return mat.NewDense(size, size, data), nil

	case ThreeBlock:
		data := make([]float64, 0, len(threeBlock))
		for i := size - 1; i >= 0; i-- {
			data = append(data, threeBlock[i*size:(i+1)*size]...)
		}
		return mat.NewDense(size, size, data), nil

	default:
		return nil, fmt.Errorf("genGrid: unknown map shape %q", shape)
	}
}

// obstacleProbability returns the probability of an obstacle at cell
// (i, j). Cells outside the map are always obstacles.
func obstacleProbability(grid mat.Matrix, i, j int) float64 {
	rows, cols := grid.Dims()
	if i < 0 || i >= rows || j < 0 || j >= cols {
		return 1.0
	}
	return grid.At(i, j)
}

// nearestCell returns the cell closest to (x, y), clipped to lie
// within the map
func nearestCell(grid mat.Matrix, x, y float64) (int, int) {
	rows, cols := grid.Dims()
	i := clipInt(floatutils.RoundHalfEven(x), 0, rows-1)
	j := clipInt(floatutils.RoundHalfEven(y), 0, cols-1)
	return i, j
}

func clipInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// LocalMap returns the obstacle probabilities of all cells within
// radius of the cell nearest to (x, y), in row-major order. Cells
// outside the map have probability 1.
func LocalMap(radius int, grid mat.Matrix, x, y float64) []float64 {
	xPos := floatutils.RoundHalfEven(x)
	yPos := floatutils.RoundHalfEven(y)

	local := make([]float64, 0, (2*radius+1)*(2*radius+1))
	for i := xPos - radius; i <= xPos+radius; i++ {
		for j := yPos - radius; j <= yPos+radius; j++ {
			dist := math.Hypot(float64(i-xPos), float64(j-yPos))
			if dist > float64(radius) {
				continue
			}
			local = append(local, obstacleProbability(grid, i, j))
		}
	}
	return local
}
