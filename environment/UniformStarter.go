package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a
// hyperrectangle
type UniformStarter struct {
	features int
	seed     uint64
	bounds   []r1.Interval
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter which samples
// dimension i of starting states uniformly from bounds[i]
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return &UniformStarter{len(bounds), seed, bounds, rand}
}

// Start samples and returns a new starting state
func (u *UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}

// StartN samples n starting states and returns them in row-major
// order as the rows of a matrix
func (u *UniformStarter) StartN(n int) *mat.Dense {
	data := make([]float64, 0, n*u.features)
	for i := 0; i < n; i++ {
		data = append(data, u.rand.Rand(nil)...)
	}
	return mat.NewDense(n, u.features, data)
}

// Bounds returns the bounds that states are sampled from
func (u *UniformStarter) Bounds() []r1.Interval {
	return u.bounds
}
