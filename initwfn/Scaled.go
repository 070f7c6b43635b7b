package initwfn

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// scaled is the configuration shared by initializers which scale the
// spread of each layer's weights by the layer's fan-in and fan-out.
// Gain multiplies the scale and must be positive.
type scaled struct {
	Gain float64
}

// validate checks the gain of a scaled initializer and the layer sizes
// it will be applied to
func (s scaled) validate(t Type, hiddenSizes []int) error {
	if s.Gain <= 0 || math.IsInf(s.Gain, 0) || math.IsNaN(s.Gain) {
		return fmt.Errorf("%v: gain must be positive and finite "+
			"\n\thave(%v)", t, s.Gain)
	}
	for i, size := range hiddenSizes {
		if size < 1 {
			return fmt.Errorf("%v: layer %v has no units", t, i)
		}
	}
	return nil
}

// GlorotUConfig configures Glorot uniform initialization
type GlorotUConfig scaled

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

func (g GlorotUConfig) Type() Type { return GlorotU }
func (g GlorotUConfig) Create() G.InitWFn { return G.GlorotU(g.Gain) }

func (g GlorotUConfig) Validate(hiddenSizes []int) error {
	return scaled(g).validate(GlorotU, hiddenSizes)
}

// GlorotNConfig configures Glorot normal initialization
type GlorotNConfig scaled

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

func (g GlorotNConfig) Type() Type { return GlorotN }
func (g GlorotNConfig) Create() G.InitWFn { return G.GlorotN(g.Gain) }

func (g GlorotNConfig) Validate(hiddenSizes []int) error {
	return scaled(g).validate(GlorotN, hiddenSizes)
}

// HeUConfig configures He uniform initialization. It only supports
// float64 networks.
type HeUConfig scaled

// NewHeU returns a new He uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

func (h HeUConfig) Type() Type { return HeU }
func (h HeUConfig) Create() G.InitWFn { return G.HeU(h.Gain) }

func (h HeUConfig) Validate(hiddenSizes []int) error {
	return scaled(h).validate(HeU, hiddenSizes)
}

// HeNConfig configures He normal initialization. It only supports
// float64 networks.
type HeNConfig scaled

// NewHeN returns a new He normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(HeNConfig{Gain: gain})
}

func (h HeNConfig) Type() Type { return HeN }
func (h HeNConfig) Create() G.InitWFn { return G.HeN(h.Gain) }

func (h HeNConfig) Validate(hiddenSizes []int) error {
	return scaled(h).validate(HeN, hiddenSizes)
}
