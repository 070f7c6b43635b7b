package initwfn

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// symmetric reports an error if a constant initializer would be used
// for hidden layers. Every unit of a constant-initialized hidden layer
// receives the same gradient, so the units never differentiate.
// Constant initialization of the output layer alone is allowed.
func symmetric(t Type, hiddenSizes []int) error {
	if len(hiddenSizes) > 0 {
		return fmt.Errorf("%v: cannot initialize %v hidden layers to a "+
			"constant", t, len(hiddenSizes))
	}
	return nil
}

// ZeroesConfig configures an initializer setting all weights to 0
type ZeroesConfig struct{}

// NewZeroes returns a new weight initializer setting all weights to 0
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

func (z ZeroesConfig) Type() Type { return Zeroes }
func (z ZeroesConfig) Create() G.InitWFn { return G.Zeroes() }

func (z ZeroesConfig) Validate(hiddenSizes []int) error {
	return symmetric(Zeroes, hiddenSizes)
}

// OnesConfig configures an initializer setting all weights to 1
type OnesConfig struct{}

// NewOnes returns a new weight initializer setting all weights to 1
func NewOnes() (*InitWFn, error) {
	return newInitWFn(OnesConfig{})
}

func (o OnesConfig) Type() Type { return Ones }
func (o OnesConfig) Create() G.InitWFn { return G.Ones() }

func (o OnesConfig) Validate(hiddenSizes []int) error {
	return symmetric(Ones, hiddenSizes)
}

// ConstantConfig configures an initializer setting all weights to
// Value
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new weight initializer setting all weights to
// value
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{value})
}

func (c ConstantConfig) Type() Type { return Constant }
func (c ConstantConfig) Create() G.InitWFn { return G.ValuesOf(c.Value) }

func (c ConstantConfig) Validate(hiddenSizes []int) error {
	if math.IsInf(c.Value, 0) || math.IsNaN(c.Value) {
		return fmt.Errorf("%v: value must be finite \n\thave(%v)", Constant,
			c.Value)
	}
	return symmetric(Constant, hiddenSizes)
}
