// Package op provides extended Gorgonia graph operations.
package op

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// scalar returns a scalar node in the graph of n with the dtype of n
func scalar(n *G.Node, value float64, name string) (*G.Node, error) {
	switch n.Dtype() {
	case G.Float32:
		return G.NewScalar(
			n.Graph(),
			G.Float32,
			G.WithValue(float32(value)),
			G.WithName(name),
		), nil
	case G.Float64:
		return G.NewScalar(
			n.Graph(),
			G.Float64,
			G.WithValue(value),
			G.WithName(name),
		), nil
	}
	return nil, fmt.Errorf("scalar: unsupported dtype %v", n.Dtype())
}

// SmoothL1 computes the elementwise smooth L1 (Huber) loss of a node
// with threshold 1:
//
//		0.5 * x^2     if |x| <= 1
//		|x| - 0.5     otherwise
//
// The loss is computed as 0.5 * c^2 + e, where e = max(|x| - 1, 0) is
// the excess of |x| over 1 and c = |x| - e is |x| clipped to 1.
func SmoothL1(x *G.Node) (retVal *G.Node, err error) {
	one, err := scalar(x, 1.0, fmt.Sprintf("smoothL1_one_%v", x.ID()))
	if err != nil {
		return nil, err
	}
	half, err := scalar(x, 0.5, fmt.Sprintf("smoothL1_half_%v", x.ID()))
	if err != nil {
		return nil, err
	}

	abs, err := G.Abs(x)
	if err != nil {
		return nil, err
	}

	excess, err := G.Sub(abs, one)
	if err != nil {
		return nil, err
	}
	if excess, err = G.Rectify(excess); err != nil {
		return nil, err
	}

	clipped, err := G.Sub(abs, excess)
	if err != nil {
		return nil, err
	}
	quadratic, err := G.Square(clipped)
	if err != nil {
		return nil, err
	}
	if quadratic, err = G.HadamardProd(half, quadratic); err != nil {
		return nil, err
	}

	return G.Add(quadratic, excess)
}
