package ddqn

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/reachavoid/utils/op"
)

// addLoss adds the mean regression loss between pred and target to
// their computational graph. The nodes must have the same shape.
func addLoss(loss Loss, pred, target *G.Node) (*G.Node, error) {
	diff, err := G.Sub(pred, target)
	if err != nil {
		return nil, fmt.Errorf("addLoss: could not compute error: %v", err)
	}

	var losses *G.Node
	switch loss {
	case MSE:
		losses, err = G.Square(diff)

	case Huber:
		losses, err = op.SmoothL1(diff)

	default:
		return nil, fmt.Errorf("addLoss: unknown loss %q", loss)
	}
	if err != nil {
		return nil, fmt.Errorf("addLoss: could not compute losses: %v", err)
	}

	return G.Mean(losses)
}

// clipGradNorm scales the gradients of nodes so that their global L2
// norm is at most maxNorm, returning the norm before clipping. The
// nodes must have had their gradients computed by the last run of
// their graph.
func clipGradNorm(nodes G.Nodes, maxNorm float64) (float64, error) {
	grads := make([][]float64, len(nodes))

	var sumSq float64
	for i, node := range nodes {
		grad, err := node.Grad()
		if err != nil {
			return 0, fmt.Errorf("clipGradNorm: could not get gradient of "+
				"%v: %v", node.Name(), err)
		}

		data, ok := grad.Data().([]float64)
		if !ok {
			return 0, fmt.Errorf("clipGradNorm: gradient of %v is not "+
				"[]float64", node.Name())
		}
		grads[i] = data

		for _, g := range data {
			sumSq += g * g
		}
	}

	norm := math.Sqrt(sumSq)
	if maxNorm <= 0 || norm <= maxNorm {
		return norm, nil
	}

	scale := maxNorm / (norm + 1e-6)
	for _, data := range grads {
		for j := range data {
			data[j] *= scale
		}
	}
	return norm, nil
}
