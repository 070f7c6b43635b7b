// Package network implements feed forward neural networks as Gorgonia
// computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network whose forward pass lives in a Gorgonia
// computational graph. A NeuralNet does not own a VM; the graph
// returned by Graph() should be compiled and run externally.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the input of the network to a row-major batch of
	// observations
	SetInput([]float64) error

	// Set copies the weights of the argument network into the receiver
	Set(NeuralNet) error

	// Polyak sets the weights of the receiver to the polyak average
	// (1-tau) * receiver + tau * argument
	Polyak(NeuralNet, float64) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Output returns the value of the network's prediction from the
	// last run of the graph
	Output() G.Value
	Prediction() *G.Node
}
