package ddqn

import (
	"math"
)

// reachAvoidTargets computes the discounted reach-avoid update targets
// of a batch of transitions. The safety and target margins g and l
// are those of the state each transition starts from, and nextValues
// holds the predicted value of each next state.
//
// For a non-terminal transition the target is
//
//		γ * max(min(l, v'), g) + (1 - γ) * max(l, g)
//
// A terminal transition in the failure set (g > 0) has target
// max(l, g), one in the target set (l <= 0) has target l, and the
// failure set takes precedence if a state is in both. Any other
// terminal transition has target max(l, g).
func reachAvoidTargets(nextValues []float64, terminal []bool, g, l []float64,
	gamma float64) []float64 {
	targets := make([]float64, len(terminal))

	for i := range targets {
		terminalValue := math.Max(l[i], g[i])

		switch {
		case !terminal[i]:
			nonTerminal := math.Max(math.Min(l[i], nextValues[i]), g[i])
			targets[i] = gamma*nonTerminal + (1-gamma)*terminalValue

		case g[i] > 0:
			targets[i] = terminalValue

		case l[i] <= 0:
			targets[i] = l[i]

		default:
			targets[i] = terminalValue
		}
	}
	return targets
}

// costTargets computes the standard update targets r + γ * v' of a
// batch of transitions, where the value of a terminal next state is 0
func costTargets(nextValues []float64, terminal []bool, rewards []float64,
	gamma float64) []float64 {
	targets := make([]float64, len(terminal))

	for i := range targets {
		targets[i] = rewards[i]
		if !terminal[i] {
			targets[i] += gamma * nextValues[i]
		}
	}
	return targets
}

// gatherActions returns values[i, actions[i]] for each row i of the
// row-major matrix values with numActions columns
func gatherActions(values []float64, actions []int, numActions int) []float64 {
	gathered := make([]float64, len(actions))
	for i, a := range actions {
		gathered[i] = values[i*numActions+a]
	}
	return gathered
}

// argminRows returns the column index of the minimum value in each row
// of the row-major matrix values with numActions columns
func argminRows(values []float64, numActions int) []int {
	rows := len(values) / numActions
	indices := make([]int, rows)

	for i := range indices {
		row := values[i*numActions : (i+1)*numActions]
		best := 0
		for j := 1; j < numActions; j++ {
			if row[j] < row[best] {
				best = j
			}
		}
		indices[i] = best
	}
	return indices
}

// oneHot returns a row-major matrix of one-hot encoded actions
func oneHot(actions []int, numActions int) []float64 {
	encoded := make([]float64, len(actions)*numActions)
	for i, a := range actions {
		encoded[i*numActions+a] = 1.0
	}
	return encoded
}
