package environment

import "github.com/samuelfneumann/reachavoid/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will modify the timestep so that it is the
// last timestep with EndType Timeout. Episodes which have already
// ended are left untouched.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Last() {
		return true
	}
	if s.episodeSteps > 0 && t.Number >= s.episodeSteps {
		t.SetEnd(timestep.Timeout)
		return true
	}
	return false
}
