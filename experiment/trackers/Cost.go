// Package trackers implements Trackers of episodic data
package trackers

import (
	"github.com/samuelfneumann/reachavoid/experiment/tracker"
	ts "github.com/samuelfneumann/reachavoid/timestep"
)

// Cost tracks and saves the episodic cost in an experiment. When an
// environment returns a TimeStep, this Tracker will extract the cost
// and accumulate the total cost of each episode.
//
// An episode must finish for this Tracker to save its data. If the
// last episode in an experiment does not finish, that episode's cost
// will not be saved.
type Cost struct {
	currentCost  float64
	episodeCosts []float64
	filename     string
}

// NewCost creates and returns a new Cost Tracker
func NewCost(filename string) *Cost {
	return &Cost{filename: filename}
}

// Track tracks the cost seen on a timestep. The first timestep of an
// episode starts a new total.
func (c *Cost) Track(step ts.TimeStep) {
	if step.First() {
		c.currentCost = 0
	}
	c.currentCost += step.Reward

	if step.Last() {
		c.episodeCosts = append(c.episodeCosts, c.currentCost)
		c.currentCost = 0
	}
}

// Data returns the total cost of each finished episode
func (c *Cost) Data() []float64 {
	return c.episodeCosts
}

// Save saves the data tracked by the Cost Tracker to disk
func (c *Cost) Save() error {
	return tracker.SaveData(c.filename, c.episodeCosts)
}

var _ tracker.Tracker = &Cost{}
