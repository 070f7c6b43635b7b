package probmap

import (
	"fmt"
)

// Config implements a configuration of a PointMass environment
type Config struct {
	Map     Shape        // Obstacle probability map
	Margin  MarginParams // Safety margin parameters
	Targets []Rect       // Union of target sets

	// Use the nearest-cell approximation of the safety margin
	GridMargin bool

	// Scaling of the target margin
	TargetScaling float64

	Speed    float64 // Distance travelled per unit time
	DT       float64 // Time per step
	Headings int     // Number of evenly spaced discrete headings

	// Episodes are cut off after this many steps, 0 for no limit
	MaxSteps int

	// Resample starting states until they are outside of both the
	// failure and target sets
	KeepOutOf bool

	Discount    float64
	FailureCost float64
	SuccessCost float64
	StepCost    float64
}

// DefaultConfig returns the default PointMass configuration on the
// curvy map with a single target near the bottom of the map
func DefaultConfig() Config {
	return Config{
		Map:           Curvy,
		Margin:        DefaultMarginParams(),
		Targets:       []Rect{{X: 8.5, Y: 4.5, W: 1.5, H: 1.5}},
		TargetScaling: 1.0,
		Speed:         1.0,
		DT:            0.25,
		Headings:      8,
		MaxSteps:      100,
		KeepOutOf:     true,
		Discount:      1.0,
		FailureCost:   1.0,
		SuccessCost:   -1.0,
		StepCost:      0.0,
	}
}

// Validate checks the Config for consistency
func (c Config) Validate() error {
	if err := c.Margin.Validate(); err != nil {
		return fmt.Errorf("validate: invalid margin parameters: %v", err)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("validate: at least one target is required")
	}
	for i, t := range c.Targets {
		if t.W <= 0 || t.H <= 0 {
			return fmt.Errorf("validate: target %d must have positive "+
				"width and height", i)
		}
	}
	if c.TargetScaling <= 0 {
		return fmt.Errorf("validate: target scaling must be positive")
	}
	if c.Speed <= 0 || c.DT <= 0 {
		return fmt.Errorf("validate: speed and dt must be positive")
	}
	if c.Headings < 1 {
		return fmt.Errorf("validate: at least one heading is required")
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("validate: max steps must be non-negative")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1]")
	}
	return nil
}
