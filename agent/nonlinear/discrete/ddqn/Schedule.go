package ddqn

import "math"

// atPeriod returns whether a schedule with the given period should be
// applied at the end of an epoch. Schedules are never applied at epoch
// 0.
func atPeriod(epoch, period int) bool {
	return epoch != 0 && epoch%period == 0
}

// decayEpsilon returns the next exploration rate in the epsilon
// schedule
func decayEpsilon(epsilon, decay, end float64) float64 {
	return math.Max(epsilon*decay, end)
}

// annealGamma moves the discount factor closer to 1, shrinking the gap
// 1 - γ by a factor of decay
func annealGamma(gamma, decay float64) float64 {
	return math.Min(1-(1-gamma)*decay, 1.0)
}

// decayLR returns whether the learning rate should be decayed at the
// end of an epoch. The learning rate is decayed once every period
// completed epochs.
func decayLR(epoch, period int) bool {
	return (epoch+1)%period == 0
}
