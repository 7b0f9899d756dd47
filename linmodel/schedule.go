package linmodel

import "math"

// A Schedule maps a 1-based iteration index to a positive
// step-size multiplier. The effective step at iteration t is
// the solver's base step size times sched(t).
type Schedule func(iter int) float64

// InvSqrtSchedule is the 1/sqrt(t) schedule used for
// unregularized runs.
func InvSqrtSchedule(iter int) float64 {
	return 1 / math.Sqrt(float64(iter))
}

// RegInvSqrtSchedule returns the 1/(1+lambda*sqrt(t))
// schedule used for regularized runs.
func RegInvSqrtSchedule(regParam float64) Schedule {
	return func(iter int) float64 {
		return 1 / (1 + regParam*math.Sqrt(float64(iter)))
	}
}

// DefaultSchedule picks the preset the solver uses when no
// schedule is configured: RegInvSqrtSchedule when regParam is
// positive, InvSqrtSchedule otherwise.
func DefaultSchedule(regParam float64) Schedule {
	if regParam > 0 {
		return RegInvSqrtSchedule(regParam)
	}
	return InvSqrtSchedule
}
