package sizer

import (
	"math"

	"github.com/vk/gatesizer/internal/config"
)

// Levers are the two effort knobs the controller feeds back into the
// timer query and the selector.
type Levers struct {
	PathsPerGroup int
	SwapsPerIter  int
}

// EffortPolicy adapts the levers from the WNS trajectory. Observe is
// called once per completed iteration; previousWNS is a positive
// sentinel before the first observation.
type EffortPolicy interface {
	Levers() Levers
	Observe(iteration int, wns, previousWNS float64)
}

// NewEffortPolicy builds the policy selected by the profile.
func NewEffortPolicy(s config.Sizing) EffortPolicy {
	if s.Effort.Policy == config.EffortPI {
		return NewPIPolicy(s)
	}
	return NewSteppedPolicy(s)
}

// SteppedPolicy runs a three-phase schedule over the iteration budget:
// minimum effort for the first third, an exponential ramp through the
// middle third, maximum effort for the rest. A stalling WNS overrides
// the schedule: a delta under 0.1ps jumps straight to maximum effort,
// and once maxed, deltas under 10ps keep doubling both levers up to
// their caps.
type SteppedPolicy struct {
	s      config.Sizing
	levers Levers
	maxed  bool
}

// NewSteppedPolicy starts at minimum effort.
func NewSteppedPolicy(s config.Sizing) *SteppedPolicy {
	return &SteppedPolicy{
		s:      s,
		levers: Levers{PathsPerGroup: s.MinPathsPerGroup, SwapsPerIter: s.MinSwapsPerIter},
	}
}

// Levers implements EffortPolicy.
func (p *SteppedPolicy) Levers() Levers { return p.levers }

// Observe implements EffortPolicy.
func (p *SteppedPolicy) Observe(iteration int, wns, previousWNS float64) {
	third := p.s.MaxIterations / 3
	if third < 1 {
		third = 1
	}

	// Delta is only meaningful once a real previous WNS exists.
	deltaPS := math.Inf(1)
	if previousWNS <= 0 {
		deltaPS = math.Abs(math.Abs(wns)-math.Abs(previousWNS)) * 1e12
	}

	switch {
	case p.maxed:
		if deltaPS != 0 && deltaPS < 10 {
			p.levers.PathsPerGroup = capInt(p.levers.PathsPerGroup*2, p.s.MaxPathsPerGroup)
			p.levers.SwapsPerIter = capInt(p.levers.SwapsPerIter*2, p.s.MaxSwapsPerIter)
		}
	case iteration >= 2*third || deltaPS < 0.1:
		p.maxed = true
		p.levers.PathsPerGroup = p.s.MaxPathsPerGroup
		p.levers.SwapsPerIter = p.s.MaxSwapsPerIter
	case iteration >= third:
		p.levers.PathsPerGroup = ramp(p.levers.PathsPerGroup, p.s.MinPathsPerGroup, p.s.MaxPathsPerGroup)
		p.levers.SwapsPerIter = ramp(p.levers.SwapsPerIter, p.s.MinSwapsPerIter, p.s.MaxSwapsPerIter)
	}
}

// ramp is one step of the middle-phase escalation: x doubles relative
// to its minimum, plus one so it moves even from the floor.
func ramp(x, min, max int) int {
	return capInt(2*x-min+1, max)
}

func capInt(x, max int) int {
	if x > max {
		return max
	}
	return x
}

// PIPolicy drives a single effort scalar in [0, 1] with a
// proportional-integral controller targeting a fractional WNS
// improvement of 1/(remaining iterations to the half-budget mark) per
// iteration, then linearly interpolates both levers by the effort.
// When violations shrink faster than the target the error is negative
// and effort backs off; when progress stalls the accumulated error
// drives effort toward maximum.
type PIPolicy struct {
	s      config.Sizing
	effort float64
	cumErr float64
	levers Levers
}

// NewPIPolicy starts at zero effort, i.e. minimum levers.
func NewPIPolicy(s config.Sizing) *PIPolicy {
	return &PIPolicy{
		s:      s,
		levers: Levers{PathsPerGroup: s.MinPathsPerGroup, SwapsPerIter: s.MinSwapsPerIter},
	}
}

// Levers implements EffortPolicy.
func (p *PIPolicy) Levers() Levers { return p.levers }

// Observe implements EffortPolicy.
func (p *PIPolicy) Observe(iteration int, wns, previousWNS float64) {
	targetFinish := p.s.MaxIterations / 2
	if targetFinish < 1 {
		targetFinish = 1
	}
	targetFrac := 1.0
	if iteration < targetFinish {
		targetFrac = 1.0 / float64(targetFinish-iteration)
	}

	actualFrac := 0.0
	if previousWNS < 0 {
		actualFrac = (math.Abs(previousWNS) - math.Abs(wns)) / math.Abs(previousWNS)
	}

	const gainP = 1.0
	gainI := 1.0 / float64(p.s.MaxIterations)

	err := targetFrac - actualFrac
	p.cumErr += err
	p.effort = clamp01(p.effort + gainP*err + gainI*p.cumErr)

	p.levers.PathsPerGroup = lerpInt(p.s.MinPathsPerGroup, p.s.MaxPathsPerGroup, p.effort)
	p.levers.SwapsPerIter = lerpInt(p.s.MinSwapsPerIter, p.s.MaxSwapsPerIter, p.effort)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func lerpInt(min, max int, t float64) int {
	return min + int(math.Round(float64(max-min)*t))
}
