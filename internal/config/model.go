package config

import "fmt"

// Scoring function names accepted in a profile.
const (
	ScoreSquared = "squared"
	ScoreClipped = "clipped"
	ScorePower   = "power"
)

// Effort policy names accepted in a profile.
const (
	EffortStepped = "stepped"
	EffortPI      = "pi"
)

// Model is the unified representation of a sizing profile.
type Model struct {
	Sizing Sizing
}

// Sizing holds the controller parameters.
type Sizing struct {
	// MaxIterations bounds the outer loop.
	MaxIterations int

	// PathsPerGroup effort lever range.
	MinPathsPerGroup int
	MaxPathsPerGroup int

	// SwapsPerIter effort lever range.
	MinSwapsPerIter int
	MaxSwapsPerIter int

	// Speed grade markers in liberty cell names. Swaps always go
	// SlowMarker to FastMarker.
	SlowMarker string
	FastMarker string

	Scoring Scoring
	Effort  Effort
}

// Scoring selects the blame weighting applied during path traversal.
type Scoring struct {
	// Function is one of ScoreSquared, ScoreClipped, ScorePower.
	Function string

	// DelayExponent and SlackExponent parameterize ScorePower.
	DelayExponent float64
	SlackExponent float64
}

// Effort selects the adaptation policy for the two effort levers.
type Effort struct {
	// Policy is one of EffortStepped, EffortPI.
	Policy string
}

// Default returns a profile with the documented defaults applied.
func Default() *Model {
	return &Model{
		Sizing: Sizing{
			MaxIterations:    200,
			MinPathsPerGroup: 10,
			MaxPathsPerGroup: 2000,
			MinSwapsPerIter:  3,
			MaxSwapsPerIter:  1000,
			SlowMarker:       "_sp0_",
			FastMarker:       "_sp1_",
			Scoring: Scoring{
				Function:      ScoreSquared,
				DelayExponent: 1.0,
				SlackExponent: 1.0,
			},
			Effort: Effort{
				Policy: EffortStepped,
			},
		},
	}
}

// Validate checks the model against the controller's contract.
func (m *Model) Validate() error {
	s := &m.Sizing
	if s.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", s.MaxIterations)
	}
	if s.MinPathsPerGroup < 1 {
		return fmt.Errorf("min_paths_per_group must be at least 1, got %d", s.MinPathsPerGroup)
	}
	if s.MaxPathsPerGroup < s.MinPathsPerGroup {
		return fmt.Errorf("max_paths_per_group (%d) must not be below min_paths_per_group (%d)",
			s.MaxPathsPerGroup, s.MinPathsPerGroup)
	}
	if s.MinSwapsPerIter < 1 {
		return fmt.Errorf("min_swaps_per_iter must be at least 1, got %d", s.MinSwapsPerIter)
	}
	if s.MaxSwapsPerIter < s.MinSwapsPerIter {
		return fmt.Errorf("max_swaps_per_iter (%d) must not be below min_swaps_per_iter (%d)",
			s.MaxSwapsPerIter, s.MinSwapsPerIter)
	}
	if s.SlowMarker == "" || s.FastMarker == "" {
		return fmt.Errorf("speed grade markers must not be empty")
	}
	if s.SlowMarker == s.FastMarker {
		return fmt.Errorf("slow and fast markers must differ, both are %q", s.SlowMarker)
	}
	switch s.Scoring.Function {
	case ScoreSquared, ScoreClipped, ScorePower:
	default:
		return fmt.Errorf("unknown scoring function %q", s.Scoring.Function)
	}
	if s.Scoring.DelayExponent < 0 || s.Scoring.SlackExponent < 0 {
		return fmt.Errorf("scoring exponents must not be negative")
	}
	switch s.Effort.Policy {
	case EffortStepped, EffortPI:
	default:
		return fmt.Errorf("unknown effort policy %q", s.Effort.Policy)
	}
	return nil
}
