package sizer

import (
	"math"

	"github.com/vk/gatesizer/internal/config"
)

// WeightFunc computes the blame contribution of one path pin. delay is
// the intrinsic delay of the arc entering the pin (0 at a startpoint)
// and slack is the traversed path's slack, always negative here. All
// weightings attribute more blame to longer arcs; ClippedDelay and
// PowerLaw also take the path's slack into account, SquaredDelay does
// not.
type WeightFunc func(delay, slack float64) float64

// SquaredDelay is the default weighting.
func SquaredDelay(delay, _ float64) float64 {
	return delay * delay
}

// ClippedDelay bounds any single contribution by the path's violation,
// preventing one extreme arc from swamping the ranking.
func ClippedDelay(delay, slack float64) float64 {
	return math.Min(delay, -slack)
}

// PowerLaw weighs delay^alpha scaled by |slack|^beta.
func PowerLaw(alpha, beta float64) WeightFunc {
	return func(delay, slack float64) float64 {
		return math.Pow(delay, alpha) * math.Pow(math.Abs(slack), beta)
	}
}

// WeightForConfig maps a scoring configuration to its WeightFunc.
func WeightForConfig(sc config.Scoring) WeightFunc {
	switch sc.Function {
	case config.ScoreClipped:
		return ClippedDelay
	case config.ScorePower:
		return PowerLaw(sc.DelayExponent, sc.SlackExponent)
	default:
		return SquaredDelay
	}
}
