package sizer

import (
	"context"
	"strings"

	"github.com/vk/gatesizer/internal/ctxlog"
	"github.com/vk/gatesizer/internal/sta"
)

// ScoreResult is the outcome of scoring one iteration's paths. Scores
// are keyed by engine instance handle and discarded at end of
// iteration.
type ScoreResult struct {
	Scores map[sta.Instance]float64

	// WNS is the most negative slack seen, 0 if nothing violates.
	WNS float64

	// WNSPath is the path achieving WNS, nil when WNS is 0.
	WNSPath sta.Path

	// WNSFixable reports whether the WNS path holds at least one
	// slow-grade cell that a swap could accelerate.
	WNSFixable bool
}

// Scorer walks violating paths and accumulates blame onto the
// instances that can still be accelerated. It is order-independent
// over its input paths.
type Scorer struct {
	net        sta.Network
	slowMarker string
	weight     WeightFunc
}

// NewScorer creates a scorer over the given netlist view. Only cells
// whose liberty name contains slowMarker are ever scored; fast-grade
// cells and uncharacterized instances accumulate nothing.
func NewScorer(net sta.Network, slowMarker string, weight WeightFunc) *Scorer {
	return &Scorer{net: net, slowMarker: slowMarker, weight: weight}
}

// Score traverses every violating path end backward from its endpoint
// and returns the accumulated blame map together with the iteration's
// WNS bookkeeping.
func (s *Scorer) Score(ctx context.Context, ends []sta.PathEnd) *ScoreResult {
	logger := ctxlog.FromContext(ctx)
	res := &ScoreResult{Scores: make(map[sta.Instance]float64)}

	for _, end := range ends {
		slack := end.Slack()
		if slack >= 0 {
			continue
		}
		isWNSPath := false
		if slack < res.WNS {
			res.WNS = slack
			res.WNSPath = end.Path()
			res.WNSFixable = false
			isWNSPath = true
		}
		logger.Debug("Scoring violating path.",
			"endpoint", s.net.PinName(end.Path().Pin()), "slack", slack)

		for p := end.Path(); p != nil; {
			pin := p.Pin()
			prev, arc, ok := p.Prev()

			var delay float64
			if ok && arc != nil {
				delay = arc.IntrinsicDelay()
			}

			inst := s.net.Instance(pin)
			if s.scoreable(inst) {
				res.Scores[inst] += s.weight(delay, slack)
				if isWNSPath {
					res.WNSFixable = true
				}
				logger.Debug("Blame accumulated.",
					"instance", s.net.InstanceName(inst), "pin", s.net.PinName(pin), "delay", delay)
			}

			if !ok {
				break
			}
			p = prev
		}
	}
	return res
}

// scoreable reports whether an instance is a candidate for
// acceleration: it must be bound to a characterized cell whose name
// carries the slow-grade marker.
func (s *Scorer) scoreable(inst sta.Instance) bool {
	if inst == nil {
		return false
	}
	cell := s.net.Cell(inst)
	if cell == nil {
		return false
	}
	libcell := s.net.LibertyCell(cell)
	if libcell == nil {
		return false
	}
	return strings.Contains(libcell.Name(), s.slowMarker)
}
