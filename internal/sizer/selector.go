package sizer

import (
	"sort"

	"github.com/vk/gatesizer/internal/naming"
	"github.com/vk/gatesizer/internal/sta"
)

// Offender is a selected instance with its accumulated score and its
// hierarchical full name, carried for deterministic ordering and for
// reports.
type Offender struct {
	Inst  sta.Instance
	Name  string
	Score float64
}

// SelectTop ranks the score map descending and returns at most limit
// offenders. Ties are broken by full instance name ascending so that
// identical inputs always select identically, independent of map
// iteration order. Zero scores are excluded.
func SelectTop(net sta.Network, scores map[sta.Instance]float64, limit int) []Offender {
	offenders := make([]Offender, 0, len(scores))
	for inst, score := range scores {
		if score <= 0 {
			continue
		}
		offenders = append(offenders, Offender{
			Inst:  inst,
			Name:  naming.FullName(net, inst),
			Score: score,
		})
	}
	sort.Slice(offenders, func(i, j int) bool {
		if offenders[i].Score != offenders[j].Score {
			return offenders[i].Score > offenders[j].Score
		}
		return offenders[i].Name < offenders[j].Name
	})
	if limit >= 0 && len(offenders) > limit {
		offenders = offenders[:limit]
	}
	return offenders
}
