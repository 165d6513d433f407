// Package priority picks the single most urgent system out of a candidate set.
package priority

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// #region types

// DefaultHorizonMonths is the eligibility horizon: seven years.
const DefaultHorizonMonths = 84

// Explanation is a string key naming the rule that decided a selection.
type Explanation string

const (
	ExplainNoneEligible       Explanation = "none_eligible"
	ExplainSoleEligible       Explanation = "sole_eligible"
	ExplainEarliestWindow     Explanation = "earliest_planning_window"
	ExplainHighRiskUnschedule Explanation = "high_risk_unscheduled"
	ExplainHigherCost         Explanation = "higher_replacement_cost"
	ExplainLowerConfidence    Explanation = "lower_confidence"
	ExplainKeyOrder           Explanation = "key_order"
)

// Selection is the result of Select. Primary is nil in the all-clear case, which
// has the same shape whether or not any signals were supplied.
type Selection struct {
	Primary     *signals.SystemSignal
	Explanation Explanation
	Eligible    int
}

// #endregion types

// #region selector

// Selector applies the eligibility horizon and the deterministic ordering.
type Selector struct {
	horizon float64
}

// NewSelector creates a selector. Non-positive or non-finite horizons fall back
// to the default.
func NewSelector(horizonMonths float64) *Selector {
	if horizonMonths <= 0 || math.IsNaN(horizonMonths) || math.IsInf(horizonMonths, 0) {
		horizonMonths = DefaultHorizonMonths
	}
	return &Selector{horizon: horizonMonths}
}

// HorizonMonths returns the active eligibility horizon.
func (s *Selector) HorizonMonths() float64 {
	return s.horizon
}

// Eligible reports whether a signal can be surfaced: a known horizon inside the
// window, or HIGH risk regardless of horizon.
func (s *Selector) Eligible(sig signals.SystemSignal) bool {
	if sig.Risk == signals.RiskHigh {
		return true
	}
	m, ok := months(sig)
	return ok && m <= s.horizon
}

// Select returns the primary signal and the rule that chose it.
// The result does not depend on input order.
func (s *Selector) Select(sigs []signals.SystemSignal) Selection {
	ranked := s.rank(sigs)
	if len(ranked) == 0 {
		return Selection{Explanation: ExplainNoneEligible}
	}

	primary := ranked[0].sig
	sel := Selection{Primary: &primary, Eligible: len(ranked)}
	if len(ranked) == 1 {
		sel.Explanation = ExplainSoleEligible
		return sel
	}
	sel.Explanation = explain(ranked[0], ranked[1])
	return sel
}

// Rank returns every eligible signal in selection order.
func (s *Selector) Rank(sigs []signals.SystemSignal) []signals.SystemSignal {
	ranked := s.rank(sigs)
	out := make([]signals.SystemSignal, len(ranked))
	for i, c := range ranked {
		out[i] = c.sig
	}
	return out
}

// SelectPrimary runs Select with the default horizon.
func SelectPrimary(sigs []signals.SystemSignal) Selection {
	return NewSelector(DefaultHorizonMonths).Select(sigs)
}

// #endregion selector

// #region ordering

// candidate carries the precomputed sort keys for one eligible signal.
type candidate struct {
	sig       signals.SystemSignal
	effMonths float64
	defined   bool
	hasCost   bool
	cost      float64
	conf      float64
}

func (s *Selector) rank(sigs []signals.SystemSignal) []candidate {
	cands := make([]candidate, 0, len(sigs))
	lowest := math.Inf(1)
	for _, sig := range sigs {
		if !s.Eligible(sig) {
			continue
		}
		c := candidate{sig: sig, conf: sig.Confidence}
		if m, ok := months(sig); ok {
			c.effMonths, c.defined = m, true
			lowest = math.Min(lowest, m)
		}
		if sig.ReplacementCost != nil && !math.IsNaN(*sig.ReplacementCost) {
			c.hasCost, c.cost = true, *sig.ReplacementCost
		}
		if math.IsNaN(c.conf) {
			c.conf = 1
		}
		cands = append(cands, c)
	}

	// HIGH-risk signals without a horizon sit right behind the soonest defined one.
	for i := range cands {
		if !cands[i].defined {
			cands[i].effMonths = lowest
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return compare(cands[i], cands[j]) < 0
	})
	return cands
}

// compare is a total order: months, defined-first, cost desc, confidence asc, key asc.
func compare(a, b candidate) int {
	if a.effMonths != b.effMonths {
		return cmpFloat(a.effMonths, b.effMonths)
	}
	if a.defined != b.defined {
		if a.defined {
			return -1
		}
		return 1
	}
	if a.hasCost != b.hasCost {
		if a.hasCost {
			return -1
		}
		return 1
	}
	if a.cost != b.cost {
		return cmpFloat(b.cost, a.cost)
	}
	if a.conf != b.conf {
		return cmpFloat(a.conf, b.conf)
	}
	switch {
	case a.sig.Key < b.sig.Key:
		return -1
	case a.sig.Key > b.sig.Key:
		return 1
	}
	return 0
}

// explain names the first rule that separates the winner from the runner-up.
func explain(first, second candidate) Explanation {
	switch {
	case first.effMonths != second.effMonths || first.defined != second.defined:
		if !first.defined {
			return ExplainHighRiskUnschedule
		}
		return ExplainEarliestWindow
	case first.hasCost != second.hasCost || first.cost != second.cost:
		return ExplainHigherCost
	case first.conf != second.conf:
		return ExplainLowerConfidence
	}
	return ExplainKeyOrder
}

// #endregion ordering

// #region helpers

// months returns a usable horizon; NaN and negative values count as unknown.
func months(sig signals.SystemSignal) (float64, bool) {
	if sig.MonthsToPlanning == nil {
		return 0, false
	}
	m := *sig.MonthsToPlanning
	if math.IsNaN(m) || m < 0 {
		return 0, false
	}
	return m, true
}

func cmpFloat(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// #endregion helpers
