package priority

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// #region helpers

func f(v float64) *float64 { return &v }

func sig(key string, risk signals.RiskLevel, months *float64) signals.SystemSignal {
	return signals.SystemSignal{Key: key, Risk: risk, Confidence: 0.8, MonthsToPlanning: months}
}

func withCost(s signals.SystemSignal, cost float64) signals.SystemSignal {
	s.ReplacementCost = f(cost)
	return s
}

func withConfidence(s signals.SystemSignal, c float64) signals.SystemSignal {
	s.Confidence = c
	return s
}

// permutations returns every ordering of sigs (Heap's algorithm).
func permutations(sigs []signals.SystemSignal) [][]signals.SystemSignal {
	var out [][]signals.SystemSignal
	a := append([]signals.SystemSignal(nil), sigs...)
	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			out = append(out, append([]signals.SystemSignal(nil), a...))
			return
		}
		generate(k - 1)
		for i := 0; i < k-1; i++ {
			if k%2 == 0 {
				a[i], a[k-1] = a[k-1], a[i]
			} else {
				a[0], a[k-1] = a[k-1], a[0]
			}
			generate(k - 1)
		}
	}
	generate(len(a))
	return out
}

func primaryKey(sel Selection) string {
	if sel.Primary == nil {
		return ""
	}
	return sel.Primary.Key
}

// #endregion helpers

// #region scenario-tests

func TestSelect_HighRiskWins(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{
		sig("hvac", signals.RiskModerate, f(40)),
		sig("roof", signals.RiskHigh, f(18)),
	})
	if primaryKey(sel) != "roof" {
		t.Fatalf("expected roof, got %q", primaryKey(sel))
	}
	if sel.Explanation != ExplainEarliestWindow {
		t.Errorf("expected %s, got %s", ExplainEarliestWindow, sel.Explanation)
	}
	if sel.Eligible != 2 {
		t.Errorf("expected 2 eligible, got %d", sel.Eligible)
	}
}

func TestSelect_LowRiskUnknownMonthsIsAllClear(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{sig("water_heater", signals.RiskLow, nil)})
	if sel.Primary != nil {
		t.Fatalf("expected nil primary, got %s", sel.Primary.Key)
	}
	if sel.Explanation != ExplainNoneEligible {
		t.Errorf("expected %s, got %s", ExplainNoneEligible, sel.Explanation)
	}
}

func TestSelect_CostTieBreak(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{
		withCost(sig("siding", signals.RiskModerate, f(24)), 8000),
		withCost(sig("roof", signals.RiskModerate, f(24)), 15000),
	})
	if primaryKey(sel) != "roof" {
		t.Fatalf("expected roof (15000), got %q", primaryKey(sel))
	}
	if sel.Explanation != ExplainHigherCost {
		t.Errorf("expected %s, got %s", ExplainHigherCost, sel.Explanation)
	}
}

func TestSelect_CostBeatsMissingCost(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{
		sig("plumbing", signals.RiskModerate, f(24)),
		withCost(sig("windows", signals.RiskModerate, f(24)), 100),
	})
	if primaryKey(sel) != "windows" {
		t.Fatalf("signals with cost data sort first, got %q", primaryKey(sel))
	}
}

func TestSelect_LowerConfidenceTieBreak(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{
		withConfidence(sig("hvac", signals.RiskModerate, f(30)), 0.9),
		withConfidence(sig("electrical", signals.RiskModerate, f(30)), 0.3),
	})
	if primaryKey(sel) != "electrical" {
		t.Fatalf("expected least certain system, got %q", primaryKey(sel))
	}
	if sel.Explanation != ExplainLowerConfidence {
		t.Errorf("expected %s, got %s", ExplainLowerConfidence, sel.Explanation)
	}
}

func TestSelect_KeyOrderFinalTieBreak(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{
		sig("zeta", signals.RiskModerate, f(30)),
		sig("alpha", signals.RiskModerate, f(30)),
	})
	if primaryKey(sel) != "alpha" || sel.Explanation != ExplainKeyOrder {
		t.Fatalf("expected alpha by key order, got %q (%s)", primaryKey(sel), sel.Explanation)
	}
}

func TestSelect_SoleEligible(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{
		sig("deck", signals.RiskLow, f(200)),
		sig("gutters", signals.RiskLow, f(12)),
	})
	if primaryKey(sel) != "gutters" || sel.Explanation != ExplainSoleEligible {
		t.Fatalf("expected sole eligible gutters, got %q (%s)", primaryKey(sel), sel.Explanation)
	}
}

// #endregion scenario-tests

// #region eligibility-tests

func TestEligible_HorizonBoundary(t *testing.T) {
	s := NewSelector(DefaultHorizonMonths)
	if !s.Eligible(sig("a", signals.RiskLow, f(84))) {
		t.Error("84 months is inside the horizon")
	}
	if s.Eligible(sig("a", signals.RiskModerate, f(84.5))) {
		t.Error("84.5 months is outside the horizon")
	}
	if !s.Eligible(sig("a", signals.RiskHigh, f(300))) {
		t.Error("HIGH risk is eligible regardless of horizon")
	}
	if !s.Eligible(sig("a", signals.RiskHigh, nil)) {
		t.Error("HIGH risk is eligible without a horizon")
	}
	if s.Eligible(sig("a", signals.RiskModerate, nil)) {
		t.Error("non-HIGH signals need a horizon")
	}
}

func TestNewSelector_InvalidHorizonFallsBack(t *testing.T) {
	for _, h := range []float64{0, -12, math.NaN(), math.Inf(1)} {
		if NewSelector(h).HorizonMonths() != DefaultHorizonMonths {
			t.Fatalf("horizon %v: expected default horizon", h)
		}
	}
}

// #endregion eligibility-tests

// #region undefined-month-tests

func TestRank_HighUnscheduledSortsAfterLowestDefined(t *testing.T) {
	ranked := NewSelector(DefaultHorizonMonths).Rank([]signals.SystemSignal{
		sig("hvac", signals.RiskModerate, f(30)),
		sig("foundation", signals.RiskHigh, nil),
		sig("roof", signals.RiskModerate, f(10)),
	})
	want := []string{"roof", "foundation", "hvac"}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d ranked, got %d", len(want), len(ranked))
	}
	for i, k := range want {
		if ranked[i].Key != k {
			t.Fatalf("rank %d: expected %s, got %s", i, k, ranked[i].Key)
		}
	}
}

func TestSelect_OnlyUnscheduledHigh(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{
		sig("foundation", signals.RiskHigh, nil),
		sig("hvac", signals.RiskModerate, f(90)),
	})
	if primaryKey(sel) != "foundation" {
		t.Fatalf("expected foundation, got %q", primaryKey(sel))
	}
}

func TestSelect_UnscheduledLosesToTiedDefined(t *testing.T) {
	sel := SelectPrimary([]signals.SystemSignal{
		sig("foundation", signals.RiskHigh, nil),
		sig("roof", signals.RiskHigh, f(6)),
	})
	if primaryKey(sel) != "roof" {
		t.Fatalf("a defined horizon sorts before an unscheduled one, got %q", primaryKey(sel))
	}
	if sel.Explanation != ExplainEarliestWindow {
		t.Errorf("expected %s, got %s", ExplainEarliestWindow, sel.Explanation)
	}
}

// #endregion undefined-month-tests

// #region determinism-tests

func TestSelect_OrderIndependence(t *testing.T) {
	base := []signals.SystemSignal{
		withCost(sig("roof", signals.RiskHigh, f(24)), 15000),
		withCost(sig("siding", signals.RiskModerate, f(24)), 15000),
		withConfidence(sig("hvac", signals.RiskModerate, f(24)), 0.2),
		sig("foundation", signals.RiskHigh, nil),
		sig("deck", signals.RiskLow, f(150)),
	}

	want := SelectPrimary(base)
	for i, perm := range permutations(base) {
		got := SelectPrimary(perm)
		if primaryKey(got) != primaryKey(want) || got.Explanation != want.Explanation {
			t.Fatalf("permutation %d: got %q/%s, want %q/%s",
				i, primaryKey(got), got.Explanation, primaryKey(want), want.Explanation)
		}
	}
}

func TestSelect_EmptyAndNoneEligibleShareShape(t *testing.T) {
	empty := SelectPrimary(nil)
	none := SelectPrimary([]signals.SystemSignal{sig("deck", signals.RiskLow, f(200))})
	if empty != none {
		t.Fatalf("expected identical all-clear results, got %+v vs %+v", empty, none)
	}
}

// #endregion determinism-tests
