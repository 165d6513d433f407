package narrative

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/danielpatrickdp/home-focus/go-core/internal/priority"
	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// #region helpers

func f(v float64) *float64 { return &v }

func sys(key string, risk signals.RiskLevel, months *float64, conf float64) signals.SystemSignal {
	return signals.SystemSignal{Key: key, Risk: risk, Confidence: conf, MonthsToPlanning: months}
}

// randomContext builds a reproducible context with up to 8 systems.
func randomContext(r *rand.Rand) signals.NarrativeContext {
	risks := []signals.RiskLevel{signals.RiskLow, signals.RiskModerate, signals.RiskHigh}
	n := r.Intn(9)
	ctx := signals.NarrativeContext{
		OverallScore:             float64(r.Intn(101)),
		HasOverdueMaintenance:    r.Intn(3) == 0,
		HasChangedSinceLastVisit: r.Intn(2) == 0,
		IsNewUser:                r.Intn(5) == 0,
	}
	for i := 0; i < n; i++ {
		s := signals.SystemSignal{
			Key:        fmt.Sprintf("sys%d", i),
			Risk:       risks[r.Intn(len(risks))],
			Confidence: float64(r.Intn(101)) / 100,
		}
		if r.Intn(4) != 0 {
			s.MonthsToPlanning = f(float64(r.Intn(150)))
		}
		if r.Intn(3) == 0 {
			s.ReplacementCost = f(float64(1000 * (1 + r.Intn(20))))
		}
		ctx.Systems = append(ctx.Systems, s)
	}
	return ctx
}

// expectedStable mirrors the narrative invariant independently of evaluate.
func expectedStable(ctx signals.NarrativeContext) bool {
	sel := priority.NewSelector(priority.DefaultHorizonMonths)
	for _, s := range ctx.Systems {
		if sel.Eligible(s) && (s.Risk == signals.RiskModerate || s.Risk == signals.RiskHigh) {
			return false
		}
	}
	return !ctx.HasOverdueMaintenance
}

// allowedFacts lists every fact the drawer may show for focus: fields of the
// source system and the home flags, computed without going through evaluate.
func allowedFacts(ctx signals.NarrativeContext, focus FocusNarrative) map[string]bool {
	allowed := map[string]bool{}
	if ctx.HasOverdueMaintenance {
		allowed["overdue_maintenance"] = true
	}
	if focus.ChangedSinceLastVisit {
		allowed["changed_since_last_visit"] = true
	}
	src, ok := ctx.System(focus.SourceSystem)
	if !ok {
		return allowed
	}
	allowed["risk:"+string(src.Risk)] = true
	switch {
	case src.MonthsToPlanning == nil:
		allowed["months:unscheduled"] = true
	case *src.MonthsToPlanning > priority.DefaultHorizonMonths:
		allowed["months:beyond_horizon"] = true
	default:
		allowed[fmt.Sprintf("months:%d", int(math.Round(*src.MonthsToPlanning)))] = true
	}
	allowed["confidence:"+string(bandFor(src.Confidence))] = true
	return allowed
}

var stateForLabel = map[Lifecycle]State{
	LifecycleEarly:    StateStable,
	LifecycleMid:      StateStable,
	LifecycleLate:     StateWatch,
	LifecyclePlanning: StateAlert,
}

// #endregion helpers

// #region scenario-tests

func TestArbitrate_HighRiskAlert(t *testing.T) {
	ctx := signals.NarrativeContext{
		OverallScore: 70,
		Systems: []signals.SystemSignal{
			sys("hvac", signals.RiskModerate, f(40), 0.8),
			sys("roof", signals.RiskHigh, f(18), 0.6),
		},
	}

	n := ArbitrateFocus(ctx)

	if n.State != StateAlert {
		t.Fatalf("expected alert, got %s", n.State)
	}
	if n.SourceSystem != "roof" || n.Source != SourceSystem {
		t.Fatalf("expected roof as source, got %q (%s)", n.SourceSystem, n.Source)
	}
}

func TestArbitrate_LowUnknownIsStable(t *testing.T) {
	ctx := signals.NarrativeContext{
		OverallScore: 90,
		Systems:      []signals.SystemSignal{sys("water_heater", signals.RiskLow, nil, 0.9)},
	}

	n := ArbitrateFocus(ctx)

	if n.State != StateStable || n.Source != SourceNone || n.SourceSystem != "" {
		t.Fatalf("expected stable with no source, got %+v", n)
	}
	if n.Explanation != priority.ExplainNoneEligible {
		t.Errorf("expected %s, got %s", priority.ExplainNoneEligible, n.Explanation)
	}
}

func TestArbitrate_HighBeatsSoonerModerate(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{
		sys("gutters", signals.RiskModerate, f(6), 0.8),
		sys("roof", signals.RiskHigh, f(30), 0.8),
	}}

	n := ArbitrateFocus(ctx)

	if n.State != StateAlert || n.SourceSystem != "roof" {
		t.Fatalf("alert must be sourced from a HIGH signal, got %+v", n)
	}
}

func TestArbitrate_ModerateWatch(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{
		sys("hvac", signals.RiskModerate, f(30), 0.8),
		sys("deck", signals.RiskLow, f(5), 0.8),
	}}

	n := ArbitrateFocus(ctx)

	if n.State != StateWatch || n.SourceSystem != "hvac" {
		t.Fatalf("expected watch on hvac, got %+v", n)
	}
}

func TestArbitrate_EligibleLowStaysStable(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("deck", signals.RiskLow, f(5), 0.8)}}

	if n := ArbitrateFocus(ctx); n.State != StateStable {
		t.Fatalf("a LOW signal never meets the watch threshold, got %s", n.State)
	}
}

func TestArbitrate_ModerateOutsideHorizonIsStable(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("hvac", signals.RiskModerate, f(120), 0.8)}}

	if n := ArbitrateFocus(ctx); n.State != StateStable {
		t.Fatalf("expected stable, got %s", n.State)
	}
}

func TestArbitrate_OverdueMaintenanceForcesWatch(t *testing.T) {
	ctx := signals.NarrativeContext{OverallScore: 80, HasOverdueMaintenance: true}

	n := ArbitrateFocus(ctx)

	if n.State != StateWatch || n.Source != SourceMaintenance || n.SourceSystem != "" {
		t.Fatalf("expected maintenance-sourced watch, got %+v", n)
	}
}

func TestArbitrate_SystemPreferredOverMaintenance(t *testing.T) {
	ctx := signals.NarrativeContext{
		HasOverdueMaintenance: true,
		Systems:               []signals.SystemSignal{sys("hvac", signals.RiskModerate, f(20), 0.8)},
	}

	n := ArbitrateFocus(ctx)

	if n.Source != SourceSystem || n.SourceSystem != "hvac" {
		t.Fatalf("expected hvac source, got %+v", n)
	}
}

func TestArbitrate_EmptyContextStable(t *testing.T) {
	n := ArbitrateFocus(signals.NarrativeContext{})
	if n.State != StateStable {
		t.Fatalf("expected stable, got %s", n.State)
	}
	d := ResolveContextDrawer(n, signals.NarrativeContext{})
	if d.Rationale != RationaleAllClear || len(d.Signals) != 0 {
		t.Fatalf("expected empty all-clear drawer, got %+v", d)
	}
}

func TestArbitrate_NewUserSuppressesChangedFlag(t *testing.T) {
	ctx := signals.NarrativeContext{HasChangedSinceLastVisit: true, IsNewUser: true}
	if ArbitrateFocus(ctx).ChangedSinceLastVisit {
		t.Fatal("new users get no what's-new annotation")
	}
	ctx.IsNewUser = false
	if !ArbitrateFocus(ctx).ChangedSinceLastVisit {
		t.Fatal("returning users should carry the changed flag")
	}
}

func TestArbitrate_ChangedFlagDoesNotDriveState(t *testing.T) {
	ctx := signals.NarrativeContext{OverallScore: 95, HasChangedSinceLastVisit: true}
	if n := ArbitrateFocus(ctx); n.State != StateStable {
		t.Fatalf("changed flag must not raise the state, got %s", n.State)
	}
}

func TestArbitrate_CustomHorizon(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("hvac", signals.RiskModerate, f(50), 0.8)}}
	if n := NewArbiter(36).ArbitrateFocus(ctx); n.State != StateStable {
		t.Fatalf("50 months is outside a 36-month horizon, got %s", n.State)
	}
}

// #endregion scenario-tests

// #region position-tests

func TestPosition_BandsMatchState(t *testing.T) {
	cases := []struct {
		name  string
		ctx   signals.NarrativeContext
		label Lifecycle
	}{
		{"healthy home", signals.NarrativeContext{OverallScore: 95}, LifecycleEarly},
		{"tired home", signals.NarrativeContext{OverallScore: 30}, LifecycleMid},
		{"watch", signals.NarrativeContext{Systems: []signals.SystemSignal{sys("hvac", signals.RiskModerate, f(10), 0.8)}}, LifecycleLate},
		{"alert", signals.NarrativeContext{Systems: []signals.SystemSignal{sys("roof", signals.RiskHigh, f(80), 0.8)}}, LifecyclePlanning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ResolvePosition(tc.ctx)
			if p.Label != tc.label {
				t.Fatalf("expected %s, got %s (pos %.3f)", tc.label, p.Label, p.RelativePosition)
			}
			if p.RelativePosition < 0 || p.RelativePosition > 1 {
				t.Fatalf("position out of range: %f", p.RelativePosition)
			}
		})
	}
}

func TestPosition_MonotonicInUrgency(t *testing.T) {
	prev := -1.0
	for _, m := range []float64{80, 60, 40, 20, 0} {
		ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("roof", signals.RiskHigh, f(m), 0.8)}}
		p := ResolvePosition(ctx)
		if p.RelativePosition <= prev {
			t.Fatalf("months=%v: position %.3f did not rise above %.3f", m, p.RelativePosition, prev)
		}
		prev = p.RelativePosition
	}
}

func TestPosition_ScoreOnlyWithoutSource(t *testing.T) {
	a := ResolvePosition(signals.NarrativeContext{OverallScore: 90})
	b := ResolvePosition(signals.NarrativeContext{OverallScore: 40})
	if !(a.RelativePosition < b.RelativePosition) {
		t.Fatalf("lower score should sit later in the lifecycle: %.3f vs %.3f", a.RelativePosition, b.RelativePosition)
	}
	if a.SourceSystem != "" {
		t.Fatalf("no source system expected, got %q", a.SourceSystem)
	}
}

func TestPosition_ConfidenceFromSource(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{
		sys("roof", signals.RiskHigh, f(12), 0.3),
		sys("deck", signals.RiskLow, nil, 0.99),
	}}
	if p := ResolvePosition(ctx); p.Confidence != ConfidenceLow {
		t.Fatalf("expected low confidence from roof, got %s", p.Confidence)
	}
}

// #endregion position-tests

// #region drawer-tests

func TestDrawer_FactsCappedAndScoped(t *testing.T) {
	ctx := signals.NarrativeContext{
		HasOverdueMaintenance:    true,
		HasChangedSinceLastVisit: true,
		Systems: []signals.SystemSignal{
			sys("roof", signals.RiskHigh, f(18), 0.8),
			sys("hvac", signals.RiskModerate, f(4), 0.8),
		},
	}
	focus := ArbitrateFocus(ctx)

	d := ResolveContextDrawer(focus, ctx)

	if len(d.Signals) > MaxDrawerSignals {
		t.Fatalf("expected at most %d facts, got %v", MaxDrawerSignals, d.Signals)
	}
	want := []string{"risk:high", "months:18", "changed_since_last_visit"}
	for i, w := range want {
		if d.Signals[i] != w {
			t.Fatalf("fact %d: expected %s, got %s", i, w, d.Signals[i])
		}
	}
	if d.Rationale != RationaleHighRisk || d.ConfidenceLanguage != LanguageConfident {
		t.Fatalf("unexpected drawer: %+v", d)
	}
}

func TestDrawer_FactOrderWithoutHomeFlags(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("roof", signals.RiskHigh, f(18), 0.8)}}
	d := ResolveContextDrawer(ArbitrateFocus(ctx), ctx)
	want := []string{"risk:high", "months:18", "confidence:high"}
	if len(d.Signals) != len(want) {
		t.Fatalf("expected %v, got %v", want, d.Signals)
	}
	for i, w := range want {
		if d.Signals[i] != w {
			t.Fatalf("fact %d: expected %s, got %s", i, w, d.Signals[i])
		}
	}
}

func TestDrawer_OverdueSurvivesWithoutChange(t *testing.T) {
	ctx := signals.NarrativeContext{
		HasOverdueMaintenance: true,
		Systems:               []signals.SystemSignal{sys("hvac", signals.RiskModerate, f(30), 0.6)},
	}
	d := ResolveContextDrawer(ArbitrateFocus(ctx), ctx)
	want := []string{"risk:moderate", "months:30", "overdue_maintenance"}
	for i, w := range want {
		if i >= len(d.Signals) || d.Signals[i] != w {
			t.Fatalf("expected %v, got %v", want, d.Signals)
		}
	}
}

func TestDrawer_MonthsBeyondHorizon(t *testing.T) {
	for _, m := range []float64{85, 1e19, math.Inf(1)} {
		ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("roof", signals.RiskHigh, f(m), 0.8)}}
		d := ResolveContextDrawer(ArbitrateFocus(ctx), ctx)
		if d.Signals[1] != "months:beyond_horizon" {
			t.Fatalf("months %v: expected beyond_horizon, got %v", m, d.Signals)
		}
	}

	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("roof", signals.RiskHigh, f(84), 0.8)}}
	if d := ResolveContextDrawer(ArbitrateFocus(ctx), ctx); d.Signals[1] != "months:84" {
		t.Fatalf("expected months:84 at the horizon, got %v", d.Signals)
	}
}

func TestDrawer_UnscheduledMonths(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("foundation", signals.RiskHigh, nil, 0.5)}}
	d := ResolveContextDrawer(ArbitrateFocus(ctx), ctx)
	if d.Signals[1] != "months:unscheduled" {
		t.Fatalf("expected unscheduled fact, got %v", d.Signals)
	}
}

func TestDrawer_MaintenanceRationale(t *testing.T) {
	ctx := signals.NarrativeContext{HasOverdueMaintenance: true}
	d := ResolveContextDrawer(ArbitrateFocus(ctx), ctx)
	if d.Rationale != RationaleOverdueMaintenance || d.SourceSystem != "" {
		t.Fatalf("unexpected drawer: %+v", d)
	}
	if len(d.Signals) != 1 || d.Signals[0] != "overdue_maintenance" {
		t.Fatalf("unexpected facts: %v", d.Signals)
	}
}

func TestDrawer_StaleFocusIsOverridden(t *testing.T) {
	ctx := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("roof", signals.RiskHigh, f(18), 0.8)}}
	stale := FocusNarrative{State: StateWatch, Source: SourceSystem, SourceSystem: "hvac"}

	d := ResolveContextDrawer(stale, ctx)

	if !d.StaleFocus {
		t.Fatal("expected stale focus flag")
	}
	if d.SourceSystem != "roof" || d.Rationale != RationaleHighRisk {
		t.Fatalf("drawer must follow the fresh evaluation, got %+v", d)
	}
}

// #endregion drawer-tests

// #region property-tests

func TestProperty_AuthorityConsistency(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		ctx := randomContext(r)
		focus := ArbitrateFocus(ctx)
		pos := ResolvePosition(ctx)
		drawer := ResolveContextDrawer(focus, ctx)

		if pos.SourceSystem != focus.SourceSystem {
			t.Fatalf("case %d: position references %q, focus %q", i, pos.SourceSystem, focus.SourceSystem)
		}
		if drawer.SourceSystem != focus.SourceSystem || drawer.StaleFocus {
			t.Fatalf("case %d: drawer references %q (stale=%v), focus %q", i, drawer.SourceSystem, drawer.StaleFocus, focus.SourceSystem)
		}
		if stateForLabel[pos.Label] != focus.State {
			t.Fatalf("case %d: label %s contradicts state %s", i, pos.Label, focus.State)
		}
		if (focus.State == StateStable) != (focus.Source == SourceNone) {
			t.Fatalf("case %d: state %s with source %s", i, focus.State, focus.Source)
		}
		if (focus.SourceSystem != "") != (focus.Source == SourceSystem) {
			t.Fatalf("case %d: source system %q with source kind %s", i, focus.SourceSystem, focus.Source)
		}
		if (focus.State == StateStable) != expectedStable(ctx) {
			t.Fatalf("case %d: stable=%v but invariant says %v", i, focus.State == StateStable, expectedStable(ctx))
		}
		if focus.SourceSystem != "" {
			if _, ok := ctx.System(focus.SourceSystem); !ok {
				t.Fatalf("case %d: source %q not in context", i, focus.SourceSystem)
			}
		}
		allowed := allowedFacts(ctx, focus)
		for _, fact := range drawer.Signals {
			if !allowed[fact] {
				t.Fatalf("case %d: drawer fact %q not derived from source %q or the home (allowed %v)", i, fact, focus.SourceSystem, allowed)
			}
		}
	}
}

func TestProperty_MonotonicSeverity(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		ctx := randomContext(r)
		before := ArbitrateFocus(ctx).State.Severity()
		for j, s := range ctx.Systems {
			if s.Risk != signals.RiskModerate {
				continue
			}
			raised := ctx
			raised.Systems = append([]signals.SystemSignal(nil), ctx.Systems...)
			raised.Systems[j].Risk = signals.RiskHigh
			if after := ArbitrateFocus(raised).State.Severity(); after < before {
				t.Fatalf("case %d: raising %s lowered severity %d -> %d", i, s.Key, before, after)
			}
		}
	}
}

func TestProperty_InputOrderIndependence(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	for i := 0; i < 500; i++ {
		ctx := randomContext(r)
		shuffled := ctx
		shuffled.Systems = append([]signals.SystemSignal(nil), ctx.Systems...)
		r.Shuffle(len(shuffled.Systems), func(a, b int) {
			shuffled.Systems[a], shuffled.Systems[b] = shuffled.Systems[b], shuffled.Systems[a]
		})
		a, b := NewArbiter(priority.DefaultHorizonMonths).Resolve(ctx), NewArbiter(priority.DefaultHorizonMonths).Resolve(shuffled)
		if a.Focus != b.Focus || a.Position != b.Position {
			t.Fatalf("case %d: order changed the outcome: %+v vs %+v", i, a, b)
		}
		if ContextHash(ctx) != ContextHash(shuffled) {
			t.Fatalf("case %d: context hash depends on order", i)
		}
	}
}

// #endregion property-tests

// #region resolve-tests

func TestResolve_MatchesEntryPoints(t *testing.T) {
	ctx := signals.NarrativeContext{
		OverallScore:          60,
		HasOverdueMaintenance: true,
		Systems:               []signals.SystemSignal{sys("hvac", signals.RiskModerate, f(12), 0.5)},
	}
	s := NewArbiter(priority.DefaultHorizonMonths).Resolve(ctx)
	if s.Focus != ArbitrateFocus(ctx) || s.Position != ResolvePosition(ctx) {
		t.Fatalf("Resolve disagrees with the individual entry points: %+v", s)
	}
	d := ResolveContextDrawer(s.Focus, ctx)
	if d.SourceSystem != s.Drawer.SourceSystem || d.Rationale != s.Drawer.Rationale {
		t.Fatalf("drawer mismatch: %+v vs %+v", d, s.Drawer)
	}
}

func TestContextHash_ChangesWithContent(t *testing.T) {
	a := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("roof", signals.RiskHigh, f(18), 0.8)}}
	b := signals.NarrativeContext{Systems: []signals.SystemSignal{sys("roof", signals.RiskHigh, f(19), 0.8)}}
	if ContextHash(a) == ContextHash(b) {
		t.Fatal("different contexts must hash differently")
	}
	if len(ContextHash(a)) != 64 {
		t.Fatalf("expected hex sha256, got %q", ContextHash(a))
	}
}

// #endregion resolve-tests
