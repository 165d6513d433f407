// Package narrative collapses a home's signals into one authoritative narrative
// and its two secondary projections. Every entry point re-evaluates the context
// from scratch; nothing is cached between calls.
package narrative

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/home-focus/go-core/internal/priority"
	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// #region arbiter

// Arbiter evaluates narrative contexts against a priority selector.
type Arbiter struct {
	selector *priority.Selector
}

// NewArbiter creates an arbiter with the given eligibility horizon.
func NewArbiter(horizonMonths float64) *Arbiter {
	return &Arbiter{selector: priority.NewSelector(horizonMonths)}
}

var defaultArbiter = NewArbiter(priority.DefaultHorizonMonths)

// ArbitrateFocus evaluates ctx with the default horizon.
func ArbitrateFocus(ctx signals.NarrativeContext) FocusNarrative {
	return defaultArbiter.ArbitrateFocus(ctx)
}

// ResolvePosition evaluates ctx with the default horizon.
func ResolvePosition(ctx signals.NarrativeContext) PositionProjection {
	return defaultArbiter.ResolvePosition(ctx)
}

// ResolveContextDrawer evaluates ctx with the default horizon.
func ResolveContextDrawer(focus FocusNarrative, ctx signals.NarrativeContext) Drawer {
	return defaultArbiter.ResolveContextDrawer(focus, ctx)
}

// #endregion arbiter

// #region evaluate

// evaluation is the single internal judgment all three surfaces derive from.
type evaluation struct {
	state       State
	source      SourceKind
	selection   priority.Selection
	primary     *signals.SystemSignal
	explanation priority.Explanation
	changed     bool
	horizon     float64
	ctx         signals.NarrativeContext
}

// evaluate picks the primary issue by severity tier: the best eligible HIGH
// signal, else the best eligible MODERATE one, else overdue maintenance.
func (a *Arbiter) evaluate(ctx signals.NarrativeContext) evaluation {
	ev := evaluation{
		state:       StateStable,
		source:      SourceNone,
		explanation: priority.ExplainNoneEligible,
		changed:     ctx.HasChangedSinceLastVisit && !ctx.IsNewUser,
		horizon:     a.selector.HorizonMonths(),
		ctx:         ctx,
	}

	var high, moderate []signals.SystemSignal
	for _, s := range ctx.Systems {
		if !a.selector.Eligible(s) {
			continue
		}
		switch s.Risk {
		case signals.RiskHigh:
			high = append(high, s)
		case signals.RiskModerate:
			moderate = append(moderate, s)
		}
	}

	ev.selection = priority.Selection{Explanation: priority.ExplainNoneEligible}
	switch {
	case len(high) > 0:
		ev.selection = a.selector.Select(high)
		ev.state, ev.source = StateAlert, SourceSystem
	case len(moderate) > 0:
		ev.selection = a.selector.Select(moderate)
		ev.state, ev.source = StateWatch, SourceSystem
	case ctx.HasOverdueMaintenance:
		ev.state, ev.source = StateWatch, SourceMaintenance
	}
	ev.primary, ev.explanation = ev.selection.Primary, ev.selection.Explanation
	return ev
}

func (ev evaluation) sourceKey() string {
	if ev.primary == nil {
		return ""
	}
	return ev.primary.Key
}

// #endregion evaluate

// #region surfaces

// ArbitrateFocus returns the headline narrative for ctx.
func (a *Arbiter) ArbitrateFocus(ctx signals.NarrativeContext) FocusNarrative {
	return a.evaluate(ctx).focus()
}

// ResolvePosition returns the lifecycle indicator for ctx. It always references
// the same source system as ArbitrateFocus for the same context.
func (a *Arbiter) ResolvePosition(ctx signals.NarrativeContext) PositionProjection {
	return a.evaluate(ctx).position(a.selector.HorizonMonths())
}

// ResolveContextDrawer returns the rationale payload. The drawer is always built
// from a fresh evaluation of ctx; a focus that disagrees with it is flagged stale
// rather than trusted.
func (a *Arbiter) ResolveContextDrawer(focus FocusNarrative, ctx signals.NarrativeContext) Drawer {
	ev := a.evaluate(ctx)
	d := ev.drawer()
	fresh := ev.focus()
	d.StaleFocus = focus.State != fresh.State || focus.Source != fresh.Source || focus.SourceSystem != fresh.SourceSystem
	return d
}

// Primary returns the selection the narrative is built on: the ranking within
// the severity tier that set the state. Its primary is always the focus source
// system, unlike a plain Selector.Select over every signal, which can prefer a
// sooner MODERATE issue over a HIGH one.
func (a *Arbiter) Primary(ctx signals.NarrativeContext) priority.Selection {
	return a.evaluate(ctx).selection
}

// Resolve computes all three surfaces from one evaluation.
func (a *Arbiter) Resolve(ctx signals.NarrativeContext) Surfaces {
	ev := a.evaluate(ctx)
	return Surfaces{
		Focus:    ev.focus(),
		Position: ev.position(a.selector.HorizonMonths()),
		Drawer:   ev.drawer(),
	}
}

// #endregion surfaces

// #region focus

func (ev evaluation) focus() FocusNarrative {
	return FocusNarrative{
		State:                 ev.state,
		Source:                ev.source,
		SourceSystem:          ev.sourceKey(),
		ChangedSinceLastVisit: ev.changed,
		Explanation:           ev.explanation,
	}
}

// #endregion focus

// #region position

// band is the closed position range a state may occupy. Bands do not overlap,
// so the label can never out- or under-state the headline.
type band struct{ lo, hi float64 }

var bands = map[State]band{
	StateStable: {0, 0.45},
	StateWatch:  {0.5, 0.7},
	StateAlert:  {0.75, 1},
}

// unscheduledUrgency places a HIGH signal with no horizon mid-band.
const unscheduledUrgency = 0.5

func (ev evaluation) position(horizon float64) PositionProjection {
	var urgency float64
	switch {
	case ev.primary != nil && ev.primary.HasMonths():
		urgency = 1 - math.Min(ev.primary.Months(), horizon)/horizon
	case ev.primary != nil:
		urgency = unscheduledUrgency
	default:
		urgency = 1 - ev.ctx.OverallScore/100
	}
	urgency = clamp(urgency)

	b := bands[ev.state]
	pos := b.lo + urgency*(b.hi-b.lo)
	return PositionProjection{
		Label:            lifecycleFor(pos),
		RelativePosition: pos,
		Confidence:       ev.confidence(),
		SourceSystem:     ev.sourceKey(),
	}
}

func lifecycleFor(pos float64) Lifecycle {
	switch {
	case pos < 0.25:
		return LifecycleEarly
	case pos < 0.5:
		return LifecycleMid
	case pos < 0.75:
		return LifecycleLate
	}
	return LifecyclePlanning
}

// confidence uses the source system when there is one, otherwise the mean
// confidence across all systems. No systems at all reads as low confidence.
func (ev evaluation) confidence() ConfidenceBand {
	if ev.primary != nil {
		return bandFor(ev.primary.Confidence)
	}
	if len(ev.ctx.Systems) == 0 {
		return ConfidenceLow
	}
	// summed in sorted order so input order cannot move the result across a band edge
	vals := make([]float64, 0, len(ev.ctx.Systems))
	for _, s := range ev.ctx.Systems {
		vals = append(vals, clamp(s.Confidence))
	}
	sort.Float64s(vals)
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return bandFor(sum / float64(len(vals)))
}

func bandFor(c float64) ConfidenceBand {
	switch {
	case c >= 0.75:
		return ConfidenceHigh
	case c >= 0.45:
		return ConfidenceModerate
	}
	return ConfidenceLow
}

// #endregion position

// #region drawer

func (ev evaluation) drawer() Drawer {
	d := Drawer{
		Rationale:          ev.rationale(),
		Signals:            ev.facts(),
		ConfidenceLanguage: languageFor(ev.confidence()),
		SourceSystem:       ev.sourceKey(),
	}
	return d
}

func (ev evaluation) rationale() Rationale {
	switch {
	case ev.state == StateAlert:
		return RationaleHighRisk
	case ev.source == SourceMaintenance:
		return RationaleOverdueMaintenance
	case ev.state == StateWatch:
		return RationalePlanningWindow
	}
	return RationaleAllClear
}

// facts lists supporting keys about the source system and the home, never about
// any other system. Order: what justified the state, then the "what's new" flag,
// then the remaining context, so the cap drops confidence before the change flag.
func (ev evaluation) facts() []string {
	facts := make([]string, 0, MaxDrawerSignals+2)
	overdue := ev.ctx.HasOverdueMaintenance
	if p := ev.primary; p != nil {
		facts = append(facts, "risk:"+string(p.Risk), ev.monthsFact(*p))
	} else if ev.source == SourceMaintenance {
		facts = append(facts, "overdue_maintenance")
		overdue = false
	}
	if ev.changed {
		facts = append(facts, "changed_since_last_visit")
	}
	if overdue {
		facts = append(facts, "overdue_maintenance")
	}
	if p := ev.primary; p != nil {
		facts = append(facts, "confidence:"+string(bandFor(p.Confidence)))
	}
	if len(facts) > MaxDrawerSignals {
		facts = facts[:MaxDrawerSignals]
	}
	return facts
}

// monthsFact reports whole months up to the horizon. Anything further out, which
// only an eligible HIGH signal can be, reads as beyond_horizon.
func (ev evaluation) monthsFact(p signals.SystemSignal) string {
	m := p.Months()
	if !p.HasMonths() || math.IsNaN(m) {
		return "months:unscheduled"
	}
	if m > ev.horizon {
		return "months:beyond_horizon"
	}
	return fmt.Sprintf("months:%d", int(math.Round(m)))
}

func languageFor(b ConfidenceBand) ConfidenceLanguage {
	switch b {
	case ConfidenceHigh:
		return LanguageConfident
	case ConfidenceModerate:
		return LanguageLikely
	}
	return LanguageUncertain
}

// #endregion drawer

// #region helpers

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
