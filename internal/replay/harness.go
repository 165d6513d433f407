// Package replay runs recorded upstream snapshots through the full
// normalize, select and arbitrate pipeline and checks the outcomes.
package replay

import (
	"fmt"

	"github.com/danielpatrickdp/home-focus/go-core/internal/narrative"
	"github.com/danielpatrickdp/home-focus/go-core/internal/priority"
	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// #region types

// Case is one recorded snapshot with its expectation.
type Case struct {
	Name     string
	Home     signals.RawHomeScore
	Records  []signals.RawSystemRecord
	Expected Expectation
}

// ReplayConfig holds the knobs shared by every case in a run.
type ReplayConfig struct {
	HorizonMonths float64
	Normalize     signals.NormalizeConfig
}

// ReplayResult is the outcome of one case.
type ReplayResult struct {
	Name        string
	ContextHash string
	Report      signals.Report
	Selection   priority.Selection
	Surfaces    narrative.Surfaces

	// Violations are broken cross-surface invariants; Mismatches are
	// differences from the fixture's expectation.
	Violations []string
	Mismatches []string
}

// Passed reports whether the case had no violations and no mismatches.
func (r ReplayResult) Passed() bool {
	return len(r.Violations) == 0 && len(r.Mismatches) == 0
}

// ReplaySummary aggregates a run.
type ReplaySummary struct {
	TotalCases int
	Passed     int
	Failed     int
	Violations int
	Stable     int
	Watch      int
	Alert      int
	Skipped    int
}

// #endregion types

// #region replay

// Replay evaluates every case independently. Each surface is produced through
// its own entry point so the authority check compares real outputs.
func Replay(cases []Case, cfg ReplayConfig) []ReplayResult {
	arb := narrative.NewArbiter(cfg.HorizonMonths)
	results := make([]ReplayResult, 0, len(cases))

	for _, c := range cases {
		ctx, report := signals.Normalize(c.Records, c.Home, cfg.Normalize)

		focus := arb.ArbitrateFocus(ctx)
		surfaces := narrative.Surfaces{
			Focus:    focus,
			Position: arb.ResolvePosition(ctx),
			Drawer:   arb.ResolveContextDrawer(focus, ctx),
		}

		r := ReplayResult{
			Name:        c.Name,
			ContextHash: narrative.ContextHash(ctx),
			Report:      report,
			Selection:   arb.Primary(ctx),
			Surfaces:    surfaces,
		}
		r.Violations = CheckConsistency(surfaces, ctx)
		if key := primaryKey(r.Selection); key != surfaces.Focus.SourceSystem {
			r.Violations = append(r.Violations, fmt.Sprintf("primary %q != focus source %q", key, surfaces.Focus.SourceSystem))
		}
		r.Mismatches = compare(c.Expected, r)
		results = append(results, r)
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalCases: len(results)}
	for _, r := range results {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
		s.Violations += len(r.Violations)
		s.Skipped += r.Report.Skipped
		switch r.Surfaces.Focus.State {
		case narrative.StateStable:
			s.Stable++
		case narrative.StateWatch:
			s.Watch++
		case narrative.StateAlert:
			s.Alert++
		}
	}
	return s
}

// #endregion replay

// #region checks

// labelState is the only headline state each lifecycle label may accompany.
var labelState = map[narrative.Lifecycle]narrative.State{
	narrative.LifecycleEarly:    narrative.StateStable,
	narrative.LifecycleMid:      narrative.StateStable,
	narrative.LifecycleLate:     narrative.StateWatch,
	narrative.LifecyclePlanning: narrative.StateAlert,
}

// CheckConsistency returns every way the three surfaces disagree with each
// other or with ctx. An empty result means the narrative is coherent.
func CheckConsistency(s narrative.Surfaces, ctx signals.NarrativeContext) []string {
	var v []string
	f := s.Focus

	if s.Position.SourceSystem != f.SourceSystem {
		v = append(v, fmt.Sprintf("position source %q != focus source %q", s.Position.SourceSystem, f.SourceSystem))
	}
	if s.Drawer.SourceSystem != f.SourceSystem {
		v = append(v, fmt.Sprintf("drawer source %q != focus source %q", s.Drawer.SourceSystem, f.SourceSystem))
	}
	if s.Drawer.StaleFocus {
		v = append(v, "drawer flagged the focus as stale")
	}
	if want, ok := labelState[s.Position.Label]; !ok || want != f.State {
		v = append(v, fmt.Sprintf("label %s contradicts state %s", s.Position.Label, f.State))
	}
	if (f.State == narrative.StateStable) != (f.Source == narrative.SourceNone) {
		v = append(v, fmt.Sprintf("state %s with source kind %s", f.State, f.Source))
	}
	if (f.SourceSystem != "") != (f.Source == narrative.SourceSystem) {
		v = append(v, fmt.Sprintf("source system %q with source kind %s", f.SourceSystem, f.Source))
	}
	if f.SourceSystem != "" {
		if _, ok := ctx.System(f.SourceSystem); !ok {
			v = append(v, fmt.Sprintf("source system %q is not in the context", f.SourceSystem))
		}
	}
	if len(s.Drawer.Signals) > narrative.MaxDrawerSignals {
		v = append(v, fmt.Sprintf("drawer has %d signals", len(s.Drawer.Signals)))
	}
	if p := s.Position.RelativePosition; p < 0 || p > 1 {
		v = append(v, fmt.Sprintf("relative position %f outside [0,1]", p))
	}
	return v
}

func compare(exp Expectation, r ReplayResult) []string {
	var m []string
	f := r.Surfaces.Focus
	check := func(field, want, got string) {
		if want == "" {
			return
		}
		if want == "-" {
			want = ""
		}
		if want != got {
			m = append(m, fmt.Sprintf("%s: want %q, got %q", field, want, got))
		}
	}

	check("state", exp.State, string(f.State))
	check("source", exp.Source, string(f.Source))
	check("source_system", exp.SourceSystem, f.SourceSystem)
	check("primary", exp.Primary, primaryKey(r.Selection))
	check("explanation", exp.Explanation, string(f.Explanation))
	check("label", exp.Label, string(r.Surfaces.Position.Label))

	if exp.Changed != nil && *exp.Changed != f.ChangedSinceLastVisit {
		m = append(m, fmt.Sprintf("changed: want %v, got %v", *exp.Changed, f.ChangedSinceLastVisit))
	}
	if exp.Skipped != nil && *exp.Skipped != r.Report.Skipped {
		m = append(m, fmt.Sprintf("skipped: want %d, got %d", *exp.Skipped, r.Report.Skipped))
	}
	return m
}

// #endregion checks

func primaryKey(sel priority.Selection) string {
	if sel.Primary == nil {
		return ""
	}
	return sel.Primary.Key
}
