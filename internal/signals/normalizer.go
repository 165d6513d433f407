package signals

import (
	"math"
	"sort"
	"strings"
	"time"
)

// #region normalize

// daysPerMonth converts calendar durations into planning months.
const daysPerMonth = 30.4375

// accumulator merges every valid record seen for one system key.
type accumulator struct {
	key         string
	displayName string

	predRisk       RiskLevel
	predConfidence *float64
	predMonths     *float64
	remainingLife  *float64
	predCost       *float64

	timelineRisk       RiskLevel
	timelineConfidence *float64
	timelineMonths     *float64
	windowStart        *time.Time
	timelineCost       *float64
}

// Normalize converts heterogeneous upstream records into a NarrativeContext.
// Malformed records are skipped and counted in the Report; a missing field never
// drops a system.
func Normalize(records []RawSystemRecord, score RawHomeScore, cfg NormalizeConfig) (NarrativeContext, Report) {
	var report Report
	byKey := make(map[string]*accumulator)

	for i, rec := range records {
		key := strings.TrimSpace(rec.SystemKey)
		if reason := validate(rec, key); reason != "" {
			report.Skipped++
			report.Reasons = append(report.Reasons, SkipReason{Index: i, SystemKey: key, Reason: reason})
			continue
		}

		acc, ok := byKey[key]
		if !ok {
			acc = &accumulator{key: key}
			byKey[key] = acc
		}
		acc.merge(rec)
	}

	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	systems := make([]SystemSignal, 0, len(byKey))
	for _, acc := range byKey {
		systems = append(systems, acc.signal(cfg, now))
	}
	sort.Slice(systems, func(i, j int) bool { return systems[i].Key < systems[j].Key })

	isNew := score.VisitCount == 0 && score.LastVisitAt == nil
	changed := false
	if !isNew && score.LastVisitAt != nil && score.LastChangeAt != nil {
		changed = score.LastChangeAt.After(*score.LastVisitAt)
	}

	return NarrativeContext{
		OverallScore:             overallScore(score.Score, systems),
		Systems:                  systems,
		HasOverdueMaintenance:    score.OverdueTasks > 0,
		HasChangedSinceLastVisit: changed,
		IsNewUser:                isNew,
	}, report
}

// #endregion normalize

// #region validate

// validate returns a non-empty reason when the record cannot be used at all.
func validate(rec RawSystemRecord, key string) string {
	if key == "" {
		return "missing system key"
	}
	if rec.Kind != KindPrediction && rec.Kind != KindCapitalTimeline {
		return "unknown record kind"
	}
	if rec.Risk != "" {
		if _, ok := ParseRiskLevel(rec.Risk); !ok {
			return "unknown risk level"
		}
	}
	if rec.Confidence != nil {
		c := *rec.Confidence
		if math.IsNaN(c) || c < 0 || c > 1 {
			return "confidence out of range"
		}
	}
	if badQuantity(rec.RemainingLifeMonths) {
		return "invalid remaining life"
	}
	if badQuantity(rec.MonthsToPlanning) {
		return "invalid months to planning"
	}
	if badQuantity(rec.ReplacementCost) {
		return "invalid replacement cost"
	}
	return ""
}

// badQuantity rejects negative, NaN, and infinite values. nil is fine.
func badQuantity(v *float64) bool {
	if v == nil {
		return false
	}
	return math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0
}

// #endregion validate

// #region merge

func (a *accumulator) merge(rec RawSystemRecord) {
	if a.displayName == "" && rec.DisplayName != "" {
		a.displayName = rec.DisplayName
	}
	risk, _ := ParseRiskLevel(rec.Risk)

	switch rec.Kind {
	case KindPrediction:
		if risk != "" {
			a.predRisk = risk
		}
		a.predConfidence = firstNonNil(rec.Confidence, a.predConfidence)
		a.predMonths = firstNonNil(rec.MonthsToPlanning, a.predMonths)
		a.remainingLife = firstNonNil(rec.RemainingLifeMonths, a.remainingLife)
		a.predCost = firstNonNil(rec.ReplacementCost, a.predCost)
	case KindCapitalTimeline:
		if risk != "" {
			a.timelineRisk = risk
		}
		a.timelineConfidence = firstNonNil(rec.Confidence, a.timelineConfidence)
		a.timelineMonths = firstNonNil(rec.MonthsToPlanning, a.timelineMonths)
		if rec.PlanningWindowStart != nil {
			a.windowStart = rec.PlanningWindowStart
		}
		a.timelineCost = firstNonNil(rec.ReplacementCost, a.timelineCost)
		if rec.RemainingLifeMonths != nil && a.remainingLife == nil {
			a.remainingLife = rec.RemainingLifeMonths
		}
	}
}

// signal resolves the merged fields. Prediction data wins over timeline data.
func (a *accumulator) signal(cfg NormalizeConfig, now func() time.Time) SystemSignal {
	sig := SystemSignal{
		Key:         a.key,
		DisplayName: a.displayName,
		Risk:        RiskLow,
		Confidence:  clamp(cfg.DefaultConfidence),
	}

	switch {
	case a.predRisk != "":
		sig.Risk = a.predRisk
	case a.timelineRisk != "":
		sig.Risk = a.timelineRisk
	}

	if c := firstNonNil(a.predConfidence, a.timelineConfidence); c != nil {
		sig.Confidence = *c
	}

	sig.MonthsToPlanning = a.months(cfg, now)
	sig.ReplacementCost = copyFloat(firstNonNil(a.predCost, a.timelineCost))
	return sig
}

// months picks the first available horizon: explicit value, remaining life minus
// the planning lead, then the timeline's window start. nil means "unknown".
func (a *accumulator) months(cfg NormalizeConfig, now func() time.Time) *float64 {
	if m := firstNonNil(a.predMonths, a.timelineMonths); m != nil {
		return copyFloat(m)
	}
	if a.remainingLife != nil {
		m := math.Max(0, *a.remainingLife-cfg.PlanningLeadMonths)
		return &m
	}
	if a.windowStart != nil {
		days := a.windowStart.Sub(now()).Hours() / 24
		m := math.Max(0, days/daysPerMonth)
		return &m
	}
	return nil
}

// #endregion merge

// #region helpers

// overallScore uses the upstream score when present, otherwise derives one from
// the signals so a missing aggregate never reads as a perfect home.
func overallScore(raw *float64, systems []SystemSignal) float64 {
	if raw != nil && !math.IsNaN(*raw) {
		return math.Max(0, math.Min(100, *raw))
	}
	score := 100.0
	for _, s := range systems {
		switch s.Risk {
		case RiskHigh:
			score -= 25
		case RiskModerate:
			score -= 10
		}
	}
	return math.Max(0, score)
}

func firstNonNil[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

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
