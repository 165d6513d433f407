package signals

import (
	"strings"
	"time"
)

// #region risk-level

// RiskLevel is the monotonic severity label attached to a system signal.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Severity orders risk levels: low < moderate < high. Unknown levels rank below low.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// ParseRiskLevel accepts upstream labels case-insensitively. "medium" is an alias for moderate.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, true
	case "moderate", "medium":
		return RiskModerate, true
	case "high":
		return RiskHigh, true
	}
	return "", false
}

// #endregion risk-level

// #region system-signal

// SystemSignal is one tracked home system's current risk posture.
type SystemSignal struct {
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name,omitempty"`
	Risk        RiskLevel `json:"risk"`
	Confidence  float64   `json:"confidence"`

	// MonthsToPlanning is nil when the system is not currently projected.
	MonthsToPlanning *float64 `json:"months_to_planning,omitempty"`

	// ReplacementCost is optional metadata used only as a selection tie-break.
	ReplacementCost *float64 `json:"replacement_cost,omitempty"`
}

// HasMonths reports whether a planning horizon is known.
func (s SystemSignal) HasMonths() bool {
	return s.MonthsToPlanning != nil
}

// Months returns the planning horizon, or 0 when unknown. Check HasMonths first.
func (s SystemSignal) Months() float64 {
	if s.MonthsToPlanning == nil {
		return 0
	}
	return *s.MonthsToPlanning
}

// #endregion system-signal

// #region narrative-context

// NarrativeContext is the full snapshot that drives arbitration.
// It is built fresh for every evaluation and never mutated afterwards.
type NarrativeContext struct {
	OverallScore             float64        `json:"overall_score"`
	Systems                  []SystemSignal `json:"systems"`
	HasOverdueMaintenance    bool           `json:"has_overdue_maintenance"`
	HasChangedSinceLastVisit bool           `json:"has_changed_since_last_visit"`
	IsNewUser                bool           `json:"is_new_user"`
}

// System looks up a signal by key.
func (c NarrativeContext) System(key string) (SystemSignal, bool) {
	for _, s := range c.Systems {
		if s.Key == key {
			return s, true
		}
	}
	return SystemSignal{}, false
}

// #endregion narrative-context

// #region raw-records

// RecordKind identifies which upstream feed produced a raw record.
type RecordKind string

const (
	KindPrediction      RecordKind = "prediction"
	KindCapitalTimeline RecordKind = "capital_timeline"
)

// RawSystemRecord is the upstream shape for a single system. Prediction records
// carry risk, confidence, and remaining life; capital timeline records carry the
// replacement window and its estimated cost.
type RawSystemRecord struct {
	Kind                RecordKind `json:"kind" yaml:"kind"`
	SystemKey           string     `json:"system_key" yaml:"system_key"`
	DisplayName         string     `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Risk                string     `json:"risk,omitempty" yaml:"risk,omitempty"`
	Confidence          *float64   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	RemainingLifeMonths *float64   `json:"remaining_life_months,omitempty" yaml:"remaining_life_months,omitempty"`
	MonthsToPlanning    *float64   `json:"months_to_planning,omitempty" yaml:"months_to_planning,omitempty"`
	PlanningWindowStart *time.Time `json:"planning_window_start,omitempty" yaml:"planning_window_start,omitempty"`
	ReplacementCost     *float64   `json:"replacement_cost,omitempty" yaml:"replacement_cost,omitempty"`
}

// RawHomeScore is the upstream aggregate for the whole home plus visit history.
type RawHomeScore struct {
	Score        *float64   `json:"score,omitempty" yaml:"score,omitempty"`
	OverdueTasks int        `json:"overdue_tasks" yaml:"overdue_tasks"`
	LastVisitAt  *time.Time `json:"last_visit_at,omitempty" yaml:"last_visit_at,omitempty"`
	LastChangeAt *time.Time `json:"last_change_at,omitempty" yaml:"last_change_at,omitempty"`
	VisitCount   int        `json:"visit_count" yaml:"visit_count"`
}

// #endregion raw-records

// #region config

// NormalizeConfig holds tuning knobs for record normalization.
type NormalizeConfig struct {
	PlanningLeadMonths float64          // planning window opens this long before end of life
	DefaultConfidence  float64          // used when a record carries no confidence
	Now                func() time.Time // clock for timeline-derived horizons
}

// DefaultNormalizeConfig returns sensible defaults.
func DefaultNormalizeConfig() NormalizeConfig {
	return NormalizeConfig{
		PlanningLeadMonths: 24,
		DefaultConfidence:  0.5,
		Now:                time.Now,
	}
}

// #endregion config

// #region report

// SkipReason explains why a raw record was left out.
type SkipReason struct {
	Index     int    `json:"index"`
	SystemKey string `json:"system_key,omitempty"`
	Reason    string `json:"reason"`
}

// Report is the diagnostic side channel of Normalize.
type Report struct {
	Skipped int          `json:"skipped"`
	Reasons []SkipReason `json:"reasons,omitempty"`
}

// #endregion report
