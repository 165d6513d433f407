package narrative

import "github.com/danielpatrickdp/home-focus/go-core/internal/priority"

// #region state

// State is the headline severity. Ordering: stable < watch < alert.
type State string

const (
	StateStable State = "stable"
	StateWatch  State = "watch"
	StateAlert  State = "alert"
)

// Severity returns the ordinal used for monotonicity checks.
func (s State) Severity() int {
	switch s {
	case StateWatch:
		return 1
	case StateAlert:
		return 2
	}
	return 0
}

// SourceKind says what justified a non-stable state.
type SourceKind string

const (
	SourceNone        SourceKind = "none"
	SourceSystem      SourceKind = "system"
	SourceMaintenance SourceKind = "maintenance"
)

// #endregion state

// #region focus-narrative

// FocusNarrative is the single authoritative "what to say right now".
// Source is SourceNone iff State is StateStable; SourceSystem is set iff Source
// is SourceSystem.
type FocusNarrative struct {
	State                 State                `json:"state"`
	Source                SourceKind           `json:"source"`
	SourceSystem          string               `json:"source_system,omitempty"`
	ChangedSinceLastVisit bool                 `json:"changed_since_last_visit"`
	Explanation           priority.Explanation `json:"explanation"`
}

// #endregion focus-narrative

// #region position

// Lifecycle is the coarse, ordinal lifecycle bucket.
type Lifecycle string

const (
	LifecycleEarly    Lifecycle = "early"
	LifecycleMid      Lifecycle = "mid"
	LifecycleLate     Lifecycle = "late"
	LifecyclePlanning Lifecycle = "planning"
)

// ConfidenceBand buckets signal confidence.
type ConfidenceBand string

const (
	ConfidenceHigh     ConfidenceBand = "high"
	ConfidenceModerate ConfidenceBand = "moderate"
	ConfidenceLow      ConfidenceBand = "low"
)

// PositionProjection is the always-visible lifecycle indicator.
type PositionProjection struct {
	Label            Lifecycle      `json:"label"`
	RelativePosition float64        `json:"relative_position"`
	Confidence       ConfidenceBand `json:"confidence"`
	SourceSystem     string         `json:"source_system,omitempty"`
}

// #endregion position

// #region drawer

// Rationale keys the expandable explanation shown in the context drawer.
type Rationale string

const (
	RationaleAllClear           Rationale = "all_clear"
	RationalePlanningWindow     Rationale = "planning_window"
	RationaleHighRisk           Rationale = "high_risk"
	RationaleOverdueMaintenance Rationale = "overdue_maintenance"
)

// ConfidenceLanguage keys the hedging register the copy layer should use.
type ConfidenceLanguage string

const (
	LanguageConfident ConfidenceLanguage = "confident"
	LanguageLikely    ConfidenceLanguage = "likely"
	LanguageUncertain ConfidenceLanguage = "uncertain"
)

// MaxDrawerSignals caps the supporting facts in a drawer.
const MaxDrawerSignals = 3

// Drawer is the expandable rationale payload.
type Drawer struct {
	Rationale          Rationale          `json:"rationale"`
	Signals            []string           `json:"signals"`
	ConfidenceLanguage ConfidenceLanguage `json:"confidence_language"`
	SourceSystem       string             `json:"source_system,omitempty"`

	// StaleFocus is set when the caller's narrative no longer matches the context.
	StaleFocus bool `json:"stale_focus,omitempty"`
}

// #endregion drawer

// #region surfaces

// Surfaces bundles all three projections computed from one evaluation.
type Surfaces struct {
	Focus    FocusNarrative     `json:"focus"`
	Position PositionProjection `json:"position"`
	Drawer   Drawer             `json:"drawer"`
}

// #endregion surfaces
