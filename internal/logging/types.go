package logging

import "time"

// #region decision-entry
// DecisionEntry is one arbitration recorded for later inspection.
type DecisionEntry struct {
	DecisionID    string
	SessionID     string
	ContextHash   string
	State         string // "stable" | "watch" | "alert"
	Source        string // "none" | "system" | "maintenance"
	SourceSystem  string
	Explanation   string
	PositionLabel string
	CreatedAt     time.Time
}
// #endregion decision-entry
