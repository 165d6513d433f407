package logging

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region log-decision
// LogDecision writes an entry to the decision_log table. A missing ID or
// timestamp is filled in.
func LogDecision(db *sql.DB, entry DecisionEntry) (DecisionEntry, error) {
	if entry.DecisionID == "" {
		entry.DecisionID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (decision_id, session_id, context_hash, state, source, source_system, explanation, position_label, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.DecisionID,
		nullIfEmpty(entry.SessionID),
		entry.ContextHash,
		entry.State,
		entry.Source,
		nullIfEmpty(entry.SourceSystem),
		entry.Explanation,
		nullIfEmpty(entry.PositionLabel),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return entry, fmt.Errorf("log decision: %w", err)
	}
	return entry, nil
}
// #endregion log-decision

// #region list-decisions
// ListDecisions returns the most recent decisions, newest first.
func ListDecisions(db *sql.DB, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT decision_id, session_id, context_hash, state, source, source_system, explanation, position_label, created_at
		 FROM decision_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var sessionID, sourceSystem, label sql.NullString
		var createdStr string
		if err := rows.Scan(&e.DecisionID, &sessionID, &e.ContextHash, &e.State, &e.Source,
			&sourceSystem, &e.Explanation, &label, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.SessionID = sessionID.String
		e.SourceSystem = sourceSystem.String
		e.PositionLabel = label.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion list-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
