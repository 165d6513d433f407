// Package state persists dashboard sessions in SQLite: the session rows, the
// session gate flags, and the advisory tab memory.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/home-focus/go-core/internal/focus"
	"github.com/danielpatrickdp/home-focus/go-core/internal/gate"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	ended_at      TEXT
);

CREATE TABLE IF NOT EXISTS gate_flags (
	session_id    TEXT NOT NULL,
	flag_key      TEXT NOT NULL,
	triggered_at  TEXT NOT NULL,
	expires_at    TEXT,
	PRIMARY KEY (session_id, flag_key),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS tab_memory (
	session_id    TEXT NOT NULL,
	system_id     TEXT NOT NULL,
	tab           TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	PRIMARY KEY (session_id, system_id),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	decision_id    TEXT NOT NULL UNIQUE,
	session_id     TEXT,
	context_hash   TEXT NOT NULL,
	state          TEXT NOT NULL,
	source         TEXT NOT NULL,
	source_system  TEXT,
	explanation    TEXT NOT NULL,
	position_label TEXT,
	created_at     TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct

// Store manages session state in SQLite.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for timestamps and TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s := &Store{db: db, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the decision log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region sessions

// BeginSession creates a new session.
func (s *Store) BeginSession(ctx context.Context) (Session, error) {
	sess := Session{ID: uuid.New().String(), StartedAt: s.now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, started_at) VALUES (?, ?)`,
		sess.ID, sess.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession reads a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var startedStr string
	var endedStr sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, ended_at FROM sessions WHERE session_id = ?`, id,
	).Scan(&startedStr, &endedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}

	sess := Session{ID: id}
	sess.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	if endedStr.Valid {
		ended, _ := time.Parse(time.RFC3339Nano, endedStr.String)
		sess.EndedAt = &ended
	}
	return sess, nil
}

// EndSession tears a session down, dropping its gate flags and tab memory.
func (s *Store) EndSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
		s.now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrSessionNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM gate_flags WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("clear gate flags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tab_memory WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("clear tab memory: %w", err)
	}
	return tx.Commit()
}

// #endregion sessions

// #region gate-store

// GateStore returns the session's gate flags as a gate.Store.
func (s *Store) GateStore(sessionID string) gate.Store {
	return &gateStore{s: s, sessionID: sessionID}
}

type gateStore struct {
	s         *Store
	sessionID string
}

func (g *gateStore) Get(ctx context.Context, key string) (gate.Entry, bool, error) {
	if key == "" {
		return gate.Entry{}, false, gate.ErrEmptyKey
	}
	var triggeredStr string
	var expiresStr sql.NullString
	err := g.s.db.QueryRowContext(ctx,
		`SELECT triggered_at, expires_at FROM gate_flags WHERE session_id = ? AND flag_key = ?`,
		g.sessionID, key,
	).Scan(&triggeredStr, &expiresStr)
	if errors.Is(err, sql.ErrNoRows) {
		return gate.Entry{}, false, nil
	}
	if err != nil {
		return gate.Entry{}, false, fmt.Errorf("get flag %s: %w", key, err)
	}

	var e gate.Entry
	if e.TriggeredAt, err = time.Parse(time.RFC3339Nano, triggeredStr); err != nil {
		return gate.Entry{}, false, fmt.Errorf("parse triggered_at: %w", err)
	}
	if expiresStr.Valid {
		if e.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresStr.String); err != nil {
			return gate.Entry{}, false, fmt.Errorf("parse expires_at: %w", err)
		}
	}
	if e.Expired(g.s.now()) {
		return gate.Entry{}, false, nil
	}
	return e, true, nil
}

func (g *gateStore) Set(ctx context.Context, key string, e gate.Entry) error {
	if key == "" {
		return gate.ErrEmptyKey
	}
	var expires interface{}
	if !e.ExpiresAt.IsZero() {
		expires = e.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := g.s.db.ExecContext(ctx,
		`INSERT INTO gate_flags (session_id, flag_key, triggered_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, flag_key) DO UPDATE SET
		   triggered_at = excluded.triggered_at, expires_at = excluded.expires_at`,
		g.sessionID, key, e.TriggeredAt.UTC().Format(time.RFC3339Nano), expires,
	)
	if err != nil {
		return fmt.Errorf("set flag %s: %w", key, err)
	}
	return nil
}

func (g *gateStore) Clear(ctx context.Context, key string) error {
	if key == "" {
		return gate.ErrEmptyKey
	}
	_, err := g.s.db.ExecContext(ctx,
		`DELETE FROM gate_flags WHERE session_id = ? AND flag_key = ?`, g.sessionID, key,
	)
	if err != nil {
		return fmt.Errorf("clear flag %s: %w", key, err)
	}
	return nil
}

// #endregion gate-store

// #region tab-memory

// TabMemory returns the session's tab memory as a focus.TabMemory. Storage
// failures are logged and read as "nothing remembered".
func (s *Store) TabMemory(sessionID string) focus.TabMemory {
	return &tabMemory{s: s, sessionID: sessionID}
}

type tabMemory struct {
	s         *Store
	sessionID string
}

func (t *tabMemory) RememberTab(systemID, tab string) {
	if systemID == "" || tab == "" {
		return
	}
	_, err := t.s.db.Exec(
		`INSERT INTO tab_memory (session_id, system_id, tab, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, system_id) DO UPDATE SET tab = excluded.tab, updated_at = excluded.updated_at`,
		t.sessionID, systemID, tab, t.s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		t.s.logger.Warn("remember tab failed", "session", t.sessionID, "system", systemID, "error", err)
	}
}

func (t *tabMemory) LastTab(systemID string) (string, bool) {
	var tab string
	err := t.s.db.QueryRow(
		`SELECT tab FROM tab_memory WHERE session_id = ? AND system_id = ?`, t.sessionID, systemID,
	).Scan(&tab)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			t.s.logger.Warn("read tab failed", "session", t.sessionID, "system", systemID, "error", err)
		}
		return "", false
	}
	return tab, true
}

// #endregion tab-memory
