// Package persistence provides SQLite-backed storage for decisions,
// relationship events, and per-tick character snapshots.
package persistence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/decision"
	"github.com/aistory/sandboxworld/internal/relationship"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		character_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		action_id TEXT NOT NULL,
		dialogue TEXT NOT NULL,
		enrichment_json TEXT NOT NULL,
		state_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS relationship_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		participants TEXT NOT NULL,
		context TEXT NOT NULL,
		emotional_impact REAL NOT NULL,
		changes_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		tick INTEGER NOT NULL,
		character_id TEXT NOT NULL,
		energy INTEGER NOT NULL,
		mood REAL NOT NULL,
		stress INTEGER NOT NULL,
		social_battery INTEGER NOT NULL,
		current_goal TEXT NOT NULL,
		PRIMARY KEY (tick, character_id)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_tick ON decisions(tick);
	CREATE INDEX IF NOT EXISTS idx_decisions_character ON decisions(character_id);
	CREATE INDEX IF NOT EXISTS idx_rel_events_tick ON relationship_events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveDecisions appends decision records.
func (db *DB) SaveDecisions(ds []decision.Decision) error {
	if len(ds) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO decisions
		(id, character_id, tick, timestamp, action_id, dialogue, enrichment_json, state_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range ds {
		enrJSON, _ := json.Marshal(d.Enrichment)
		stateJSON, _ := json.Marshal(d.StateBefore)
		_, err := stmt.Exec(
			d.ID, d.CharacterID, d.Tick, d.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			d.ActionID, d.Enrichment.Dialogue, string(enrJSON), string(stateJSON),
		)
		if err != nil {
			return fmt.Errorf("insert decision %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// SaveRelationshipEvents appends relationship events.
func (db *DB) SaveRelationshipEvents(evts []relationship.Event) error {
	if len(evts) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range evts {
		changesJSON, _ := json.Marshal(e.Changes)
		_, err := tx.Exec(`INSERT INTO relationship_events
			(tick, type, participants, context, emotional_impact, changes_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.Tick, e.Type, strings.Join(e.Participants, ","),
			e.Context, e.EmotionalImpact, string(changesJSON),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveSnapshot writes the per-character state for one tick.
func (db *DB) SaveSnapshot(tick uint64, states map[string]character.State) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, st := range states {
		_, err := tx.Exec(`INSERT OR REPLACE INTO snapshots
			(tick, character_id, energy, mood, stress, social_battery, current_goal)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tick, id, st.Energy, st.Mood, st.Stress, st.SocialBattery, st.CurrentGoal,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// decisionRow is the flat scan target for decision queries.
type decisionRow struct {
	ID          string `db:"id"`
	CharacterID string `db:"character_id"`
	Tick        uint64 `db:"tick"`
	ActionID    string `db:"action_id"`
	Dialogue    string `db:"dialogue"`
}

// DecisionSummary is a stored decision without the full enrichment payload.
type DecisionSummary struct {
	ID          string `json:"id"`
	CharacterID string `json:"character_id"`
	Tick        uint64 `json:"tick"`
	ActionID    string `json:"action_id"`
	Dialogue    string `json:"dialogue"`
}

// RecentDecisions returns the most recent decisions, newest first. An empty
// characterID matches all characters.
func (db *DB) RecentDecisions(characterID string, limit int) ([]DecisionSummary, error) {
	query := `SELECT id, character_id, tick, action_id, dialogue FROM decisions`
	args := []any{}
	if characterID != "" {
		query += ` WHERE character_id = ?`
		args = append(args, characterID)
	}
	query += ` ORDER BY tick DESC LIMIT ?`
	args = append(args, limit)

	var rows []decisionRow
	if err := db.conn.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]DecisionSummary, len(rows))
	for i, r := range rows {
		out[i] = DecisionSummary(r)
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
