package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/modeswitch/controller/internal/actions"
	"github.com/modeswitch/controller/internal/decision"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	task        TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	ended_at    TEXT
);

CREATE TABLE IF NOT EXISTS decisions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	decision_id  TEXT NOT NULL,
	attempts     INTEGER NOT NULL,
	outcomes_json TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS actions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	joystick_json TEXT NOT NULL,
	gripper       REAL NOT NULL,
	vector_json   TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS mode_switches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	initiator    TEXT NOT NULL,
	mapping_json TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS task_states (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	state       TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS metrics (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	name        TEXT NOT NULL,
	value       REAL NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// #endregion schema

// #region journal-struct

// Journal writes one session's experiment trail to SQLite.
type Journal struct {
	db        *sql.DB
	sessionID string
	task      string
	startedAt time.Time
}

// #endregion journal-struct

// #region constructor

// Open opens (or creates) the journal database, runs migrations and
// starts a new session for the given task.
func Open(dbPath, task string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	j := &Journal{
		db:        db,
		sessionID: uuid.New().String(),
		task:      task,
		startedAt: time.Now().UTC(),
	}
	_, err = db.Exec(
		`INSERT INTO sessions (session_id, task, started_at) VALUES (?, ?, ?)`,
		j.sessionID, task, j.startedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return j, nil
}

// OpenExisting opens the journal database without starting a session,
// for read-only inspection.
func OpenExisting(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// SessionID returns the current session identifier.
func (j *Journal) SessionID() string {
	return j.sessionID
}

// #endregion constructor

// #region writers

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// RecordDecision persists one completed decision cycle.
func (j *Journal) RecordDecision(attempts int, outcomes []decision.Outcome) (string, error) {
	payload, err := json.Marshal(outcomes)
	if err != nil {
		return "", fmt.Errorf("marshal outcomes: %w", err)
	}
	id := uuid.New().String()
	_, err = j.db.Exec(
		`INSERT INTO decisions (session_id, decision_id, attempts, outcomes_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		j.sessionID, id, attempts, string(payload), now(),
	)
	if err != nil {
		return "", fmt.Errorf("insert decision: %w", err)
	}
	return id, nil
}

// RecordAction persists one executed motion with the joystick
// deflections that triggered it.
func (j *Journal) RecordAction(joystick [4]float64, gripper float64, vector actions.MotionVector) error {
	joyJSON, err := json.Marshal(joystick)
	if err != nil {
		return fmt.Errorf("marshal joystick: %w", err)
	}
	vecJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	_, err = j.db.Exec(
		`INSERT INTO actions (session_id, joystick_json, gripper, vector_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		j.sessionID, string(joyJSON), gripper, string(vecJSON), now(),
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// RecordModeSwitch persists a mode switch with its initiator and the
// full direction binding now in effect.
func (j *Journal) RecordModeSwitch(initiator Initiator, mapping Mapping) error {
	payload, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	_, err = j.db.Exec(
		`INSERT INTO mode_switches (session_id, initiator, mapping_json, created_at)
		 VALUES (?, ?, ?, ?)`,
		j.sessionID, string(initiator), string(payload), now(),
	)
	if err != nil {
		return fmt.Errorf("insert mode switch: %w", err)
	}
	return nil
}

// RecordTaskState persists a task lifecycle transition.
func (j *Journal) RecordTaskState(state string) error {
	_, err := j.db.Exec(
		`INSERT INTO task_states (session_id, state, created_at) VALUES (?, ?, ?)`,
		j.sessionID, state, now(),
	)
	if err != nil {
		return fmt.Errorf("insert task state: %w", err)
	}
	return nil
}

// RecordMetric persists one named measurement.
func (j *Journal) RecordMetric(name string, value float64) error {
	_, err := j.db.Exec(
		`INSERT INTO metrics (session_id, name, value, created_at) VALUES (?, ?, ?, ?)`,
		j.sessionID, name, value, now(),
	)
	if err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	return nil
}

// EndSession stamps the session's end time.
func (j *Journal) EndSession() error {
	_, err := j.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
		now(), j.sessionID,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// #endregion writers

// #region readers

// Sessions lists all session IDs, newest first.
func (j *Journal) Sessions() ([]string, error) {
	rows, err := j.db.Query(`SELECT session_id FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Decisions returns a session's decision rows in insertion order.
func (j *Journal) Decisions(sessionID string) ([]DecisionRow, error) {
	rows, err := j.db.Query(
		`SELECT decision_id, attempts, outcomes_json, created_at FROM decisions
		 WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()
	var out []DecisionRow
	for rows.Next() {
		var rec DecisionRow
		var payload, created string
		if err := rows.Scan(&rec.DecisionID, &rec.Attempts, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Outcomes); err != nil {
			return nil, fmt.Errorf("parse outcomes: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ModeSwitches returns a session's mode-switch rows in insertion order.
func (j *Journal) ModeSwitches(sessionID string) ([]ModeSwitchRow, error) {
	rows, err := j.db.Query(
		`SELECT initiator, mapping_json, created_at FROM mode_switches
		 WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query mode switches: %w", err)
	}
	defer rows.Close()
	var out []ModeSwitchRow
	for rows.Next() {
		var rec ModeSwitchRow
		var initiator, payload, created string
		if err := rows.Scan(&initiator, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan mode switch: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Mapping); err != nil {
			return nil, fmt.Errorf("parse mapping: %w", err)
		}
		rec.Initiator = Initiator(initiator)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Actions returns a session's action rows in insertion order.
func (j *Journal) Actions(sessionID string) ([]ActionRow, error) {
	rows, err := j.db.Query(
		`SELECT joystick_json, gripper, vector_json, created_at FROM actions
		 WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()
	var out []ActionRow
	for rows.Next() {
		var rec ActionRow
		var joyJSON, vecJSON, created string
		if err := rows.Scan(&joyJSON, &rec.Gripper, &vecJSON, &created); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if err := json.Unmarshal([]byte(joyJSON), &rec.Joystick); err != nil {
			return nil, fmt.Errorf("parse joystick: %w", err)
		}
		if err := json.Unmarshal([]byte(vecJSON), &rec.Vector); err != nil {
			return nil, fmt.Errorf("parse vector: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TaskStates returns a session's task-state rows in insertion order.
func (j *Journal) TaskStates(sessionID string) ([]TaskStateRow, error) {
	rows, err := j.db.Query(
		`SELECT state, created_at FROM task_states WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query task states: %w", err)
	}
	defer rows.Close()
	var out []TaskStateRow
	for rows.Next() {
		var rec TaskStateRow
		var created string
		if err := rows.Scan(&rec.State, &created); err != nil {
			return nil, fmt.Errorf("scan task state: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Metrics returns a session's metric rows in insertion order.
func (j *Journal) Metrics(sessionID string) ([]MetricRow, error) {
	rows, err := j.db.Query(
		`SELECT name, value, created_at FROM metrics WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()
	var out []MetricRow
	for rows.Next() {
		var rec MetricRow
		var created string
		if err := rows.Scan(&rec.Name, &rec.Value, &created); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summarize aggregates one session's rows.
func (j *Journal) Summarize(sessionID string) (Summary, error) {
	s := Summary{SessionID: sessionID}
	var started string
	var ended sql.NullString
	err := j.db.QueryRow(
		`SELECT task, started_at, ended_at FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&s.Task, &started, &ended)
	if err != nil {
		return Summary{}, fmt.Errorf("query session: %w", err)
	}
	startedAt, _ := time.Parse(time.RFC3339Nano, started)
	if ended.Valid {
		endedAt, _ := time.Parse(time.RFC3339Nano, ended.String)
		s.Duration = endedAt.Sub(startedAt)
	}

	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM decisions WHERE session_id = ?`, &s.Decisions},
		{`SELECT COUNT(*) FROM actions WHERE session_id = ?`, &s.Actions},
		{`SELECT COUNT(*) FROM mode_switches WHERE session_id = ?`, &s.ModeSwitches},
	}
	for _, c := range counts {
		if err := j.db.QueryRow(c.query, sessionID).Scan(c.dst); err != nil {
			return Summary{}, fmt.Errorf("count rows: %w", err)
		}
	}
	err = j.db.QueryRow(
		`SELECT COUNT(*) FROM mode_switches WHERE session_id = ? AND initiator = ?`,
		sessionID, string(InitiatorManual),
	).Scan(&s.ManualSwitches)
	if err != nil {
		return Summary{}, fmt.Errorf("count manual switches: %w", err)
	}
	return s, nil
}

// #endregion readers
