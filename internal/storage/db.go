package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection and provides methods for storage operations.
type DB struct {
	conn *sql.DB
}

// NewDB opens/creates a SQLite database at the given path and initializes schema.
// Pass ":memory:" for in-memory database (useful for tests).
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the necessary tables if they don't exist.
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS queue_items (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		cmd_text TEXT NOT NULL,
		enqueued_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, seq)
	);

	CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		installed INTEGER NOT NULL DEFAULT 0,
		added_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		cmd_text TEXT NOT NULL,
		ok INTEGER NOT NULL,
		rendering TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		ts INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_queue_session ON queue_items(session_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_session ON outcomes(session_id, ts DESC);
	CREATE INDEX IF NOT EXISTS idx_outcomes_batch ON outcomes(batch_id, position);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// SaveQueue atomically replaces the persisted queue of a session. It runs
// in a transaction so append/clear/drain never leave a half-written queue.
func (db *DB) SaveQueue(ctx context.Context, sessionID string, items []QueueItem) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin queue save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear persisted queue: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO queue_items (session_id, seq, cmd_text, enqueued_at) VALUES (?, ?, ?, ?)`,
			sessionID, item.Seq, item.Text, item.EnqueuedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert queue item: %w", err)
		}
	}

	return tx.Commit()
}

// LoadQueue retrieves the persisted queue of a session in sequence order.
func (db *DB) LoadQueue(ctx context.Context, sessionID string) ([]QueueItem, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT seq, cmd_text, enqueued_at
		FROM queue_items
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		var item QueueItem
		var tsUnix int64
		if err := rows.Scan(&item.Seq, &item.Text, &tsUnix); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		item.SessionID = sessionID
		item.EnqueuedAt = time.Unix(tsUnix, 0)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue items: %w", err)
	}
	return items, nil
}

// InsertOutcomes persists all outcomes of one batch.
func (db *DB) InsertOutcomes(ctx context.Context, records []OutcomeRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin outcome insert: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes (batch_id, session_id, position, cmd_text, ok, rendering, error, ts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.BatchID, rec.SessionID, rec.Position, rec.Command,
			rec.OK, rec.Rendering, rec.Error, rec.Timestamp.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert outcome: %w", err)
		}
	}

	return tx.Commit()
}

// GetOutcomesBySession retrieves the most recent outcomes for a session,
// newest batches first, positions in order within a batch.
func (db *DB) GetOutcomesBySession(ctx context.Context, sessionID string, limit int) ([]*OutcomeRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, batch_id, session_id, position, cmd_text, ok, rendering, error, ts
		FROM outcomes
		WHERE session_id = ?
		ORDER BY ts DESC, batch_id, position ASC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes by session: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// GetOutcomesByBatch retrieves one batch's outcomes in position order.
func (db *DB) GetOutcomesByBatch(ctx context.Context, batchID string) ([]*OutcomeRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, batch_id, session_id, position, cmd_text, ok, rendering, error, ts
		FROM outcomes
		WHERE batch_id = ?
		ORDER BY position ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes by batch: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// scanOutcomes is a helper that scans rows into OutcomeRecord structs.
func scanOutcomes(rows *sql.Rows) ([]*OutcomeRecord, error) {
	var records []*OutcomeRecord

	for rows.Next() {
		var rec OutcomeRecord
		var tsUnix int64

		err := rows.Scan(
			&rec.ID,
			&rec.BatchID,
			&rec.SessionID,
			&rec.Position,
			&rec.Command,
			&rec.OK,
			&rec.Rendering,
			&rec.Error,
			&tsUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}

		rec.Timestamp = time.Unix(tsUnix, 0)
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcome rows: %w", err)
	}

	return records, nil
}

// AddApplication inserts a catalog application and returns its id.
func (db *DB) AddApplication(ctx context.Context, app *AppRecord) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO applications (name, description, author, installed, added_at)
		VALUES (?, ?, ?, ?, ?)
	`, app.Name, app.Description, app.Author, app.Installed, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert application: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	app.ID = id
	return id, nil
}

// DeleteApplication removes a catalog application by id.
func (db *DB) DeleteApplication(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

// ListApplications retrieves the full catalog in insertion order. This is
// the stable iteration order the search contract is defined against.
func (db *DB) ListApplications(ctx context.Context) ([]*AppRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, author, installed, added_at
		FROM applications
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*AppRecord
	for rows.Next() {
		var app AppRecord
		var addedUnix int64
		if err := rows.Scan(&app.ID, &app.Name, &app.Description, &app.Author, &app.Installed, &addedUnix); err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		app.AddedAt = time.Unix(addedUnix, 0)
		apps = append(apps, &app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}
	return apps, nil
}
