// Package store persists composed layer records. The SQLite store is the
// durable backend; CBOR drafts cover crash recovery between saves.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"seelayer/internal/layer"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("store: record not found")

// Saved is a persisted record with its storage identity.
type Saved struct {
	ID        string
	AuthorID  string
	CreatedAt time.Time
	Record    layer.Record
}

// Store wraps the SQLite database holding layer_box rows.
type Store struct {
	conn *sql.DB
	log  zerolog.Logger
}

// Open opens (or creates) the SQLite file at dbPath and bootstraps the
// schema.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, log: log.With().Str("component", "store").Logger()}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS layer_box (
			id          TEXT PRIMARY KEY,
			author_id   TEXT NOT NULL,
			layer_title TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			marks       TEXT NOT NULL DEFAULT '[]',
			text_store  TEXT NOT NULL DEFAULT '{}',
			user_scale  REAL NOT NULL DEFAULT 1,
			tx          REAL NOT NULL DEFAULT 0,
			ty          REAL NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_layer_box_author ON layer_box(author_id);
	`)
	return err
}

// Save inserts a new record for the author and returns its id.
func (s *Store) Save(ctx context.Context, authorID string, rec layer.Record) (string, error) {
	marks, err := json.Marshal(rec.Marks)
	if err != nil {
		return "", fmt.Errorf("encode marks: %w", err)
	}
	notes, err := json.Marshal(rec.TextStore)
	if err != nil {
		return "", fmt.Errorf("encode text store: %w", err)
	}

	id := uuid.NewString()
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO layer_box (id, author_id, layer_title, image_url, marks, text_store, user_scale, tx, ty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, authorID, rec.Title, rec.ImageURL, string(marks), string(notes),
		rec.UserScale, rec.TX, rec.TY, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert layer_box: %w", err)
	}

	s.log.Debug().Str("id", id).Str("author", authorID).Int("marks", len(rec.Marks)).Msg("record saved")
	return id, nil
}

// Update replaces an existing record's contents.
func (s *Store) Update(ctx context.Context, id string, rec layer.Record) error {
	marks, err := json.Marshal(rec.Marks)
	if err != nil {
		return fmt.Errorf("encode marks: %w", err)
	}
	notes, err := json.Marshal(rec.TextStore)
	if err != nil {
		return fmt.Errorf("encode text store: %w", err)
	}

	res, err := s.conn.ExecContext(ctx, `
		UPDATE layer_box
		SET layer_title = ?, image_url = ?, marks = ?, text_store = ?, user_scale = ?, tx = ?, ty = ?
		WHERE id = ?`,
		rec.Title, rec.ImageURL, string(marks), string(notes),
		rec.UserScale, rec.TX, rec.TY, id)
	if err != nil {
		return fmt.Errorf("update layer_box: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Load returns the record with the given id.
func (s *Store) Load(ctx context.Context, id string) (Saved, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, author_id, layer_title, image_url, marks, text_store, user_scale, tx, ty, created_at
		FROM layer_box WHERE id = ?`, id)
	saved, err := scanSaved(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Saved{}, ErrNotFound
	}
	return saved, err
}

// ListByAuthor returns the author's records, oldest first.
func (s *Store) ListByAuthor(ctx context.Context, authorID string) ([]Saved, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, author_id, layer_title, image_url, marks, text_store, user_scale, tx, ty, created_at
		FROM layer_box WHERE author_id = ? ORDER BY created_at`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListAll returns every record, ordered by author then creation time. Used
// by the export tool.
func (s *Store) ListAll(ctx context.Context) ([]Saved, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, author_id, layer_title, image_url, marks, text_store, user_scale, tx, ty, created_at
		FROM layer_box ORDER BY author_id, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM layer_box WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSaved(row scanner) (Saved, error) {
	var (
		saved     Saved
		marks     string
		notes     string
		createdAt string
	)
	err := row.Scan(&saved.ID, &saved.AuthorID, &saved.Record.Title, &saved.Record.ImageURL,
		&marks, &notes, &saved.Record.UserScale, &saved.Record.TX, &saved.Record.TY, &createdAt)
	if err != nil {
		return Saved{}, err
	}

	if err := json.Unmarshal([]byte(marks), &saved.Record.Marks); err != nil {
		return Saved{}, fmt.Errorf("decode marks: %w", err)
	}
	if err := json.Unmarshal([]byte(notes), &saved.Record.TextStore); err != nil {
		return Saved{}, fmt.Errorf("decode text store: %w", err)
	}
	saved.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return saved, nil
}

func collect(rows *sql.Rows) ([]Saved, error) {
	var out []Saved
	for rows.Next() {
		saved, err := scanSaved(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, rows.Err()
}
