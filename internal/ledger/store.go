// Package ledger keeps a local record of everything done through this
// client: uploads, corrosion readings and comments. The server remains the
// source of truth for history; the ledger only feeds the stats command and
// works offline.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
    id TEXT PRIMARY KEY,
    image_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    original_url TEXT,
    server TEXT,
    uploaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS readings (
    id TEXT PRIMARY KEY,
    image_id TEXT NOT NULL,
    corrosion REAL NOT NULL,
    processed_url TEXT,
    detected_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    image_id TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads(uploaded_at);
CREATE INDEX IF NOT EXISTS idx_readings_image_id ON readings(image_id);
CREATE INDEX IF NOT EXISTS idx_comments_image_id ON comments(image_id);
`

type Store struct {
	db *sql.DB
}

func NewStore() (*Store, error) {
	dbPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewStoreWithPath(dbPath)
}

func NewStoreWithPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DefaultPath returns the ledger location under the user's home directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".corroscan", "ledger.db"), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AddUpload(ctx context.Context, u *Upload) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (id, image_id, filename, original_url, server, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.ImageID, u.Filename, u.OriginalURL, u.Server, u.UploadedAt)
	return err
}

func (s *Store) AddReading(ctx context.Context, r *Reading) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (id, image_id, corrosion, processed_url, detected_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ImageID, r.Corrosion, r.ProcessedURL, r.DetectedAt)
	return err
}

func (s *Store) AddComment(ctx context.Context, c *Comment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, image_id, body, created_at)
		 VALUES (?, ?, ?, ?)`,
		c.ID, c.ImageID, c.Body, c.CreatedAt)
	return err
}

func (s *Store) ListUploads(ctx context.Context) ([]*Upload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, image_id, filename, original_url, server, uploaded_at
		 FROM uploads ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		u := &Upload{}
		var originalURL, server sql.NullString
		if err := rows.Scan(&u.ID, &u.ImageID, &u.Filename, &originalURL, &server, &u.UploadedAt); err != nil {
			return nil, err
		}
		u.OriginalURL = originalURL.String
		u.Server = server.String
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

func (s *Store) CommentsForImage(ctx context.Context, imageID string) ([]*Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, image_id, body, created_at
		 FROM comments WHERE image_id = ? ORDER BY created_at ASC`, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(&c.ID, &c.ImageID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Summarize aggregates all recorded corrosion readings.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(corrosion), 0), COALESCE(MAX(corrosion), 0)
		 FROM readings`)

	var summary Summary
	if err := row.Scan(&summary.Readings, &summary.Average, &summary.Max); err != nil {
		return nil, err
	}
	return &summary, nil
}
