package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"gapless-controller/internal/playback"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const createSongsTableSQL = `
	CREATE TABLE IF NOT EXISTS songs (
		media_id TEXT NOT NULL,
		start_sec REAL NOT NULL,
		end_sec REAL NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		artist TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (media_id, start_sec)
	);
	`

// SQLiteSource is a catalog stored in a SQLite database.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) the catalog database at dsn.
func OpenSQLite(dsn string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if _, err := db.Exec(createSongsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create songs table: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Songs implements Source.Songs.
func (s *SQLiteSource) Songs(ctx context.Context) ([]playback.Interval, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT media_id, start_sec, end_sec, title, artist FROM songs ORDER BY media_id, start_sec")
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	var songs []playback.Interval
	for rows.Next() {
		var iv playback.Interval
		if err := rows.Scan(&iv.MediaID, &iv.Start, &iv.End, &iv.Title, &iv.Artist); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return Normalize(songs), nil
}

// Upsert inserts or replaces songs keyed by (media_id, start).
func (s *SQLiteSource) Upsert(ctx context.Context, songs ...playback.Interval) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO songs (media_id, start_sec, end_sec, title, artist) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, iv := range Normalize(songs) {
		if _, err := stmt.ExecContext(ctx, iv.MediaID, iv.Start, iv.End, iv.Title, iv.Artist); err != nil {
			return fmt.Errorf("upsert song %s@%.3f: %w", iv.MediaID, iv.Start, err)
		}
	}
	return tx.Commit()
}
