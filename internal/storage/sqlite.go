/*
Package storage
File: sqlite.go
Description:
    SQLite-backed save slots (pure Go driver, no cgo).
    One row per slot name; saving upserts the row with a fresh save_id.
*/

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// OpenSQLite opens (or creates) the save database and its schema.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer; keeps SQLite from reporting SQLITE_BUSY on concurrent autosaves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			save_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		);`,
	}
	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// SQLiteSlot implements Slot on one row of the saves table.
type SQLiteSlot struct {
	db   *sql.DB
	name string
}

func NewSQLiteSlot(db *sql.DB, name string) *SQLiteSlot {
	return &SQLiteSlot{db: db, name: name}
}

func (s *SQLiteSlot) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO saves (slot, save_id, payload, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			save_id=excluded.save_id,
			payload=excluded.payload,
			saved_at=excluded.saved_at
	`
	_, err := s.db.ExecContext(ctx, query, s.name, uuid.NewString(), string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save slot %q: %w", s.name, err)
	}
	return nil
}

func (s *SQLiteSlot) Load(ctx context.Context) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM saves WHERE slot = ?`, s.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load slot %q: %w", s.name, err)
	}
	return []byte(payload), true, nil
}
