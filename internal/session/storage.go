package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const recordKey = "session"

// Storage is the durable key-value surface backing the persisted session
// record. Last write wins; absence and malformed content are both tolerated
// and read back as "no record".
type Storage struct {
	db *sql.DB
}

func Open(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping storage: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS session_records (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session_records table: %w", err)
	}

	return &Storage{db: db}, nil
}

// LoadRecord returns the persisted record, or nil when none exists. A
// malformed value is deleted and reported as absent.
func (s *Storage) LoadRecord() (*Record, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM session_records WHERE key = ?`, recordKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		_ = s.ClearRecord()
		return nil, nil
	}
	return &rec, nil
}

func (s *Storage) SaveRecord(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO session_records (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		recordKey, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *Storage) ClearRecord() error {
	if _, err := s.db.Exec(`DELETE FROM session_records WHERE key = ?`, recordKey); err != nil {
		return fmt.Errorf("clear record: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
