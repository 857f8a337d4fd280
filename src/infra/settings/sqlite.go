package settings

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists user preferences and playback position in SQLite. It is the
// durable side of the queue state machine: the committed queue position is
// mirrored here so playback can resume across restarts.
type Store struct {
	db *sql.DB
}

// QueueSnapshot is the persisted playback position.
type QueueSnapshot struct {
	Index         int     `json:"index"`
	Source        string  `json:"source"`
	CollectionID  string  `json:"collection_id,omitempty"`
	OffsetSeconds float64 `json:"offset_seconds"`
}

// Credentials are the persisted auth tokens for the catalog.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionKey   string `json:"session_key"`
	ExpiryTime   int64  `json:"expiry_time"`
}

// New opens (or creates) the preferences database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		slog.Error("Failed to read preference", "key", key, "error", err)
		return "", false
	}
	return value, true
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	return err
}

// Volume returns the stored playback volume, defaulting to 0.5.
func (s *Store) Volume() float64 {
	raw, ok := s.get("volume")
	if !ok {
		return 0.5
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0.5
	}
	return v
}

// SetVolume stores the playback volume.
func (s *Store) SetVolume(v float64) error {
	return s.set("volume", strconv.FormatFloat(v, 'f', -1, 64))
}

// Shuffle returns the stored shuffle preference.
func (s *Store) Shuffle() bool {
	raw, ok := s.get("shuffle")
	return ok && raw == "true"
}

// SetShuffle stores the shuffle preference.
func (s *Store) SetShuffle(on bool) error {
	return s.set("shuffle", strconv.FormatBool(on))
}

// LastQueue returns the persisted playback position, if any.
func (s *Store) LastQueue() (*QueueSnapshot, bool) {
	raw, ok := s.get("last_queue")
	if !ok {
		return nil, false
	}
	var snap QueueSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		slog.Warn("Discarding unreadable queue snapshot", "error", err)
		return nil, false
	}
	return &snap, true
}

// SaveLastQueue mirrors the committed playback position. Best-effort like
// every other persistence path: failures are logged, not propagated.
func (s *Store) SaveLastQueue(snap *QueueSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("Failed to marshal queue snapshot", "error", err)
		return
	}
	if err := s.set("last_queue", string(data)); err != nil {
		slog.Error("Failed to persist queue snapshot", "error", err)
	}
}

// ClearLastQueue removes the persisted playback position.
func (s *Store) ClearLastQueue() {
	if err := s.delete("last_queue"); err != nil {
		slog.Error("Failed to clear queue snapshot", "error", err)
	}
}

// Credentials returns the stored auth tokens, if any.
func (s *Store) Credentials() (*Credentials, bool) {
	raw, ok := s.get("credentials")
	if !ok {
		return nil, false
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		slog.Warn("Discarding unreadable credentials", "error", err)
		return nil, false
	}
	return &creds, true
}

// SaveCredentials stores the auth tokens.
func (s *Store) SaveCredentials(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.set("credentials", string(data))
}
