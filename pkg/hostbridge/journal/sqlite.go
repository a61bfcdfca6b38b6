package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists journal entries to SQLite. It is suitable for
// single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite journal store. The path should be
// a file path (e.g., "./journal.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			name TEXT NOT NULL,
			message_id INTEGER,
			correlation_id INTEGER,
			timestamp TEXT NOT NULL,
			payload BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_client_id
		ON journal(client_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	fillDefaults(&e)

	_, err := s.db.Exec(`
		INSERT INTO journal (id, client_id, direction, name, message_id, correlation_id, timestamp, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ClientID, string(e.Direction), e.Name,
		nullableID(e.MessageID), nullableID(e.CorrelationID),
		e.Timestamp.UTC().Format(time.RFC3339Nano), e.Payload)

	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(clientID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT id, direction, name, message_id, correlation_id, timestamp, payload
		FROM journal
		WHERE client_id = ?
		ORDER BY rowid
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e         Entry
			direction string
			msgID     sql.NullInt64
			corrID    sql.NullInt64
			timestamp string
		)
		if err := rows.Scan(&e.ID, &direction, &e.Name, &msgID, &corrID, &timestamp, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.ClientID = clientID
		e.Direction = Direction(direction)
		if msgID.Valid {
			v := msgID.Int64
			e.MessageID = &v
		}
		if corrID.Valid {
			v := corrID.Int64
			e.CorrelationID = &v
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}

	return entries, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
