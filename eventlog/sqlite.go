package eventlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// Store persists event logs to SQLite. Writes go through a single writer
// goroutine fed by a channel so concurrently running matches never contend
// on the connection; reads (Replay) are only expected after the feeding
// matches finished.
type Store struct {
	db *sql.DB

	ch     chan Event
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

// Open creates or opens the store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("eventlog: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// WAL suits the append-only workload.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("eventlog: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events (
		match_id TEXT NOT NULL,
		seq      INTEGER NOT NULL,
		kind     TEXT NOT NULL,
		payload  TEXT NOT NULL,
		PRIMARY KEY (match_id, seq)
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("eventlog: create schema: %w", err)
	}

	s := &Store{
		db: db,
		ch: make(chan Event, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func (s *Store) loop() {
	for ev := range s.ch {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		_, _ = s.db.Exec(
			`INSERT OR REPLACE INTO events (match_id, seq, kind, payload) VALUES (?, ?, ?, ?)`,
			ev.MatchID, ev.Seq, string(ev.Kind), string(payload),
		)
	}
}

// Append queues one event for persistence. Safe for concurrent use; no-op
// after Close.
func (s *Store) Append(ev Event) {
	if s.closed.Load() {
		return
	}
	s.ch <- ev
}

// AppendLog queues a whole match log.
func (s *Store) AppendLog(l *Log) {
	for _, ev := range l.Events() {
		s.Append(ev)
	}
}

// Close drains pending writes and closes the database.
func (s *Store) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
	})
	s.wg.Wait()
	return s.db.Close()
}

// Matches lists the persisted match ids.
func (s *Store) Matches() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT match_id FROM events ORDER BY match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Replay loads one match's event stream in sequence order. Replaying every
// match through the aggregator reconstructs the full statistics without
// re-running any game.
func (s *Store) Replay(matchID string) ([]Event, error) {
	rows, err := s.db.Query(`SELECT payload FROM events WHERE match_id = ? ORDER BY seq`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("eventlog: corrupt event in match %s: %w", matchID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
