package eventlog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventType represents the type of session event
type EventType string

const (
	EventSessionStarted     EventType = "session_started"
	EventSessionEnded       EventType = "session_ended"
	EventSessionSuperseded  EventType = "session_superseded"
	EventWindowDiscarded    EventType = "audio_window_discarded"
	EventTranscription      EventType = "transcription"
	EventTranscriptionError EventType = "transcription_error"
	EventStageDetection     EventType = "stage_detection"
	EventStageChanged       EventType = "stage_changed"
	EventChecklistCompleted EventType = "checklist_completed"
	EventChecklistRejected  EventType = "checklist_rejected"
	EventDuplicateEvidence  EventType = "duplicate_evidence"
	EventCardFieldFilled    EventType = "client_card_filled"
	EventCardFieldRejected  EventType = "client_card_rejected"
	EventOracleError        EventType = "oracle_error"
	EventManualOverride     EventType = "manual_override"
	EventLanguageChanged    EventType = "language_changed"
	EventConfigUpdated      EventType = "config_updated"
	EventWorkerPanic        EventType = "worker_panic"
)

// DefaultCapacity is how many entries the in-memory trail keeps.
const DefaultCapacity = 500

// Entry is one line of the debug trail shown to observers.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"sessionId,omitempty"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// Schema creates the optional mirror table. Session state is never read back from it.
const Schema = `
CREATE TABLE IF NOT EXISTS session_events (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	event_data  JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS session_events_session_id_idx ON session_events (session_id);
`

// Logger keeps a bounded in-memory trail of pipeline decisions and, when a
// database is configured, mirrors each entry to it without blocking.
type Logger struct {
	db       *pgxpool.Pool
	capacity int

	mu      sync.Mutex
	entries []Entry
}

// New creates a new event logger. db may be nil.
func New(db *pgxpool.Pool, capacity int) *Logger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Logger{db: db, capacity: capacity}
}

// Record appends an entry to the trail and mirrors it asynchronously.
func (l *Logger) Record(sessionID string, eventType EventType, data map[string]any) Entry {
	e := Entry{Timestamp: time.Now().UTC(), SessionID: sessionID, Type: eventType, Data: data}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	l.mu.Unlock()

	l.LogAsync(sessionID, eventType, data)
	return e
}

// Recent returns up to n of the newest entries, oldest first. n <= 0 returns all.
func (l *Logger) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := 0
	if n > 0 && len(l.entries) > n {
		start = len(l.entries) - n
	}
	return append([]Entry(nil), l.entries[start:]...)
}

// RecentFor is Recent restricted to one session's entries.
func (l *Logger) RecentFor(sessionID string, n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for i := len(l.entries) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
		if l.entries[i].SessionID == sessionID {
			out = append(out, l.entries[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len returns the number of entries held in memory.
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// EnsureSchema creates the mirror table if a database is configured.
func (l *Logger) EnsureSchema(ctx context.Context) error {
	if l.db == nil {
		return nil
	}
	_, err := l.db.Exec(ctx, Schema)
	return err
}

// Log writes an event to the database synchronously
func (l *Logger) Log(ctx context.Context, sessionID string, eventType EventType, data map[string]any) error {
	if l.db == nil || sessionID == "" {
		return nil // Silently skip if no DB or session ID
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		dataJSON = []byte("{}")
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO session_events (session_id, event_type, event_data)
		VALUES ($1, $2, $3)
	`, sessionID, string(eventType), dataJSON)

	return err
}

// LogAsync logs an event without blocking the caller
func (l *Logger) LogAsync(sessionID string, eventType EventType, data map[string]any) {
	if l.db == nil || sessionID == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Log(ctx, sessionID, eventType, data)
	}()
}
