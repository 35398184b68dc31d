package eventlog

import (
	"context"
	"fmt"
	"testing"
)

func TestEventTypeConstants(t *testing.T) {
	expectedEvents := map[EventType]string{
		EventSessionStarted:     "session_started",
		EventSessionEnded:       "session_ended",
		EventTranscription:      "transcription",
		EventChecklistCompleted: "checklist_completed",
		EventChecklistRejected:  "checklist_rejected",
		EventDuplicateEvidence:  "duplicate_evidence",
		EventCardFieldFilled:    "client_card_filled",
		EventStageChanged:       "stage_changed",
	}

	for eventType, expectedValue := range expectedEvents {
		if string(eventType) != expectedValue {
			t.Errorf("EventType %q = %q, want %q", expectedValue, string(eventType), expectedValue)
		}
	}
}

func TestLoggerNew(t *testing.T) {
	logger := New(nil, 0)
	if logger == nil {
		t.Fatal("New(nil, 0) should return a non-nil logger")
	}
	if logger.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", logger.capacity, DefaultCapacity)
	}
}

func TestRecordKeepsNewestEntries(t *testing.T) {
	logger := New(nil, 3)
	for i := 0; i < 5; i++ {
		logger.Record("s1", EventTranscription, map[string]any{"n": i})
	}

	if logger.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", logger.Len())
	}
	recent := logger.Recent(0)
	for i, e := range recent {
		if got := e.Data["n"]; got != i+2 {
			t.Errorf("entry %d n = %v, want %d", i, got, i+2)
		}
	}

	last := logger.Recent(2)
	if len(last) != 2 || last[1].Data["n"] != 4 {
		t.Errorf("Recent(2) = %v", last)
	}
}

func TestRecentReturnsCopy(t *testing.T) {
	logger := New(nil, 10)
	logger.Record("s1", EventSessionStarted, nil)
	got := logger.Recent(0)
	got[0].Type = EventSessionEnded
	if logger.Recent(0)[0].Type != EventSessionStarted {
		t.Error("Recent() should return a copy")
	}
}

func TestRecentForFiltersBySession(t *testing.T) {
	logger := New(nil, 10)
	for i := 0; i < 4; i++ {
		logger.Record("old", EventChecklistRejected, map[string]any{"n": i})
		logger.Record("new", EventTranscription, map[string]any{"n": i})
	}

	got := logger.RecentFor("new", 3)
	if len(got) != 3 {
		t.Fatalf("RecentFor() returned %d entries, want 3", len(got))
	}
	for i, e := range got {
		if e.SessionID != "new" {
			t.Errorf("entry %d belongs to %q", i, e.SessionID)
		}
		if e.Data["n"] != i+1 {
			t.Errorf("entry %d n = %v, want %d", i, e.Data["n"], i+1)
		}
	}
	if all := logger.RecentFor("new", 0); len(all) != 4 {
		t.Errorf("RecentFor(0) returned %d entries, want 4", len(all))
	}
	if none := logger.RecentFor("missing", 5); len(none) != 0 {
		t.Errorf("RecentFor(missing) = %v", none)
	}
}

func TestLoggerLogWithNilDB(t *testing.T) {
	logger := New(nil, 10)

	if err := logger.Log(context.Background(), "s1", EventSessionStarted, map[string]any{"k": "v"}); err != nil {
		t.Errorf("Log with nil DB should return nil error, got %v", err)
	}
	if err := logger.EnsureSchema(context.Background()); err != nil {
		t.Errorf("EnsureSchema with nil DB should return nil error, got %v", err)
	}
	// Should not panic
	logger.LogAsync("", EventSessionStarted, nil)
}

func TestRecordIsSafeForConcurrentUse(t *testing.T) {
	logger := New(nil, 50)
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			for i := 0; i < 100; i++ {
				logger.Record(fmt.Sprintf("s%d", g), EventTranscription, nil)
				_ = logger.Recent(10)
			}
			done <- struct{}{}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
	if logger.Len() != 50 {
		t.Errorf("Len() = %d, want 50", logger.Len())
	}
}
