// Package checklist tracks which scripted actions have happened in a call.
package checklist

import (
	"errors"
	"strings"
	"time"
)

// ErrUnknownItem is returned for manual updates naming an item that is not in the structure.
var ErrUnknownItem = errors.New("unknown checklist item")

// ItemState is the progress of a single item. Completed never goes back to false.
type ItemState struct {
	Completed     bool
	Evidence      string
	LastCheckedAt time.Time
	CompletedAt   time.Time
}

// State maps item ids to progress. Values are replaced, never mutated in place.
type State map[string]ItemState

func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Completed counts completed items.
func (s State) Completed() int {
	n := 0
	for _, v := range s {
		if v.Completed {
			n++
		}
	}
	return n
}

// EvidenceOwner returns the completed item already holding evidence.
func (s State) EvidenceOwner(evidence string) (string, bool) {
	key := normalizeEvidence(evidence)
	if key == "" {
		return "", false
	}
	for id, v := range s {
		if v.Completed && normalizeEvidence(v.Evidence) == key {
			return id, true
		}
	}
	return "", false
}

func normalizeEvidence(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
