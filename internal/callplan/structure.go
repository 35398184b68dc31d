// Package callplan describes the scripted shape of a call: ordered stages,
// the checklist items expected in each, and the client card fields to learn.
package callplan

import (
	"encoding/json"
	"strings"
	"time"
)

// ItemKind tells whether an item is something the rep must say or something
// that has to be discussed with the client.
type ItemKind string

const (
	KindAssertion ItemKind = "assertion"
	KindInquiry   ItemKind = "inquiry"
)

// ParseItemKind accepts both current names and the older say/discuss spelling.
func ParseItemKind(s string) (ItemKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assertion", "say":
		return KindAssertion, true
	case "inquiry", "discuss":
		return KindInquiry, true
	}
	return "", false
}

// UnmarshalJSON normalises legacy kinds; unknown values are kept verbatim so
// Validate can report them.
func (k *ItemKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if parsed, ok := ParseItemKind(s); ok {
		*k = parsed
		return nil
	}
	*k = ItemKind(s)
	return nil
}

// Keywords are optional hints passed to the oracle.
type Keywords struct {
	Required  []string `json:"required,omitempty"`
	Forbidden []string `json:"forbidden,omitempty"`
}

type ChecklistItem struct {
	ID       string   `json:"id"`
	Kind     ItemKind `json:"type"`
	Content  string   `json:"content"`
	Guidance string   `json:"guidance,omitempty"`
	Keywords Keywords `json:"keywords"`
}

type Stage struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	StartOffsetSeconds int             `json:"startOffsetSeconds"`
	DurationSeconds    int             `json:"durationSeconds"`
	Items              []ChecklistItem `json:"items"`
}

// Start returns the recommended offset from call start.
func (s Stage) Start() time.Duration {
	return time.Duration(s.StartOffsetSeconds) * time.Second
}

// End returns the recommended end offset from call start.
func (s Stage) End() time.Duration {
	return time.Duration(s.StartOffsetSeconds+s.DurationSeconds) * time.Second
}

// CallStructure is the ordered list of stages for one kind of call.
type CallStructure []Stage

// Stage looks a stage up by id.
func (cs CallStructure) Stage(id string) (Stage, bool) {
	for _, s := range cs {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// Item looks a checklist item up by id across all stages.
func (cs CallStructure) Item(id string) (ChecklistItem, bool) {
	for _, s := range cs {
		for _, it := range s.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return ChecklistItem{}, false
}

// Items returns every checklist item in stage order.
func (cs CallStructure) Items() []ChecklistItem {
	var out []ChecklistItem
	for _, s := range cs {
		out = append(out, s.Items...)
	}
	return out
}

// StageAt returns the latest stage whose start offset is not after elapsed.
// Before the first stage starts, the first stage is returned.
func (cs CallStructure) StageAt(elapsed time.Duration) (Stage, bool) {
	if len(cs) == 0 {
		return Stage{}, false
	}
	current := cs[0]
	for _, s := range cs {
		if s.Start() <= elapsed {
			current = s
		}
	}
	return current, true
}

// Clone returns a deep copy so a session can freeze the structure it started with.
func (cs CallStructure) Clone() CallStructure {
	if cs == nil {
		return nil
	}
	out := make(CallStructure, len(cs))
	for i, s := range cs {
		out[i] = s
		out[i].Items = append([]ChecklistItem(nil), s.Items...)
	}
	return out
}
