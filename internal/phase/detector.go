// Package phase decides which stage of the call structure the conversation is in.
package phase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
)

// State is the current stage and when the call entered it.
type State struct {
	StageID   string
	EnteredAt time.Time
}

// Initial places a new session in the first stage.
func Initial(structure callplan.CallStructure, now time.Time) State {
	if len(structure) == 0 {
		return State{}
	}
	return State{StageID: structure[0].ID, EnteredAt: now}
}

// Source says how the stage in an Outcome was chosen.
type Source string

const (
	SourceOracle       Source = "oracle"
	SourceTimeFallback Source = "time_fallback"
	SourceHysteresis   Source = "hysteresis"
)

type Outcome struct {
	StageID    string
	Previous   string
	Changed    bool
	Source     Source
	Detected   string
	Confidence float64
	Reason     string
}

type Config struct {
	MinContextChars int
	MinConfidence   float64
	OracleTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{MinContextChars: 100, MinConfidence: 0.6, OracleTimeout: 20 * time.Second}
}

type Detector struct {
	oracle llm.Classifier
	cfg    Config
}

func NewDetector(oracle llm.Classifier, cfg Config) *Detector {
	return &Detector{oracle: oracle, cfg: cfg}
}

// Detect classifies the conversation and returns the next state. The stage
// may move backward; only confidence gates a change suggested by the oracle.
func (d *Detector) Detect(ctx context.Context, st State, structure callplan.CallStructure, text string, elapsed time.Duration, now time.Time) (State, Outcome) {
	out := Outcome{Previous: st.StageID}
	if len(structure) == 0 {
		out.StageID = st.StageID
		out.Reason = "empty call structure"
		return st, out
	}

	target := ""
	if utf8.RuneCountInString(strings.TrimSpace(text)) < d.cfg.MinContextChars {
		out.Source = SourceTimeFallback
		out.Reason = "not enough conversation"
	} else {
		v, err := llm.Ask[llm.StageVerdict](ctx, d.oracle, llm.StagePrompt(structure, text, elapsed), d.cfg.OracleTimeout)
		switch {
		case err != nil:
			out.Source = SourceTimeFallback
			out.Reason = err.Error()
		case !validStage(structure, v.StageID):
			out.Source = SourceTimeFallback
			out.Detected = v.StageID
			out.Reason = "unknown stage id"
		default:
			out.Detected = v.StageID
			out.Confidence = llm.NormalizeConfidence(v.Confidence)
			out.Reason = v.Reasoning
			if out.Confidence >= d.cfg.MinConfidence {
				out.Source = SourceOracle
				target = v.StageID
			} else {
				out.Source = SourceHysteresis
				target = st.StageID
			}
		}
	}

	if out.Source == SourceTimeFallback || target == "" {
		s, _ := structure.StageAt(elapsed)
		target = s.ID
	}

	out.StageID = target
	if target == st.StageID {
		return st, out
	}
	out.Changed = true
	return State{StageID: target, EnteredAt: now}, out
}

func validStage(structure callplan.CallStructure, id string) bool {
	_, ok := structure.Stage(id)
	return ok
}
