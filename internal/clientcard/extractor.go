// Package clientcard fills a structured profile of the client from the
// conversation. A field is written once and then never touched again.
package clientcard

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/verify"
)

var (
	ErrUnknownField = errors.New("unknown client card field")
	ErrFilled       = errors.New("client card field already filled")
	ErrEmptyValue   = errors.New("empty client card value")
	ErrPlaceholder  = errors.New("client card value is a placeholder")
)

type FieldValue struct {
	Value       string
	Evidence    string
	Confidence  float64
	ExtractedAt time.Time
}

// State maps field ids to accepted values.
type State map[string]FieldValue

func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s State) filled(id string) bool {
	return strings.TrimSpace(s[id].Value) != ""
}

type Status string

const (
	StatusFilled      Status = "filled"
	StatusRejected    Status = "rejected"
	StatusSkipped     Status = "skipped"
	StatusOracleError Status = "oracle_error"
)

type Outcome struct {
	FieldID    string
	Status     Status
	Guard      verify.Guard
	Reason     string
	Value      string
	Confidence float64
}

type Config struct {
	MinContextChars int
	// ShortValueWords is the word count up to which a value must share a token with its evidence.
	ShortValueWords int
	OracleTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{MinContextChars: 200, ShortValueWords: 3, OracleTimeout: 20 * time.Second}
}

type Extractor struct {
	oracle   llm.Classifier
	verifier *verify.Pipeline
	cfg      Config
}

func NewExtractor(oracle llm.Classifier, verifier *verify.Pipeline, cfg Config) *Extractor {
	return &Extractor{oracle: oracle, verifier: verifier, cfg: cfg}
}

// Extract asks the oracle for the empty fields and returns the new state.
// The input state is not modified.
func (e *Extractor) Extract(ctx context.Context, st State, fields []callplan.FieldSpec, text string, now time.Time) (State, []Outcome) {
	var open []callplan.FieldSpec
	known := make(map[string]string)
	for _, f := range fields {
		if st.filled(f.ID) {
			known[f.ID] = st[f.ID].Value
			continue
		}
		open = append(open, f)
	}
	if len(open) == 0 {
		return st, nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < e.cfg.MinContextChars {
		return st, nil
	}

	extraction, err := llm.Ask[llm.FieldExtraction](ctx, e.oracle, llm.FieldExtractionPrompt(open, known, text), e.cfg.OracleTimeout)
	if err != nil {
		return st, []Outcome{{Status: StatusOracleError, Reason: err.Error()}}
	}

	next := st.Clone()
	var outcomes []Outcome
	for _, f := range fields {
		cand, ok := extraction[f.ID]
		if !ok {
			continue
		}
		out := e.consider(ctx, next, f, cand, text)
		if out.Status == StatusFilled {
			next[f.ID] = FieldValue{
				Value:       strings.TrimSpace(cand.Value),
				Evidence:    strings.TrimSpace(cand.Evidence),
				Confidence:  llm.NormalizeConfidence(cand.Confidence),
				ExtractedAt: now,
			}
		}
		outcomes = append(outcomes, out)
	}
	for id := range extraction {
		if !hasField(fields, id) {
			outcomes = append(outcomes, Outcome{FieldID: id, Status: StatusRejected, Reason: "unknown field"})
		}
	}
	return next, outcomes
}

func (e *Extractor) consider(ctx context.Context, st State, f callplan.FieldSpec, cand llm.FieldCandidate, text string) Outcome {
	value := strings.TrimSpace(cand.Value)
	evidence := strings.TrimSpace(cand.Evidence)
	out := Outcome{FieldID: f.ID, Value: value, Confidence: llm.NormalizeConfidence(cand.Confidence)}

	switch {
	case st.filled(f.ID):
		out.Status = StatusSkipped
		out.Reason = "already filled"
		return out
	case value == "":
		return rejected(out, verify.GuardNone, "empty value")
	case IsPlaceholder(value):
		return rejected(out, verify.GuardNone, "placeholder value")
	case verify.HasGreetingPrefix(evidence):
		return rejected(out, verify.GuardEvidence, "evidence starts with a greeting")
	case !valueInEvidence(value, evidence, e.cfg.ShortValueWords):
		return rejected(out, verify.GuardLexical, "value does not appear in evidence")
	}

	d := e.verifier.Verify(ctx, verify.Claim{
		Kind:       verify.ClaimField,
		Subject:    f.Label,
		Topic:      f.ID,
		Value:      value,
		Evidence:   evidence,
		Confidence: cand.Confidence,
		Context:    text,
	})
	if !d.Accepted {
		return rejected(out, d.Guard, d.Reason)
	}
	out.Status = StatusFilled
	return out
}

func rejected(out Outcome, g verify.Guard, reason string) Outcome {
	out.Status = StatusRejected
	out.Guard = g
	out.Reason = reason
	return out
}

// Fill records a value typed in by an observer. Filled fields stay as they are.
func Fill(st State, fields []callplan.FieldSpec, fieldID, value string, now time.Time) (State, error) {
	if !hasField(fields, fieldID) {
		return st, ErrUnknownField
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return st, ErrEmptyValue
	}
	if IsPlaceholder(value) {
		return st, ErrPlaceholder
	}
	if st.filled(fieldID) {
		return st, ErrFilled
	}
	next := st.Clone()
	next[fieldID] = FieldValue{Value: value, Confidence: 1, ExtractedAt: now}
	return next, nil
}

func hasField(fields []callplan.FieldSpec, id string) bool {
	for _, f := range fields {
		if f.ID == id {
			return true
		}
	}
	return false
}
