package checklist

import (
	"context"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/verify"
)

type Status string

const (
	StatusCompleted   Status = "completed"
	StatusRejected    Status = "rejected"
	StatusNotDetected Status = "not_detected"
	StatusCoolingDown Status = "cooling_down"
	StatusOracleError Status = "oracle_error"
	StatusDuplicate   Status = "duplicate_evidence"
)

// Outcome describes what happened to one item during an evaluation pass.
type Outcome struct {
	ItemID      string
	Status      Status
	Guard       verify.Guard
	Reason      string
	Confidence  float64
	Evidence    string
	DuplicateOf string
	Cached      bool
}

type Config struct {
	Cooldown      time.Duration
	CacheTTL      time.Duration
	OracleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{Cooldown: 30 * time.Second, CacheTTL: 60 * time.Second, OracleTimeout: 20 * time.Second}
}

// Tracker evaluates checklist items against the transcript. A Tracker holds
// a verdict cache and belongs to one session worker.
type Tracker struct {
	oracle   llm.Classifier
	verifier *verify.Pipeline
	cfg      Config
	cache    *verdictCache
}

func NewTracker(oracle llm.Classifier, verifier *verify.Pipeline, cfg Config) *Tracker {
	return &Tracker{
		oracle:   oracle,
		verifier: verifier,
		cfg:      cfg,
		cache:    newVerdictCache(cfg.CacheTTL),
	}
}

// Evaluate checks every open item against text and returns the new state
// together with one outcome per item that was looked at. The input state is
// not modified.
func (t *Tracker) Evaluate(ctx context.Context, st State, structure callplan.CallStructure, text string, now time.Time) (State, []Outcome) {
	next := st.Clone()
	var outcomes []Outcome

	for _, item := range structure.Items() {
		if ctx.Err() != nil {
			break
		}
		cur := next[item.ID]
		if cur.Completed {
			continue
		}
		if !cur.LastCheckedAt.IsZero() && now.Sub(cur.LastCheckedAt) < t.cfg.Cooldown {
			outcomes = append(outcomes, Outcome{ItemID: item.ID, Status: StatusCoolingDown})
			continue
		}

		// stamp before asking so a slow or failed call still counts as an attempt
		cur.LastCheckedAt = now
		next[item.ID] = cur

		out := t.evaluateItem(ctx, next, item, text, now)
		if out.Status == StatusCompleted {
			cur.Completed = true
			cur.Evidence = out.Evidence
			cur.CompletedAt = now
			next[item.ID] = cur
		}
		outcomes = append(outcomes, out)
	}
	return next, outcomes
}

func (t *Tracker) evaluateItem(ctx context.Context, st State, item callplan.ChecklistItem, text string, now time.Time) Outcome {
	out := Outcome{ItemID: item.ID}

	if !t.verifier.SufficientContext(text) {
		out.Status = StatusRejected
		out.Guard = verify.GuardContext
		out.Reason = "not enough conversation yet"
		return out
	}

	key := cacheKey(item.ID, text)
	verdict, decision, cached := t.lookup(key, now)
	if !cached {
		v, err := llm.Ask[llm.ItemVerdict](ctx, t.oracle, llm.ChecklistPrompt(item, text), t.cfg.OracleTimeout)
		if err != nil {
			out.Status = StatusOracleError
			out.Reason = err.Error()
			return out
		}
		verdict = v
		if verdict.Completed {
			decision = t.verifier.Verify(ctx, verify.Claim{
				Kind:       verify.ClaimChecklist,
				Subject:    item.Content,
				Topic:      item.ID,
				ItemKind:   item.Kind,
				Evidence:   verdict.Evidence,
				Confidence: verdict.Confidence,
				Reasoning:  verdict.Reasoning,
				Context:    text,
			})
		}
		if !verdict.Completed || decision.Accepted || decision.Guard != verify.GuardRelevance {
			t.cache.put(key, cachedVerdict{verdict: verdict, decision: decision, at: now})
		}
	}

	out.Confidence = llm.NormalizeConfidence(verdict.Confidence)
	out.Evidence = verdict.Evidence
	out.Cached = cached

	if !verdict.Completed {
		out.Status = StatusNotDetected
		out.Reason = verdict.Reasoning
		return out
	}
	if !decision.Accepted {
		out.Status = StatusRejected
		out.Guard = decision.Guard
		out.Reason = decision.Reason
		return out
	}
	if owner, dup := st.EvidenceOwner(verdict.Evidence); dup && owner != item.ID {
		out.Status = StatusDuplicate
		out.DuplicateOf = owner
		out.Reason = "evidence already used by " + owner
		return out
	}
	out.Status = StatusCompleted
	return out
}

func (t *Tracker) lookup(key string, now time.Time) (llm.ItemVerdict, verify.Decision, bool) {
	v, ok := t.cache.get(key, now)
	if !ok {
		return llm.ItemVerdict{}, verify.Decision{}, false
	}
	return v.verdict, v.decision, true
}

// MarkCompleted records a manual completion from an observer. Completing an
// already completed item is a no-op.
func MarkCompleted(st State, structure callplan.CallStructure, itemID string, now time.Time) (State, error) {
	if _, ok := structure.Item(itemID); !ok {
		return st, ErrUnknownItem
	}
	if st[itemID].Completed {
		return st, nil
	}
	next := st.Clone()
	cur := next[itemID]
	cur.Completed = true
	cur.CompletedAt = now
	cur.Evidence = ""
	next[itemID] = cur
	return next, nil
}
