// Package verify decides whether an oracle claim is trustworthy enough to
// become a durable fact. Each guard can only reject; a claim is accepted
// when it passes all of them.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
)

type ClaimKind string

const (
	ClaimChecklist ClaimKind = "checklist"
	ClaimField     ClaimKind = "client_card"
)

// Guard names the stage that produced a rejection.
type Guard string

const (
	GuardNone       Guard = ""
	GuardContext    Guard = "context"
	GuardConfidence Guard = "confidence"
	GuardEvidence   Guard = "evidence"
	GuardLexical    Guard = "lexical"
	GuardRelevance  Guard = "relevance"
)

// Claim is a first-pass oracle answer waiting for verification.
type Claim struct {
	Kind ClaimKind
	// Subject is the checklist action text or the card field label.
	Subject string
	// Topic adds words used only for picking lexical categories (ids, hints).
	Topic      string
	ItemKind   callplan.ItemKind
	Value      string
	Evidence   string
	Confidence float64
	Reasoning  string
	Context    string
}

type Decision struct {
	Accepted bool
	Guard    Guard
	Reason   string
}

func accept() Decision { return Decision{Accepted: true} }

func reject(g Guard, format string, args ...any) Decision {
	return Decision{Guard: g, Reason: fmt.Sprintf(format, args...)}
}

type Config struct {
	MinContextChars  int
	MinConfidence    float64
	MinEvidenceChars int
	MinEvidenceWords int
	Timeout          time.Duration
}

// DefaultChecklistConfig holds the thresholds for checklist claims.
func DefaultChecklistConfig() Config {
	return Config{MinContextChars: 20, MinConfidence: 0.8, MinEvidenceChars: 10, MinEvidenceWords: 3, Timeout: 20 * time.Second}
}

// DefaultCardConfig holds the thresholds for client card claims.
func DefaultCardConfig() Config {
	return Config{MinContextChars: 200, MinConfidence: 0.7, MinEvidenceChars: 10, MinEvidenceWords: 3, Timeout: 20 * time.Second}
}

type Pipeline struct {
	oracle llm.Classifier
	cfg    Config
}

func New(oracle llm.Classifier, cfg Config) *Pipeline {
	return &Pipeline{oracle: oracle, cfg: cfg}
}

func (p *Pipeline) Config() Config { return p.cfg }

// SufficientContext reports whether text is long enough to ask the oracle about.
// Callers check it before the first-pass query.
func (p *Pipeline) SufficientContext(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= p.cfg.MinContextChars
}

// Verify runs the guard chain. The secondary oracle is consulted only after
// every local guard passed.
func (p *Pipeline) Verify(ctx context.Context, c Claim) Decision {
	if !p.SufficientContext(c.Context) {
		return reject(GuardContext, "context has %d chars, need %d",
			utf8.RuneCountInString(strings.TrimSpace(c.Context)), p.cfg.MinContextChars)
	}
	if conf := llm.NormalizeConfidence(c.Confidence); conf < p.cfg.MinConfidence {
		return reject(GuardConfidence, "confidence %.2f below %.2f", conf, p.cfg.MinConfidence)
	}
	if d := p.checkEvidence(c); !d.Accepted {
		return d
	}
	if d := checkLexical(c); !d.Accepted {
		return d
	}
	return p.checkRelevance(ctx, c)
}

func (p *Pipeline) checkEvidence(c Claim) Decision {
	evidence := strings.TrimSpace(c.Evidence)
	if evidence == "" {
		return reject(GuardEvidence, "no evidence quoted")
	}
	if IsGeneric(evidence) {
		return reject(GuardEvidence, "generic phrase %q", evidence)
	}
	if n := utf8.RuneCountInString(evidence); n < p.cfg.MinEvidenceChars {
		return reject(GuardEvidence, "evidence has %d chars, need %d", n, p.cfg.MinEvidenceChars)
	}
	if n := len(strings.Fields(evidence)); n < p.cfg.MinEvidenceWords {
		return reject(GuardEvidence, "evidence has %d words, need %d", n, p.cfg.MinEvidenceWords)
	}
	if c.Kind == ClaimChecklist && IsSelfIntroduction(evidence) && !aboutIntroduction(c.Subject) {
		return reject(GuardEvidence, "self-introduction is not evidence for %q", c.Subject)
	}
	return accept()
}

func checkLexical(c Claim) Decision {
	for _, cat := range TriggeredCategories(c.Subject + " " + c.Topic) {
		if !cat.Satisfied(c.Evidence) {
			return reject(GuardLexical, "evidence has no %s vocabulary", cat.Name)
		}
	}
	return accept()
}

func (p *Pipeline) checkRelevance(ctx context.Context, c Claim) Decision {
	var prompt llm.Prompt
	if c.Kind == ClaimField {
		prompt = llm.FieldEvidencePrompt(c.Subject, c.Value, c.Evidence)
	} else {
		prompt = llm.EvidencePrompt(c.Subject, c.ItemKind, c.Evidence, c.Reasoning)
	}
	v, err := llm.Ask[llm.RelevanceVerdict](ctx, p.oracle, prompt, p.cfg.Timeout)
	if err != nil {
		return reject(GuardRelevance, "secondary check failed: %v", err)
	}
	if !v.IsValid {
		return reject(GuardRelevance, "secondary check: %s", v.Explanation)
	}
	return accept()
}
