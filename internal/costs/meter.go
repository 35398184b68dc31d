package costs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/llm"
)

// Meter accumulates usage for one session. It is safe for concurrent use.
type Meter struct {
	audioMillis     atomic.Int64
	oracleCalls     atomic.Int64
	promptChars     atomic.Int64
	completionChars atomic.Int64
}

func (m *Meter) AddAudio(d time.Duration) {
	m.audioMillis.Add(d.Milliseconds())
}

func (m *Meter) AddOracleCall(promptChars, completionChars int) {
	m.oracleCalls.Add(1)
	m.promptChars.Add(int64(promptChars))
	m.completionChars.Add(int64(completionChars))
}

func (m *Meter) Usage() Usage {
	return Usage{
		AudioSeconds:     float64(m.audioMillis.Load()) / 1000,
		OracleCalls:      int(m.oracleCalls.Load()),
		PromptTokens:     EstimateTokens(int(m.promptChars.Load())),
		CompletionTokens: EstimateTokens(int(m.completionChars.Load())),
	}
}

// WrapClassifier counts every call made through next.
func (m *Meter) WrapClassifier(next llm.Classifier) llm.Classifier {
	return llm.ClassifierFunc(func(ctx context.Context, p llm.Prompt) (string, error) {
		out, err := next.Classify(ctx, p)
		m.AddOracleCall(len(p.Text), len(out))
		return out, err
	})
}
