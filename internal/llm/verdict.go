package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ItemVerdict is the first-pass answer for a checklist item.
type ItemVerdict struct {
	Completed  bool    `json:"completed"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
	Reasoning  string  `json:"reasoning"`
}

// RelevanceVerdict is the answer of the secondary evidence check.
type RelevanceVerdict struct {
	IsValid     bool   `json:"is_valid"`
	Explanation string `json:"explanation"`
}

// StageVerdict is the answer of stage classification.
type StageVerdict struct {
	StageID    string  `json:"stage_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// FieldCandidate is one extracted client card value.
type FieldCandidate struct {
	Value      string  `json:"value"`
	Evidence   string  `json:"evidence"`
	Confidence float64 `json:"confidence"`
}

// UnmarshalJSON also accepts a bare string, which some models return instead
// of the object form. Such candidates carry no evidence and fail verification.
func (c *FieldCandidate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = FieldCandidate{Value: s}
		return nil
	}
	type plain FieldCandidate
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = FieldCandidate(p)
	return nil
}

// FieldExtraction maps field ids to candidates.
type FieldExtraction map[string]FieldCandidate

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty oracle response")

// Ask sends p with the given timeout and decodes the answer into T.
func Ask[T any](ctx context.Context, c Classifier, p Prompt, timeout time.Duration) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	raw, err := c.Classify(ctx, p)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", p.Task, err)
	}
	var out T
	if err := Decode(raw, &out); err != nil {
		return zero, fmt.Errorf("%s: %w", p.Task, err)
	}
	return out, nil
}

// Decode strips markdown fences around the JSON object and unmarshals it.
func Decode(raw string, v any) error {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyResponse
	}
	// tolerate prose around the object
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fmt.Errorf("failed to parse oracle response: %w (content: %s)", err, content)
	}
	return nil
}

// NormalizeConfidence maps percentages to [0,1] and clamps.
func NormalizeConfidence(c float64) float64 {
	if c > 1 && c <= 100 {
		c /= 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
