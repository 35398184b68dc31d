package llm

import "context"

// Task names what a prompt asks the oracle to decide. Providers ignore it;
// metering, metrics and test fakes key on it.
type Task string

const (
	TaskChecklistItem   Task = "checklist_item"
	TaskEvidenceCheck   Task = "evidence_check"
	TaskClientCard      Task = "client_card"
	TaskClientCardCheck Task = "client_card_check"
	TaskStageDetection  Task = "stage_detection"
)

// Prompt is a single JSON-answering request.
type Prompt struct {
	Task        Task
	Text        string
	Temperature float32
	MaxTokens   int
}

// Classifier is the semantic oracle. Implementations return the raw model
// text, which is expected to hold a JSON object.
type Classifier interface {
	Classify(ctx context.Context, p Prompt) (string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, p Prompt) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}
