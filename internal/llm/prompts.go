package llm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
)

// SystemPromptAnalyst frames every oracle request.
const SystemPromptAnalyst = `You are a strict quality analyst for sales and tutoring calls held in Indonesian or English.
You only judge what is literally present in the transcript. You answer with a single JSON object and nothing else.
When unsure, answer conservatively: false, low confidence, empty values.`

// ChecklistPrompt asks whether a checklist item was fulfilled in the conversation.
func ChecklistPrompt(item callplan.ChecklistItem, conversation string) Prompt {
	var rule string
	switch item.Kind {
	case callplan.KindInquiry:
		rule = `This is an INQUIRY item. It counts only if the topic was actually discussed: the rep asked AND the client answered with concrete information.
A question without an answer does not count.`
	default:
		rule = `This is an ASSERTION item. It counts only if the rep clearly said or explained it.
Mentioning that it will happen later ("nanti", "sebentar lagi") does not count.`
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ACTION: %s\n", item.Content)
	if item.Guidance != "" {
		fmt.Fprintf(&b, "WHAT TO LOOK FOR: %s\n", item.Guidance)
	}
	if len(item.Keywords.Required) > 0 {
		fmt.Fprintf(&b, "TYPICAL WORDS: %s\n", strings.Join(item.Keywords.Required, ", "))
	}
	if len(item.Keywords.Forbidden) > 0 {
		fmt.Fprintf(&b, "WORDS THAT SUGGEST IT DID NOT HAPPEN YET: %s\n", strings.Join(item.Keywords.Forbidden, ", "))
	}
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString(`

Greetings, fillers and acknowledgments ("oke", "baik", "ya", "halo", "terima kasih") are never evidence.
The evidence must be an exact quote from the conversation of at least a few words.

CONVERSATION:
`)
	b.WriteString(conversation)
	b.WriteString(`

Answer with JSON:
{"completed": true|false, "confidence": 0.0-1.0, "evidence": "exact quote or empty", "reasoning": "one sentence"}`)

	return Prompt{Task: TaskChecklistItem, Text: b.String(), Temperature: 0.2, MaxTokens: 200}
}

// EvidencePrompt is the secondary check for a checklist claim. It shows only
// the action and the quoted evidence, never the whole conversation.
func EvidencePrompt(action string, kind callplan.ItemKind, evidence, reasoning string) Prompt {
	text := fmt.Sprintf(`Another analyst claims the following action was completed in a call.

ACTION: %s
KIND: %s
QUOTED EVIDENCE: "%s"
THEIR REASONING: %s

Does the quoted evidence by itself clearly show that this specific action happened?
Reject greetings, small talk, self-introductions and quotes about a different topic.

Answer with JSON:
{"is_valid": true|false, "explanation": "one sentence"}`, action, kind, evidence, reasoning)
	return Prompt{Task: TaskEvidenceCheck, Text: text, Temperature: 0.05, MaxTokens: 150}
}

// FieldExtractionPrompt asks for values of the still empty client card fields.
func FieldExtractionPrompt(fields []callplan.FieldSpec, known map[string]string, conversation string) Prompt {
	var b strings.Builder
	b.WriteString("Extract facts about the client from the conversation.\n\nFIELDS TO FILL:\n")
	for _, f := range fields {
		if f.Hint != "" {
			fmt.Fprintf(&b, "- %s (%s): %s\n", f.ID, f.Label, f.Hint)
		} else {
			fmt.Fprintf(&b, "- %s (%s)\n", f.ID, f.Label)
		}
	}
	if len(known) > 0 {
		b.WriteString("\nALREADY KNOWN (do not repeat):\n")
		ids := make([]string, 0, len(known))
		for id := range known {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "- %s: %s\n", id, known[id])
		}
	}
	b.WriteString(`
RULES:
- Only include a field when the client explicitly stated it. Never guess.
- Never write placeholders such as "unknown", "tidak disebutkan" or "-". Leave the field out instead.
- "evidence" is an exact quote containing the value.
- If nothing new was said, answer {}.

CONVERSATION:
`)
	b.WriteString(conversation)
	b.WriteString(`

Answer with JSON:
{"field_id": {"value": "...", "evidence": "exact quote", "confidence": 0.0-1.0}}`)
	return Prompt{Task: TaskClientCard, Text: b.String(), Temperature: 0.3, MaxTokens: 800}
}

// FieldEvidencePrompt is the secondary check for an extracted card value.
func FieldEvidencePrompt(label, value, evidence string) Prompt {
	text := fmt.Sprintf(`Another analyst extracted a fact about a client from a call.

FIELD: %s
VALUE: %s
QUOTED EVIDENCE: "%s"

Does the quote explicitly state this value for this field? Reject inferred, generic or unrelated quotes.

Answer with JSON:
{"is_valid": true|false, "explanation": "one sentence"}`, label, value, evidence)
	return Prompt{Task: TaskClientCardCheck, Text: text, Temperature: 0.05, MaxTokens: 150}
}

// StagePrompt asks which stage the conversation is currently in.
func StagePrompt(structure callplan.CallStructure, conversation string, elapsed time.Duration) Prompt {
	var b strings.Builder
	b.WriteString("Decide which stage of the call script the conversation is in right now.\n\nSTAGES:\n")
	for _, s := range structure {
		fmt.Fprintf(&b, "- %s: %s (recommended minute %d-%d)\n", s.ID, s.Name,
			s.StartOffsetSeconds/60, (s.StartOffsetSeconds+s.DurationSeconds)/60)
		shown := s.Items
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, it := range shown {
			fmt.Fprintf(&b, "    * %s\n", it.Content)
		}
		if extra := len(s.Items) - len(shown); extra > 0 {
			fmt.Fprintf(&b, "    * ...and %d more\n", extra)
		}
	}
	fmt.Fprintf(&b, "\nELAPSED: %d min %d s\n", int(elapsed.Minutes()), int(elapsed.Seconds())%60)
	b.WriteString(`
Judge by what is being talked about at the END of the conversation, not by the clock.

CONVERSATION (most recent part):
`)
	b.WriteString(conversation)
	b.WriteString(`

Answer with JSON:
{"stage_id": "one of the ids above", "confidence": 0.0-1.0, "reasoning": "one sentence"}`)
	return Prompt{Task: TaskStageDetection, Text: b.String(), Temperature: 0.2, MaxTokens: 200}
}
