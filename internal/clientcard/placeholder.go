package clientcard

import "strings"

var placeholders = map[string]bool{
	"tidak disebutkan": true, "not mentioned": true, "unknown": true, "tidak ada": true,
	"tidak jelas": true, "belum disebutkan": true, "tidak diketahui": true, "n/a": true,
	"na": true, "-": true, "none": true, "null": true, "?": true,
}

var placeholderPrefixes = []string{"tidak di", "not men", "belum di"}

// IsPlaceholder reports whether value is the model's way of saying it does not know.
func IsPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(strings.Trim(value, ".")))
	if placeholders[v] {
		return true
	}
	for _, p := range placeholderPrefixes {
		if strings.Contains(v, p) {
			return true
		}
	}
	return false
}

// valueInEvidence requires short values to share at least one word with the
// quote they were taken from. Longer values are paraphrases and skip the check.
func valueInEvidence(value, evidence string, maxWords int) bool {
	words := strings.Fields(strings.ToLower(value))
	if len(words) == 0 || len(words) > maxWords {
		return true
	}
	lower := strings.ToLower(evidence)
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?()\"'")
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
