package callplan

import (
	"fmt"
	"strings"
)

// ValidationError reports why a configuration update was refused.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a call structure before it is accepted.
func Validate(cs CallStructure) error {
	if len(cs) == 0 {
		return invalid("structure", "at least one stage is required")
	}
	stageIDs := make(map[string]bool, len(cs))
	itemIDs := make(map[string]string)
	for i, s := range cs {
		path := fmt.Sprintf("stages[%d]", i)
		if strings.TrimSpace(s.ID) == "" {
			return invalid(path+".id", "is required")
		}
		if stageIDs[s.ID] {
			return invalid(path+".id", "duplicate stage id %q", s.ID)
		}
		stageIDs[s.ID] = true
		if strings.TrimSpace(s.Name) == "" {
			return invalid(path+".name", "is required")
		}
		if s.StartOffsetSeconds < 0 {
			return invalid(path+".startOffsetSeconds", "must not be negative")
		}
		if s.DurationSeconds <= 0 {
			return invalid(path+".durationSeconds", "must be positive")
		}
		for j, it := range s.Items {
			ipath := fmt.Sprintf("%s.items[%d]", path, j)
			if strings.TrimSpace(it.ID) == "" {
				return invalid(ipath+".id", "is required")
			}
			if owner, ok := itemIDs[it.ID]; ok {
				return invalid(ipath+".id", "duplicate item id %q (already in stage %q)", it.ID, owner)
			}
			itemIDs[it.ID] = s.ID
			if it.Kind != KindAssertion && it.Kind != KindInquiry {
				return invalid(ipath+".type", "unknown kind %q", it.Kind)
			}
			if strings.TrimSpace(it.Content) == "" {
				return invalid(ipath+".content", "is required")
			}
		}
	}
	return nil
}

// ValidateFields checks a client card catalog.
func ValidateFields(fields []FieldSpec) error {
	if len(fields) == 0 {
		return invalid("fields", "at least one field is required")
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		path := fmt.Sprintf("fields[%d]", i)
		if strings.TrimSpace(f.ID) == "" {
			return invalid(path+".id", "is required")
		}
		if seen[f.ID] {
			return invalid(path+".id", "duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
		if strings.TrimSpace(f.Label) == "" {
			return invalid(path+".label", "is required")
		}
	}
	return nil
}
