package callplan

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Registry holds the active configuration. Sessions copy it when they start,
// so replacing it never affects a running session.
type Registry struct {
	mu        sync.RWMutex
	structure CallStructure
	fields    []FieldSpec
}

// NewRegistry starts from the built-in defaults.
func NewRegistry() *Registry {
	return &Registry{
		structure: DefaultStructure(),
		fields:    DefaultFields(),
	}
}

func (r *Registry) Structure() CallStructure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.structure.Clone()
}

func (r *Registry) Fields() []FieldSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return CloneFields(r.fields)
}

// ReplaceStructure validates cs and swaps it in. On error the previous
// structure stays active.
func (r *Registry) ReplaceStructure(cs CallStructure) error {
	if err := Validate(cs); err != nil {
		return err
	}
	r.mu.Lock()
	r.structure = cs.Clone()
	r.mu.Unlock()
	return nil
}

// ReplaceFields validates fields and swaps them in.
func (r *Registry) ReplaceFields(fields []FieldSpec) error {
	if err := ValidateFields(fields); err != nil {
		return err
	}
	r.mu.Lock()
	r.fields = CloneFields(fields)
	r.mu.Unlock()
	return nil
}

// LoadStructureFile replaces the structure from a JSON file.
func (r *Registry) LoadStructureFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read call structure: %w", err)
	}
	cs, err := ParseStructure(raw)
	if err != nil {
		return err
	}
	return r.ReplaceStructure(cs)
}

// LoadFieldsFile replaces the card catalog from a JSON file.
func (r *Registry) LoadFieldsFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read client card fields: %w", err)
	}
	fields, err := ParseFields(raw)
	if err != nil {
		return err
	}
	return r.ReplaceFields(fields)
}

// ParseStructure decodes either a bare stage array or {"structure": [...]}.
func ParseStructure(raw []byte) (CallStructure, error) {
	var wrapped struct {
		Structure CallStructure `json:"structure"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Structure != nil {
		return wrapped.Structure, nil
	}
	var cs CallStructure
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("parse call structure: %w", err)
	}
	return cs, nil
}

// ParseFields decodes either a bare field array or {"fields": [...]}.
func ParseFields(raw []byte) ([]FieldSpec, error) {
	var wrapped struct {
		Fields []FieldSpec `json:"fields"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Fields != nil {
		return wrapped.Fields, nil
	}
	var fields []FieldSpec
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse client card fields: %w", err)
	}
	return fields, nil
}
