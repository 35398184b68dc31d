package callplan

// FieldSpec is one entry of the client card catalog.
type FieldSpec struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Hint  string `json:"hint,omitempty"`
}

// CloneFields copies a catalog.
func CloneFields(fields []FieldSpec) []FieldSpec {
	return append([]FieldSpec(nil), fields...)
}

// DefaultFields is the card catalog used when none is configured.
func DefaultFields() []FieldSpec {
	return []FieldSpec{
		{ID: "child_name", Label: "Child name", Hint: "First name of the child taking the trial class"},
		{ID: "child_age", Label: "Child age / grade", Hint: "Age in years and school grade (e.g. 8 tahun, kelas 3 SD)"},
		{ID: "parent_name", Label: "Parent name", Hint: "How the parent is addressed (e.g. Mama Rina, Pak Budi)"},
		{ID: "child_interests", Label: "Child interests", Hint: "Games, hobbies and subjects the child likes"},
		{ID: "parent_goal", Label: "Parent goal", Hint: "What the parent wants the child to achieve"},
		{ID: "parent_concerns", Label: "Parent concerns", Hint: "Worries, difficulties or challenges the parent mentions"},
		{ID: "learning_experience", Label: "Learning experience", Hint: "Previous coding, design or course experience"},
		{ID: "lead_source", Label: "Lead source", Hint: "How the family heard about the school"},
	}
}
