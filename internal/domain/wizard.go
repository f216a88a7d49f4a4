package domain

import (
	"maps"
	"slices"
	"strings"
)

// WizardStage is the phase of a registration wizard.
type WizardStage string

const (
	StageConfirming WizardStage = "confirming"
	StageCollecting WizardStage = "collecting"
	StageDone       WizardStage = "done"
)

// FieldSpec describes one field the wizard collects.
type FieldSpec struct {
	Name      string        `json:"name" yaml:"name"`
	Prompt    string        `json:"prompt" yaml:"prompt"`
	Validator ValidatorKind `json:"validator" yaml:"validator"`
	Optional  bool          `json:"optional,omitempty" yaml:"optional"`
	// WireName overrides Name in the submitted argument map.
	WireName string `json:"wire_name,omitempty" yaml:"wire_name"`
}

// Key returns the argument name used when submitting the field.
func (f FieldSpec) Key() string {
	if f.WireName != "" {
		return f.WireName
	}
	return f.Name
}

var skipTokens = []string{"pular", "nao", "não", "skip", "-", "sem curso", "sem"}

// IsSkipToken reports whether reply asks to skip the current field.
func IsSkipToken(reply string) bool {
	return slices.Contains(skipTokens, strings.ToLower(strings.TrimSpace(reply)))
}

// RegistrationWizard collects the fields of a new-student registration in a fixed order.
type RegistrationWizard struct {
	Stage     WizardStage       `json:"stage"`
	Fields    []FieldSpec       `json:"fields"`
	Cursor    int               `json:"cursor"`
	Collected map[string]string `json:"collected"`
}

// NewRegistrationWizard starts a wizard in the Confirming stage.
func NewRegistrationWizard(fields []FieldSpec) *RegistrationWizard {
	return &RegistrationWizard{
		Stage:     StageConfirming,
		Fields:    slices.Clone(fields),
		Collected: make(map[string]string, len(fields)),
	}
}

// Begin moves from Confirming to Collecting.
func (w *RegistrationWizard) Begin() {
	w.Stage = StageCollecting
	w.Cursor = 0
	w.advanceIfExhausted()
}

// Current returns the field awaiting an answer.
func (w *RegistrationWizard) Current() (FieldSpec, bool) {
	if w.Stage != StageCollecting || w.Cursor >= len(w.Fields) {
		return FieldSpec{}, false
	}
	return w.Fields[w.Cursor], true
}

// Submit validates reply against the current field. On success the value is
// stored and the cursor advances; on failure the cursor stays and a
// *FieldValidationError is returned.
func (w *RegistrationWizard) Submit(reply string) error {
	field, ok := w.Current()
	if !ok {
		return &FieldValidationError{Reason: "Nenhum campo aguardando resposta."}
	}

	if IsSkipToken(reply) {
		if !field.Optional {
			return &FieldValidationError{Field: field.Name, Reason: "Este campo é obrigatório e não pode ser pulado."}
		}
		w.Cursor++
		w.advanceIfExhausted()
		return nil
	}

	value, err := ValidateField(field.Validator, reply)
	if err != nil {
		err.Field = field.Name
		return err
	}
	w.Collected[field.Name] = value
	w.Cursor++
	w.advanceIfExhausted()
	return nil
}

func (w *RegistrationWizard) advanceIfExhausted() {
	if w.Cursor >= len(w.Fields) {
		w.Stage = StageDone
	}
}

// Done reports whether every field has been answered or skipped.
func (w *RegistrationWizard) Done() bool {
	return w.Stage == StageDone
}

// Progress returns the 1-based position of the current field and the total.
func (w *RegistrationWizard) Progress() (int, int) {
	return w.Cursor + 1, len(w.Fields)
}

// Arguments returns the collected values keyed by their wire names.
func (w *RegistrationWizard) Arguments() map[string]any {
	args := make(map[string]any, len(w.Collected))
	for _, f := range w.Fields {
		if v, ok := w.Collected[f.Name]; ok {
			args[f.Key()] = v
		}
	}
	return args
}

// Clone returns a deep copy.
func (w *RegistrationWizard) Clone() *RegistrationWizard {
	if w == nil {
		return nil
	}
	c := *w
	c.Fields = slices.Clone(w.Fields)
	c.Collected = maps.Clone(w.Collected)
	return &c
}
