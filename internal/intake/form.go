package intake

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

var (
	ErrUnknownStep  = errors.New("intake: unknown step")
	ErrUnknownField = errors.New("intake: field does not belong to step")
)

// StepIncompleteError lists the required fields that block a step.
type StepIncompleteError struct {
	Step    int
	Missing []string
}

func (e *StepIncompleteError) Error() string {
	return fmt.Sprintf("step %d incomplete: missing %s", e.Step, strings.Join(e.Missing, ", "))
}

// Form accumulates answers across the intake steps. It lives only in memory;
// nothing is saved until the whole form is submitted.
type Form struct {
	current int
	values  map[string]any
}

func NewForm() *Form {
	return &Form{current: 1, values: map[string]any{}}
}

// FromValues loads a submitted answer set. Every key must be a known field.
func FromValues(values map[string]any) (*Form, error) {
	f := NewForm()
	for name, v := range values {
		step := StepOf(name)
		if step == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		f.values[name] = v
	}
	return f, nil
}

func (f *Form) CurrentStep() int {
	return f.current
}

// Values returns a copy of the answers.
func (f *Form) Values() map[string]any {
	return maps.Clone(f.values)
}

func (f *Form) UpdateField(step int, name string, value any) error {
	s, ok := StepByNumber(step)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	if _, ok := s.field(name); !ok {
		return fmt.Errorf("%w: %s (step %d)", ErrUnknownField, name, step)
	}
	f.values[name] = value
	return nil
}

// ValidateStep is true when every required field of the step is filled
// and every required consent is given.
func (f *Form) ValidateStep(step int) bool {
	missing, err := f.MissingFields(step)
	return err == nil && len(missing) == 0
}

func (f *Form) MissingFields(step int) ([]string, error) {
	s, ok := StepByNumber(step)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	var missing []string
	for _, field := range s.Fields {
		if field.Required && !filled(field, f.values[field.Name]) {
			missing = append(missing, field.Name)
		}
	}
	return missing, nil
}

// Advance moves to the next step if the current one validates. On failure the form stays put.
func (f *Form) Advance() error {
	missing, err := f.MissingFields(f.current)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &StepIncompleteError{Step: f.current, Missing: missing}
	}
	if f.current < StepCount {
		f.current++
	}
	return nil
}

func (f *Form) Back() {
	if f.current > 1 {
		f.current--
	}
}

// ValidateAll checks every step and reports the first incomplete one.
func (f *Form) ValidateAll() error {
	for _, s := range Steps {
		missing, _ := f.MissingFields(s.Number)
		if len(missing) > 0 {
			return &StepIncompleteError{Step: s.Number, Missing: missing}
		}
	}
	return nil
}

// AllMissing maps step number to its missing required fields, for inline display.
func (f *Form) AllMissing() map[int][]string {
	out := map[int][]string{}
	for _, s := range Steps {
		if missing, _ := f.MissingFields(s.Number); len(missing) > 0 {
			sort.Strings(missing)
			out[s.Number] = missing
		}
	}
	return out
}

func filled(field Field, v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return field.Kind != KindConsent && strings.TrimSpace(x) != ""
	case bool:
		return x
	default:
		return field.Kind != KindConsent
	}
}
