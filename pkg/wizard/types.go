package wizard

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// FormData maps field keys to the values collected so far.
type FormData map[string]any

// Clone returns a shallow copy. A nil FormData clones to an empty map.
func (f FormData) Clone() FormData {
	out := make(FormData, len(f))
	maps.Copy(out, f)
	return out
}

// Keys returns the field keys in sorted order.
func (f FormData) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidationResult is the outcome of checking one step's data.
type ValidationResult struct {
	OK          bool              `json:"ok" yaml:"ok"`
	FieldErrors map[string]string `json:"field_errors,omitempty" yaml:"field_errors,omitempty"`
}

// Valid returns a passing result.
func Valid() ValidationResult {
	return ValidationResult{OK: true}
}

// Invalid returns a failing result carrying fieldErrors.
func Invalid(fieldErrors map[string]string) ValidationResult {
	return ValidationResult{OK: false, FieldErrors: fieldErrors}
}

// String renders the field errors as "field: message" pairs sorted by field.
func (r ValidationResult) String() string {
	if r.OK {
		return "ok"
	}
	if len(r.FieldErrors) == 0 {
		return "invalid"
	}
	fields := make([]string, 0, len(r.FieldErrors))
	for k := range r.FieldErrors {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, r.FieldErrors[f]))
	}
	return strings.Join(parts, "; ")
}

// Validator checks the form data before the wizard leaves a step forward.
type Validator func(data FormData) ValidationResult

// AlwaysValid is the validator used for steps without constraints.
func AlwaysValid(FormData) ValidationResult {
	return Valid()
}

// RenderFunc draws a step. It is called after every successful navigation.
type RenderFunc func(stepIndex int, data FormData)

// StepSpec describes one step of a wizard.
type StepSpec struct {
	Label string
	// Fields lists the form keys this step owns. Renderers use it to decide
	// what to prompt for; the controller does not enforce it.
	Fields   []string
	Validate Validator
	// Render is an optional step-specific renderer, called after the
	// controller-wide renderer.
	Render RenderFunc
}

// Definition is an ordered, non-empty list of steps.
type Definition struct {
	Name  string
	Steps []StepSpec
}

// Check reports whether the definition can back a Controller.
func (d Definition) Check() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("wizard %q: at least one step is required", d.Name)
	}
	seen := make(map[string]int, len(d.Steps))
	for i, s := range d.Steps {
		label := strings.TrimSpace(s.Label)
		if label == "" {
			return fmt.Errorf("wizard %q: step %d has an empty label", d.Name, i+1)
		}
		if prev, dup := seen[label]; dup {
			return fmt.Errorf("wizard %q: duplicate step label %q (steps %d and %d)", d.Name, label, prev+1, i+1)
		}
		seen[label] = i
	}
	return nil
}

// Labels returns the step labels in order.
func (d Definition) Labels() []string {
	out := make([]string, len(d.Steps))
	for i, s := range d.Steps {
		out[i] = s.Label
	}
	return out
}

// State is the mutable progress of one wizard run.
type State struct {
	Wizard           string   `json:"wizard" yaml:"wizard"`
	CurrentStepIndex int      `json:"current_step" yaml:"current_step"`
	VisitedMaxIndex  int      `json:"visited_max" yaml:"visited_max"`
	FormData         FormData `json:"form_data" yaml:"form_data"`
}

// Clone returns a copy of s whose FormData can be modified independently.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.FormData = s.FormData.Clone()
	return &out
}

// IsEmpty reports whether no field has been collected yet.
func (s *State) IsEmpty() bool {
	return s == nil || len(s.FormData) == 0
}
