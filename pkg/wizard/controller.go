package wizard

import (
	"fmt"
	"io"
	"log/slog"
)

// Option configures a Controller.
type Option func(*Controller)

// WithRenderer sets the callback invoked after every successful navigation.
func WithRenderer(fn RenderFunc) Option {
	return func(c *Controller) { c.render = fn }
}

// WithLogger sets the logger used for navigation tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller drives navigation over a fixed Definition. It holds no
// per-run state: every operation takes the State it acts on, so one
// Controller can serve any number of independent runs.
//
// Operations that succeed mutate the given State in place and return it.
type Controller struct {
	name   string
	steps  []StepSpec
	render RenderFunc
	log    *slog.Logger
}

// New validates def and returns a controller for it.
func New(def Definition, opts ...Option) (*Controller, error) {
	if err := def.Check(); err != nil {
		return nil, err
	}
	steps := make([]StepSpec, len(def.Steps))
	copy(steps, def.Steps)
	for i := range steps {
		if steps[i].Validate == nil {
			steps[i].Validate = AlwaysValid
		}
	}
	c := &Controller{
		name:  def.Name,
		steps: steps,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the wizard name from the definition.
func (c *Controller) Name() string { return c.name }

// Len returns the number of steps.
func (c *Controller) Len() int { return len(c.steps) }

// Steps returns a copy of the step list.
func (c *Controller) Steps() []StepSpec {
	out := make([]StepSpec, len(c.steps))
	copy(out, c.steps)
	return out
}

// Step returns the step at index i.
func (c *Controller) Step(i int) (StepSpec, error) {
	if i < 0 || i >= len(c.steps) {
		return StepSpec{}, &OutOfRangeError{Target: i, VisitedMax: len(c.steps) - 1, Steps: len(c.steps)}
	}
	return c.steps[i], nil
}

// IsLast reports whether s sits on the final step.
func (c *Controller) IsLast(s *State) bool {
	return s != nil && s.CurrentStepIndex == len(c.steps)-1
}

// CanJump reports whether GoToStep(s, target) would succeed.
func (c *Controller) CanJump(s *State, target int) bool {
	return s != nil && target >= 0 && target <= s.VisitedMaxIndex
}

// Open starts a fresh run at step 0 seeded with a shallow copy of initial.
func (c *Controller) Open(initial FormData) *State {
	s := &State{
		Wizard:   c.name,
		FormData: initial.Clone(),
	}
	c.log.Debug("wizard opened", "wizard", c.name, "steps", len(c.steps), "seeded_fields", len(s.FormData))
	c.emit(s)
	return s
}

// Reset discards any previous run; it is equivalent to Open(nil).
func (c *Controller) Reset() *State {
	return c.Open(nil)
}

// Resume re-attaches a previously saved State (e.g. a draft) after checking
// it against this definition, and renders its current step.
func (c *Controller) Resume(s *State) (*State, error) {
	if err := c.check("resume", s); err != nil {
		return nil, err
	}
	if s.FormData == nil {
		s.FormData = FormData{}
	}
	c.log.Debug("wizard resumed", "wizard", c.name, "step", s.CurrentStepIndex, "visited_max", s.VisitedMaxIndex)
	c.emit(s)
	return s, nil
}

// GoNext validates the current step and advances on success.
//
// On the last step it is a no-op that performs no validation; use Complete
// there. When validation fails the state is left untouched and the
// validator's result is returned for the caller to display.
func (c *Controller) GoNext(s *State) (*State, *ValidationResult, error) {
	if err := c.check("next", s); err != nil {
		return s, nil, err
	}
	if c.IsLast(s) {
		return s, nil, nil
	}
	step := c.steps[s.CurrentStepIndex]
	res := step.Validate(s.FormData.Clone())
	if !res.OK {
		c.log.Debug("step validation failed", "wizard", c.name, "step", step.Label, "errors", res.String())
		return s, &res, nil
	}
	s.CurrentStepIndex++
	if s.CurrentStepIndex > s.VisitedMaxIndex {
		s.VisitedMaxIndex = s.CurrentStepIndex
	}
	c.log.Debug("step advanced", "wizard", c.name, "step", s.CurrentStepIndex, "visited_max", s.VisitedMaxIndex)
	c.emit(s)
	return s, nil, nil
}

// GoBack moves one step back without validation. At step 0 the state is
// left unchanged and an OutOfRangeError with Target -1 is returned.
func (c *Controller) GoBack(s *State) (*State, error) {
	if err := c.check("back", s); err != nil {
		return s, err
	}
	if s.CurrentStepIndex == 0 {
		return s, &OutOfRangeError{Target: -1, VisitedMax: s.VisitedMaxIndex, Steps: len(c.steps)}
	}
	s.CurrentStepIndex--
	c.log.Debug("step back", "wizard", c.name, "step", s.CurrentStepIndex)
	c.emit(s)
	return s, nil
}

// GoToStep jumps directly to target, which must not exceed the furthest
// validated step. No validation runs.
func (c *Controller) GoToStep(s *State, target int) (*State, error) {
	if err := c.check("goto", s); err != nil {
		return s, err
	}
	if target < 0 || target > s.VisitedMaxIndex {
		return s, &OutOfRangeError{Target: target, VisitedMax: s.VisitedMaxIndex, Steps: len(c.steps)}
	}
	s.CurrentStepIndex = target
	c.log.Debug("step jump", "wizard", c.name, "step", target)
	c.emit(s)
	return s, nil
}

// UpdateField stores value under key. Validation is deferred to GoNext and
// Complete. A nil state is left alone and nil is returned.
func (c *Controller) UpdateField(s *State, key string, value any) *State {
	if s == nil {
		c.log.Debug("update on nil state ignored", "wizard", c.name, "field", key)
		return nil
	}
	if s.FormData == nil {
		s.FormData = FormData{}
	}
	s.FormData[key] = value
	return s
}

// Complete validates the final step and returns a copy of the accumulated
// form data. The caller persists it; the controller never does.
func (c *Controller) Complete(s *State) (FormData, *ValidationResult, error) {
	if err := c.check("complete", s); err != nil {
		return nil, nil, err
	}
	if !c.IsLast(s) {
		return nil, nil, &PreconditionError{
			Op:     "complete",
			Reason: fmt.Sprintf("current step %d is not the final step %d", s.CurrentStepIndex, len(c.steps)-1),
		}
	}
	step := c.steps[s.CurrentStepIndex]
	res := step.Validate(s.FormData.Clone())
	if !res.OK {
		c.log.Debug("final validation failed", "wizard", c.name, "step", step.Label, "errors", res.String())
		return nil, &res, nil
	}
	c.log.Debug("wizard completed", "wizard", c.name, "fields", len(s.FormData))
	return s.FormData.Clone(), nil, nil
}

// check verifies the invariants of s against this definition.
func (c *Controller) check(op string, s *State) error {
	if s == nil {
		return &PreconditionError{Op: op, Reason: "nil state"}
	}
	if s.Wizard != "" && c.name != "" && s.Wizard != c.name {
		return &PreconditionError{Op: op, Reason: fmt.Sprintf("state belongs to wizard %q, not %q", s.Wizard, c.name)}
	}
	n := len(c.steps)
	if s.CurrentStepIndex < 0 || s.CurrentStepIndex >= n {
		return &PreconditionError{Op: op, Reason: fmt.Sprintf("current step %d outside 0..%d", s.CurrentStepIndex, n-1)}
	}
	if s.VisitedMaxIndex < s.CurrentStepIndex || s.VisitedMaxIndex >= n {
		return &PreconditionError{Op: op, Reason: fmt.Sprintf("visited max %d inconsistent with step %d of %d", s.VisitedMaxIndex, s.CurrentStepIndex, n)}
	}
	return nil
}

func (c *Controller) emit(s *State) {
	if c.render != nil {
		c.render(s.CurrentStepIndex, s.FormData)
	}
	if r := c.steps[s.CurrentStepIndex].Render; r != nil {
		r(s.CurrentStepIndex, s.FormData)
	}
}
