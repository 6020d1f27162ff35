package wizard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeStep is the wizard used by the end-to-end scenarios: step 0 requires
// a non-empty name, the others accept anything.
func threeStep() Definition {
	return Definition{
		Name: "site",
		Steps: []StepSpec{
			{Label: "Basics", Fields: []string{"name"}, Validate: Rules(Required("name"))},
			{Label: "Location", Fields: []string{"lat", "lng"}},
			{Label: "Summary"},
		},
	}
}

type renderCall struct {
	step   int
	fields int
}

func newController(t *testing.T, def Definition) (*Controller, *[]renderCall) {
	t.Helper()
	var calls []renderCall
	c, err := New(def, WithRenderer(func(i int, data FormData) {
		calls = append(calls, renderCall{step: i, fields: len(data)})
	}))
	require.NoError(t, err)
	return c, &calls
}

func TestNew_rejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"no steps", Definition{Name: "empty"}},
		{"blank label", Definition{Steps: []StepSpec{{Label: "  "}}}},
		{"duplicate label", Definition{Steps: []StepSpec{{Label: "A"}, {Label: "A"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def)
			assert.Error(t, err)
		})
	}
}

func TestNew_copiesSteps(t *testing.T) {
	def := threeStep()
	c, err := New(def)
	require.NoError(t, err)

	def.Steps[0].Label = "Changed"
	step, err := c.Step(0)
	require.NoError(t, err)
	assert.Equal(t, "Basics", step.Label)
}

func TestOpen_startsAtStepZero(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d steps", n), func(t *testing.T) {
			def := Definition{Name: "w"}
			for i := 0; i < n; i++ {
				def.Steps = append(def.Steps, StepSpec{Label: fmt.Sprintf("S%d", i)})
			}
			c, calls := newController(t, def)
			s := c.Open(FormData{"seed": 1})

			assert.Equal(t, 0, s.CurrentStepIndex)
			assert.Equal(t, 0, s.VisitedMaxIndex)
			assert.Equal(t, "w", s.Wizard)
			assert.Equal(t, 1, s.FormData["seed"])
			assert.Equal(t, []renderCall{{step: 0, fields: 1}}, *calls)
		})
	}
}

func TestOpen_copiesInitialData(t *testing.T) {
	c, _ := newController(t, threeStep())
	initial := FormData{"name": "a"}
	s := c.Open(initial)
	c.UpdateField(s, "name", "b")
	assert.Equal(t, "a", initial["name"])
}

func TestGoNext_invalidLeavesStateUnchanged(t *testing.T) {
	c, calls := newController(t, threeStep())
	s := c.Open(nil)
	c.UpdateField(s, "name", "")
	c.UpdateField(s, "other", 42)
	before := s.Clone()

	got, res, err := c.GoNext(s)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.OK)
	assert.Equal(t, map[string]string{"name": "required"}, res.FieldErrors)
	assert.Equal(t, before, got)
	assert.Len(t, *calls, 1, "failed validation must not render")
}

func TestGoNext_returnsValidatorResultVerbatim(t *testing.T) {
	want := Invalid(map[string]string{"a": "bad a", "b": "bad b"})
	c, _ := newController(t, Definition{Steps: []StepSpec{
		{Label: "One", Validate: func(FormData) ValidationResult { return want }},
		{Label: "Two"},
	}})
	s := c.Open(nil)
	_, res, err := c.GoNext(s)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, want, *res)
}

func TestGoNext_validatesCurrentStepOnly(t *testing.T) {
	var validated []string
	track := func(label string) Validator {
		return func(FormData) ValidationResult {
			validated = append(validated, label)
			return Valid()
		}
	}
	c, _ := newController(t, Definition{Steps: []StepSpec{
		{Label: "A", Validate: track("A")},
		{Label: "B", Validate: track("B")},
		{Label: "C", Validate: track("C")},
	}})
	s := c.Open(nil)
	_, _, _ = c.GoNext(s)
	_, _, _ = c.GoNext(s)
	assert.Equal(t, []string{"A", "B"}, validated)
}

func TestGoNext_validatorCannotMutateState(t *testing.T) {
	c, _ := newController(t, Definition{Steps: []StepSpec{
		{Label: "A", Validate: func(d FormData) ValidationResult {
			d["injected"] = true
			return Valid()
		}},
		{Label: "B"},
	}})
	s := c.Open(nil)
	_, _, err := c.GoNext(s)
	require.NoError(t, err)
	assert.NotContains(t, s.FormData, "injected")
}

func TestGoNext_advancesByOne(t *testing.T) {
	c, calls := newController(t, threeStep())
	s := c.Open(FormData{"name": "Site-1"})

	_, res, err := c.GoNext(s)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 1, s.CurrentStepIndex)
	assert.Equal(t, 1, s.VisitedMaxIndex)

	_, _, err = c.GoNext(s)
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStepIndex)
	assert.Equal(t, 2, s.VisitedMaxIndex)
	assert.Equal(t, []int{0, 1, 2}, renderedSteps(*calls))
}

func TestGoNext_neverLowersVisitedMax(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(FormData{"name": "x"})
	_, _, _ = c.GoNext(s)
	_, _, _ = c.GoNext(s)
	_, err := c.GoToStep(s, 0)
	require.NoError(t, err)

	_, _, err = c.GoNext(s)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStepIndex)
	assert.Equal(t, 2, s.VisitedMaxIndex)
}

func TestGoNext_lastStepIsNoOp(t *testing.T) {
	called := false
	c, calls := newController(t, Definition{Steps: []StepSpec{
		{Label: "Only", Validate: func(FormData) ValidationResult {
			called = true
			return Invalid(map[string]string{"x": "nope"})
		}},
	}})
	s := c.Open(nil)
	got, res, err := c.GoNext(s)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Same(t, s, got)
	assert.Equal(t, 0, s.CurrentStepIndex)
	assert.False(t, called, "no validation on the last step")
	assert.Len(t, *calls, 1)
}

func TestGoBack(t *testing.T) {
	c, calls := newController(t, threeStep())
	s := c.Open(FormData{"name": "x"})
	_, _, _ = c.GoNext(s)

	_, err := c.GoBack(s)
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentStepIndex)
	assert.Equal(t, 1, s.VisitedMaxIndex)
	assert.Equal(t, []int{0, 1, 0}, renderedSteps(*calls))
}

func TestGoBack_skipsValidation(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(FormData{"name": "x"})
	_, _, _ = c.GoNext(s)
	c.UpdateField(s, "name", "")

	_, err := c.GoBack(s)
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentStepIndex)
}

func TestGoBack_atFirstStep(t *testing.T) {
	c, calls := newController(t, threeStep())
	s := c.Open(nil)

	got, err := c.GoBack(s)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, err, ErrPrecondition)
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, -1, oor.Target)
	assert.Same(t, s, got)
	assert.Equal(t, 0, s.CurrentStepIndex)
	assert.Len(t, *calls, 1)
}

func TestUpdateField_nilState(t *testing.T) {
	c, calls := newController(t, threeStep())
	assert.NotPanics(t, func() {
		assert.Nil(t, c.UpdateField(nil, "name", "x"))
	})
	assert.Empty(t, *calls)
}

func TestBackThenNext_roundTrip(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(FormData{"name": "Site-1", "lat": 1.5})
	_, _, _ = c.GoNext(s)
	_, _, _ = c.GoNext(s)
	before := s.Clone()

	_, err := c.GoBack(s)
	require.NoError(t, err)
	_, res, err := c.GoNext(s)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, before, s)
}

func TestGoToStep(t *testing.T) {
	c, _ := newController(t, Definition{Steps: []StepSpec{
		{Label: "A"}, {Label: "B"}, {Label: "C"}, {Label: "D"}, {Label: "E"},
	}})
	s := c.Open(nil)
	_, _, _ = c.GoNext(s)
	_, _, _ = c.GoNext(s)
	require.Equal(t, 2, s.VisitedMaxIndex)

	for j := -2; j < c.Len()+1; j++ {
		t.Run(fmt.Sprintf("target %d", j), func(t *testing.T) {
			st := s.Clone()
			_, err := c.GoToStep(st, j)
			if j < 0 || j > st.VisitedMaxIndex {
				assert.ErrorIs(t, err, ErrOutOfRange)
				var oor *OutOfRangeError
				require.True(t, errors.As(err, &oor))
				assert.Equal(t, j, oor.Target)
				assert.Equal(t, 2, st.CurrentStepIndex, "failed jump keeps position")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, j, st.CurrentStepIndex)
			assert.Equal(t, 2, st.VisitedMaxIndex)
			assert.True(t, c.CanJump(st, j))
		})
	}
}

func TestUpdateField_disjointKeysCommute(t *testing.T) {
	c, _ := newController(t, threeStep())
	updates := []struct {
		key string
		val any
	}{
		{"name", "Site-1"}, {"lat", 39.9}, {"lng", 32.85}, {"has_bess", true},
	}

	a := c.Open(nil)
	for _, u := range updates {
		c.UpdateField(a, u.key, u.val)
	}
	b := c.Open(nil)
	for i := len(updates) - 1; i >= 0; i-- {
		c.UpdateField(b, updates[i].key, updates[i].val)
	}
	assert.Equal(t, a.FormData, b.FormData)
}

func TestUpdateField_overwritesWithoutValidation(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(FormData{"name": "a"})
	c.UpdateField(s, "name", "")
	assert.Equal(t, "", s.FormData["name"])
	assert.Equal(t, 0, s.CurrentStepIndex)
}

func TestComplete_beforeFinalStep(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(FormData{"name": "x"})
	for i := 0; i < c.Len()-1; i++ {
		data, res, err := c.Complete(s)
		assert.ErrorIs(t, err, ErrPrecondition, "step %d", i)
		assert.Nil(t, data)
		assert.Nil(t, res)
		_, _, _ = c.GoNext(s)
	}
}

func TestComplete_invalidFinalStep(t *testing.T) {
	c, _ := newController(t, Definition{Steps: []StepSpec{
		{Label: "A"},
		{Label: "Review", Validate: Rules(Required("confirm"))},
	}})
	s := c.Open(nil)
	_, _, _ = c.GoNext(s)

	data, res, err := c.Complete(s)
	require.NoError(t, err)
	assert.Nil(t, data)
	require.NotNil(t, res)
	assert.Equal(t, "required", res.FieldErrors["confirm"])
	assert.Equal(t, 1, s.CurrentStepIndex)
}

func TestComplete_returnsCopy(t *testing.T) {
	c, _ := newController(t, Definition{Steps: []StepSpec{{Label: "Only"}}})
	s := c.Open(FormData{"k": "v"})
	data, res, err := c.Complete(s)
	require.NoError(t, err)
	require.Nil(t, res)
	data["k"] = "changed"
	assert.Equal(t, "v", s.FormData["k"])
}

func TestReset(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(FormData{"name": "x"})
	_, _, _ = c.GoNext(s)

	fresh := c.Reset()
	assert.Equal(t, 0, fresh.CurrentStepIndex)
	assert.Equal(t, 0, fresh.VisitedMaxIndex)
	assert.Empty(t, fresh.FormData)
}

func TestResume(t *testing.T) {
	c, calls := newController(t, threeStep())

	s, err := c.Resume(&State{Wizard: "site", CurrentStepIndex: 1, VisitedMaxIndex: 2})
	require.NoError(t, err)
	assert.NotNil(t, s.FormData)
	assert.Equal(t, []int{1}, renderedSteps(*calls))

	bad := []*State{
		nil,
		{Wizard: "device"},
		{CurrentStepIndex: 3, VisitedMaxIndex: 3},
		{CurrentStepIndex: 2, VisitedMaxIndex: 1},
		{CurrentStepIndex: -1},
	}
	for i, st := range bad {
		_, err := c.Resume(st)
		assert.ErrorIs(t, err, ErrPrecondition, "case %d", i)
	}
}

func TestStepRenderer(t *testing.T) {
	var order []string
	c, err := New(Definition{Steps: []StepSpec{
		{Label: "A", Render: func(int, FormData) { order = append(order, "step") }},
	}}, WithRenderer(func(int, FormData) { order = append(order, "global") }))
	require.NoError(t, err)
	c.Open(nil)
	assert.Equal(t, []string{"global", "step"}, order)
}

func TestScenarioA_requiredNameBlocksProgress(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(nil)
	c.UpdateField(s, "name", "")

	_, res, err := c.GoNext(s)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, ValidationResult{OK: false, FieldErrors: map[string]string{"name": "required"}}, *res)
	assert.Equal(t, 0, s.CurrentStepIndex)
}

func TestScenarioB_navigationBounds(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(nil)
	c.UpdateField(s, "name", "Site-1")

	_, res, err := c.GoNext(s)
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 1, s.CurrentStepIndex)
	assert.Equal(t, 1, s.VisitedMaxIndex)

	_, err = c.GoBack(s)
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentStepIndex)

	_, err = c.GoToStep(s, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStepIndex)

	_, err = c.GoToStep(s, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 1, s.CurrentStepIndex)
}

func TestScenarioC_completeReturnsAllFields(t *testing.T) {
	c, _ := newController(t, threeStep())
	s := c.Open(nil)

	c.UpdateField(s, "name", "Site-1")
	_, res, err := c.GoNext(s)
	require.NoError(t, err)
	require.Nil(t, res)

	c.UpdateField(s, "lat", 39.9)
	c.UpdateField(s, "lng", 32.85)
	_, res, err = c.GoNext(s)
	require.NoError(t, err)
	require.Nil(t, res)

	c.UpdateField(s, "notes", "ok")
	require.Equal(t, 2, s.CurrentStepIndex)
	data, res, err := c.Complete(s)
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, FormData{"name": "Site-1", "lat": 39.9, "lng": 32.85, "notes": "ok"}, data)
}

func renderedSteps(calls []renderCall) []int {
	out := make([]int, len(calls))
	for i, c := range calls {
		out[i] = c.step
	}
	return out
}
