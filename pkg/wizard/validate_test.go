package wizard

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules(t *testing.T) {
	v := Rules(
		Required("name"),
		Email("email"),
		Phone("phone"),
		FloatRange("lat", -90, 90),
		IntRange("count", 1, 100),
		OneOf("kind", "PV", "BESS"),
	)

	tests := []struct {
		name string
		data FormData
		want map[string]string
	}{
		{
			name: "all valid",
			data: FormData{"name": "Site", "email": "ops@example.com", "phone": "+90 555 1234", "lat": "39.9", "count": 3, "kind": "PV"},
		},
		{
			name: "optional fields empty",
			data: FormData{"name": "Site", "lat": 0.0, "count": "1", "kind": "BESS"},
		},
		{
			name: "everything wrong",
			data: FormData{"name": "  ", "email": "nope", "phone": "abc", "lat": 91.0, "count": 0, "kind": "wind"},
			want: map[string]string{
				"name":  "required",
				"email": "invalid email address",
				"phone": "invalid phone number",
				"lat":   "must be between -90 and 90",
				"count": "must be between 1 and 100",
				"kind":  "must be one of: PV, BESS",
			},
		},
		{
			name: "non numeric",
			data: FormData{"name": "x", "lat": "north", "count": 2.5, "kind": "PV"},
			want: map[string]string{
				"lat":   "must be a number",
				"count": "must be a whole number",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v(tt.data)
			if tt.want == nil {
				assert.True(t, res.OK, res.String())
				assert.Empty(t, res.FieldErrors)
				return
			}
			assert.False(t, res.OK)
			assert.Equal(t, tt.want, res.FieldErrors)
		})
	}
}

func TestRules_firstErrorPerFieldWins(t *testing.T) {
	v := Rules(Required("code"), MatchRegexp("code", regexp.MustCompile(`^[A-Z]+$`), "uppercase only"))
	res := v(FormData{})
	assert.Equal(t, "required", res.FieldErrors["code"])

	res = v(FormData{"code": "abc"})
	assert.Equal(t, "uppercase only", res.FieldErrors["code"])
}

func TestWhenAndOptional(t *testing.T) {
	v := Rules(
		When(func(d FormData) bool { return Bool(d, "has_bess") },
			FloatRange("bess_kwh", 0.1, 1e6),
		),
		Optional("port", IntRange("port", 1, 65535)),
	)

	assert.True(t, v(FormData{"has_bess": "no"}).OK)
	assert.False(t, v(FormData{"has_bess": "yes"}).OK)
	assert.True(t, v(FormData{"has_bess": true, "bess_kwh": 500}).OK)
	assert.False(t, v(FormData{"port": "70000"}).OK)
}

func TestCombine(t *testing.T) {
	a := Rules(Required("a"))
	b := Rules(Required("b"), Check("a", func(FormData) string { return "second" }))
	res := Combine(a, nil, b)(FormData{})
	assert.False(t, res.OK)
	assert.Equal(t, map[string]string{"a": "required", "b": "required"}, res.FieldErrors)

	assert.True(t, Combine(AlwaysValid)(nil).OK)
}

func TestCoercion(t *testing.T) {
	d := FormData{
		"s":     "  text ",
		"n":     nil,
		"f":     "1.5",
		"i":     float64(7),
		"bad":   "NaN",
		"list":  []any{"a", " b ", ""},
		"csv":   "x, y,,z",
		"flag":  "Yes",
		"num":   42,
		"slice": []string{"p", "q"},
	}
	assert.Equal(t, "text", String(d, "s"))
	assert.Equal(t, "", String(d, "n"))
	assert.Equal(t, "", String(d, "missing"))
	assert.Equal(t, "42", String(d, "num"))
	assert.Equal(t, "p,q", String(d, "slice"))

	f, ok := Float(d, "f")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)
	_, ok = Float(d, "bad")
	assert.False(t, ok)

	i, ok := Int(d, "i")
	assert.True(t, ok)
	assert.Equal(t, 7, i)

	assert.Equal(t, []string{"a", "b"}, Strings(d, "list"))
	assert.Equal(t, []string{"x", "y", "z"}, Strings(d, "csv"))
	assert.Nil(t, Strings(d, "num"))
	assert.True(t, Bool(d, "flag"))
	assert.False(t, Bool(d, "s"))
}

func TestValidationResultString(t *testing.T) {
	assert.Equal(t, "ok", Valid().String())
	assert.Equal(t, "invalid", Invalid(nil).String())
	assert.Equal(t, "a: x; b: y", Invalid(map[string]string{"b": "y", "a": "x"}).String())
}
