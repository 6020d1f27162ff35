package wizard

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Rule checks part of the form data and records failures in errs. Only the
// first failure per field is kept.
type Rule func(data FormData, errs map[string]string)

// Rules builds a Validator from rules.
func Rules(rules ...Rule) Validator {
	return func(data FormData) ValidationResult {
		errs := map[string]string{}
		for _, r := range rules {
			r(data, errs)
		}
		if len(errs) == 0 {
			return Valid()
		}
		return Invalid(errs)
	}
}

// Combine runs every validator and merges their field errors.
func Combine(validators ...Validator) Validator {
	return func(data FormData) ValidationResult {
		errs := map[string]string{}
		ok := true
		for _, v := range validators {
			if v == nil {
				continue
			}
			res := v(data)
			if res.OK {
				continue
			}
			ok = false
			for k, msg := range res.FieldErrors {
				fail(errs, k, msg)
			}
		}
		if ok {
			return Valid()
		}
		return Invalid(errs)
	}
}

func fail(errs map[string]string, field, msg string) {
	if _, exists := errs[field]; !exists {
		errs[field] = msg
	}
}

// Required fails when the field is missing, nil, or a blank string.
func Required(field string) Rule {
	return func(data FormData, errs map[string]string) {
		if String(data, field) == "" {
			fail(errs, field, "required")
		}
	}
}

// MatchRegexp fails when a non-empty field does not match re.
func MatchRegexp(field string, re *regexp.Regexp, msg string) Rule {
	return func(data FormData, errs map[string]string) {
		v := String(data, field)
		if v != "" && !re.MatchString(v) {
			fail(errs, field, msg)
		}
	}
}

var (
	emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9\-\s]{7,15}$`)
)

// Email checks an optional e-mail address.
func Email(field string) Rule {
	return MatchRegexp(field, emailRE, "invalid email address")
}

// Phone checks an optional phone number.
func Phone(field string) Rule {
	return MatchRegexp(field, phoneRE, "invalid phone number")
}

// FloatRange requires a number in [min, max].
func FloatRange(field string, min, max float64) Rule {
	return func(data FormData, errs map[string]string) {
		v, ok := Float(data, field)
		if !ok {
			fail(errs, field, "must be a number")
			return
		}
		if v < min || v > max {
			fail(errs, field, fmt.Sprintf("must be between %s and %s", fmtFloat(min), fmtFloat(max)))
		}
	}
}

// IntRange requires a whole number in [min, max].
func IntRange(field string, min, max int) Rule {
	return func(data FormData, errs map[string]string) {
		v, ok := Int(data, field)
		if !ok {
			fail(errs, field, "must be a whole number")
			return
		}
		if v < min || v > max {
			fail(errs, field, fmt.Sprintf("must be between %d and %d", min, max))
		}
	}
}

// OneOf requires the field to equal one of options.
func OneOf(field string, options ...string) Rule {
	return func(data FormData, errs map[string]string) {
		v := String(data, field)
		if !slices.Contains(options, v) {
			fail(errs, field, "must be one of: "+strings.Join(options, ", "))
		}
	}
}

// Check runs fn and records its message against field when non-empty.
func Check(field string, fn func(data FormData) string) Rule {
	return func(data FormData, errs map[string]string) {
		if msg := fn(data); msg != "" {
			fail(errs, field, msg)
		}
	}
}

// When applies rules only if cond holds for the data.
func When(cond func(data FormData) bool, rules ...Rule) Rule {
	return func(data FormData, errs map[string]string) {
		if !cond(data) {
			return
		}
		for _, r := range rules {
			r(data, errs)
		}
	}
}

// Optional applies rules only when the field has a value.
func Optional(field string, rules ...Rule) Rule {
	return When(func(data FormData) bool { return String(data, field) != "" }, rules...)
}

// String returns the field as trimmed text. Missing and nil values are "".
func String(data FormData, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		return strings.Join(t, ",")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Float returns the field as a float64. Strings are parsed.
func Float(data FormData, key string) (float64, bool) {
	switch t := data[key].(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns the field as an int. Whole floats and numeric strings are accepted.
func Int(data FormData, key string) (int, bool) {
	switch t := data[key].(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case int32:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Bool returns the field as a bool. "yes", "y", "true" and "1" are true.
func Bool(data FormData, key string) bool {
	switch t := data[key].(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "true", "1", "on":
			return true
		}
	case int:
		return t != 0
	}
	return false
}

// Strings returns the field as a list. Comma-separated text is split.
func Strings(data FormData, key string) []string {
	var raw []string
	switch t := data[key].(type) {
	case []string:
		raw = t
	case []any:
		for _, v := range t {
			raw = append(raw, fmt.Sprint(v))
		}
	case string:
		raw = strings.Split(t, ",")
	default:
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
