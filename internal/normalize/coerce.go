package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/mcs-education/starcat/internal/diag"
	"github.com/mcs-education/starcat/model"
)

// lookup resolves a dotted key such as "orbit.aAU". JSON null counts as absent.
func lookup(raw map[string]any, key string) (any, bool) {
	cur := raw
	parts := strings.Split(key, ".")
	for i, p := range parts {
		v, ok := cur[p]
		if !ok || v == nil {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// toFloat accepts JSON numbers and numeric strings; the result is finite.
func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case gojson.Number:
		x, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case gojson.Number, float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// number resolves the first readable value among keys, in priority order.
// Unreadable values are reported and skipped; later readable values that
// disagree with the winner are reported as conflicting encodings.
func number(raw map[string]any, sc diag.Scope, keys ...string) Num {
	var out Num
	for _, k := range keys {
		v, ok := lookup(raw, k)
		if !ok {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			sc.Report(diag.CodeInvalidType, k, diag.OutcomeDropped,
				"expected a finite number", "got", describe(v))
			out.Bad = !out.Set
			continue
		}
		if !out.Set {
			out = Num{Value: f, Key: k, Set: true}
			continue
		}
		if f != out.Value {
			sc.Report(diag.CodeConflictingEncoding, k, diag.OutcomeKept,
				fmt.Sprintf("%s=%g ignored in favour of %s=%g", k, f, out.Key, out.Value),
				"kept", out.Key, "ignored", k)
		}
	}
	return out
}

// scaled multiplies a resolved number into canonical units.
func scaled(n Num, factor float64) Num {
	if n.Set {
		n.Value *= factor
	}
	return n
}

func text(raw map[string]any, sc diag.Scope, key string) Text {
	v, ok := lookup(raw, key)
	if !ok {
		return Text{}
	}
	s, ok := v.(string)
	if !ok {
		sc.Report(diag.CodeInvalidType, key, diag.OutcomeDropped, "expected a string", "got", describe(v))
		return Text{Bad: true}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Text{}
	}
	return Text{Value: s, Set: true}
}

// boolean accepts JSON booleans and the numbers 0/1.
func boolean(raw map[string]any, sc diag.Scope, key string) *bool {
	v, ok := lookup(raw, key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case bool:
		return &t
	default:
		if f, ok := toFloat(t); ok && (f == 0 || f == 1) {
			b := f == 1
			return &b
		}
	}
	sc.Report(diag.CodeInvalidType, key, diag.OutcomeDropped, "expected a boolean", "got", describe(v))
	return nil
}

// stringSet reads an array of strings (or a single string), trimming and
// removing duplicates while keeping the first occurrence.
func stringSet(raw map[string]any, sc diag.Scope, key string) []string {
	v, ok := lookup(raw, key)
	if !ok {
		return nil
	}
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case string:
		items = []any{t}
	default:
		sc.Report(diag.CodeInvalidType, key, diag.OutcomeDropped, "expected an array of strings", "got", describe(v))
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	var out []string
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			sc.Report(diag.CodeInvalidType, key+"."+strconv.Itoa(i), diag.OutcomeDropped,
				"expected a string", "got", describe(it))
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// object reads an opaque key/value bag.
func object(raw map[string]any, sc diag.Scope, key string) model.Extras {
	v, ok := lookup(raw, key)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		sc.Report(diag.CodeInvalidType, key, diag.OutcomeDropped, "expected an object", "got", describe(v))
		return nil
	}
	return model.Extras(m)
}

// triple reads a numeric array. The length is checked by the validator.
func triple(raw map[string]any, sc diag.Scope, key string) Triple {
	v, ok := lookup(raw, key)
	if !ok {
		return Triple{}
	}
	arr, ok := v.([]any)
	if !ok {
		sc.Report(diag.CodeInvalidType, key, diag.OutcomeDropped, "expected an array of numbers", "got", describe(v))
		return Triple{Bad: true}
	}
	vals := make([]float64, 0, len(arr))
	for _, it := range arr {
		f, ok := toFloat(it)
		if !ok {
			sc.Report(diag.CodeInvalidType, key, diag.OutcomeDropped, "expected an array of numbers", "got", describe(it))
			return Triple{Bad: true}
		}
		vals = append(vals, f)
	}
	return Triple{Values: vals, Set: true}
}

// extras copies every key of raw that is not part of the fixed schema.
func extras(raw map[string]any, known map[string]struct{}) model.Extras {
	var out model.Extras
	for k, v := range raw {
		if _, ok := known[k]; ok {
			continue
		}
		if out == nil {
			out = make(model.Extras)
		}
		out[k] = v
	}
	return out
}

func keySet(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}
