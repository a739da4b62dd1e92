// Package conditions evaluates step conditions and trigger condition maps
// against a binding table. Both go through the same dotted-path lookup as
// the template resolver, so an unresolved path behaves identically in every
// corner of the engine: it is an absent value, never an error.
package conditions

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/template"
)

// Evaluate applies a condition to the binding table. A nil condition is
// vacuously true. An absent left operand is false under every operator
// except not_equals against a defined literal.
func Evaluate(cond *models.Condition, bindings map[string]any) bool {
	if cond == nil {
		return true
	}

	left, found := template.Lookup(bindings, cond.Field)
	if !found {
		return cond.Operator == models.OperatorNotEquals && cond.Value != nil
	}

	switch cond.Operator {
	case models.OperatorEquals:
		return strictEqual(left, cond.Value)
	case models.OperatorNotEquals:
		return !strictEqual(left, cond.Value)
	case models.OperatorContains:
		return strings.Contains(template.Stringify(left), template.Stringify(cond.Value))
	case models.OperatorGreaterThan:
		l, r, ok := numericPair(left, cond.Value)

		return ok && l > r
	case models.OperatorLessThan:
		l, r, ok := numericPair(left, cond.Value)

		return ok && l < r
	default:
		return false
	}
}

// MatchesTriggerConditions checks a definition's flat trigger condition map
// against an event payload. Every key is a dotted path whose payload value
// must strictly equal the condition value; an empty or nil map is vacuously
// true.
func MatchesTriggerConditions(conds map[string]any, payload map[string]any) bool {
	for path, expected := range conds {
		actual, found := template.Lookup(payload, path)
		if !found || !strictEqual(actual, expected) {
			return false
		}
	}

	return true
}

// strictEqual is value equality without type coercion, with the one
// normalization JSON round-trips force on us: integral numbers compare equal
// across int/int64/float64 representations of the same value.
func strictEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}

	af, aok := numericType(a)
	bf, bok := numericType(b)

	return aok && bok && af == bf
}

// numericType converts across Go's numeric types only; strings never
// compare equal to numbers.
func numericType(v any) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}

	return asNumber(v)
}

func numericPair(a, b any) (float64, float64, bool) {
	af, aok := asNumber(a)
	bf, bok := asNumber(b)

	return af, bf, aok && bok
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)

		return f, err == nil
	default:
		return 0, false
	}
}
