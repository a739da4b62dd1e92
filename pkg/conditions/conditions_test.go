package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
)

func evalCond(field string, op models.ConditionOperator, value any, bindings map[string]any) bool {
	return Evaluate(&models.Condition{Field: field, Operator: op, Value: value}, bindings)
}

func TestEvaluate_Equals(t *testing.T) {
	bindings := map[string]any{
		"status": "active",
		"amount": 5.0,
	}

	assert.True(t, evalCond("status", models.OperatorEquals, "active", bindings))
	assert.False(t, evalCond("status", models.OperatorEquals, "closed", bindings))

	// Numeric values compare across int/float representations.
	assert.True(t, evalCond("amount", models.OperatorEquals, 5, bindings))

	// Strings never equal numbers.
	assert.False(t, evalCond("amount", models.OperatorEquals, "5", bindings))
}

func TestEvaluate_NotEqualsIsExactNegation(t *testing.T) {
	bindings := map[string]any{
		"status": "active",
		"amount": 5.0,
	}

	cases := []struct {
		field string
		value any
	}{
		{"status", "active"},
		{"status", "closed"},
		{"amount", 5},
		{"amount", "5"},
	}

	for _, tc := range cases {
		eq := evalCond(tc.field, models.OperatorEquals, tc.value, bindings)
		neq := evalCond(tc.field, models.OperatorNotEquals, tc.value, bindings)
		assert.Equal(t, !eq, neq, "field %s value %v", tc.field, tc.value)
	}
}

func TestEvaluate_Contains(t *testing.T) {
	bindings := map[string]any{
		"description": "urgent deadline approaching",
		"code":        1500.0,
	}

	assert.True(t, evalCond("description", models.OperatorContains, "deadline", bindings))
	assert.False(t, evalCond("description", models.OperatorContains, "invoice", bindings))

	// Non-strings compare through their string forms.
	assert.True(t, evalCond("code", models.OperatorContains, "500", bindings))
}

func TestEvaluate_NumericComparisons(t *testing.T) {
	bindings := map[string]any{
		"amount":  1500.0,
		"days":    "12",
		"comment": "not a number",
	}

	assert.True(t, evalCond("amount", models.OperatorGreaterThan, 1000, bindings))
	assert.False(t, evalCond("amount", models.OperatorGreaterThan, 2000, bindings))
	assert.True(t, evalCond("amount", models.OperatorLessThan, 2000, bindings))

	// Numeric strings coerce for ordering comparisons.
	assert.True(t, evalCond("days", models.OperatorGreaterThan, 10, bindings))

	// Non-numeric operands make the comparison false, not an error.
	assert.False(t, evalCond("comment", models.OperatorGreaterThan, 10, bindings))
	assert.False(t, evalCond("comment", models.OperatorLessThan, 10, bindings))
}

func TestEvaluate_MissingField(t *testing.T) {
	bindings := map[string]any{"present": 1.0}

	assert.False(t, evalCond("absent", models.OperatorEquals, "x", bindings))
	assert.False(t, evalCond("absent", models.OperatorContains, "x", bindings))
	assert.False(t, evalCond("absent", models.OperatorGreaterThan, 0, bindings))

	// A missing field differs from any defined value.
	assert.True(t, evalCond("absent", models.OperatorNotEquals, "x", bindings))
	assert.False(t, evalCond("absent", models.OperatorNotEquals, nil, bindings))
}

func TestEvaluate_NilConditionIsTrue(t *testing.T) {
	assert.True(t, Evaluate(nil, map[string]any{}))
}

func TestMatchesTriggerConditions(t *testing.T) {
	payload := map[string]any{
		"status": "closed",
		"case": map[string]any{
			"area": "labor",
		},
	}

	assert.True(t, MatchesTriggerConditions(nil, payload))
	assert.True(t, MatchesTriggerConditions(map[string]any{}, payload))

	assert.True(t, MatchesTriggerConditions(map[string]any{
		"status":    "closed",
		"case.area": "labor",
	}, payload))

	// One mismatch excludes the definition.
	assert.False(t, MatchesTriggerConditions(map[string]any{
		"status":    "closed",
		"case.area": "tax",
	}, payload))

	// A condition on an absent path never matches.
	assert.False(t, MatchesTriggerConditions(map[string]any{
		"priority": "high",
	}, payload))
}
