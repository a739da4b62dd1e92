package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_DottedPaths(t *testing.T) {
	bindings := map[string]any{
		"client": map[string]any{
			"name": "Ana Souza",
			"address": map[string]any{
				"city": "Recife",
			},
		},
		"amount": 1500.0,
	}

	value, found := Lookup(bindings, "client.name")
	require.True(t, found)
	assert.Equal(t, "Ana Souza", value)

	value, found = Lookup(bindings, "client.address.city")
	require.True(t, found)
	assert.Equal(t, "Recife", value)

	_, found = Lookup(bindings, "client.phone")
	assert.False(t, found)

	// Descending through a non-map is absent, not an error.
	_, found = Lookup(bindings, "amount.cents")
	assert.False(t, found)
}

func TestResolve_SingleTokenPreservesType(t *testing.T) {
	bindings := map[string]any{
		"amount":  1500.0,
		"overdue": true,
		"invoice": map[string]any{"id": "inv-1"},
	}

	assert.Equal(t, 1500.0, Resolve("{{amount}}", bindings))
	assert.Equal(t, true, Resolve("{{ overdue }}", bindings))
	assert.Equal(t, map[string]any{"id": "inv-1"}, Resolve("{{invoice}}", bindings))
}

func TestResolve_Interpolation(t *testing.T) {
	bindings := map[string]any{
		"client": map[string]any{"name": "Ana"},
		"amount": 1500.0,
	}

	result := Resolve("Olá {{client.name}}, valor devido: {{amount}}", bindings)
	assert.Equal(t, "Olá Ana, valor devido: 1500", result)
}

func TestResolve_UnresolvedPathsBecomeEmpty(t *testing.T) {
	bindings := map[string]any{}

	assert.Equal(t, "", Resolve("{{missing.path}}", bindings))
	assert.Equal(t, "Dear ", Resolve("Dear {{missing.path}}", bindings))
}

func TestResolve_NestedStructures(t *testing.T) {
	bindings := map[string]any{
		"case": map[string]any{"number": "0012345-67"},
	}

	config := map[string]any{
		"subject": "Update on {{case.number}}",
		"headers": map[string]any{"X-Case": "{{case.number}}"},
		"tags":    []any{"legal", "{{case.number}}"},
		"retries": 3,
	}

	resolved := ResolveConfig(config, bindings)

	assert.Equal(t, "Update on 0012345-67", resolved["subject"])
	assert.Equal(t, map[string]any{"X-Case": "0012345-67"}, resolved["headers"])
	assert.Equal(t, []any{"legal", "0012345-67"}, resolved["tags"])
	assert.Equal(t, 3, resolved["retries"])

	// Input must not be mutated.
	assert.Equal(t, "Update on {{case.number}}", config["subject"])
}

func TestResolve_Idempotent(t *testing.T) {
	bindings := map[string]any{
		"client": map[string]any{"name": "Ana"},
	}

	once := Resolve("Hello {{client.name}}", bindings)
	twice := Resolve(once, bindings)

	assert.Equal(t, once, twice)
}

func TestStringify_IntegralFloats(t *testing.T) {
	assert.Equal(t, "1500", Stringify(1500.0))
	assert.Equal(t, "1500.5", Stringify(1500.5))
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "true", Stringify(true))
}
