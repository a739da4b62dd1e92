// Package template implements {{dotted.path}} placeholder substitution for
// step configurations. The grammar is deliberately restricted to dotted
// identifier lookups so rendered configs stay auditable and injection-safe.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)*)\s*\}\}`)

// Lookup resolves a dotted path against a binding table. It is the single
// dotted-path resolver in the engine: condition evaluation and trigger
// matching use it too, so "missing" means the same thing everywhere.
func Lookup(bindings map[string]any, path string) (any, bool) {
	var current any = bindings

	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Resolve walks a configuration value and substitutes placeholders from the
// binding table. Strings consisting of exactly one placeholder yield the
// bound value itself, preserving its type; mixed strings are interpolated
// with unresolved paths replaced by the empty string. Lists and maps are
// rebuilt element by element, everything else passes through unchanged. The
// input is never mutated.
func Resolve(value any, bindings map[string]any) any {
	switch v := value.(type) {
	case string:
		return resolveString(v, bindings)
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			resolved[i] = Resolve(item, bindings)
		}

		return resolved
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, item := range v {
			resolved[key] = Resolve(item, bindings)
		}

		return resolved
	default:
		return value
	}
}

// ResolveConfig is Resolve specialized to an action config map, returning a
// map again so callers do not need to re-assert.
func ResolveConfig(config map[string]any, bindings map[string]any) map[string]any {
	if config == nil {
		return nil
	}

	resolved, _ := Resolve(config, bindings).(map[string]any)

	return resolved
}

func resolveString(s string, bindings map[string]any) any {
	match := placeholderPattern.FindStringSubmatch(s)
	if match != nil && match[0] == s {
		value, ok := Lookup(bindings, match[1])
		if !ok {
			return ""
		}

		return value
	}

	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		path := placeholderPattern.FindStringSubmatch(token)[1]

		value, ok := Lookup(bindings, path)
		if !ok {
			return ""
		}

		return Stringify(value)
	})
}

// Stringify renders a bound value the way it appears inside interpolated
// strings.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode to float64; keep integral values undecorated.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
