package battlecontroller

import "fmt"

// The restricted decoder (bitpack.Loads) and schema-authored codecs both
// yield generic, JSON-shaped values: map[string]any, []any, int64,
// float64, string, []byte, bool. Handlers pattern-match the shape they
// expect and fail loudly (spec.md §9 "Pickled-by-shape payloads") rather
// than silently skipping malformed input.

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	}
	return nil, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	}
	n, ok := asInt(v)
	if ok {
		return n != 0, true
	}
	return false, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func mustMap(v any, context string) (map[string]any, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected a map, got %T", ErrDispatchFailure, context, v)
	}
	return m, nil
}

func mustList(v any, context string) ([]any, error) {
	l, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected a list, got %T", ErrDispatchFailure, context, v)
	}
	return l, nil
}

func mustInt(v any, context string) (int, error) {
	n, ok := asInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s: expected a number, got %T", ErrDispatchFailure, context, v)
	}
	return n, nil
}

func mustFloat(v any, context string) (float64, error) {
	n, ok := asFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s: expected a number, got %T", ErrDispatchFailure, context, v)
	}
	return n, nil
}

func mapGet(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
