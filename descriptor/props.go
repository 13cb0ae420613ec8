package descriptor

import (
	"strconv"
	"time"
)

// Property accessors for decoded statement maps. YAML decoding hands
// back generic types (string, int, float64, bool, []any), so each
// accessor coerces the shapes a descriptor author can plausibly write
// and reports whether the coercion succeeded.

func propString(props map[string]any, key string) (string, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func propInt(props map[string]any, key string) (int, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, false
	}

	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func propBool(props map[string]any, key string, defaultVal bool) (bool, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return defaultVal, true
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal, false
	}
	return b, true
}

func propList(props map[string]any, key string) ([]any, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}

// propTimeout reads a timeout in seconds, accepting integer, float and
// numeric-string forms.
func propTimeout(props map[string]any, key string) (time.Duration, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, false
	}

	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Second, true
	case int64:
		return time.Duration(n) * time.Second, true
	case float64:
		return time.Duration(n * float64(time.Second)), true
	case string:
		if seconds, err := strconv.Atoi(n); err == nil {
			return time.Duration(seconds) * time.Second, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// propVersion reads a version value, accepting the string form and the
// bare numeric forms YAML produces for unquoted versions like 2.2.
func propVersion(v any) (string, bool) {
	switch n := v.(type) {
	case string:
		return n, n != ""
	case int:
		return strconv.Itoa(n), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	default:
		return "", false
	}
}
