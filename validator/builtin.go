package validator

import (
	"fmt"
	"net/netip"
	"reflect"
	"strings"
)

// shellMeta are the characters the shellsafe validator rejects.
// Values containing any of them could alter a command line when
// interpolated by a shell.
const shellMeta = "`$;|&><'\""

func validateString(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func validateBoolean(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

func validateInteger(value any) error {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil
	case reflect.Float32, reflect.Float64:
		// Whole-number floats arrive from generic decoders and count
		// as integers.
		f := v.Float()
		if f != float64(int64(f)) {
			return fmt.Errorf("expected integer, got float with decimal: %v", value)
		}
		return nil
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
}

func validateFloat(value any) error {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

func validateNumber(value any) error {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

func validateAny(any) error {
	return nil
}

func validateShellSafe(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if i := strings.IndexAny(s, shellMeta); i >= 0 {
		return fmt.Errorf("value contains shell metacharacter %q", s[i])
	}
	return nil
}

func validateIPv4Address(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return fmt.Errorf("%q is not a valid IPv4 address", s)
	}
	return nil
}

func validateIPv6Address(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() || addr.Is4In6() {
		return fmt.Errorf("%q is not a valid IPv6 address", s)
	}
	return nil
}

// CheckMembership verifies that value is one of the allowed literals
// declared for a list input. Matching is exact and type-sensitive.
func CheckMembership(value any, allowed []any) error {
	for _, member := range allowed {
		if reflect.DeepEqual(value, member) {
			return nil
		}
	}
	return fmt.Errorf("value %v is not one of the allowed values: %v", value, allowed)
}
