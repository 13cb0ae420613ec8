package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/cel-go/cel"
)

// ErrUnknownValidator is returned by Lookup when no validator is
// registered for a requested name. Descriptor loading treats this as a
// configuration error.
var ErrUnknownValidator = errors.New("unknown validator")

// Func checks a single value against a validation rule.
// Implementations must be idempotent and side-effect free.
type Func func(value any) error

// Registry maps validator names to validation functions.
// The zero value is not usable; construct with NewRegistry, which
// preloads the builtin type validators and named string validators.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Func
	patterns   map[string]*regexp.Regexp
	programs   map[string]cel.Program
}

// NewRegistry returns a registry preloaded with the builtin validators:
// the type validators (string, list, boolean, integer, float, number,
// any) and the named string validators (shellsafe, ipv4address,
// ipv6address).
func NewRegistry() *Registry {
	r := &Registry{
		validators: make(map[string]Func),
		patterns:   make(map[string]*regexp.Regexp),
		programs:   make(map[string]cel.Program),
	}

	r.Register("string", validateString)
	r.Register("list", validateAny)
	r.Register("boolean", validateBoolean)
	r.Register("integer", validateInteger)
	r.Register("float", validateFloat)
	r.Register("number", validateNumber)
	r.Register("any", validateAny)

	r.Register("shellsafe", validateShellSafe)
	r.Register("ipv4address", validateIPv4Address)
	r.Register("ipv6address", validateIPv6Address)

	return r
}

// Register adds or replaces a named validator.
// It is safe to call concurrently, though registration is expected to
// happen once at startup before any validation runs.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = fn
}

// Lookup returns the validator registered under name.
// A missing validator returns an error wrapping ErrUnknownValidator.
func (r *Registry) Lookup(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.validators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownValidator, name)
	}
	return fn, nil
}

// Has reports whether a validator is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.validators[name]
	return ok
}

// CheckLength enforces a maximum string length. A maxLength of zero
// disables the check.
func CheckLength(value string, maxLength int) error {
	if maxLength > 0 && len(value) > maxLength {
		return fmt.Errorf("value length %d exceeds maximum %d", len(value), maxLength)
	}
	return nil
}

// CheckValidation applies a declared validation rule to a string value.
// The rule is resolved as a named validator, a "cel:"-prefixed CEL
// expression, or a regular-expression pattern, in that order.
func (r *Registry) CheckValidation(value, rule string) error {
	if rule == "" {
		return nil
	}

	if fn, err := r.Lookup(rule); err == nil {
		return fn(value)
	}

	if expr, ok := celExpression(rule); ok {
		return r.checkExpression(value, expr)
	}

	return r.checkPattern(value, rule)
}

// checkPattern matches value against a regular-expression rule,
// caching the compiled pattern.
func (r *Registry) checkPattern(value, pattern string) error {
	r.mu.RLock()
	re, ok := r.patterns[pattern]
	r.mu.RUnlock()

	if !ok {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid validation pattern %q: %w", pattern, err)
		}
		r.mu.Lock()
		r.patterns[pattern] = re
		r.mu.Unlock()
	}

	if !re.MatchString(value) {
		return fmt.Errorf("value %q does not match pattern %q", value, pattern)
	}
	return nil
}
