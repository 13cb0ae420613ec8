package descriptor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jeffmccune/marionette-collective/validator"
)

// ArgumentValidator checks caller-supplied argument values against a
// loaded descriptor's declared inputs.
//
// Validation is fail-fast: the first failing argument aborts the pass.
// Underlying validator errors are never surfaced raw; every failure is
// wrapped into a single *Error naming the argument key, with the
// original error attached as the cause.
type ArgumentValidator struct {
	validators *validator.Registry
}

// NewArgumentValidator creates an ArgumentValidator backed by the given
// validator registry. A nil registry uses validator.NewRegistry().
func NewArgumentValidator(validators *validator.Registry) *ArgumentValidator {
	if validators == nil {
		validators = validator.NewRegistry()
	}
	return &ArgumentValidator{validators: validators}
}

// ValidateInput validates one supplied value against a declared input.
// Presence of required arguments is the caller's concern; this checks
// only the value itself:
//
//   - string inputs run the length check, then the declared
//     validation rule
//   - list inputs run the membership check against the declared set
//   - any other type runs the validator registered under that name
func (v *ArgumentValidator) ValidateInput(entity, key string, in *Input, value any) error {
	switch in.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return v.fail(entity, key, fmt.Errorf("expected string, got %T", value))
		}
		if err := validator.CheckLength(s, in.MaxLength); err != nil {
			return v.fail(entity, key, err)
		}
		if err := v.validators.CheckValidation(s, in.Validation); err != nil {
			return v.fail(entity, key, err)
		}
		return nil

	case "list":
		if err := validator.CheckMembership(value, in.List); err != nil {
			return v.fail(entity, key, err)
		}
		return nil

	default:
		fn, err := v.validators.Lookup(in.Type)
		if err != nil {
			return newError(CodeValidatorNotFound, "validating argument %q", key).
				WithKey(key).WithCause(err)
		}
		if err := fn(value); err != nil {
			return v.fail(entity, key, err)
		}
		return nil
	}
}

// ValidateRequest validates a whole argument map against an entity's
// declared inputs: every non-optional input without a default must be
// supplied, no undeclared keys are accepted, and each supplied value
// must pass its declared checks. Applying defaults to absent optional
// arguments remains the caller's concern.
func (v *ArgumentValidator) ValidateRequest(e *Entity, values map[string]any) error {
	for _, in := range e.Inputs() {
		value, present := values[in.Name]
		if !present {
			if !in.Optional && in.Default == nil {
				return newError(CodeValidationFailed,
					"action %q requires argument %q", e.Name(), in.Name).WithKey(in.Name)
			}
			continue
		}
		if err := v.ValidateInput(e.Name(), in.Name, in, value); err != nil {
			return err
		}
	}

	// Reject keys the descriptor never declared, in a stable order.
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, declared := e.Input(key); !declared {
			return newError(CodeValidationFailed,
				"action %q does not declare argument %q", e.Name(), key).WithKey(key)
		}
	}

	return nil
}

// fail wraps an underlying validation error into the single typed
// failure surfaced to callers. Configuration problems inside the rule
// itself keep their own code.
func (v *ArgumentValidator) fail(entity, key string, cause error) error {
	if errors.Is(cause, validator.ErrUnknownValidator) {
		return newError(CodeValidatorNotFound, "validating argument %q", key).
			WithKey(key).WithCause(cause)
	}
	return newError(CodeValidationFailed, "argument %q for action %q is invalid", key, entity).
		WithKey(key).WithCause(cause)
}
