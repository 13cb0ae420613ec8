package validator

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// celPrefix marks a validation rule as a CEL expression rather than a
// regular-expression pattern.
const celPrefix = "cel:"

// celExpression strips the CEL marker from a validation rule, reporting
// whether the rule is an expression.
func celExpression(rule string) (string, bool) {
	if strings.HasPrefix(rule, celPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(rule, celPrefix)), true
	}
	return "", false
}

// checkExpression evaluates a CEL expression against a string value.
// The expression sees the candidate as the variable "value" and must
// evaluate to a boolean. Compiled programs are cached per expression.
func (r *Registry) checkExpression(value, expr string) error {
	prg, err := r.celProgramFor(expr)
	if err != nil {
		return err
	}

	out, _, err := prg.Eval(map[string]any{"value": value})
	if err != nil {
		return fmt.Errorf("validation expression %q failed: %w", expr, err)
	}

	ok, isBool := out.Value().(bool)
	if !isBool {
		return fmt.Errorf("validation expression %q did not produce a boolean", expr)
	}
	if !ok {
		return fmt.Errorf("value %q rejected by expression %q", value, expr)
	}
	return nil
}

func (r *Registry) celProgramFor(expr string) (cel.Program, error) {
	r.mu.RLock()
	prg, ok := r.programs[expr]
	r.mu.RUnlock()
	if ok {
		return prg, nil
	}

	env, err := cel.NewEnv(cel.Variable("value", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("building validation environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("invalid validation expression %q: %w", expr, iss.Err())
	}

	prg, err = env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("invalid validation expression %q: %w", expr, err)
	}

	r.mu.Lock()
	r.programs[expr] = prg
	r.mu.Unlock()

	return prg, nil
}
