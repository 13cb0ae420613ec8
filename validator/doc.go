// Package validator provides the named validation rules applied to
// descriptor input declarations and runtime argument values.
//
// A Registry maps type names (string, list, boolean, integer, float,
// number, any) to validation functions. Every type a descriptor
// declares must resolve to a registered validator; a failed lookup is
// a configuration error surfaced through ErrUnknownValidator.
//
// String inputs carry a secondary validation rule which is resolved in
// three ways:
//
//   - a named validator such as "shellsafe", "ipv4address" or
//     "ipv6address"
//   - a CEL expression prefixed with "cel:", compiled with cel-go and
//     evaluated with the candidate bound to the variable "value"
//   - anything else is treated as a regular-expression pattern
//
// All validators are pure functions: idempotent, side-effect free, and
// safe for concurrent use. Compiled CEL programs and regular
// expressions are cached inside the Registry.
package validator
