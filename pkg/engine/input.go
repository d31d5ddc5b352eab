package engine

import (
	"strconv"
	"strings"

	"mercator-hq/ladder/pkg/ladder/ast"
	"mercator-hq/ladder/pkg/rules"
)

// ParseInput converts command-line text into a value of the declared
// input type. Untyped ladders infer number, then bool, then string.
func ParseInput(raw string, t ast.InputType) (interface{}, error) {
	switch t {
	case ast.InputTypeNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, rules.NewMismatchedTypeError("input", string(ast.InputTypeNumber), raw)
		}
		return n, nil

	case ast.InputTypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, rules.NewMismatchedTypeError("input", string(ast.InputTypeBool), raw)
		}
		return b, nil

	case ast.InputTypeString:
		return raw, nil

	default:
		trimmed := strings.TrimSpace(raw)
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return n, nil
		}
		if b, err := strconv.ParseBool(trimmed); err == nil {
			return b, nil
		}
		return raw, nil
	}
}

// CheckInput verifies a decoded value (e.g. from JSON) against the
// declared input type. Numeric Go types all satisfy InputTypeNumber.
func CheckInput(v interface{}, t ast.InputType) error {
	var ok bool
	switch t {
	case ast.InputTypeNumber:
		ok = kindOf(v) == kindNumber
	case ast.InputTypeString:
		ok = kindOf(v) == kindString
	case ast.InputTypeBool:
		ok = kindOf(v) == kindBool
	default:
		return nil
	}
	if !ok {
		return rules.NewMismatchedTypeError("input", string(t), v)
	}
	return nil
}
