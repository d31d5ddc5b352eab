package engine

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"mercator-hq/ladder/pkg/ladder/ast"
	"mercator-hq/ladder/pkg/rules"
)

// valueKind is the coarse type used to decide whether two values can be
// compared at all. Numbers of any Go numeric type share one kind.
type valueKind string

const (
	kindNumber valueKind = "number"
	kindString valueKind = "string"
	kindBool   valueKind = "bool"
	kindNull   valueKind = "null"
	kindList   valueKind = "list"
	kindOther  valueKind = "other"
)

func kindOf(v interface{}) valueKind {
	if v == nil {
		return kindNull
	}
	if _, err := convertToFloat64(v); err == nil {
		return kindNumber
	}
	switch v.(type) {
	case string:
		return kindString
	case bool:
		return kindBool
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return kindList
	}
	return kindOther
}

// operatorFunc compares an input against a precompiled operand.
type operatorFunc func(actual interface{}) (bool, error)

// compileOperator validates an operator/operand pair once and returns the
// comparison to run per evaluation. Operand errors are configuration
// defects; type mismatches against the input surface at evaluation time
// as *rules.MismatchedTypeError.
func compileOperator(op ast.Operator, expected interface{}) (operatorFunc, error) {
	switch op {
	case ast.OperatorEqual:
		return func(actual interface{}) (bool, error) {
			return evaluateEqual(op, actual, expected)
		}, nil

	case ast.OperatorNotEqual:
		return func(actual interface{}) (bool, error) {
			equal, err := evaluateEqual(op, actual, expected)
			return !equal, err
		}, nil

	case ast.OperatorLessThan, ast.OperatorGreaterThan, ast.OperatorLessEqual, ast.OperatorGreaterEqual:
		bound, err := convertToFloat64(expected)
		if err != nil {
			return nil, fmt.Errorf("operator %q requires a number, got %T", op, expected)
		}
		return func(actual interface{}) (bool, error) {
			n, err := numericInput(op, actual)
			if err != nil {
				return false, err
			}
			switch op {
			case ast.OperatorLessThan:
				return n < bound, nil
			case ast.OperatorGreaterThan:
				return n > bound, nil
			case ast.OperatorLessEqual:
				return n <= bound, nil
			default:
				return n >= bound, nil
			}
		}, nil

	case ast.OperatorBetween:
		lo, hi, err := betweenBounds(expected)
		if err != nil {
			return nil, err
		}
		return func(actual interface{}) (bool, error) {
			n, err := numericInput(op, actual)
			if err != nil {
				return false, err
			}
			return n >= lo && n <= hi, nil
		}, nil

	case ast.OperatorIn, ast.OperatorNotIn:
		items, ok := expected.([]interface{})
		if !ok {
			return nil, fmt.Errorf("operator %q requires a list, got %T", op, expected)
		}
		return func(actual interface{}) (bool, error) {
			in, err := evaluateIn(op, actual, items)
			if op == ast.OperatorNotIn {
				return !in, err
			}
			return in, err
		}, nil

	case ast.OperatorContains:
		needle, ok := expected.(string)
		if !ok {
			return nil, fmt.Errorf("operator %q requires a string, got %T", op, expected)
		}
		return func(actual interface{}) (bool, error) {
			s, ok := actual.(string)
			if !ok {
				return false, rules.NewMismatchedTypeError(string(op), "string", actual)
			}
			return strings.Contains(s, needle), nil
		}, nil

	case ast.OperatorMatches:
		pattern, ok := expected.(string)
		if !ok {
			return nil, fmt.Errorf("operator %q requires a string pattern, got %T", op, expected)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		return func(actual interface{}) (bool, error) {
			s, ok := actual.(string)
			if !ok {
				return false, rules.NewMismatchedTypeError(string(op), "string", actual)
			}
			return re.MatchString(s), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown operator: %q", op)
	}
}

// evaluateEqual compares two values of the same kind. Numbers compare by
// value regardless of Go type; values of different kinds are a mismatch
// rather than silently unequal.
func evaluateEqual(op ast.Operator, actual, expected interface{}) (bool, error) {
	ak, ek := kindOf(actual), kindOf(expected)
	if ak == kindNull || ek == kindNull {
		return ak == ek, nil
	}
	if ak != ek {
		return false, rules.NewMismatchedTypeError(string(op), string(ek), actual)
	}
	if ak == kindNumber {
		a, _ := convertToFloat64(actual)
		e, _ := convertToFloat64(expected)
		return a == e, nil
	}
	return reflect.DeepEqual(actual, expected), nil
}

// evaluateIn reports whether actual equals any element of items. Elements
// of a different kind are skipped; if none share the input's kind the
// comparison is a mismatch.
func evaluateIn(op ast.Operator, actual interface{}, items []interface{}) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}

	comparable := false
	for _, item := range items {
		if kindOf(item) != kindOf(actual) {
			continue
		}
		comparable = true
		equal, err := evaluateEqual(op, actual, item)
		if err != nil {
			return false, err
		}
		if equal {
			return true, nil
		}
	}

	if !comparable {
		return false, rules.NewMismatchedTypeError(string(op), string(kindOf(items[0])), actual)
	}
	return false, nil
}

func numericInput(op ast.Operator, actual interface{}) (float64, error) {
	n, err := convertToFloat64(actual)
	if err != nil {
		return 0, rules.NewMismatchedTypeError(string(op), "number", actual)
	}
	return n, nil
}

func betweenBounds(expected interface{}) (float64, float64, error) {
	items, ok := expected.([]interface{})
	if !ok || len(items) != 2 {
		return 0, 0, fmt.Errorf("operator %q requires a [low, high] list", ast.OperatorBetween)
	}
	lo, err := convertToFloat64(items[0])
	if err != nil {
		return 0, 0, fmt.Errorf("between low bound: %w", err)
	}
	hi, err := convertToFloat64(items[1])
	if err != nil {
		return 0, 0, fmt.Errorf("between high bound: %w", err)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("between bounds reversed: %v > %v", lo, hi)
	}
	return lo, hi, nil
}

// convertToFloat64 converts any Go numeric value to float64.
func convertToFloat64(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}
