package engine

import (
	"errors"
	"testing"

	"mercator-hq/ladder/pkg/ladder/ast"
	"mercator-hq/ladder/pkg/rules"
)

func TestCompileOperator(t *testing.T) {
	list := func(vs ...interface{}) []interface{} { return vs }

	tests := []struct {
		name     string
		op       ast.Operator
		operand  interface{}
		input    interface{}
		want     bool
		mismatch bool
	}{
		{"eq number", ast.OperatorEqual, 9.0, 9, true, false},
		{"eq number false", ast.OperatorEqual, 9.0, int64(10), false, false},
		{"eq string", ast.OperatorEqual, "a", "a", true, false},
		{"eq bool", ast.OperatorEqual, true, true, true, false},
		{"eq null", ast.OperatorEqual, nil, nil, true, false},
		{"eq null vs value", ast.OperatorEqual, nil, 1, false, false},
		{"eq kind mismatch", ast.OperatorEqual, 9.0, "9", false, true},
		{"ne", ast.OperatorNotEqual, "a", "b", true, false},
		{"ne mismatch", ast.OperatorNotEqual, "a", 1, false, true},
		{"lt", ast.OperatorLessThan, 5.0, 4, true, false},
		{"lt boundary", ast.OperatorLessThan, 5.0, 5, false, false},
		{"le boundary", ast.OperatorLessEqual, 5.0, 5.0, true, false},
		{"gt", ast.OperatorGreaterThan, 5.0, uint8(6), true, false},
		{"ge", ast.OperatorGreaterEqual, 5.0, float32(4.5), false, false},
		{"lt string input", ast.OperatorLessThan, 5.0, "4", false, true},
		{"between low", ast.OperatorBetween, list(3.0, 5.0), 3, true, false},
		{"between high", ast.OperatorBetween, list(3.0, 5.0), 5, true, false},
		{"between outside", ast.OperatorBetween, list(3.0, 5.0), 6, false, false},
		{"between bool", ast.OperatorBetween, list(3.0, 5.0), true, false, true},
		{"in", ast.OperatorIn, list(12.0, 1.0, 2.0), 1, true, false},
		{"in miss", ast.OperatorIn, list(12.0, 1.0, 2.0), 3, false, false},
		{"in mixed list", ast.OperatorIn, list("x", 3.0), 3, true, false},
		{"in empty", ast.OperatorIn, list(), 3, false, false},
		{"in mismatch", ast.OperatorIn, list("a", "b"), 1, false, true},
		{"not_in", ast.OperatorNotIn, list("a", "b"), "c", true, false},
		{"contains", ast.OperatorContains, "ell", "hello", true, false},
		{"contains number", ast.OperatorContains, "1", 1, false, true},
		{"matches", ast.OperatorMatches, "^[A-Z]", "Hello", true, false},
		{"matches miss", ast.OperatorMatches, "^[A-Z]", "hello", false, false},
		{"matches number", ast.OperatorMatches, ".", 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := compileOperator(tt.op, tt.operand)
			if err != nil {
				t.Fatalf("compileOperator() error = %v", err)
			}
			got, err := fn(tt.input)
			if tt.mismatch {
				if !errors.Is(err, rules.ErrMismatchedType) {
					t.Errorf("error = %v, want ErrMismatchedType", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileOperator_InvalidOperands(t *testing.T) {
	tests := []struct {
		name    string
		op      ast.Operator
		operand interface{}
	}{
		{"lt string", ast.OperatorLessThan, "five"},
		{"between scalar", ast.OperatorBetween, 3.0},
		{"between one bound", ast.OperatorBetween, []interface{}{3.0}},
		{"between reversed", ast.OperatorBetween, []interface{}{5.0, 3.0}},
		{"between string bound", ast.OperatorBetween, []interface{}{"a", 3.0}},
		{"in scalar", ast.OperatorIn, 3.0},
		{"contains number", ast.OperatorContains, 3.0},
		{"matches bad regex", ast.OperatorMatches, "("},
		{"unknown", ast.Operator("~="), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := compileOperator(tt.op, tt.operand); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConvertToFloat64(t *testing.T) {
	for _, v := range []interface{}{1, int8(1), int16(1), int32(1), int64(1), uint(1), uint16(1), uint32(1), uint64(1), float32(1), 1.0} {
		got, err := convertToFloat64(v)
		if err != nil || got != 1 {
			t.Errorf("convertToFloat64(%T) = %v, %v", v, got, err)
		}
	}
	if _, err := convertToFloat64("1"); err == nil {
		t.Error("expected error for string")
	}
}
