package engine

import (
	"errors"
	"testing"

	"mercator-hq/ladder/pkg/ladder/ast"
	"mercator-hq/ladder/pkg/rules"
)

func TestCompile_FirstMatchWins(t *testing.T) {
	l, err := Compile(mustParse(t, `
name: overlap
rules:
  - name: broad
    when: { op: ">=", value: 0 }
    then: broad
  - name: narrow
    when: 5
    then: narrow
default: none
`))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	m, err := l.Evaluate(5.0)
	if err != nil {
		t.Fatal(err)
	}
	if m.Result != "broad" || m.Index != 0 {
		t.Errorf("Evaluate(5) = %+v, want broad at 0", m)
	}
}

func TestCompile_LogicalConditions(t *testing.T) {
	l, err := Compile(mustParse(t, `
name: logic
input: { type: number }
rules:
  - name: teen
    when: { all: [ { op: ">=", value: 13 }, { op: "<=", value: 19 } ] }
    then: teen
  - name: edge
    when: { any: [ 0, 100 ] }
    then: edge
  - name: odd-small
    when:
      not: { op: ">", value: 5 }
    then: small
default: other
`))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	tests := map[float64]string{15: "teen", 0: "edge", 100: "edge", 3: "small", 50: "other"}
	for in, want := range tests {
		m, err := l.Evaluate(in)
		if err != nil {
			t.Fatalf("Evaluate(%v) error = %v", in, err)
		}
		if m.Result != want {
			t.Errorf("Evaluate(%v) = %v, want %s", in, m.Result, want)
		}
	}
}

func TestCompile_DisabledRulesSkipped(t *testing.T) {
	l, err := Compile(mustParse(t, `
name: toggles
rules:
  - name: off
    enabled: false
    when: 1
    then: first
  - name: on
    when: 1
    then: second
default: none
`))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
	m, _ := l.Evaluate(1.0)
	if m.Result != "second" {
		t.Errorf("Evaluate(1) = %v, want second", m.Result)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bad regex",
			yaml: `
name: bad
rules:
  - name: r
    when: { op: matches, value: "(" }
    then: x
default: y
`,
		},
		{
			name: "reversed between",
			yaml: `
name: bad
rules:
  - name: r
    when: { op: between, value: [5, 1] }
    then: x
default: y
`,
		},
		{
			name: "all rules disabled",
			yaml: `
name: bad
rules:
  - name: r
    enabled: false
    when: 1
    then: x
default: y
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(mustParse(t, tt.yaml))
			if !errors.Is(err, rules.ErrConfiguration) {
				t.Errorf("error = %v, want ErrConfiguration", err)
			}
			var compileErr *CompileError
			if !errors.As(err, &compileErr) || compileErr.Ladder != "bad" {
				t.Errorf("error = %T, want *CompileError for bad", err)
			}
		})
	}
}

func TestCompile_MissingDefault(t *testing.T) {
	l := &ast.Ladder{Name: "nodefault"}
	if _, err := Compile(l); !errors.Is(err, rules.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
	if _, err := Compile(nil); !errors.Is(err, rules.ErrConfiguration) {
		t.Errorf("nil ladder: error = %v, want ErrConfiguration", err)
	}
}

func TestLadder_RunCases(t *testing.T) {
	l, err := Compile(mustParse(t, gradesYAML))
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range l.RunCases() {
		if !r.Passed || r.Err != nil {
			t.Errorf("case %s: actual %v, expected %v, err %v", r.Name, r.Actual, r.Expected, r.Err)
		}
	}

	failing, err := Compile(mustParse(t, `
name: wrong
rules:
  - name: r
    when: 1
    then: one
default: other
cases:
  - { input: 1, expect: two }
  - { input: "s", expect: other }
`))
	if err != nil {
		t.Fatal(err)
	}
	results := failing.RunCases()
	if len(results) != 2 {
		t.Fatalf("RunCases() = %d results, want 2", len(results))
	}
	if results[0].Passed {
		t.Error("case 0 should fail")
	}
	if results[1].Err == nil {
		t.Error("case 1 should report a mismatch error")
	}
}
