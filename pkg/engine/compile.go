package engine

import (
	"fmt"
	"reflect"

	"mercator-hq/ladder/pkg/ladder/ast"
	"mercator-hq/ladder/pkg/rules"
)

// Ladder is a compiled, immutable ladder ready for evaluation.
type Ladder struct {
	def   *ast.Ladder
	rules *rules.RuleSet[interface{}, interface{}]
}

// Compile turns a parsed ladder into a rule set. Operator operands are
// validated and regular expressions compiled once here, so evaluation only
// fails on inputs the operators cannot judge.
func Compile(l *ast.Ladder) (*Ladder, error) {
	if l == nil {
		return nil, rules.NewConfigurationError("ladder", "ladder cannot be nil")
	}
	if l.Default == nil {
		return nil, &CompileError{
			Ladder: l.Name,
			Cause:  rules.NewConfigurationError("default", "a default result is required"),
		}
	}

	enabled := l.EnabledRules()
	compiled := make([]rules.Rule[interface{}, interface{}], 0, len(enabled))
	for _, r := range enabled {
		pred, err := compileCondition(r.Condition)
		if err != nil {
			return nil, &CompileError{Ladder: l.Name, Rule: r.Name, Cause: err}
		}
		var result interface{}
		if r.Result != nil {
			result = r.Result.Value
		}
		compiled = append(compiled, rules.When(r.Name, pred, result))
	}

	rs, err := rules.NewRuleSet(l.Default.Value, compiled...)
	if err != nil {
		return nil, &CompileError{Ladder: l.Name, Cause: err}
	}

	return &Ladder{def: l, rules: rs}, nil
}

// compileCondition builds a predicate tree mirroring the condition tree.
func compileCondition(c *ast.ConditionNode) (rules.Predicate[interface{}], error) {
	if c == nil {
		return nil, rules.NewConfigurationError("when", "condition cannot be empty")
	}

	switch c.Type {
	case ast.ConditionTypeCompare:
		var operand interface{}
		if c.Value != nil {
			operand = c.Value.Value
		}
		op, err := compileOperator(c.Operator, operand)
		if err != nil {
			return nil, rules.NewConfigurationError("when", fmt.Sprintf("%s: %v", c.Location, err))
		}
		return rules.Predicate[interface{}](op), nil

	case ast.ConditionTypeAll, ast.ConditionTypeAny:
		children, err := compileChildren(c.Children)
		if err != nil {
			return nil, err
		}
		if c.Type == ast.ConditionTypeAll {
			return rules.All(children...), nil
		}
		return rules.Any(children...), nil

	case ast.ConditionTypeNot:
		if len(c.Children) != 1 {
			return nil, rules.NewConfigurationError("not", fmt.Sprintf("%s: expected exactly one condition, got %d", c.Location, len(c.Children)))
		}
		child, err := compileCondition(c.Children[0])
		if err != nil {
			return nil, err
		}
		return rules.Not(child), nil

	default:
		return nil, rules.NewConfigurationError("when", fmt.Sprintf("%s: unknown condition type %q", c.Location, c.Type))
	}
}

func compileChildren(children []*ast.ConditionNode) ([]rules.Predicate[interface{}], error) {
	preds := make([]rules.Predicate[interface{}], 0, len(children))
	for _, child := range children {
		p, err := compileCondition(child)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// Name returns the ladder name.
func (l *Ladder) Name() string {
	return l.def.Name
}

// Definition returns the parsed ladder the rule set was compiled from.
func (l *Ladder) Definition() *ast.Ladder {
	return l.def
}

// Len returns the number of enabled rules.
func (l *Ladder) Len() int {
	return l.rules.Len()
}

// Evaluate checks the input against the declared input type and runs the
// rule set. The returned match carries -1 as index when defaulted.
func (l *Ladder) Evaluate(input interface{}) (rules.Match[interface{}], error) {
	if err := CheckInput(input, l.def.Input.Type); err != nil {
		return rules.Match[interface{}]{Index: -1}, err
	}
	return l.rules.EvaluateTrace(input)
}

// Info returns a description of the ladder.
func (l *Ladder) Info() LadderInfo {
	names := make([]string, 0, l.rules.Len())
	for _, r := range l.rules.Rules() {
		names = append(names, r.Name)
	}
	return LadderInfo{
		Name:        l.def.Name,
		Version:     l.def.Version,
		Description: l.def.Description,
		Tags:        l.def.Tags,
		InputName:   l.def.Input.Name,
		InputType:   l.def.Input.Type,
		Rules:       names,
		Default:     l.rules.Default(),
		Cases:       len(l.def.Cases),
		SourceFile:  l.def.SourceFile,
	}
}

// RunCases evaluates every embedded example case and compares the result
// with its expectation.
func (l *Ladder) RunCases() []CaseResult {
	results := make([]CaseResult, 0, len(l.def.Cases))
	for _, c := range l.def.Cases {
		res := CaseResult{Name: c.Name, Location: c.Location}
		if c.Input != nil {
			res.Input = c.Input.Value
		}
		if c.Expect != nil {
			res.Expected = c.Expect.Value
		}

		match, err := l.Evaluate(res.Input)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}

		res.Actual = match.Result
		res.Passed = valuesEqual(res.Actual, res.Expected)
		results = append(results, res)
	}
	return results
}

func valuesEqual(a, b interface{}) bool {
	af, aerr := convertToFloat64(a)
	bf, berr := convertToFloat64(b)
	if aerr == nil && berr == nil {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}
