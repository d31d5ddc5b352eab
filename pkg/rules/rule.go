package rules

import "fmt"

// Predicate reports whether a rule applies to an input. A predicate that
// cannot judge the input returns a *MismatchedTypeError.
type Predicate[In any] func(In) (bool, error)

// Rule pairs a predicate with the result returned when it holds.
type Rule[In, Out any] struct {
	// Name identifies the rule in traces, metrics, and errors. Optional.
	Name string

	// When is the rule's predicate. Required.
	When Predicate[In]

	// Then is the result returned when When holds.
	Then Out
}

// When builds a named rule.
func When[In, Out any](name string, pred Predicate[In], then Out) Rule[In, Out] {
	return Rule[In, Out]{Name: name, When: pred, Then: then}
}

// RuleSet is an immutable ordered list of rules plus a default result.
type RuleSet[In, Out any] struct {
	rules []Rule[In, Out]
	def   Out
}

// Match describes which rule produced an evaluation result.
type Match[Out any] struct {
	// Index is the position of the matching rule, or -1 for the default.
	Index int

	// Name is the matching rule's name (empty for the default).
	Name string

	// Result is the returned value.
	Result Out
}

// Defaulted reports whether no rule matched.
func (m Match[Out]) Defaulted() bool {
	return m.Index < 0
}

// NewRuleSet builds a rule set. The rules are copied, so later changes to
// the caller's slice do not affect the set. An empty rule list or a rule
// without a predicate is a *ConfigurationError.
func NewRuleSet[In, Out any](def Out, rules ...Rule[In, Out]) (*RuleSet[In, Out], error) {
	if len(rules) == 0 {
		return nil, NewConfigurationError("rules", "rule set must contain at least one rule")
	}

	copied := make([]Rule[In, Out], len(rules))
	for i, r := range rules {
		if r.When == nil {
			return nil, NewConfigurationError(fmt.Sprintf("rules[%d]", i), "rule has no predicate")
		}
		copied[i] = r
	}

	return &RuleSet[In, Out]{rules: copied, def: def}, nil
}

// MustRuleSet is like NewRuleSet but panics on a configuration error.
// It is intended for package-level rule sets built from literals.
func MustRuleSet[In, Out any](def Out, rules ...Rule[In, Out]) *RuleSet[In, Out] {
	rs, err := NewRuleSet(def, rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Len returns the number of rules.
func (rs *RuleSet[In, Out]) Len() int {
	return len(rs.rules)
}

// Default returns the default result.
func (rs *RuleSet[In, Out]) Default() Out {
	return rs.def
}

// Rules returns a copy of the rules in evaluation order.
func (rs *RuleSet[In, Out]) Rules() []Rule[In, Out] {
	out := make([]Rule[In, Out], len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Evaluate returns the result of the first rule whose predicate holds for
// input, or the default if none does. Later rules are never consulted once
// a rule matches.
func (rs *RuleSet[In, Out]) Evaluate(input In) (Out, error) {
	m, err := rs.EvaluateTrace(input)
	return m.Result, err
}

// EvaluateTrace is like Evaluate but also reports which rule matched.
func (rs *RuleSet[In, Out]) EvaluateTrace(input In) (Match[Out], error) {
	for i, r := range rs.rules {
		ok, err := r.When(input)
		if err != nil {
			var zero Out
			return Match[Out]{Index: i, Name: r.Name, Result: zero}, &RuleError{Index: i, Name: r.Name, Cause: err}
		}
		if ok {
			return Match[Out]{Index: i, Name: r.Name, Result: r.Then}, nil
		}
	}
	return Match[Out]{Index: -1, Result: rs.def}, nil
}

// Evaluate runs rs against input. A nil rule set is a *ConfigurationError.
func Evaluate[In, Out any](input In, rs *RuleSet[In, Out]) (Out, error) {
	if rs == nil {
		var zero Out
		return zero, NewConfigurationError("ruleset", "rule set is nil")
	}
	return rs.Evaluate(input)
}

// Builder assembles a RuleSet incrementally. Unlike NewRuleSet it tracks
// whether a default was supplied and rejects a set without one.
type Builder[In, Out any] struct {
	rules      []Rule[In, Out]
	def        Out
	hasDefault bool
}

// NewBuilder creates an empty builder.
func NewBuilder[In, Out any]() *Builder[In, Out] {
	return &Builder[In, Out]{}
}

// Rule appends a rule.
func (b *Builder[In, Out]) Rule(name string, pred Predicate[In], then Out) *Builder[In, Out] {
	b.rules = append(b.rules, When(name, pred, then))
	return b
}

// Default sets the default result.
func (b *Builder[In, Out]) Default(def Out) *Builder[In, Out] {
	b.def = def
	b.hasDefault = true
	return b
}

// Build returns the rule set or a *ConfigurationError if the default or
// every rule is missing.
func (b *Builder[In, Out]) Build() (*RuleSet[In, Out], error) {
	if !b.hasDefault {
		return nil, NewConfigurationError("default", "rule set must declare a default result")
	}
	return NewRuleSet(b.def, b.rules...)
}
