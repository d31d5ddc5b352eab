// Package rules provides ordered, first-match-wins rule evaluation and the
// small fold and retry combinators that go with it.
//
// # Rule Sets
//
// A RuleSet is an ordered list of (predicate, result) pairs plus a
// mandatory default. Evaluation walks the rules in order and returns the
// result of the first rule whose predicate holds. If no rule holds the
// default is returned.
//
//	grades, err := rules.NewRuleSet("TBD",
//	    rules.When("freshman", rules.Equals(9), "Freshman"),
//	    rules.When("sophomore", rules.Equals(10), "Sophomore"),
//	    rules.When("junior", rules.Equals(11), "Junior"),
//	    rules.When("senior", rules.Equals(12), "Senior"),
//	)
//	if err != nil {
//	    log.Fatal(err) // ConfigurationError: caller defect
//	}
//
//	year, _ := grades.Evaluate(10) // "Sophomore"
//	year, _ = grades.Evaluate(13)  // "TBD"
//
// Rule sets are immutable once built and hold no mutable state, so a single
// RuleSet may be evaluated from many goroutines without locking.
//
// # Accumulation
//
// Accumulate sums a transform over a finite ordered sequence, starting from
// zero:
//
//	total := rules.Accumulate(rules.MustRange(1, 6, 1), rules.Square) // 55
//
// # Retrying
//
// RetryUntil calls a generator until its value satisfies a predicate. It is
// unbounded unless WithMaxAttempts is given, and it always honours context
// cancellation.
package rules
