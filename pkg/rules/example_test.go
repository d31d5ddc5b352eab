package rules_test

import (
	"context"
	"fmt"

	"mercator-hq/ladder/pkg/rules"
)

func ExampleRuleSet_Evaluate() {
	seasons := rules.MustRuleSet("Invalid",
		rules.When("winter", rules.OneOf(1, 2, 3), "Winter"),
		rules.When("spring", rules.OneOf(4, 5, 6), "Spring"),
		rules.When("summer", rules.OneOf(7, 8, 9), "Summer"),
		rules.When("autumn", rules.OneOf(10, 11, 12), "Autumn"),
	)

	for _, month := range []int{7, 0} {
		season, _ := seasons.Evaluate(month)
		fmt.Println(month, season)
	}
	// Output:
	// 7 Summer
	// 0 Invalid
}

func ExampleAccumulate() {
	fmt.Println(rules.Accumulate(rules.MustRange(1, 6, 1), rules.Square))
	// Output: 55
}

func ExampleRetryPolicy_Until() {
	rolls := []int{7, 11, 2}
	next := 0
	roll := func(context.Context) (int, error) {
		v := rolls[next]
		next++
		return v, nil
	}

	policy := rules.RetryPolicy[int]{
		MaxAttempts: 10,
		OnAttempt: func(attempt, v int, ok bool) {
			if !ok {
				fmt.Println("Nope")
			}
		},
	}
	_, attempts, _ := policy.Until(context.Background(), rules.Equals(2), roll)
	fmt.Println("Snake eyes after", attempts)
	// Output:
	// Nope
	// Nope
	// Snake eyes after 3
}
