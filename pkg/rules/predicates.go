package rules

import (
	"cmp"
	"slices"
)

// Equals holds when the input equals v.
func Equals[T comparable](v T) Predicate[T] {
	return func(in T) (bool, error) {
		return in == v, nil
	}
}

// OneOf holds when the input equals any of vs.
func OneOf[T comparable](vs ...T) Predicate[T] {
	set := slices.Clone(vs)
	return func(in T) (bool, error) {
		return slices.Contains(set, in), nil
	}
}

// Between holds when lo <= input <= hi.
func Between[T cmp.Ordered](lo, hi T) Predicate[T] {
	return func(in T) (bool, error) {
		return in >= lo && in <= hi, nil
	}
}

// AtLeast holds when input >= v.
func AtLeast[T cmp.Ordered](v T) Predicate[T] {
	return func(in T) (bool, error) {
		return in >= v, nil
	}
}

// Below holds when input < v.
func Below[T cmp.Ordered](v T) Predicate[T] {
	return func(in T) (bool, error) {
		return in < v, nil
	}
}

// Func adapts an infallible boolean function.
func Func[T any](fn func(T) bool) Predicate[T] {
	return func(in T) (bool, error) {
		return fn(in), nil
	}
}

// Not negates p.
func Not[T any](p Predicate[T]) Predicate[T] {
	return func(in T) (bool, error) {
		ok, err := p(in)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// All holds when every predicate holds. It stops at the first false or
// error. All of nothing holds.
func All[T any](ps ...Predicate[T]) Predicate[T] {
	return func(in T) (bool, error) {
		for _, p := range ps {
			ok, err := p(in)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Any holds when at least one predicate holds. It stops at the first true
// or error. Any of nothing does not hold.
func Any[T any](ps ...Predicate[T]) Predicate[T] {
	return func(in T) (bool, error) {
		for _, p := range ps {
			ok, err := p(in)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}
