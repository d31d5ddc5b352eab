package rules

import "iter"

// Number is the set of result types Accumulate can sum.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Range returns the half-open sequence start, start+step, ... stopping
// before stop. A negative step counts down. A zero step is a
// *ConfigurationError.
func Range(start, stop, step int) (iter.Seq[int], error) {
	if step == 0 {
		return nil, NewConfigurationError("step", "range step must not be zero")
	}
	return func(yield func(int) bool) {
		if step > 0 {
			for i := start; i < stop; i += step {
				if !yield(i) {
					return
				}
			}
			return
		}
		for i := start; i > stop; i += step {
			if !yield(i) {
				return
			}
		}
	}, nil
}

// MustRange is like Range but panics on a zero step.
func MustRange(start, stop, step int) iter.Seq[int] {
	seq, err := Range(start, stop, step)
	if err != nil {
		panic(err)
	}
	return seq
}

// Fold combines seq left to right starting from init.
func Fold[T, A any](seq iter.Seq[T], init A, combine func(A, T) A) A {
	acc := init
	for v := range seq {
		acc = combine(acc, v)
	}
	return acc
}

// Accumulate applies transform to each value of seq and sums the results
// left to right starting at zero. The empty sequence sums to zero.
func Accumulate[N Number](seq iter.Seq[int], transform func(int) N) N {
	return Fold(seq, N(0), func(total N, i int) N {
		return total + transform(i)
	})
}

// Identity returns i.
func Identity(i int) int { return i }

// Square returns i*i.
func Square(i int) int { return i * i }

// Cube returns i*i*i.
func Cube(i int) int { return i * i * i }

// SumOfSquares is the closed form of Accumulate(Range(1, n+1, 1), Square).
// It returns 0 for n <= 0.
func SumOfSquares(n int) int {
	if n <= 0 {
		return 0
	}
	return n * (n + 1) * (2*n + 1) / 6
}
