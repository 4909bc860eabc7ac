package fr

import (
	"github.com/bits-and-blooms/bitset"
)

// BatchInvert returns a new slice with every element inverted.
// Uses Montgomery's trick: a single inversion and 3(n-1) multiplications
// instead of n inversions. Zeroes are kept as zeroes (the inversion sentinel),
// and the result ordering matches the input ordering exactly.
func BatchInvert(a []Element) []Element {
	res := make([]Element, len(a))
	if len(a) == 0 {
		return res
	}

	zeroes := bitset.New(uint(len(a)))
	accumulator := One()

	for i := 0; i < len(a); i++ {
		if a[i].IsZero() {
			zeroes.Set(uint(i))
			continue
		}
		res[i] = accumulator
		accumulator.Mul(&accumulator, &a[i])
	}

	accumulator.Inverse(&accumulator)

	for i := len(a) - 1; i >= 0; i-- {
		if zeroes.Test(uint(i)) {
			continue
		}
		res[i].Mul(&res[i], &accumulator)
		accumulator.Mul(&accumulator, &a[i])
	}

	return res
}
