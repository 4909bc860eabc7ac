package fr

import (
	"math/big"
	"sync"

	"github.com/ammarsjw/aztec3-circuits/ecc"
)

// The scalar field admits a cube root of unity λ (λ² + λ + 1 ≡ 0 mod q),
// the eigenvalue of the curve endomorphism (βx, y) on the group of order q.
// Splitting a scalar k into k1 - k2·λ with half-width k1, k2 halves the loop
// length of a scalar multiplication.

var (
	lambda   big.Int
	glvBasis ecc.Lattice
	initGLV  sync.Once
)

func initGLVBasis() {
	// λ = g^((q-1)/3) with g the multiplicative generator; a primitive cube
	// root of unity since 3 | q-1
	exp := new(big.Int).Sub(Modulus(), big.NewInt(1))
	exp.Div(exp, big.NewInt(3))
	var l Element
	l.Exp(multiplicativeG, exp)
	l.BigInt(&lambda)

	ecc.PrecomputeLattice(Modulus(), &lambda, &glvBasis)
}

// Lambda returns λ, the cube root of unity mod q used for the endomorphism split.
func Lambda() *big.Int {
	initGLV.Do(initGLVBasis)
	return new(big.Int).Set(&lambda)
}

// SplitIntoEndomorphismScalars decomposes the scalar k into k1, k2 such that
//
//	k1 - k2·λ ≡ k (mod q)
//
// with |k1|, |k2| of at most half the bit width of the modulus. The returned
// scalars are signed big integers; callers performing scalar multiplication
// negate the corresponding point when a scalar is negative.
func SplitIntoEndomorphismScalars(k *big.Int) (k1, k2 *big.Int) {
	initGLV.Do(initGLVBasis)

	s := new(big.Int).Mod(k, Modulus())
	parts := ecc.SplitScalar(s, &glvBasis)

	// SplitScalar returns s = parts[0] + parts[1]·λ; flip the sign of the
	// second scalar for the k = k1 - k2·λ convention.
	k1 = new(big.Int).Set(&parts[0])
	k2 = new(big.Int).Neg(&parts[1])
	return k1, k2
}
