// Package ecc provides scalar decomposition utilities shared by the field layer.
//
// The GLV lattice basis is computed once per (modulus, endomorphism eigenvalue)
// pair; SplitScalar then reduces a full-width scalar to two half-width ones.
package ecc

import (
	"math/big"
)

// Lattice represents a Z-module spanned by V1, V2, with Det the associated
// (positive) determinant. V1, V2 are short vectors satisfying
// Vi[0] + Vi[1]·λ ≡ 0 (mod r).
type Lattice struct {
	V1, V2 [2]big.Int
	Det    big.Int
}

// PrecomputeLattice sets res to a reduced basis of the lattice
// {(x, y) : x + y·λ ≡ 0 (mod r)}, using the extended Euclidean algorithm on
// (r, λ) stopped at the first remainder below √r (GLV decomposition, Algorithm
// 3.74 in Guide to Elliptic Curve Cryptography).
func PrecomputeLattice(r, lambda *big.Int, res *Lattice) {
	sqrtR := new(big.Int).Sqrt(r)

	// remainder and Bézout coefficient sequences:
	// s_i*r + t_i*λ = r_i
	rPrev, rCur := new(big.Int).Set(r), new(big.Int).Set(lambda)
	tPrev, tCur := big.NewInt(0), big.NewInt(1)

	for rCur.Cmp(sqrtR) >= 0 {
		quotient, remainder := new(big.Int).QuoRem(rPrev, rCur, new(big.Int))
		tNext := new(big.Int).Sub(tPrev, new(big.Int).Mul(quotient, tCur))

		rPrev, rCur = rCur, remainder
		tPrev, tCur = tCur, tNext
	}
	// here rCur < sqrt(r) <= rPrev

	// candidate short vectors: (r_l, -t_l) and (r_{l+1}, -t_{l+1})
	res.V1[0].Set(rCur)
	res.V1[1].Neg(tCur)

	quotient, remainder := new(big.Int).QuoRem(rPrev, rCur, new(big.Int))
	tNext := new(big.Int).Sub(tPrev, new(big.Int).Mul(quotient, tCur))

	// second vector: shorter of (r_{l-1}, -t_{l-1}) and (r_{l+1}, -t_{l+1})
	normA := vectorNormSq(rPrev, tPrev)
	normB := vectorNormSq(remainder, tNext)
	if normA.Cmp(normB) < 0 {
		res.V2[0].Set(rPrev)
		res.V2[1].Neg(tPrev)
	} else {
		res.V2[0].Set(remainder)
		res.V2[1].Neg(tNext)
	}

	// Det = V1[0]*V2[1] - V1[1]*V2[0]; normalize to Det > 0 by flipping V2
	res.Det.Mul(&res.V1[0], &res.V2[1])
	res.Det.Sub(&res.Det, new(big.Int).Mul(&res.V1[1], &res.V2[0]))
	if res.Det.Sign() < 0 {
		res.V2[0].Neg(&res.V2[0])
		res.V2[1].Neg(&res.V2[1])
		res.Det.Neg(&res.Det)
	}
}

// SplitScalar decomposes s into k1, k2 such that
//
//	k1 + k2·λ ≡ s (mod r)
//
// with |k1|, |k2| in O(√r). The caller flips the sign convention as needed.
func SplitScalar(s *big.Int, l *Lattice) [2]big.Int {
	var k1, k2 big.Int

	// (s, 0) = β1·V1 + β2·V2 over Q:
	//   β1 =  s·V2[1] / Det
	//   β2 = -s·V1[1] / Det
	c1 := roundNearest(new(big.Int).Mul(s, &l.V2[1]), &l.Det)
	c2 := roundNearest(new(big.Int).Neg(new(big.Int).Mul(s, &l.V1[1])), &l.Det)

	// k = (s, 0) - c1·V1 - c2·V2, the lattice-rounding error vector
	k1.Mul(c1, &l.V1[0])
	k1.Add(&k1, new(big.Int).Mul(c2, &l.V2[0]))
	k1.Sub(s, &k1)

	k2.Mul(c1, &l.V1[1])
	k2.Add(&k2, new(big.Int).Mul(c2, &l.V2[1]))
	k2.Neg(&k2)

	return [2]big.Int{k1, k2}
}

// roundNearest returns round(num/den) for den > 0, rounding half away from zero.
func roundNearest(num, den *big.Int) *big.Int {
	quotient, remainder := new(big.Int).QuoRem(num, den, new(big.Int))

	remainder.Abs(remainder)
	remainder.Lsh(remainder, 1)
	if remainder.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			quotient.Sub(quotient, big.NewInt(1))
		} else {
			quotient.Add(quotient, big.NewInt(1))
		}
	}
	return quotient
}

func vectorNormSq(x, y *big.Int) *big.Int {
	n := new(big.Int).Mul(x, x)
	return n.Add(n, new(big.Int).Mul(y, y))
}
