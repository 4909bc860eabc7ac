package fr

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestLambdaIsCubeRootOfUnity(t *testing.T) {
	assert := require.New(t)

	l := Lambda()
	q := Modulus()

	// λ² + λ + 1 ≡ 0 (mod q)
	acc := new(big.Int).Mul(l, l)
	acc.Add(acc, l)
	acc.Add(acc, big.NewInt(1))
	acc.Mod(acc, q)
	assert.Zero(acc.Sign())

	// λ != 1
	assert.NotEqual(0, l.Cmp(big.NewInt(1)))
}

func TestSplitIntoEndomorphismScalars(t *testing.T) {
	properties := gopter.NewProperties(testParameters())

	q := Modulus()

	properties.Property("k1 - k2·λ ≡ k (mod q), both half width", prop.ForAll(
		func(a Element) bool {
			var k big.Int
			a.BigInt(&k)

			k1, k2 := SplitIntoEndomorphismScalars(&k)

			// reconstruct
			acc := new(big.Int).Mul(k2, Lambda())
			acc.Sub(k1, acc)
			acc.Mod(acc, q)
			if acc.Cmp(new(big.Int).Mod(&k, q)) != 0 {
				return false
			}

			// half width: 254-bit modulus, 128-bit halves
			return new(big.Int).Abs(k1).BitLen() <= Bits/2+1 &&
				new(big.Int).Abs(k2).BitLen() <= Bits/2+1
		},
		genElement(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
