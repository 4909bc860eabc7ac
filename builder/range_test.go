package builder

import (
	"math/big"
	"testing"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestSmallRangeConstraint(t *testing.T) {
	assert := require.New(t)

	b := New()
	w := b.AddVariable(elem(200))
	b.CreateRangeConstraint(w, 8)
	assert.False(b.Failed())
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestSmallRangeConstraintViolation(t *testing.T) {
	assert := require.New(t)

	b := New()
	w := b.AddVariable(elem(256))
	b.CreateRangeConstraint(w, 8)
	assert.True(b.Failed())
	assert.Contains(b.FailureReason(), "range constraint violated")
}

func TestZeroBitRangeConstraint(t *testing.T) {
	assert := require.New(t)

	b := New()
	w := b.AddVariable(elem(0))
	b.CreateRangeConstraint(w, 0)
	assert.False(b.Failed())

	bad := New()
	w = bad.AddVariable(elem(1))
	bad.CreateRangeConstraint(w, 0)
	assert.True(bad.Failed())
}

func TestWideRangeDecomposition(t *testing.T) {
	assert := require.New(t)

	// 40 bits decompose into limbs of 14, 14 and an exact 12-bit top limb
	v := new(big.Int).Lsh(big.NewInt(1), 40)
	v.Sub(v, big.NewInt(1))
	var e fr.Element
	e.SetBigInt(v)

	b := New()
	w := b.AddVariable(e)
	limbs := b.DecomposeIntoDefaultRange(w, 40)
	assert.Len(limbs, 3)
	assert.False(b.Failed())

	// limbs recompose to the original value
	recomposed := new(big.Int)
	var lv big.Int
	for i := len(limbs) - 1; i >= 0; i-- {
		recomposed.Lsh(recomposed, DefaultRangeBitnum)
		x := b.Value(limbs[i])
		x.BigInt(&lv)
		recomposed.Add(recomposed, &lv)
	}
	assert.Zero(recomposed.Cmp(v))

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestWideRangeViolation(t *testing.T) {
	assert := require.New(t)

	v := new(big.Int).Lsh(big.NewInt(1), 41)
	var e fr.Element
	e.SetBigInt(v)

	b := New()
	w := b.AddVariable(e)
	b.CreateRangeConstraint(w, 40)
	assert.True(b.Failed())
}

func TestRangeConstraintOnTaggedVariable(t *testing.T) {
	assert := require.New(t)

	// constraining the same variable against two different ranges routes
	// the second membership through an equality-gated copy
	b := New()
	w := b.AddVariable(elem(9))
	b.CreateRangeConstraint(w, 4)
	b.CreateRangeConstraint(w, 6)
	assert.False(b.Failed())
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestSortedColumnsRejectTamper(t *testing.T) {
	assert := require.New(t)

	b := New()
	w := b.AddVariable(elem(11))
	b.CreateRangeConstraint(w, 4)
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())

	b.SetWitnessValue(w, elem(99))
	assert.Error(b.CheckCircuit())
}
