package builder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopyCycleGathersEveryOccurrence(t *testing.T) {
	assert := require.New(t)

	b := New()
	w := b.AddVariable(elem(5))
	other := b.AddVariable(elem(5))

	// w appears in one cell per gate
	for i := 0; i < 3; i++ {
		b.CreateAddGate(AddTriple{
			A: w, AScaling: one(),
			B: other, BScaling: mone(),
			C: b.Zero(),
		})
	}

	cycles := b.ComputeWireCopyCycles()
	assert.Len(cycles[w], 3)
	assert.Len(cycles[other], 3)
}

func TestSigmaChainsCloseInCycleLength(t *testing.T) {
	assert := require.New(t)

	b := New()
	w := b.AddVariable(elem(4))
	other := b.AddVariable(elem(4))
	for i := 0; i < 4; i++ {
		b.CreateAddGate(AddTriple{
			A: w, AScaling: one(),
			B: other, BScaling: mone(),
			C: b.Zero(),
		})
	}
	assert.NoError(b.Finalize())

	cycles := b.ComputeWireCopyCycles()
	m := b.ComputePermutationMapping()

	for _, root := range []uint32{w, other} {
		cycle := cycles[root]
		n := len(cycle)
		assert.Equal(4, n)

		// follow sigma pointers: back to the start in exactly n steps,
		// never earlier
		start := encodeCell(m.NumRows, cycle[0])
		cur := start
		for step := 1; step <= n; step++ {
			wire := cur / int64(m.NumRows)
			row := cur % int64(m.NumRows)
			cur = m.Sigma[wire][row]
			if step < n {
				assert.NotEqual(start, cur)
			}
		}
		assert.Equal(start, cur)
	}
}

func TestPermutationIdentityOutsideCycles(t *testing.T) {
	assert := require.New(t)

	b := New()
	pub := b.AddPublicVariable(elem(3))
	w := b.AddVariable(elem(3))
	b.AssertEqual(pub, w)
	assert.NoError(b.Finalize())

	m := b.ComputePermutationMapping()
	assert.Equal(1+b.NumGates(), m.NumRows)

	// wires 2 and 3 of the public input row are virtual cells outside any
	// cycle and map to themselves
	assert.Equal(encodeCell(m.NumRows, CycleNode{Wire: 2, Row: 0}), m.Sigma[2][0])
	assert.Equal(encodeCell(m.NumRows, CycleNode{Wire: 3, Row: 0}), m.Sigma[3][0])

	// the first wire of a public input row carries the negative encoding
	assert.Equal(int64(-1), m.Sigma[0][0])
}

func TestTagColumnsCarryGeneralizedPermutation(t *testing.T) {
	assert := require.New(t)

	b := New()
	w := b.AddVariable(elem(7))
	b.CreateRangeConstraint(w, 4)
	assert.NoError(b.Finalize())

	m := b.ComputePermutationMapping()

	// at least one cell carries the range tag and points at a tau tag
	found := false
	for j := 0; j < 4 && !found; j++ {
		for r := range m.TagID[j] {
			if m.TagID[j][r] != 0 {
				assert.NotZero(m.TagSigma[j][r])
				found = true
				break
			}
		}
	}
	assert.True(found, "expected tagged cells in the permutation mapping")
}
