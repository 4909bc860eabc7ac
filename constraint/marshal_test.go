package constraint

import (
	"testing"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func testSystem(t *testing.T, nbGates int) *System {
	t.Helper()
	s := NewSystem(nbGates)
	for i := 0; i < nbGates; i++ {
		var g Gate
		g.WL = uint32(i)
		g.WR = uint32(i + 1)
		g.WO = uint32(i + 2)
		g.W4 = uint32(i % 7)
		g.Coeffs[QM].SetUint64(uint64(i))
		g.Coeffs[QC].SetInt64(-int64(i))
		g.Coeffs[Q1].SetOne()
		g.Coeffs[QArith].SetOne()
		s.AddGate(g)
	}
	s.PublicInputs = []uint32{0, 1}
	return s
}

func TestSystemSerializationRoundTrip(t *testing.T) {
	assert := require.New(t)

	for _, n := range []int{0, 1, 100, 1000} {
		s := testSystem(t, n)

		data, err := s.ToBytes()
		assert.NoError(err)

		var reconstructed System
		read, err := reconstructed.FromBytes(data)
		assert.NoError(err)
		assert.Equal(len(data), read)

		if diff := cmp.Diff(s, &reconstructed, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestSerializationHeaderChecks(t *testing.T) {
	assert := require.New(t)

	s := testSystem(t, 4)
	data, err := s.ToBytes()
	assert.NoError(err)

	t.Run("truncated", func(t *testing.T) {
		var r System
		_, err := r.FromBytes(data[:len(data)/2])
		assert.Error(err)
	})

	t.Run("version mismatch", func(t *testing.T) {
		bad := testSystem(t, 1)
		bad.FormatVersion = "99.0.0"
		raw, err := bad.ToBytes()
		assert.NoError(err)
		var r System
		_, err = r.FromBytes(raw)
		assert.Error(err)
	})

	t.Run("scalar field mismatch", func(t *testing.T) {
		bad := testSystem(t, 1)
		bad.ScalarField = "deadbeef"
		raw, err := bad.ToBytes()
		assert.NoError(err)
		var r System
		_, err = r.FromBytes(raw)
		assert.Error(err)
	})
}

func TestVariableStoreUnionFind(t *testing.T) {
	assert := require.New(t)

	vs := NewVariableStore(8)
	var one, two fr.Element
	one.SetOne()
	two.SetUint64(2)

	a := vs.Add(one)
	b := vs.Add(one)
	c := vs.Add(two)

	assert.NoError(vs.Union(a, b))
	assert.Equal(vs.Find(a), vs.Find(b))
	assert.NotEqual(vs.Find(a), vs.Find(c))

	v := vs.Value(b)
	assert.True(v.Equal(&one))
}

func TestVariableStoreTags(t *testing.T) {
	assert := require.New(t)

	vs := NewVariableStore(8)
	var x fr.Element
	a := vs.Add(x)
	b := vs.Add(x)

	assert.NoError(vs.SetTag(a, 3))
	assert.Equal(uint32(3), vs.Tag(a))

	// retagging with the same tag is fine, a different tag is not
	assert.NoError(vs.SetTag(a, 3))
	assert.Error(vs.SetTag(a, 4))

	// union propagates tags and rejects conflicts
	assert.NoError(vs.SetTag(b, 4))
	assert.Error(vs.Union(a, b))

	c := vs.Add(x)
	assert.NoError(vs.Union(a, c))
	assert.Equal(uint32(3), vs.Tag(c))
}
