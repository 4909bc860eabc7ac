package backend

import (
	"testing"

	"github.com/ammarsjw/aztec3-circuits/builder"
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func testCircuit(t *testing.T) *builder.UltraBuilder {
	t.Helper()
	b := builder.New()

	var one, minusOne fr.Element
	one.SetOne()
	minusOne.Neg(&one)

	pub := b.AddPublicVariable(elem(7))
	wa := b.AddVariable(elem(3))
	wc := b.AddVariable(elem(4))
	ws := b.AddVariable(elem(7))
	b.CreateAddGate(builder.AddTriple{
		A: wa, AScaling: one,
		B: wc, BScaling: one,
		C: ws, CScaling: minusOne,
	})
	b.AssertEqual(pub, ws)
	return b
}

func TestComputeProvingKey(t *testing.T) {
	assert := require.New(t)

	b := testCircuit(t)
	pk, err := ComputeProvingKey(b, HashCommitter{})
	assert.NoError(err)
	assert.NotNil(pk)

	// domain is a power of two covering all rows
	rows := uint64(len(b.PublicInputs()) + b.NumGates())
	assert.GreaterOrEqual(pk.DomainSize, rows)
	assert.Zero(pk.DomainSize & (pk.DomainSize - 1))

	assert.Equal(1, pk.NumPublic)
	assert.NotNil(pk.Permutation)
}

func TestProvingKeyIsDeterministic(t *testing.T) {
	assert := require.New(t)

	pk1, err := ComputeProvingKey(testCircuit(t), HashCommitter{})
	assert.NoError(err)
	pk2, err := ComputeProvingKey(testCircuit(t), HashCommitter{})
	assert.NoError(err)

	assert.Equal(pk1.Selectors, pk2.Selectors)
	assert.Equal(pk1.Sigma, pk2.Sigma)
	assert.Equal(pk1.ID, pk2.ID)
}

func TestProvingKeyOverFailedCircuit(t *testing.T) {
	assert := require.New(t)

	b := builder.New()
	wa := b.AddVariable(elem(1))
	wc := b.AddVariable(elem(2))
	b.AssertEqual(wa, wc)
	assert.True(b.Failed())

	_, err := ComputeProvingKey(b, HashCommitter{})
	assert.Error(err)
}

func TestProvingKeyOverUnsatisfiedCircuit(t *testing.T) {
	assert := require.New(t)

	b := testCircuit(t)
	assert.NoError(b.Finalize())

	// corrupt the witness after construction; key derivation must refuse
	b.SetWitnessValue(b.PublicInputs()[0], elem(8))
	_, err := ComputeProvingKey(b, HashCommitter{})
	assert.Error(err)
}

func TestVerificationKeySeedsTranscript(t *testing.T) {
	assert := require.New(t)

	pk, err := ComputeProvingKey(testCircuit(t), HashCommitter{})
	assert.NoError(err)
	vk := pk.VerificationKey()

	t1 := NewTranscript("test-protocol")
	vk.SeedTranscript(t1)
	c1 := t1.Challenge("alpha")

	t2 := NewTranscript("test-protocol")
	vk.SeedTranscript(t2)
	c2 := t2.Challenge("alpha")

	assert.True(c1.Equal(&c2), "identical transcripts must give identical challenges")
}
