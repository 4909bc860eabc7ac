package builder

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestXorThroughLookup(t *testing.T) {
	assert := require.New(t)

	b := New()
	wa := b.AddVariable(elem(0xdeadbeef))
	wc := b.AddVariable(elem(0x01234567))
	out := b.Xor(wa, wc)

	v := b.Value(out)
	want := elem(0xdeadbeef ^ 0x01234567)
	assert.True(v.Equal(&want))

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestAndThroughLookup(t *testing.T) {
	assert := require.New(t)

	b := New()
	wa := b.AddVariable(elem(0xffff0000))
	wc := b.AddVariable(elem(0x12345678))
	out := b.And(wa, wc)

	v := b.Value(out)
	want := elem(0x12340000)
	assert.True(v.Equal(&want))

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestLookupRejectsTamperedResult(t *testing.T) {
	assert := require.New(t)

	b := New()
	wa := b.AddVariable(elem(0b1010))
	wc := b.AddVariable(elem(0b0110))
	out := b.Xor(wa, wc)

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())

	b.SetWitnessValue(out, elem(0b1111))
	assert.Error(b.CheckCircuit())
}

func TestLookupRejectsOversizedKey(t *testing.T) {
	assert := require.New(t)

	b := New()
	wa := b.AddVariable(elem(1 << 33))
	wc := b.AddVariable(elem(0))
	b.Xor(wa, wc)
	assert.True(b.Failed())
	assert.Contains(b.FailureReason(), "lookup failed")
}

func TestLookupProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("circuit xor matches native xor", prop.ForAll(
		func(a, c uint32) bool {
			b := New()
			wa := b.AddVariable(elem(uint64(a)))
			wc := b.AddVariable(elem(uint64(c)))
			out := b.Xor(wa, wc)

			v := b.Value(out)
			want := elem(uint64(a ^ c))
			if !v.Equal(&want) {
				return false
			}
			if err := b.Finalize(); err != nil {
				return false
			}
			return b.CheckCircuit() == nil
		},
		gen.UInt32(), gen.UInt32(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
