package builder

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// the secp256k1 base field stands in for any emulated modulus
func testForeignModulus(t *testing.T) *big.Int {
	t.Helper()
	p, ok := new(big.Int).SetString("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f", 16)
	require.True(t, ok)
	return p
}

func TestNewNonNativeFieldBounds(t *testing.T) {
	assert := require.New(t)

	_, err := NewNonNativeField(testForeignModulus(t))
	assert.NoError(err)

	_, err = NewNonNativeField(big.NewInt(0))
	assert.Error(err)

	// too small for four limbs
	small := new(big.Int).Lsh(big.NewInt(1), 100)
	_, err = NewNonNativeField(small)
	assert.Error(err)

	// too large for the quotient to fit the limb system
	huge := new(big.Int).Lsh(big.NewInt(1), 271)
	_, err = NewNonNativeField(huge)
	assert.Error(err)
}

func TestNonNativeWitnessRoundTrip(t *testing.T) {
	assert := require.New(t)

	p := testForeignModulus(t)
	f, err := NewNonNativeField(p)
	assert.NoError(err)

	b := New()
	v, _ := new(big.Int).SetString("123456789abcdef0123456789abcdef0123456789abcdef0", 16)
	e := b.NonNativeWitness(f, v)
	assert.Zero(b.NonNativeValue(e).Cmp(v))
	assert.False(b.Failed())
}

func TestNonNativeAdd(t *testing.T) {
	assert := require.New(t)

	p := testForeignModulus(t)
	f, err := NewNonNativeField(p)
	assert.NoError(err)

	b := New()
	x := new(big.Int).Sub(p, big.NewInt(5))
	y := big.NewInt(12)
	ex := b.NonNativeWitness(f, x)
	ey := b.NonNativeWitness(f, y)

	r := b.CreateNonNativeAddGate(f, ex, ey)
	want := new(big.Int).Add(x, y)
	want.Mod(want, p)
	assert.Zero(b.NonNativeValue(r).Cmp(want))

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestNonNativeSub(t *testing.T) {
	assert := require.New(t)

	p := testForeignModulus(t)
	f, err := NewNonNativeField(p)
	assert.NoError(err)

	b := New()
	x := big.NewInt(5)
	y := big.NewInt(12)
	ex := b.NonNativeWitness(f, x)
	ey := b.NonNativeWitness(f, y)

	r := b.CreateNonNativeSubGate(f, ex, ey)
	want := new(big.Int).Sub(x, y)
	want.Mod(want, p)
	assert.Zero(b.NonNativeValue(r).Cmp(want))

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestNonNativeMul(t *testing.T) {
	assert := require.New(t)

	p := testForeignModulus(t)
	f, err := NewNonNativeField(p)
	assert.NoError(err)

	b := New()
	x, _ := new(big.Int).SetString("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef", 16)
	y, _ := new(big.Int).SetString("cafebabecafebabecafebabecafebabecafebabecafebabecafebabecafebabe", 16)
	x.Mod(x, p)
	y.Mod(y, p)
	ex := b.NonNativeWitness(f, x)
	ey := b.NonNativeWitness(f, y)

	r := b.CreateNonNativeMulGate(f, ex, ey)
	want := new(big.Int).Mul(x, y)
	want.Mod(want, p)
	assert.Zero(b.NonNativeValue(r).Cmp(want))

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestNonNativeMulRejectsTamper(t *testing.T) {
	assert := require.New(t)

	p := testForeignModulus(t)
	f, err := NewNonNativeField(p)
	assert.NoError(err)

	b := New()
	ex := b.NonNativeWitness(f, big.NewInt(1234567))
	ey := b.NonNativeWitness(f, big.NewInt(7654321))
	r := b.CreateNonNativeMulGate(f, ex, ey)

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())

	b.SetWitnessValue(r.Limbs[0], elem(42))
	assert.Error(b.CheckCircuit())
}
