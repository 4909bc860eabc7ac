package builder

import (
	"testing"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func one() fr.Element { return elem(1) }

func mone() fr.Element {
	var e fr.Element
	e.SetInt64(-1)
	return e
}

// addGateCircuit constrains a + b = c.
func addGateCircuit(t *testing.T, a, c, sum uint64) *UltraBuilder {
	t.Helper()
	b := New()
	wa := b.AddVariable(elem(a))
	wc := b.AddVariable(elem(c))
	ws := b.AddVariable(elem(sum))
	b.CreateAddGate(AddTriple{
		A: wa, AScaling: one(),
		B: wc, BScaling: one(),
		C: ws, CScaling: mone(),
	})
	return b
}

func TestAddGate(t *testing.T) {
	assert := require.New(t)

	b := addGateCircuit(t, 3, 4, 7)
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())

	bad := addGateCircuit(t, 3, 4, 8)
	assert.NoError(bad.Finalize())
	assert.Error(bad.CheckCircuit())
}

func TestMulGate(t *testing.T) {
	assert := require.New(t)

	b := New()
	wa := b.AddVariable(elem(6))
	wc := b.AddVariable(elem(7))
	wp := b.AddVariable(elem(42))
	b.CreateMulGate(MulTriple{
		A: wa, B: wc, C: wp,
		MulScaling: one(), CScaling: mone(),
	})
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())

	b.SetWitnessValue(wp, elem(43))
	assert.Error(b.CheckCircuit())
}

func TestBoolGate(t *testing.T) {
	assert := require.New(t)

	for _, v := range []uint64{0, 1} {
		b := New()
		b.CreateBoolGate(b.AddVariable(elem(v)))
		assert.NoError(b.Finalize())
		assert.NoError(b.CheckCircuit())
	}

	b := New()
	b.CreateBoolGate(b.AddVariable(elem(2)))
	assert.NoError(b.Finalize())
	assert.Error(b.CheckCircuit())
}

func TestPolyGate(t *testing.T) {
	assert := require.New(t)

	// 2ab + 3a - b - c + 5 = 0 with a=2, b=3: 12 + 6 - 3 + 5 = 20 = c
	b := New()
	wa := b.AddVariable(elem(2))
	wb := b.AddVariable(elem(3))
	wc := b.AddVariable(elem(20))
	var qc fr.Element
	qc.SetUint64(5)
	b.CreatePolyGate(PolyTriple{
		A: wa, B: wb, C: wc,
		QM: elem(2), QL: elem(3), QR: mone(), QO: mone(), QC: qc,
	})
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestBigAddGateWithNextW4(t *testing.T) {
	assert := require.New(t)

	// a + b + c + d + w4(next) = 60, with the successor row carrying 10 in
	// its fourth wire
	b := New()
	wa := b.AddVariable(elem(10))
	wc := b.AddVariable(elem(15))
	wo := b.AddVariable(elem(20))
	w4 := b.AddVariable(elem(5))
	carry := b.AddVariable(elem(10))

	var negSixty fr.Element
	negSixty.SetInt64(-60)
	b.CreateBigAddGate(AddQuad{
		A: wa, AScaling: one(),
		B: wc, BScaling: one(),
		C: wo, CScaling: one(),
		D: w4, DScaling: one(),
		Const: negSixty,
	}, true)
	b.CreateBigAddGate(AddQuad{
		A: b.Zero(), B: b.Zero(), C: b.Zero(),
		D: carry, DScaling: elem(0),
	}, false)

	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())
}

func TestAssertEqual(t *testing.T) {
	assert := require.New(t)

	b := New()
	wa := b.AddVariable(elem(9))
	wc := b.AddVariable(elem(9))
	b.AssertEqual(wa, wc)
	assert.False(b.Failed())

	v := b.Value(wc)
	want := elem(9)
	assert.True(v.Equal(&want))

	wd := b.AddVariable(elem(10))
	b.AssertEqual(wa, wd)
	assert.True(b.Failed())
	assert.Contains(b.FailureReason(), "assert_equal")
	assert.Error(b.CheckCircuit())
}

func TestFixWitness(t *testing.T) {
	assert := require.New(t)

	b := New()
	w := b.AddVariable(elem(123))
	b.FixWitness(w, elem(123))
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())

	b.SetWitnessValue(w, elem(124))
	assert.Error(b.CheckCircuit())
}

func TestBalancedAddGate(t *testing.T) {
	assert := require.New(t)

	b := New()
	wa := b.AddVariable(elem(5))
	wc := b.AddVariable(elem(6))
	wo := b.AddVariable(elem(14))
	carry := b.AddVariable(elem(3))
	b.CreateBalancedAddGate(AddQuad{
		A: wa, AScaling: one(),
		B: wc, BScaling: one(),
		C: wo, CScaling: mone(),
		D: carry, DScaling: one(),
	})
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())

	// the fourth wire is bounded to two bits
	bad := New()
	wa = bad.AddVariable(elem(5))
	wc = bad.AddVariable(elem(6))
	wo = bad.AddVariable(elem(16))
	carry = bad.AddVariable(elem(5))
	bad.CreateBalancedAddGate(AddQuad{
		A: wa, AScaling: one(),
		B: wc, BScaling: one(),
		C: wo, CScaling: mone(),
		D: carry, DScaling: one(),
	})
	assert.True(bad.Failed())
}

func TestEllipticAddGate(t *testing.T) {
	assert := require.New(t)

	// chord rule with sign = +1, small coordinates
	var x1, y1, x2, y2 fr.Element
	x1.SetUint64(1)
	y1.SetUint64(2)
	x2.SetUint64(3)
	y2.SetUint64(8)

	var lambda, den, x3, y3, tmp fr.Element
	lambda.Sub(&y2, &y1)
	den.Sub(&x2, &x1)
	den.Inverse(&den)
	lambda.Mul(&lambda, &den)
	x3.Square(&lambda)
	x3.Sub(&x3, &x1)
	x3.Sub(&x3, &x2)
	tmp.Sub(&x1, &x3)
	y3.Mul(&lambda, &tmp)
	y3.Sub(&y3, &y1)

	b := New()
	g := EccAddGate{
		X1: b.AddVariable(x1), Y1: b.AddVariable(y1),
		X2: b.AddVariable(x2), Y2: b.AddVariable(y2),
		X3: b.AddVariable(x3), Y3: b.AddVariable(y3),
		SignCoefficient: one(),
	}
	b.CreateEllipticAddGate(g)
	assert.NoError(b.Finalize())
	assert.NoError(b.CheckCircuit())

	// wrong output point must be rejected
	oneE := elem(1)
	var yBad fr.Element
	yBad.Add(&y3, &oneE)
	b.SetWitnessValue(g.Y3, yBad)
	assert.Error(b.CheckCircuit())
}

func TestPublicInputsInWitness(t *testing.T) {
	assert := require.New(t)

	b := New()
	pub := b.AddPublicVariable(elem(77))
	wa := b.AddVariable(elem(77))
	b.AssertEqual(pub, wa)
	assert.NoError(b.Finalize())

	cols, err := b.BuildWitness()
	assert.NoError(err)
	assert.Len(cols[0], 1+b.NumGates())

	want := elem(77)
	assert.True(cols[0][0].Equal(&want))
	assert.True(cols[1][0].Equal(&want))
}

func TestBuildWitnessRequiresFinalize(t *testing.T) {
	assert := require.New(t)

	b := New()
	_, err := b.BuildWitness()
	assert.Error(err)
}
