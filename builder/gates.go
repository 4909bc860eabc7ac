package builder

import (
	"github.com/ammarsjw/aztec3-circuits/constraint"
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// AddTriple describes a three-wire linear gate:
//
//	a·A + b·B + c·C + const = 0
type AddTriple struct {
	A, B, C                      uint32
	AScaling, BScaling, CScaling fr.Element
	Const                        fr.Element
}

// MulTriple describes a three-wire quadratic gate:
//
//	mul·A·B + c·C + const = 0
type MulTriple struct {
	A, B, C              uint32
	MulScaling, CScaling fr.Element
	Const                fr.Element
}

// AddQuad describes a four-wire linear gate:
//
//	a·A + b·B + c·C + d·D + const = 0
//
// When used through CreateBigAddGate with useNextGateW4 the relation also
// absorbs the fourth wire of the following row.
type AddQuad struct {
	A, B, C, D                             uint32
	AScaling, BScaling, CScaling, DScaling fr.Element
	Const                                  fr.Element
}

// MulQuad is AddQuad with an extra A·B product term.
type MulQuad struct {
	A, B, C, D                             uint32
	MulScaling                             fr.Element
	AScaling, BScaling, CScaling, DScaling fr.Element
	Const                                  fr.Element
}

// PolyTriple is the general degree-2 custom gate over three wires with
// caller-chosen coefficients:
//
//	qm·A·B + ql·A + qr·B + qo·C + qc = 0
type PolyTriple struct {
	A, B, C            uint32
	QM, QL, QR, QO, QC fr.Element
}

// EccAddGate constrains (X3, Y3) = (X1, Y1) + sign·(X2, Y2) on a short
// Weierstrass curve, using the affine chord rule. The two points must have
// distinct x coordinates.
type EccAddGate struct {
	X1, Y1, X2, Y2, X3, Y3 uint32
	SignCoefficient        fr.Element
}

func (b *UltraBuilder) arithGate(wl, wr, wo, w4 uint32, set func(*constraint.Gate)) {
	var g constraint.Gate
	g.WL, g.WR, g.WO, g.W4 = wl, wr, wo, w4
	set(&g)
	b.cs.AddGate(g)
}

// CreateAddGate appends a·A + b·B + c·C + const = 0.
func (b *UltraBuilder) CreateAddGate(t AddTriple) {
	b.arithGate(t.A, t.B, t.C, b.zeroIdx, func(g *constraint.Gate) {
		g.Coeffs[constraint.Q1] = t.AScaling
		g.Coeffs[constraint.Q2] = t.BScaling
		g.Coeffs[constraint.Q3] = t.CScaling
		g.Coeffs[constraint.QC] = t.Const
		g.Coeffs[constraint.QArith].SetOne()
	})
}

// CreateBigAddGate appends a·A + b·B + c·C + d·D + const = 0. With
// useNextGateW4 the fourth wire of the next row is added to the relation,
// which lets long additions chain through an accumulator column.
func (b *UltraBuilder) CreateBigAddGate(t AddQuad, useNextGateW4 bool) {
	b.arithGate(t.A, t.B, t.C, t.D, func(g *constraint.Gate) {
		g.Coeffs[constraint.Q1] = t.AScaling
		g.Coeffs[constraint.Q2] = t.BScaling
		g.Coeffs[constraint.Q3] = t.CScaling
		g.Coeffs[constraint.Q4] = t.DScaling
		g.Coeffs[constraint.QC] = t.Const
		if useNextGateW4 {
			g.Coeffs[constraint.QArith].SetUint64(2)
		} else {
			g.Coeffs[constraint.QArith].SetOne()
		}
	})
}

// CreateBigMulGate appends mul·A·B + a·A + b·B + c·C + d·D + const = 0.
func (b *UltraBuilder) CreateBigMulGate(t MulQuad) {
	b.arithGate(t.A, t.B, t.C, t.D, func(g *constraint.Gate) {
		g.Coeffs[constraint.QM] = t.MulScaling
		g.Coeffs[constraint.Q1] = t.AScaling
		g.Coeffs[constraint.Q2] = t.BScaling
		g.Coeffs[constraint.Q3] = t.CScaling
		g.Coeffs[constraint.Q4] = t.DScaling
		g.Coeffs[constraint.QC] = t.Const
		g.Coeffs[constraint.QArith].SetOne()
	})
}

// CreateMulGate appends mul·A·B + c·C + const = 0.
func (b *UltraBuilder) CreateMulGate(t MulTriple) {
	b.arithGate(t.A, t.B, t.C, b.zeroIdx, func(g *constraint.Gate) {
		g.Coeffs[constraint.QM] = t.MulScaling
		g.Coeffs[constraint.Q3] = t.CScaling
		g.Coeffs[constraint.QC] = t.Const
		g.Coeffs[constraint.QArith].SetOne()
	})
}

// CreateBoolGate constrains a to 0 or 1 via a·(a-1) = 0.
func (b *UltraBuilder) CreateBoolGate(a uint32) {
	b.arithGate(a, a, a, b.zeroIdx, func(g *constraint.Gate) {
		g.Coeffs[constraint.QM].SetOne()
		g.Coeffs[constraint.Q3].SetInt64(-1)
		g.Coeffs[constraint.QArith].SetOne()
	})
}

// CreatePolyGate appends the general degree-2 gate of t.
func (b *UltraBuilder) CreatePolyGate(t PolyTriple) {
	b.arithGate(t.A, t.B, t.C, b.zeroIdx, func(g *constraint.Gate) {
		g.Coeffs[constraint.QM] = t.QM
		g.Coeffs[constraint.Q1] = t.QL
		g.Coeffs[constraint.Q2] = t.QR
		g.Coeffs[constraint.Q3] = t.QO
		g.Coeffs[constraint.QC] = t.QC
		g.Coeffs[constraint.QArith].SetOne()
	})
}

// CreateBalancedAddGate appends a four-wire add gate whose fourth wire is
// additionally range constrained to two bits. Used when an addition's carry
// must stay small.
func (b *UltraBuilder) CreateBalancedAddGate(t AddQuad) {
	b.CreateBigAddGate(t, false)
	b.CreateRangeConstraint(t.D, 2)
}

// CreateEllipticAddGate appends the two-row elliptic addition gate: the
// first row carries both input points, the second the output point. The
// sign coefficient selects addition (+1) or subtraction (-1) of the second
// point.
func (b *UltraBuilder) CreateEllipticAddGate(t EccAddGate) {
	x1 := b.vars.Value(t.X1)
	x2 := b.vars.Value(t.X2)
	if x1.Equal(&x2) {
		b.fail("elliptic add gate requires distinct x coordinates")
	}

	b.arithGate(t.X1, t.Y1, t.X2, t.Y2, func(g *constraint.Gate) {
		g.Coeffs[constraint.QElliptic].SetOne()
		g.Coeffs[constraint.QM] = t.SignCoefficient
	})
	b.arithGate(t.X3, t.Y3, b.zeroIdx, b.zeroIdx, func(g *constraint.Gate) {})
}

// FixWitness pins idx to the constant v with a single arithmetic gate.
func (b *UltraBuilder) FixWitness(idx uint32, v fr.Element) {
	b.arithGate(idx, b.zeroIdx, b.zeroIdx, b.zeroIdx, func(g *constraint.Gate) {
		g.Coeffs[constraint.Q1].SetOne()
		g.Coeffs[constraint.QC].Neg(&v)
		g.Coeffs[constraint.QArith].SetOne()
	})
}
