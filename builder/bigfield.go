package builder

import (
	"fmt"
	"math/big"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// Non-native arithmetic emulates a foreign modulus by splitting values into
// 68-bit limbs. The defining identity (x op y = q·p + r) is checked over the
// native field in base-2^68 chunks small enough that no chunk can wrap,
// with range-constrained carries linking the chunks.
const (
	nonNativeLimbBits = 68
	nonNativeNumLimbs = 4

	// carries are signed and bounded well below 2^72; the offset shifts
	// them into the non-negative range before range checking
	carryOffsetBits = 72
	carryRangeBits  = 73
)

// NonNativeField describes an emulated modulus. The modulus must need all
// four limbs (more than 204 bits) and fit the limb system (at most 272).
type NonNativeField struct {
	Modulus *big.Int

	limbs   [nonNativeNumLimbs]*big.Int
	topBits uint64
}

// NonNativeElement is a foreign-field value as four limb witnesses, least
// significant first. Limbs are range constrained at creation.
type NonNativeElement struct {
	Limbs [nonNativeNumLimbs]uint32
}

// NewNonNativeField validates and precomputes the limb decomposition of an
// emulated modulus.
func NewNonNativeField(modulus *big.Int) (*NonNativeField, error) {
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, fmt.Errorf("non-native modulus must be positive")
	}
	// the upper bound keeps the multiplication quotient inside four limbs
	bits := uint64(modulus.BitLen())
	if bits <= nonNativeLimbBits*(nonNativeNumLimbs-1) || bits >= nonNativeLimbBits*nonNativeNumLimbs {
		return nil, fmt.Errorf("non-native modulus must have between %d and %d bits, got %d",
			nonNativeLimbBits*(nonNativeNumLimbs-1)+1, nonNativeLimbBits*nonNativeNumLimbs-1, bits)
	}
	f := &NonNativeField{
		Modulus: new(big.Int).Set(modulus),
		topBits: bits - nonNativeLimbBits*(nonNativeNumLimbs-1),
	}
	limbs := splitLimbs(modulus)
	for i := range limbs {
		f.limbs[i] = limbs[i]
	}
	return f, nil
}

func splitLimbs(v *big.Int) [nonNativeNumLimbs]*big.Int {
	var out [nonNativeNumLimbs]*big.Int
	mask := new(big.Int).Lsh(big.NewInt(1), nonNativeLimbBits)
	mask.Sub(mask, big.NewInt(1))
	for i := 0; i < nonNativeNumLimbs; i++ {
		l := new(big.Int).Rsh(v, uint(nonNativeLimbBits*i))
		l.And(l, mask)
		out[i] = l
	}
	return out
}

// NonNativeWitness reduces v modulo the emulated field and materializes it
// as four range-constrained limb witnesses.
func (b *UltraBuilder) NonNativeWitness(f *NonNativeField, v *big.Int) NonNativeElement {
	reduced := new(big.Int).Mod(v, f.Modulus)
	return b.nonNativeFromLimbs(splitLimbs(reduced), f.topBits)
}

func (b *UltraBuilder) nonNativeFromLimbs(limbs [nonNativeNumLimbs]*big.Int, topBits uint64) NonNativeElement {
	var e NonNativeElement
	var el fr.Element
	for i := 0; i < nonNativeNumLimbs; i++ {
		el.SetBigInt(limbs[i])
		e.Limbs[i] = b.AddVariable(el)
		if i < nonNativeNumLimbs-1 {
			b.CreateRangeConstraint(e.Limbs[i], nonNativeLimbBits)
		} else {
			b.CreateRangeConstraint(e.Limbs[i], topBits)
		}
	}
	return e
}

// NonNativeValue recomposes the integer an element's limbs currently hold.
func (b *UltraBuilder) NonNativeValue(e NonNativeElement) *big.Int {
	acc := new(big.Int)
	var lv big.Int
	for i := nonNativeNumLimbs - 1; i >= 0; i-- {
		acc.Lsh(acc, nonNativeLimbBits)
		v := b.vars.Value(e.Limbs[i])
		v.BigInt(&lv)
		acc.Add(acc, &lv)
	}
	return acc
}

// CreateNonNativeAddGate constrains r = x + y (mod p) and returns r.
func (b *UltraBuilder) CreateNonNativeAddGate(f *NonNativeField, x, y NonNativeElement) NonNativeElement {
	return b.nonNativeLinear(f, x, y, false)
}

// CreateNonNativeSubGate constrains r = x - y (mod p) and returns r.
func (b *UltraBuilder) CreateNonNativeSubGate(f *NonNativeField, x, y NonNativeElement) NonNativeElement {
	return b.nonNativeLinear(f, x, y, true)
}

// nonNativeLinear handles both addition and subtraction. For subtraction the
// modulus is added to the left side so the quotient stays in {0, 1}:
//
//	x + y     = q·p + r
//	x - y + p = q·p + r
func (b *UltraBuilder) nonNativeLinear(f *NonNativeField, x, y NonNativeElement, subtract bool) NonNativeElement {
	xv := b.NonNativeValue(x)
	yv := b.NonNativeValue(y)

	lhs := new(big.Int)
	if subtract {
		lhs.Sub(xv, yv)
		lhs.Add(lhs, f.Modulus)
	} else {
		lhs.Add(xv, yv)
	}
	r := new(big.Int).Mod(lhs, f.Modulus)
	q := new(big.Int).Sub(lhs, r)
	q.Div(q, f.Modulus)

	result := b.nonNativeFromLimbs(splitLimbs(r), f.topBits)

	var qe fr.Element
	qe.SetBigInt(q)
	qWitness := b.AddVariable(qe)
	b.CreateBoolGate(qWitness)

	// per-position integer terms of lhs - q·p - r
	ySign := big.NewInt(1)
	if subtract {
		ySign = big.NewInt(-1)
	}
	rLimbs := splitLimbs(r)
	pOffset := splitLimbs(new(big.Int))
	if subtract {
		pOffset = f.limbs
	}

	terms := make([][]linTerm, nonNativeNumLimbs)
	positions := make([]*big.Int, nonNativeNumLimbs)
	xLimbs := b.limbValues(x)
	yLimbs := b.limbValues(y)
	for k := 0; k < nonNativeNumLimbs; k++ {
		pos := new(big.Int).Set(xLimbs[k])
		pos.Add(pos, new(big.Int).Mul(ySign, yLimbs[k]))
		if subtract {
			pos.Add(pos, pOffset[k])
		}
		pos.Sub(pos, new(big.Int).Mul(q, f.limbs[k]))
		pos.Sub(pos, rLimbs[k])
		positions[k] = pos

		var negP, negOne, sy fr.Element
		negP.SetBigInt(f.limbs[k])
		negP.Neg(&negP)
		negOne.SetInt64(-1)
		sy.SetBigInt(ySign)

		t := []linTerm{
			{x.Limbs[k], frOne()},
			{y.Limbs[k], sy},
			{qWitness, negP},
			{result.Limbs[k], negOne},
		}
		if subtract {
			var pc fr.Element
			pc.SetBigInt(pOffset[k])
			t = append(t, linTerm{b.oneIdx, pc})
		}
		terms[k] = t
	}

	b.constrainChunkedZero(terms, positions)
	return result
}

// CreateNonNativeMulGate constrains r = x·y (mod p) and returns r. The
// quotient is materialized as four 68-bit limbs and every cross-limb
// product gets its own multiplication gate; the identity
//
//	x·y - q·p - r = 0
//
// is then enforced positionwise in base 2^68.
func (b *UltraBuilder) CreateNonNativeMulGate(f *NonNativeField, x, y NonNativeElement) NonNativeElement {
	xv := b.NonNativeValue(x)
	yv := b.NonNativeValue(y)

	prod := new(big.Int).Mul(xv, yv)
	r := new(big.Int).Mod(prod, f.Modulus)
	q := new(big.Int).Sub(prod, r)
	q.Div(q, f.Modulus)

	result := b.nonNativeFromLimbs(splitLimbs(r), f.topBits)

	qLimbs := splitLimbs(q)
	var quotient NonNativeElement
	var el fr.Element
	for i := 0; i < nonNativeNumLimbs; i++ {
		el.SetBigInt(qLimbs[i])
		quotient.Limbs[i] = b.AddVariable(el)
		b.CreateRangeConstraint(quotient.Limbs[i], nonNativeLimbBits)
	}

	// cross-limb product witnesses x_i·y_j
	xLimbs := b.limbValues(x)
	yLimbs := b.limbValues(y)
	var prods [nonNativeNumLimbs][nonNativeNumLimbs]uint32
	var negOne fr.Element
	negOne.SetInt64(-1)
	for i := 0; i < nonNativeNumLimbs; i++ {
		for j := 0; j < nonNativeNumLimbs; j++ {
			pv := new(big.Int).Mul(xLimbs[i], yLimbs[j])
			el.SetBigInt(pv)
			prods[i][j] = b.AddVariable(el)
			b.CreateMulGate(MulTriple{
				A: x.Limbs[i], B: y.Limbs[j], C: prods[i][j],
				MulScaling: frOne(), CScaling: negOne,
			})
		}
	}

	numPositions := 2*nonNativeNumLimbs - 1
	terms := make([][]linTerm, numPositions)
	positions := make([]*big.Int, numPositions)
	rLimbs := splitLimbs(r)
	for k := 0; k < numPositions; k++ {
		pos := new(big.Int)
		var t []linTerm
		for i := 0; i < nonNativeNumLimbs; i++ {
			j := k - i
			if j < 0 || j >= nonNativeNumLimbs {
				continue
			}
			pos.Add(pos, new(big.Int).Mul(xLimbs[i], yLimbs[j]))
			t = append(t, linTerm{prods[i][j], frOne()})

			pos.Sub(pos, new(big.Int).Mul(qLimbs[i], f.limbs[j]))
			var negP fr.Element
			negP.SetBigInt(f.limbs[j])
			negP.Neg(&negP)
			t = append(t, linTerm{quotient.Limbs[i], negP})
		}
		if k < nonNativeNumLimbs {
			pos.Sub(pos, rLimbs[k])
			t = append(t, linTerm{result.Limbs[k], negOne})
		}
		positions[k] = pos
		terms[k] = t
	}

	b.constrainChunkedZero(terms, positions)
	return result
}

type linTerm struct {
	idx   uint32
	coeff fr.Element
}

func frOne() fr.Element {
	var e fr.Element
	e.SetOne()
	return e
}

func (b *UltraBuilder) limbValues(e NonNativeElement) [nonNativeNumLimbs]*big.Int {
	var out [nonNativeNumLimbs]*big.Int
	for i := range e.Limbs {
		v := b.vars.Value(e.Limbs[i])
		out[i] = new(big.Int)
		v.BigInt(out[i])
	}
	return out
}

// constrainChunkedZero enforces sum_k positions[k]·B^k = 0 over the
// integers, where B = 2^68 and positions[k] is realized in-circuit by
// terms[k]. Positions are consumed two at a time; each chunk fits the
// native field with room to spare and hands a range-constrained carry to
// the next chunk.
func (b *UltraBuilder) constrainChunkedZero(terms [][]linTerm, positions []*big.Int) {
	base := new(big.Int).Lsh(big.NewInt(1), nonNativeLimbBits)
	baseSq := new(big.Int).Mul(base, base)
	shift := pow2(nonNativeLimbBits)
	shiftSq := pow2(2 * nonNativeLimbBits)

	var carryWitness uint32
	carry := new(big.Int)
	haveCarry := false

	for k := 0; k < len(positions); k += 2 {
		chunk := new(big.Int).Set(positions[k])
		chunkTerms := append([]linTerm(nil), terms[k]...)
		if k+1 < len(positions) {
			chunk.Add(chunk, new(big.Int).Mul(base, positions[k+1]))
			for _, t := range terms[k+1] {
				var c fr.Element
				c.Mul(&t.coeff, &shift)
				chunkTerms = append(chunkTerms, linTerm{t.idx, c})
			}
		}
		if haveCarry {
			chunk.Add(chunk, carry)
			chunkTerms = append(chunkTerms, linTerm{carryWitness, frOne()})
		}

		last := k+2 >= len(positions)
		if last {
			if chunk.Sign() != 0 {
				b.fail("non-native identity does not balance")
			}
			b.constrainLinearCombinationZero(chunkTerms)
			return
		}

		// chunk = carry'·B², carry' signed and small
		rem := new(big.Int)
		carry.QuoRem(chunk, baseSq, rem)
		if rem.Sign() != 0 {
			b.fail("non-native identity does not balance")
		}

		var cv fr.Element
		cv.SetBigInt(carry)
		carryWitness = b.AddVariable(cv)
		haveCarry = true

		var negShiftSq fr.Element
		negShiftSq.Neg(&shiftSq)
		chunkTerms = append(chunkTerms, linTerm{carryWitness, negShiftSq})
		b.constrainLinearCombinationZero(chunkTerms)

		b.rangeConstrainSignedCarry(carryWitness, carry)
	}
}

// rangeConstrainSignedCarry bounds a signed carry by shifting it into the
// non-negative range and range checking the shifted copy.
func (b *UltraBuilder) rangeConstrainSignedCarry(carryWitness uint32, carry *big.Int) {
	offset := new(big.Int).Lsh(big.NewInt(1), carryOffsetBits)
	shifted := new(big.Int).Add(carry, offset)
	if shifted.Sign() < 0 || uint64(shifted.BitLen()) > carryRangeBits {
		b.fail("non-native carry out of range")
		return
	}

	var sv fr.Element
	sv.SetBigInt(shifted)
	shiftedWitness := b.AddVariable(sv)

	var negOne, negOffset fr.Element
	negOne.SetInt64(-1)
	negOffset = pow2(carryOffsetBits)
	negOffset.Neg(&negOffset)
	b.CreateAddGate(AddTriple{
		A: shiftedWitness, AScaling: frOne(),
		B: carryWitness, BScaling: negOne,
		C:     b.zeroIdx,
		Const: negOffset,
	})

	b.CreateRangeConstraint(shiftedWitness, carryRangeBits)
}

// constrainLinearCombinationZero enforces sum coeff_i·w_i = 0 by folding
// three terms at a time through an accumulator column.
func (b *UltraBuilder) constrainLinearCombinationZero(terms []linTerm) {
	var zero fr.Element
	for len(terms) > 4 {
		var sum fr.Element
		for i := 0; i < 3; i++ {
			var t fr.Element
			v := b.vars.Value(terms[i].idx)
			t.Mul(&terms[i].coeff, &v)
			sum.Add(&sum, &t)
		}
		accIdx := b.AddVariable(sum)

		var negOne fr.Element
		negOne.SetInt64(-1)
		b.CreateBigAddGate(AddQuad{
			A: terms[0].idx, AScaling: terms[0].coeff,
			B: terms[1].idx, BScaling: terms[1].coeff,
			C: terms[2].idx, CScaling: terms[2].coeff,
			D: accIdx, DScaling: negOne,
		}, false)

		rest := make([]linTerm, 0, len(terms)-2)
		rest = append(rest, linTerm{accIdx, frOne()})
		rest = append(rest, terms[3:]...)
		terms = rest
	}

	for len(terms) < 4 {
		terms = append(terms, linTerm{b.zeroIdx, zero})
	}
	b.CreateBigAddGate(AddQuad{
		A: terms[0].idx, AScaling: terms[0].coeff,
		B: terms[1].idx, BScaling: terms[1].coeff,
		C: terms[2].idx, CScaling: terms[2].coeff,
		D: terms[3].idx, DScaling: terms[3].coeff,
	}, false)
}
