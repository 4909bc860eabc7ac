package builder

import (
	"math/big"
	"sort"

	"github.com/ammarsjw/aztec3-circuits/constraint"
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// rangeList collects every variable constrained to [0, targetRange]. At
// finalize a sorted copy of the list is laid out in qSort rows whose
// adjacent differences are bounded by rangeStepSize; the generalized
// permutation ties originals (rangeTag) to their sorted copies (tauTag).
type rangeList struct {
	targetRange     uint64
	rangeTag        uint32
	tauTag          uint32
	variableIndices []uint32
}

func pow2(n uint64) fr.Element {
	var e fr.Element
	e.SetOne()
	for i := uint64(0); i < n; i++ {
		e.Double(&e)
	}
	return e
}

// createRangeList registers a new target range. The list is seeded with
// every multiple of the sort step up to the target, plus the target itself,
// so the sorted column can always step from 0 to targetRange without gaps
// larger than rangeStepSize.
func (b *UltraBuilder) createRangeList(targetRange uint64) *rangeList {
	l := &rangeList{targetRange: targetRange}
	l.rangeTag, l.tauTag = b.createTagPair()

	var v fr.Element
	for s := uint64(0); s <= targetRange; s += rangeStepSize {
		v.SetUint64(s)
		idx := b.AddVariable(v)
		b.assignTag(idx, l.rangeTag)
		l.variableIndices = append(l.variableIndices, idx)
	}
	if targetRange%rangeStepSize != 0 {
		v.SetUint64(targetRange)
		idx := b.AddVariable(v)
		b.assignTag(idx, l.rangeTag)
		l.variableIndices = append(l.variableIndices, idx)
	}

	b.rangeLists[targetRange] = l
	return l
}

// createNewRangeConstraint adds idx to the range list for targetRange,
// creating the list on first use. A variable already claimed by a different
// generalized permutation is routed through an equality-gated copy.
func (b *UltraBuilder) createNewRangeConstraint(idx uint32, targetRange uint64) {
	if targetRange == 0 {
		b.AssertEqual(idx, b.zeroIdx)
		return
	}

	list, ok := b.rangeLists[targetRange]
	if !ok {
		list = b.createRangeList(targetRange)
	}

	v := b.vars.Value(idx)
	if !v.IsUint64() || v.Uint64() > targetRange {
		b.fail("range constraint violated: %s exceeds %d", v.String(), targetRange)
	}

	switch existing := b.vars.Tag(idx); existing {
	case constraint.DummyTag:
		b.assignTag(idx, list.rangeTag)
		list.variableIndices = append(list.variableIndices, idx)
	case list.rangeTag:
		// already a member of this list
	default:
		dup := b.AddVariable(v)
		var one, minusOne fr.Element
		one.SetOne()
		minusOne.Neg(&one)
		b.CreateAddGate(AddTriple{
			A: idx, AScaling: one,
			B: dup, BScaling: minusOne,
			C: b.zeroIdx,
		})
		b.assignTag(dup, list.rangeTag)
		list.variableIndices = append(list.variableIndices, dup)
	}
}

// CreateRangeConstraint constrains idx to numBits bits. Small ranges go
// through a single range list membership; wider values decompose into
// limbs of DefaultRangeBitnum bits, each separately listed, with the final
// (most significant) limb sized to exactly cover the remaining bit budget.
func (b *UltraBuilder) CreateRangeConstraint(idx uint32, numBits uint64) {
	if numBits == 0 {
		v := b.vars.Value(idx)
		if !v.IsZero() {
			b.fail("range constraint violated: %s is not zero", v.String())
		}
		b.AssertEqual(idx, b.zeroIdx)
		return
	}
	if numBits <= DefaultRangeBitnum {
		b.createNewRangeConstraint(idx, (uint64(1)<<numBits)-1)
		return
	}
	b.DecomposeIntoDefaultRange(idx, numBits)
}

// DecomposeIntoDefaultRange splits idx into DefaultRangeBitnum-bit limbs,
// range constrains each and recomposes them back onto idx. Returns the limb
// witness indices, least significant first.
func (b *UltraBuilder) DecomposeIntoDefaultRange(idx uint32, numBits uint64) []uint32 {
	v := b.vars.Value(idx)
	var bv big.Int
	v.BigInt(&bv)
	if uint64(bv.BitLen()) > numBits {
		b.fail("range constraint violated: value has %d bits, limit is %d", bv.BitLen(), numBits)
	}

	numLimbs := (numBits + DefaultRangeBitnum - 1) / DefaultRangeBitnum
	lastBits := numBits - DefaultRangeBitnum*(numLimbs-1)

	mask := big.NewInt((1 << DefaultRangeBitnum) - 1)
	limbs := make([]uint32, numLimbs)
	var limbVal big.Int
	var e fr.Element
	for i := uint64(0); i < numLimbs; i++ {
		limbVal.Rsh(&bv, uint(DefaultRangeBitnum*i))
		limbVal.And(&limbVal, mask)
		e.SetUint64(limbVal.Uint64())
		limbs[i] = b.AddVariable(e)

		if i < numLimbs-1 {
			b.createNewRangeConstraint(limbs[i], (uint64(1)<<DefaultRangeBitnum)-1)
		} else {
			b.CreateRangeConstraint(limbs[i], lastBits)
		}
	}

	// recompose from the most significant limb down: acc' = acc·2^14 + limb
	var one, minusOne fr.Element
	one.SetOne()
	minusOne.Neg(&one)
	shift := pow2(DefaultRangeBitnum)

	acc := limbs[numLimbs-1]
	accVal := new(big.Int).Rsh(&bv, uint(DefaultRangeBitnum*(numLimbs-1)))
	for i := int(numLimbs) - 2; i >= 0; i-- {
		limbVal.Rsh(&bv, uint(DefaultRangeBitnum*uint64(i)))
		limbVal.And(&limbVal, mask)
		accVal.Lsh(accVal, DefaultRangeBitnum)
		accVal.Add(accVal, &limbVal)

		var av fr.Element
		av.SetBigInt(accVal)
		next := b.AddVariable(av)

		b.CreateAddGate(AddTriple{
			A: acc, AScaling: shift,
			B: limbs[i], BScaling: one,
			C: next, CScaling: minusOne,
		})
		acc = next
	}
	b.AssertEqual(acc, idx)

	return limbs
}

// processRangeLists emits the sorted columns of every range list. Lists are
// processed in ascending target order so repeated builds of the same circuit
// produce identical gate layouts.
func (b *UltraBuilder) processRangeLists() {
	targets := make([]uint64, 0, len(b.rangeLists))
	for t := range b.rangeLists {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	for _, t := range targets {
		b.processRangeList(b.rangeLists[t])
	}
}

func (b *UltraBuilder) processRangeList(list *rangeList) {
	// pad the originals to a whole number of sort rows
	var zero fr.Element
	for len(list.variableIndices)%4 != 0 {
		idx := b.AddVariable(zero)
		b.assignTag(idx, list.rangeTag)
		list.variableIndices = append(list.variableIndices, idx)
	}

	values := make([]uint64, len(list.variableIndices))
	for i, idx := range list.variableIndices {
		v := b.vars.Value(idx)
		if !v.IsUint64() {
			b.fail("range list %d contains a non-integer value", list.targetRange)
			return
		}
		values[i] = v.Uint64()
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	// fresh witnesses for the sorted copy, tau-tagged so the generalized
	// permutation can match them against the originals
	sorted := make([]uint32, len(values))
	var e fr.Element
	for i, v := range values {
		e.SetUint64(v)
		sorted[i] = b.AddVariable(e)
		b.assignTag(sorted[i], list.tauTag)
	}

	b.createSortConstraintWithEdges(sorted, 0, list.targetRange)
}

// createSortConstraintWithEdges lays indices out four to a row under the
// qSort selector, which bounds the difference of adjacent cells (including
// across rows) by rangeStepSize. The first and last entries are pinned to
// the range edges. A terminator row repeats the final entry so the last
// sort row's cross-row check lands on a zero difference.
func (b *UltraBuilder) createSortConstraintWithEdges(indices []uint32, begin, end uint64) {
	if len(indices) == 0 || len(indices)%4 != 0 {
		b.fail("sort constraint requires a positive multiple of four entries, got %d", len(indices))
		return
	}

	var eBegin, eEnd fr.Element
	eBegin.SetUint64(begin)
	eEnd.SetUint64(end)
	b.FixWitness(indices[0], eBegin)
	b.FixWitness(indices[len(indices)-1], eEnd)

	for i := 0; i < len(indices); i += 4 {
		b.arithGate(indices[i], indices[i+1], indices[i+2], indices[i+3], func(g *constraint.Gate) {
			g.Coeffs[constraint.QSort].SetOne()
		})
	}
	last := indices[len(indices)-1]
	b.arithGate(last, b.zeroIdx, b.zeroIdx, b.zeroIdx, func(g *constraint.Gate) {})
}
