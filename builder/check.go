package builder

import (
	"fmt"
	"sort"

	"github.com/ammarsjw/aztec3-circuits/constraint"
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// CheckCircuit replays every gate relation against the current witness
// assignment and reports the first unsatisfied constraint. A circuit whose
// construction already failed is rejected outright.
func (b *UltraBuilder) CheckCircuit() error {
	if b.failed {
		return fmt.Errorf("circuit construction failed: %s", b.failReason)
	}

	n := b.cs.NumGates
	for i := 0; i < n; i++ {
		if err := b.checkArithmetic(i); err != nil {
			return err
		}
		if err := b.checkSort(i); err != nil {
			return err
		}
		if err := b.checkElliptic(i); err != nil {
			return err
		}
		if err := b.checkLookup(i); err != nil {
			return err
		}
		if err := b.checkMemory(i); err != nil {
			return err
		}
	}

	return b.checkRangeLists()
}

func (b *UltraBuilder) checkArithmetic(i int) error {
	qArith := b.cs.SelectorAt(constraint.QArith, i)
	if qArith.IsZero() {
		return nil
	}

	w1 := b.wireValue(0, i)
	w2 := b.wireValue(1, i)
	w3 := b.wireValue(2, i)
	w4 := b.wireValue(3, i)

	var acc, t fr.Element
	if qArith.IsOne() {
		qm := b.cs.SelectorAt(constraint.QM, i)
		t.Mul(&w1, &w2)
		t.Mul(&t, &qm)
		acc.Add(&acc, &t)
	}

	for _, term := range []struct {
		sel constraint.Selector
		w   *fr.Element
	}{
		{constraint.Q1, &w1},
		{constraint.Q2, &w2},
		{constraint.Q3, &w3},
		{constraint.Q4, &w4},
	} {
		q := b.cs.SelectorAt(term.sel, i)
		t.Mul(&q, term.w)
		acc.Add(&acc, &t)
	}
	qc := b.cs.SelectorAt(constraint.QC, i)
	acc.Add(&acc, &qc)

	if !qArith.IsOne() {
		// widened relation: absorb the next row's fourth wire
		if i+1 >= b.cs.NumGates {
			return fmt.Errorf("gate %d: widened arithmetic gate has no successor row", i)
		}
		w4next := b.wireValue(3, i+1)
		acc.Add(&acc, &w4next)
	}

	if !acc.IsZero() {
		return fmt.Errorf("gate %d: arithmetic relation unsatisfied", i)
	}
	return nil
}

func (b *UltraBuilder) checkSort(i int) error {
	qSort := b.cs.SelectorAt(constraint.QSort, i)
	if qSort.IsZero() {
		return nil
	}
	if i+1 >= b.cs.NumGates {
		return fmt.Errorf("gate %d: sort row has no successor row", i)
	}

	cells := []fr.Element{
		b.wireValue(0, i),
		b.wireValue(1, i),
		b.wireValue(2, i),
		b.wireValue(3, i),
		b.wireValue(0, i+1),
	}
	for k := 0; k+1 < len(cells); k++ {
		var d fr.Element
		d.Sub(&cells[k+1], &cells[k])
		if !d.IsUint64() || d.Uint64() > rangeStepSize {
			return fmt.Errorf("gate %d: sort delta %d out of bounds", i, k)
		}
	}
	return nil
}

func (b *UltraBuilder) checkElliptic(i int) error {
	qEll := b.cs.SelectorAt(constraint.QElliptic, i)
	if qEll.IsZero() {
		return nil
	}
	if i+1 >= b.cs.NumGates {
		return fmt.Errorf("gate %d: elliptic gate has no output row", i)
	}

	x1 := b.wireValue(0, i)
	y1 := b.wireValue(1, i)
	x2 := b.wireValue(2, i)
	y2 := b.wireValue(3, i)
	x3 := b.wireValue(0, i+1)
	y3 := b.wireValue(1, i+1)
	sign := b.cs.SelectorAt(constraint.QM, i)

	if x1.Equal(&x2) {
		return fmt.Errorf("gate %d: elliptic gate with coincident x coordinates", i)
	}

	// chord rule: lambda = (sign·y2 - y1) / (x2 - x1)
	var lambda, num, den fr.Element
	num.Mul(&sign, &y2)
	num.Sub(&num, &y1)
	den.Sub(&x2, &x1)
	den.Inverse(&den)
	lambda.Mul(&num, &den)

	var ex3, ey3, t fr.Element
	ex3.Square(&lambda)
	ex3.Sub(&ex3, &x1)
	ex3.Sub(&ex3, &x2)

	t.Sub(&x1, &ex3)
	ey3.Mul(&lambda, &t)
	ey3.Sub(&ey3, &y1)

	if !ex3.Equal(&x3) || !ey3.Equal(&y3) {
		return fmt.Errorf("gate %d: elliptic addition relation unsatisfied", i)
	}
	return nil
}

func (b *UltraBuilder) checkLookup(i int) error {
	qLookup := b.cs.SelectorAt(constraint.QLookupType, i)
	if qLookup.IsZero() {
		return nil
	}

	q3 := b.cs.SelectorAt(constraint.Q3, i)
	if !q3.IsUint64() {
		return fmt.Errorf("gate %d: malformed lookup table index", i)
	}
	table, ok := b.tables.ByIndex(uint32(q3.Uint64()))
	if !ok {
		return fmt.Errorf("gate %d: lookup against unknown table %d", i, q3.Uint64())
	}

	// isolate the row's slice: slice_c = w_c + step_c·w_c(next), where the
	// selectors store the negated steps
	steps := [3]fr.Element{
		b.cs.SelectorAt(constraint.Q2, i),
		b.cs.SelectorAt(constraint.QM, i),
		b.cs.SelectorAt(constraint.QC, i),
	}
	var slices [3]fr.Element
	for c := 0; c < 3; c++ {
		slices[c] = b.wireValue(c, i)
		if steps[c].IsZero() {
			continue
		}
		if i+1 >= b.cs.NumGates {
			return fmt.Errorf("gate %d: lookup row expects a successor row", i)
		}
		next := b.wireValue(c, i+1)
		var t fr.Element
		t.Mul(&steps[c], &next)
		slices[c].Add(&slices[c], &t)
	}

	if !table.Contains(slices[0], slices[1], slices[2]) {
		return fmt.Errorf("gate %d: lookup row not found in table %d", i, table.TableIndex)
	}
	return nil
}

func (b *UltraBuilder) checkMemory(i int) error {
	qAux := b.cs.SelectorAt(constraint.QAux, i)
	if qAux.IsZero() {
		return nil
	}
	if !qAux.IsUint64() {
		return fmt.Errorf("gate %d: malformed memory selector", i)
	}
	code := qAux.Uint64()
	if code == auxRomAccess || code == auxRamAccess {
		// access rows anchor the transcript; the sorted rows carry the relation
		return nil
	}
	if i+1 >= b.cs.NumGates {
		return fmt.Errorf("gate %d: memory consistency row has no successor row", i)
	}

	switch code {
	case auxRomSorted:
		idxA := b.wireValue(0, i)
		valA := b.wireValue(1, i)
		idxB := b.wireValue(0, i+1)
		valB := b.wireValue(1, i+1)

		var d fr.Element
		d.Sub(&idxB, &idxA)
		if !d.IsUint64() {
			return fmt.Errorf("gate %d: rom transcript indices not sorted", i)
		}
		if d.IsZero() && !valA.Equal(&valB) {
			return fmt.Errorf("gate %d: rom read returns a different value than written", i)
		}
		return nil

	case auxRamSorted:
		idxA := b.wireValue(0, i)
		tsA := b.wireValue(1, i)
		valA := b.wireValue(2, i)
		idxB := b.wireValue(0, i+1)
		tsB := b.wireValue(1, i+1)
		valB := b.wireValue(2, i+1)
		typB := b.wireValue(3, i+1)

		var d fr.Element
		d.Sub(&idxB, &idxA)
		if !d.IsUint64() {
			return fmt.Errorf("gate %d: ram transcript indices not sorted", i)
		}
		if d.IsZero() {
			var dt fr.Element
			dt.Sub(&tsB, &tsA)
			if dt.IsZero() || !dt.IsUint64() {
				return fmt.Errorf("gate %d: ram timestamps not increasing", i)
			}
			if typB.IsOne() && !valA.Equal(&valB) {
				return fmt.Errorf("gate %d: ram read returns a value other than the latest write", i)
			}
		} else if typB.IsOne() {
			return fmt.Errorf("gate %d: first ram access at a new index must be a write", i)
		}
		return nil

	default:
		return fmt.Errorf("gate %d: unknown memory selector code %d", i, code)
	}
}

func (b *UltraBuilder) checkRangeLists() error {
	targets := make([]uint64, 0, len(b.rangeLists))
	for t := range b.rangeLists {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	for _, target := range targets {
		list := b.rangeLists[target]
		for _, idx := range list.variableIndices {
			v := b.vars.Value(idx)
			if !v.IsUint64() || v.Uint64() > target {
				return fmt.Errorf("variable %d violates its range constraint [0, %d]", idx, target)
			}
		}
	}
	return nil
}
