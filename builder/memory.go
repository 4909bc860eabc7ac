package builder

import (
	"sort"

	"github.com/ammarsjw/aztec3-circuits/constraint"
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// QAux selector codes. Access rows anchor a memory operation in the
// execution trace; sorted rows replay the transcript in (index, timestamp)
// order and carry the adjacent-pair consistency relation.
const (
	auxRomAccess uint64 = 1
	auxRamAccess uint64 = 2
	auxRomSorted uint64 = 3
	auxRamSorted uint64 = 4
)

const cellUnset = int64(-1)

type romRecord struct {
	index        uint64
	indexWitness uint32
	valueWitness uint32
	order        int
}

// romTranscript tracks one read-only array: the write-once cell state plus
// the ordered list of accesses.
type romTranscript struct {
	cells   []int64
	records []romRecord
}

type ramRecord struct {
	index        uint64
	timestamp    uint64
	indexWitness uint32
	tsWitness    uint32
	valueWitness uint32
	typWitness   uint32
	isWrite      bool
}

// ramTranscript tracks one read-write array with a per-array monotone
// access counter.
type ramTranscript struct {
	cells       []int64
	accessCount uint64
	records     []ramRecord
}

func newCells(size int) []int64 {
	c := make([]int64, size)
	for i := range c {
		c[i] = cellUnset
	}
	return c
}

// CreateROMArray registers a read-only array of the given size and returns
// its handle.
func (b *UltraBuilder) CreateROMArray(size int) int {
	b.romArrays = append(b.romArrays, &romTranscript{cells: newCells(size)})
	return len(b.romArrays) - 1
}

// SetROMElement writes valueWitness into cell index. Each cell may be set
// exactly once; a second write is flagged as a circuit failure.
func (b *UltraBuilder) SetROMElement(romID int, index uint64, valueWitness uint32) {
	t := b.romArrays[romID]
	if index >= uint64(len(t.cells)) {
		b.fail("rom write out of bounds: index %d, size %d", index, len(t.cells))
		return
	}
	if t.cells[index] != cellUnset {
		b.fail("rom cell %d already initialized", index)
		return
	}
	t.cells[index] = int64(valueWitness)

	var e fr.Element
	e.SetUint64(index)
	idxWitness := b.putConstantVariable(e)

	row := b.memoryAccessGate(idxWitness, valueWitness, b.zeroIdx, b.zeroIdx, auxRomAccess)
	b.memoryWriteRecords = append(b.memoryWriteRecords, row)
	t.records = append(t.records, romRecord{
		index:        index,
		indexWitness: idxWitness,
		valueWitness: valueWitness,
		order:        len(t.records),
	})
}

// ReadROMArray reads the cell addressed by indexWitness and returns a fresh
// witness carrying the stored value. Reading a cell that was never set is
// an uninitialized memory record and fails the circuit.
func (b *UltraBuilder) ReadROMArray(romID int, indexWitness uint32) uint32 {
	t := b.romArrays[romID]
	iv := b.vars.Value(indexWitness)
	if !iv.IsUint64() || iv.Uint64() >= uint64(len(t.cells)) {
		b.fail("rom read out of bounds: index %s, size %d", iv.String(), len(t.cells))
		return b.zeroIdx
	}
	index := iv.Uint64()
	if t.cells[index] == cellUnset {
		b.fail("uninitialized memory record: rom cell %d read before set", index)
		return b.zeroIdx
	}

	value := b.vars.Value(uint32(t.cells[index]))
	valueWitness := b.AddVariable(value)

	row := b.memoryAccessGate(indexWitness, valueWitness, b.zeroIdx, b.zeroIdx, auxRomAccess)
	b.memoryReadRecords = append(b.memoryReadRecords, row)
	t.records = append(t.records, romRecord{
		index:        index,
		indexWitness: indexWitness,
		valueWitness: valueWitness,
		order:        len(t.records),
	})
	return valueWitness
}

// CreateRAMArray registers a read-write array of the given size and returns
// its handle.
func (b *UltraBuilder) CreateRAMArray(size int) int {
	b.ramArrays = append(b.ramArrays, &ramTranscript{cells: newCells(size)})
	return len(b.ramArrays) - 1
}

// InitRAMElement writes valueWitness into cell index using a constant
// index witness. Equivalent to a timestamped write.
func (b *UltraBuilder) InitRAMElement(ramID int, index uint64, valueWitness uint32) {
	var e fr.Element
	e.SetUint64(index)
	b.WriteRAMArray(ramID, b.putConstantVariable(e), valueWitness)
}

// WriteRAMArray records a timestamped write of valueWitness to the cell
// addressed by indexWitness.
func (b *UltraBuilder) WriteRAMArray(ramID int, indexWitness, valueWitness uint32) {
	t := b.ramArrays[ramID]
	iv := b.vars.Value(indexWitness)
	if !iv.IsUint64() || iv.Uint64() >= uint64(len(t.cells)) {
		b.fail("ram write out of bounds: index %s, size %d", iv.String(), len(t.cells))
		return
	}
	index := iv.Uint64()
	t.cells[index] = int64(valueWitness)

	b.appendRAMRecord(t, index, indexWitness, valueWitness, true)
}

// ReadRAMArray records a timestamped read of the cell addressed by
// indexWitness and returns a fresh witness carrying the current value.
// Reading a cell never written is an uninitialized memory record.
func (b *UltraBuilder) ReadRAMArray(ramID int, indexWitness uint32) uint32 {
	t := b.ramArrays[ramID]
	iv := b.vars.Value(indexWitness)
	if !iv.IsUint64() || iv.Uint64() >= uint64(len(t.cells)) {
		b.fail("ram read out of bounds: index %s, size %d", iv.String(), len(t.cells))
		return b.zeroIdx
	}
	index := iv.Uint64()
	if t.cells[index] == cellUnset {
		b.fail("uninitialized memory record: ram cell %d read before write", index)
		return b.zeroIdx
	}

	value := b.vars.Value(uint32(t.cells[index]))
	valueWitness := b.AddVariable(value)

	b.appendRAMRecord(t, index, indexWitness, valueWitness, false)
	return valueWitness
}

func (b *UltraBuilder) appendRAMRecord(t *ramTranscript, index uint64, indexWitness, valueWitness uint32, isWrite bool) {
	ts := t.accessCount
	t.accessCount++

	var e fr.Element
	e.SetUint64(ts)
	tsWitness := b.AddVariable(e)

	typWitness := b.oneIdx // read
	if isWrite {
		typWitness = b.zeroIdx
	}

	row := b.memoryAccessGate(indexWitness, tsWitness, valueWitness, typWitness, auxRamAccess)
	if isWrite {
		b.memoryWriteRecords = append(b.memoryWriteRecords, row)
	} else {
		b.memoryReadRecords = append(b.memoryReadRecords, row)
	}
	t.records = append(t.records, ramRecord{
		index:        index,
		timestamp:    ts,
		indexWitness: indexWitness,
		tsWitness:    tsWitness,
		valueWitness: valueWitness,
		typWitness:   typWitness,
		isWrite:      isWrite,
	})
}

func (b *UltraBuilder) memoryAccessGate(wl, wr, wo, w4 uint32, auxCode uint64) int {
	var g constraint.Gate
	g.WL, g.WR, g.WO, g.W4 = wl, wr, wo, w4
	g.Coeffs[constraint.QAux].SetUint64(auxCode)
	return b.cs.AddGate(g)
}

// processROMArrays emits, per array, the access transcript sorted by index.
// Adjacent sorted rows carry the consistency relation: equal indices must
// agree on the value, so every read returns the written value.
func (b *UltraBuilder) processROMArrays() {
	for _, t := range b.romArrays {
		if len(t.records) < 2 {
			continue
		}
		records := make([]romRecord, len(t.records))
		copy(records, t.records)
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].index != records[j].index {
				return records[i].index < records[j].index
			}
			return records[i].order < records[j].order
		})

		for i, r := range records {
			code := auxRomSorted
			if i == len(records)-1 {
				code = 0
			}
			b.memoryAccessGate(r.indexWitness, r.valueWitness, b.zeroIdx, b.zeroIdx, code)
		}
	}
}

// processRAMArrays emits, per array, the access transcript sorted by
// (index, timestamp), then range checks the timestamp difference of every
// same-index adjacent pair so the sorted order cannot be forged.
func (b *UltraBuilder) processRAMArrays() {
	for _, t := range b.ramArrays {
		if len(t.records) < 2 {
			continue
		}
		records := make([]ramRecord, len(t.records))
		copy(records, t.records)
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].index != records[j].index {
				return records[i].index < records[j].index
			}
			return records[i].timestamp < records[j].timestamp
		})

		for i, r := range records {
			code := auxRamSorted
			if i == len(records)-1 {
				code = 0
			}
			b.memoryAccessGate(r.indexWitness, r.tsWitness, r.valueWitness, r.typWitness, code)
		}

		// timestamp deltas, emitted after the sorted block so its rows
		// stay adjacent
		var one, minusOne fr.Element
		one.SetOne()
		minusOne.Neg(&one)
		for i := 0; i+1 < len(records); i++ {
			a, c := records[i], records[i+1]
			if a.index != c.index {
				continue
			}
			var delta fr.Element
			delta.SetUint64(c.timestamp - a.timestamp)
			deltaWitness := b.AddVariable(delta)
			b.CreateAddGate(AddTriple{
				A: c.tsWitness, AScaling: one,
				B: a.tsWitness, BScaling: minusOne,
				C: deltaWitness, CScaling: minusOne,
			})
			b.CreateRangeConstraint(deltaWitness, 2*DefaultRangeBitnum)
		}
	}
}
