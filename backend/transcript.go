// Package backend bridges a finalized circuit to the out-of-scope
// commitment and proving layers: it derives proving/verification key
// material, commits to the polynomial columns and maintains the
// Fiat-Shamir transcript both sides replay.
package backend

import (
	"encoding/binary"
	"hash"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"golang.org/x/crypto/sha3"
)

// Transcript is a sequential hash-based oracle. Appends are order
// sensitive: the verifier must replay them in identical order to re-derive
// the same challenges. Every generated challenge is folded back into the
// state so later challenges depend on earlier ones.
type Transcript struct {
	h hash.Hash
}

// NewTranscript returns a transcript seeded with a domain separation label.
func NewTranscript(label string) *Transcript {
	t := &Transcript{h: sha3.New256()}
	t.write([]byte(label))
	return t
}

// Append absorbs labeled data into the transcript.
func (t *Transcript) Append(label string, data []byte) {
	t.write([]byte(label))
	t.write(data)
}

// AppendElement absorbs a field element under the given label.
func (t *Transcript) AppendElement(label string, e fr.Element) {
	b := e.Bytes()
	t.Append(label, b[:])
}

// AppendUint64 absorbs an integer under the given label.
func (t *Transcript) AppendUint64(label string, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	t.Append(label, b[:])
}

// Challenge squeezes a field element bound to everything absorbed so far.
func (t *Transcript) Challenge(label string) fr.Element {
	t.write([]byte(label))
	digest := t.h.Sum(nil)

	var e fr.Element
	e.SetBytes(digest)
	t.AppendElement("challenge/"+label, e)
	return e
}

// write length-prefixes every chunk so absorbed messages cannot be
// reparsed across boundaries.
func (t *Transcript) write(p []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(p)))
	t.h.Write(n[:])
	t.h.Write(p)
}
