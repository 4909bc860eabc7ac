package constraint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ammarsjw/aztec3-circuits/internal/ioutils"
	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"
)

// ToBytes serializes the constraint system to a byte slice.
//
// The wire columns dominate the size and compress very well (indices are
// repeated and near-sequential), so they are written as a separate
// integer-compressed block; the rest of the system goes through
// deterministic CBOR. The two blocks are prepared in parallel.
func (s *System) ToBytes() ([]byte, error) {
	var wires []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		wires, err = s.wiresToBytes()
		return err
	})
	body, err := s.bodyToBytes()
	if err != nil {
		return nil, err
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	h := header{
		wiresLen: uint64(len(wires)),
		bodyLen:  uint64(len(body)),
	}

	buf := h.toBytes()
	buf = append(buf, wires...)
	buf = append(buf, body...)

	return buf, nil
}

// FromBytes deserializes the constraint system from a byte slice and returns
// the number of bytes read.
func (s *System) FromBytes(data []byte) (int, error) {
	if len(data) < headerLen {
		return 0, errors.New("invalid data length")
	}

	var h header
	h.fromBytes(data)

	if uint64(len(data)) < headerLen+h.wiresLen+h.bodyLen {
		return 0, errors.New("invalid data length")
	}

	var g errgroup.Group
	g.Go(func() error {
		return s.wiresFromBytes(data[headerLen : headerLen+h.wiresLen])
	})

	dm, err := cbor.DecOptions{
		MaxArrayElements: 2147483647,
		MaxMapPairs:      2147483647,
	}.DecMode()
	if err != nil {
		return 0, err
	}
	decoder := dm.NewDecoder(bytes.NewReader(data[headerLen+h.wiresLen : headerLen+h.wiresLen+h.bodyLen]))
	if err := decoder.Decode(s); err != nil {
		return 0, err
	}

	if err := s.CheckSerializationHeader(); err != nil {
		return 0, err
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return headerLen + int(h.wiresLen) + int(h.bodyLen), nil
}

// WriteTo implements io.WriterTo.
func (s *System) WriteTo(w io.Writer) (int64, error) {
	data, err := s.ToBytes()
	if err != nil {
		return 0, err
	}
	wc := ioutils.WriterCounter{W: w}
	_, err = wc.Write(data)
	return wc.N, err
}

// ReadFrom implements io.ReaderFrom. The reader must deliver the whole
// serialized system.
func (s *System) ReadFrom(r io.Reader) (int64, error) {
	rc := ioutils.ReaderCounter{R: r}
	data, err := io.ReadAll(&rc)
	if err != nil {
		return rc.N, err
	}
	if _, err := s.FromBytes(data); err != nil {
		return rc.N, err
	}
	return rc.N, nil
}

// CheckSerializationHeader verifies the format version and scalar field of a
// deserialized system against this build.
func (s *System) CheckSerializationHeader() error {
	v, err := semver.Parse(s.FormatVersion)
	if err != nil {
		return fmt.Errorf("failed to parse serialization format version: %w", err)
	}
	current := semver.MustParse(Version)
	if v.Major != current.Major || v.Minor > current.Minor {
		return fmt.Errorf("serialization format version %s incompatible with current version %s", v, current)
	}
	if s.ScalarField != NewSystem(0).ScalarField {
		return errors.New("constraint system was built over a different scalar field")
	}
	return nil
}

func (s *System) bodyToBytes() ([]byte, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := em.NewEncoder(buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const headerLen = 2 * 8

// header lists the byte length of each serialized section.
type header struct {
	wiresLen uint64
	bodyLen  uint64
}

func (h *header) toBytes() []byte {
	buf := make([]byte, 0, headerLen+int(h.wiresLen)+int(h.bodyLen))
	buf = binary.LittleEndian.AppendUint64(buf, h.wiresLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.bodyLen)
	return buf
}

func (h *header) fromBytes(buf []byte) {
	h.wiresLen = binary.LittleEndian.Uint64(buf[:8])
	h.bodyLen = binary.LittleEndian.Uint64(buf[8:16])
}

func (s *System) wiresToBytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(4 * s.NumGates)

	var scratch []uint32
	var err error
	for j := range s.W {
		scratch, err = ioutils.CompressAndWriteUints32(&buf, s.W[j], scratch)
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (s *System) wiresFromBytes(in []byte) error {
	r := bytes.NewReader(in)
	for j := range s.W {
		_, col, err := ioutils.ReadAndDecompressUints32(r)
		if err != nil {
			return err
		}
		s.W[j] = col
	}
	return nil
}
