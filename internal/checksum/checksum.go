// Package checksum implements the structural checksum algorithms that a
// Checksum field plan (spec.md §4.D.8) can name by id. dsnet-compress's
// bzip2 package (bzip2/common.go) combines stdlib hash/crc32 with
// github.com/dsnet/golib/hashutil for CRC32 combination only; neither
// provides a configurable-polynomial CRC16, so CRC16-CCITT is a hand-written
// bit-shift loop here, with no lookup table (see DESIGN.md).
package checksum

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Algorithm computes a structural checksum over data[start:end], seeded
// with start value seed, and returns the result in the width the algorithm
// defines (callers narrow to their declared bit width).
type Algorithm interface {
	// Name returns the registered algorithm id.
	Name() string
	// Compute returns the checksum of data[start:end] seeded with seed.
	Compute(data []byte, start, end int, seed uint64) uint64
	// Size is the width of the checksum in bytes.
	Size() int
}

// Registry maps an algorithm id to an implementation, consulted by the
// checksum field codec (internal/codec.checksumCodec).
type Registry struct {
	byName map[string]Algorithm
}

// NewRegistry returns a registry pre-populated with the builtin algorithms.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Algorithm, 4)}
	r.Register(CRC16CCITT{})
	r.Register(CRC32IEEE{})
	r.Register(Fletcher16{})
	return r
}

// Register adds or replaces an algorithm by its Name().
func (r *Registry) Register(a Algorithm) { r.byName[a.Name()] = a }

// Lookup resolves an algorithm by id.
func (r *Registry) Lookup(name string) (Algorithm, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("checksum: unknown algorithm %q", name)
	}
	return a, nil
}

// CRC16CCITT implements the CRC-16/CCITT-FALSE variant (polynomial 0x1021,
// MSB-first), the algorithm named explicitly in spec.md §4.D.8 and §8
// scenario S6. The conventional start value is 0xFFFF, but the seed is
// caller-supplied so other start values used by a given template still
// work.
type CRC16CCITT struct{}

func (CRC16CCITT) Name() string { return "CRC16-CCITT" }
func (CRC16CCITT) Size() int    { return 2 }

func (CRC16CCITT) Compute(data []byte, start, end int, seed uint64) uint64 {
	crc := uint16(seed)
	for _, b := range data[start:end] {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return uint64(crc)
}

// AppendBigEndian writes the checksum's big-endian bytes to dst.
func AppendBigEndian(dst []byte, v uint64, size int) []byte {
	switch size {
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(v))
	case 4:
		return binary.BigEndian.AppendUint32(dst, uint32(v))
	default:
		return binary.BigEndian.AppendUint64(dst, v)
	}
}

// AppendLittleEndian writes the checksum's little-endian bytes to dst.
func AppendLittleEndian(dst []byte, v uint64, size int) []byte {
	switch size {
	case 2:
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	case 4:
		return binary.LittleEndian.AppendUint32(dst, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(dst, v)
	}
}

// CRC32IEEE wraps the standard library's CRC-32 (IEEE 802.3 polynomial),
// giving callers a 32-bit checksum option without hand-rolling a CRC32,
// grounded on dsnet-compress/bzip2's own use of hash/crc32.
type CRC32IEEE struct{}

func (CRC32IEEE) Name() string { return "CRC32-IEEE" }
func (CRC32IEEE) Size() int    { return 4 }

func (CRC32IEEE) Compute(data []byte, start, end int, seed uint64) uint64 {
	tbl := crc32.IEEETable
	crc := uint32(seed)
	crc = crc32.Update(crc, tbl, data[start:end])
	return uint64(crc)
}

// Fletcher16 implements the Fletcher-16 checksum, a structurally different
// (sum-based, not polynomial) algorithm offered so the "pluggable by name"
// claim of spec.md §4.D.8 has more than one real inhabitant.
type Fletcher16 struct{}

func (Fletcher16) Name() string { return "FLETCHER-16" }
func (Fletcher16) Size() int    { return 2 }

func (Fletcher16) Compute(data []byte, start, end int, seed uint64) uint64 {
	sum1 := uint16(seed & 0xff)
	sum2 := uint16((seed >> 8) & 0xff)
	for _, b := range data[start:end] {
		sum1 = (sum1 + uint16(b)) % 255
		sum2 = (sum2 + sum1) % 255
	}
	return uint64(sum2)<<8 | uint64(sum1)
}
