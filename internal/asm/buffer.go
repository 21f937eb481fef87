package asm

import "encoding/binary"

// CodeBuffer is a growable byte sink with amortized O(1) append,
// little-endian multi-byte writes, and bounds-checked patch-at-offset.
//
// Grounded on github.com/tetratelabs/wazero's internal/asm/buffer.go
// CodeSegment/Buffer pair, but simplified: CodeSegment is
// backed directly by an mmap'd RW mapping because wazevo writes straight
// into executable-destined memory as it assembles. instead
// has the Runtime copy a *finalized* buffer into fresh RW pages, so our
// CodeBuffer is a plain growable []byte - the mmap lifecycle lives
// entirely in internal/runtime.
type CodeBuffer struct {
	bytes []byte
}

// Len reports the number of bytes written so far.
func (b *CodeBuffer) Len() int { return len(b.bytes) }

// Bytes returns the buffer's contents. The returned slice is invalidated
// by the next mutating call.
func (b *CodeBuffer) Bytes() []byte { return b.bytes }

// Reset clears the buffer's contents while retaining its capacity.
func (b *CodeBuffer) Reset() { b.bytes = b.bytes[:0] }

// AppendU8 appends a single byte.
func (b *CodeBuffer) AppendU8(v uint8) { b.bytes = append(b.bytes, v) }

// AppendBytes appends a raw byte slice.
func (b *CodeBuffer) AppendBytes(v []byte) { b.bytes = append(b.bytes, v...) }

// AppendU16 appends v little-endian.
func (b *CodeBuffer) AppendU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.bytes = append(b.bytes, tmp[:]...)
}

// AppendU32 appends v little-endian.
func (b *CodeBuffer) AppendU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.bytes = append(b.bytes, tmp[:]...)
}

// AppendU64 appends v little-endian.
func (b *CodeBuffer) AppendU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.bytes = append(b.bytes, tmp[:]...)
}

// PatchU8At overwrites a single byte at offset.
func (b *CodeBuffer) PatchU8At(offset int, v uint8) {
	_ = b.bytes[offset] // bounds check
	b.bytes[offset] = v
}

// PatchU32At overwrites 4 bytes at offset, little-endian.
func (b *CodeBuffer) PatchU32At(offset int, v uint32) {
	binary.LittleEndian.PutUint32(b.bytes[offset:offset+4], v)
}

// ReadU32At reads 4 bytes at offset, little-endian, without mutating the
// buffer - used by Finalize to OR new displacement bits into an existing
// placeholder while preserving the non-displacement bits.
func (b *CodeBuffer) ReadU32At(offset int) uint32 {
	return binary.LittleEndian.Uint32(b.bytes[offset : offset+4])
}

// Align pads the buffer with padByte until its length is a multiple of n.
func (b *CodeBuffer) Align(n int, padByte byte) {
	for len(b.bytes)%n != 0 {
		b.bytes = append(b.bytes, padByte)
	}
}
