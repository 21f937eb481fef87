package arm64

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// word writes a little-endian 32-bit instruction word, the only unit of
// emission this architecture has.
func word(buf *asm.CodeBuffer, w uint32) { buf.AppendU32(w) }

func fitsUint(v int64, bits uint) bool {
	if v < 0 {
		return false
	}
	return v>>bits == 0
}

func fitsSigned(v int64, bits uint) bool {
	lo := -(int64(1) << (bits - 1))
	hi := int64(1)<<(bits-1) - 1
	return v >= lo && v <= hi
}

// sf returns the "size flag" bit (1 for 64-bit X-form, 0 for 32-bit W-form)
// that nearly every AArch64 data-processing encoding carries in bit 31.
func sf(sizeBits uint16) uint32 {
	if sizeBits == 64 {
		return 1
	}
	return 0
}

// encodeMovWide composes MOVZ/MOVK/MOVN: sf | opc<<29 | 0x25<<23 | hw<<21 |
// imm16<<5 | Rd, per the architecture's "Move wide immediate" layout.
// opc is 2 (MOVZ), 3 (MOVK), 0 (MOVN).
func encodeMovWide(buf *asm.CodeBuffer, opc uint32, rd asm.Register, imm16 uint32, hw uint32) error {
	if hw > 3 {
		return fmt.Errorf("%w: hw shift %d out of range", asm.ErrInvalidOperand, hw)
	}
	if imm16 > 0xFFFF {
		return fmt.Errorf("%w: imm16 %d does not fit 16 bits", asm.ErrInvalidImmediate, imm16)
	}
	w := sf(rd.SizeBits)<<31 | opc<<29 | 0x25<<23 | hw<<21 | imm16<<5 | rd.ID
	word(buf, w)
	return nil
}

// encodeDPImm composes the data-processing-immediate layout for
// ADD/SUB/CMP-with-immediate: sf | op | S | 0x22<<23 | sh | imm12 | Rn |
// Rd. op=1 for SUB family, S=1 sets flags (CMP is SUBS with Rd=zr).
func encodeDPImm(buf *asm.CodeBuffer, op, s uint32, rd, rn asm.Register, imm12 uint32, shift12 bool) error {
	if imm12 > 0xFFF {
		return fmt.Errorf("%w: imm12 %d does not fit 12 bits", asm.ErrInvalidImmediate, imm12)
	}
	var sh uint32
	if shift12 {
		sh = 1
	}
	w := sf(rd.SizeBits)<<31 | op<<30 | s<<29 | 0x22<<23 | sh<<22 | imm12<<10 | rn.ID<<5 | rd.ID
	word(buf, w)
	return nil
}

// encodeDPReg composes the data-processing-register (shifted register)
// layout: sf | op | S | 0x0B<<24 | shift_type<<22 | 0 | Rm<<16 | imm6<<10 |
// Rn<<5 | Rd.
func encodeDPReg(buf *asm.CodeBuffer, op, s uint32, rd, rn, rm asm.Register) {
	w := sf(rd.SizeBits)<<31 | op<<30 | s<<29 | 0x0B<<24 | rm.ID<<16 | rn.ID<<5 | rd.ID
	word(buf, w)
}

// encodeLogicalReg composes AND/ORR/EOR (register, no-shift form): sf |
// opc<<29 | 0x0A<<24 | Rm<<16 | Rn<<5 | Rd, opc selects AND=00, ORR=01,
// EOR=10.
func encodeLogicalReg(buf *asm.CodeBuffer, opc uint32, rd, rn, rm asm.Register) {
	w := sf(rd.SizeBits)<<31 | opc<<29 | 0x0A<<24 | rm.ID<<16 | rn.ID<<5 | rd.ID
	word(buf, w)
}

// encodeMul composes MADD Rd, Rn, Rm, Rzr (the MUL alias): sf | 0x1B<<24 |
// Rm<<16 | Ra<<10 | Rn<<5 | Rd, with Ra fixed to the zero register.
func encodeMul(buf *asm.CodeBuffer, rd, rn, rm asm.Register) {
	w := sf(rd.SizeBits)<<31 | 0x1B<<24 | rm.ID<<16 | ZRorSP<<10 | rn.ID<<5 | rd.ID
	word(buf, w)
}

// ldstScale returns the load/store unsigned-offset scale (log2 of the
// transfer size) and the "size" field value for a given operand bit width.
func ldstScale(sizeBits uint16) (scale uint, sizeField uint32, err error) {
	switch sizeBits {
	case 8:
		return 0, 0, nil
	case 16:
		return 1, 1, nil
	case 32:
		return 2, 2, nil
	case 64:
		return 3, 3, nil
	default:
		return 0, 0, fmt.Errorf("%w: load/store width %d not in {8,16,32,64}", asm.ErrInvalidOperand, sizeBits)
	}
}

// encodeLDRSTR composes the unsigned-offset load/store form: size |
// 0x39<<24 | load<<22 | imm12 | Rn | Rt, imm12 = byte_offset >> scale. It
// rejects misaligned or out-of-range offsets.
func encodeLDRSTR(buf *asm.CodeBuffer, load bool, rt asm.Register, mem asm.Memory) error {
	scale, sizeField, err := ldstScale(mem.SizeHint)
	if err != nil {
		return err
	}
	if mem.Disp < 0 {
		return fmt.Errorf("%w: negative unsigned-offset displacement %d", asm.ErrInvalidOperand, mem.Disp)
	}
	if uint64(mem.Disp)&((1<<scale)-1) != 0 {
		return fmt.Errorf("%w: displacement %d misaligned for %d-bit access", asm.ErrInvalidOperand, mem.Disp, mem.SizeHint)
	}
	imm12 := uint32(mem.Disp) >> scale
	if imm12 > 0xFFF {
		return fmt.Errorf("%w: scaled offset %d does not fit imm12", asm.ErrInvalidDisplacement, imm12)
	}
	var l uint32
	if load {
		l = 1
	}
	w := sizeField<<30 | 0x39<<24 | l<<22 | imm12<<10 | mem.Base.ID<<5 | rt.ID
	word(buf, w)
	return nil
}

// encodeLDPSTP composes the load/store-pair form the prologue/epilogue
// path needs: opc<<30 | 0x28<<24 | idx<<23 | load<<22 | imm7 | Rt2 | Rn |
// Rt, imm7 scaled by 8 (64-bit) or 4 (32-bit). mode selects the index
// variant: 0b011 pre-index with writeback, 0b001 post-index with
// writeback, 0b010 signed offset.
func encodeLDPSTP(buf *asm.CodeBuffer, load bool, mode asm.AddrMode, rt, rt2 asm.Register, base asm.Register, disp int32) error {
	scale := int32(8)
	opc := uint32(2)
	if rt.SizeBits == 32 {
		scale = 4
		opc = 0
	}
	if disp%scale != 0 {
		return fmt.Errorf("%w: pair displacement %d not a multiple of %d", asm.ErrInvalidOperand, disp, scale)
	}
	imm7 := disp / scale
	if !fitsSigned(int64(imm7), 7) {
		return fmt.Errorf("%w: pair scaled offset %d does not fit imm7", asm.ErrInvalidDisplacement, imm7)
	}
	var l uint32
	if load {
		l = 1
	}
	var idxBit uint32
	switch mode {
	case asm.AddrModePreIndex:
		idxBit = 0b011
	case asm.AddrModePostIndex:
		idxBit = 0b001
	default:
		idxBit = 0b010
	}
	w := opc<<30 | 0x28<<24 | idxBit<<23 | l<<22 | (uint32(imm7)&0x7F)<<15 | rt2.ID<<10 | base.ID<<5 | rt.ID
	word(buf, w)
	return nil
}

// vecLdstFields maps a SIMD/FP register width onto the (size, opc-high)
// field pair of the unsigned-offset vector load/store layout and its
// offset scale. Q-register accesses reuse size=00 with the opc bit 23
// escape, per the architecture's "Load/store register (SIMD&FP)" layout.
func vecLdstFields(sizeBits uint16) (sizeField, opcHigh uint32, scale uint, err error) {
	switch sizeBits {
	case 32:
		return 2, 0, 2, nil
	case 64:
		return 3, 0, 3, nil
	case 128:
		return 0, 1, 4, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: vector load/store width %d not in {32,64,128}", asm.ErrInvalidOperand, sizeBits)
	}
}

// encodeLDRSTRVec composes the SIMD/FP unsigned-offset load/store word:
// size | 0x3D<<24 | opcHigh<<23 | load<<22 | imm12 | Rn | Rt. Same
// alignment and range validation as the GP form, with the scale taken
// from the vector register's width instead of the memory size hint.
func encodeLDRSTRVec(buf *asm.CodeBuffer, load bool, vt asm.Register, mem asm.Memory) error {
	sizeField, opcHigh, scale, err := vecLdstFields(vt.SizeBits)
	if err != nil {
		return err
	}
	if mem.Disp < 0 {
		return fmt.Errorf("%w: negative unsigned-offset displacement %d", asm.ErrInvalidOperand, mem.Disp)
	}
	if uint64(mem.Disp)&((1<<scale)-1) != 0 {
		return fmt.Errorf("%w: displacement %d misaligned for %d-bit vector access", asm.ErrInvalidOperand, mem.Disp, vt.SizeBits)
	}
	imm12 := uint32(mem.Disp) >> scale
	if imm12 > 0xFFF {
		return fmt.Errorf("%w: scaled vector offset %d does not fit imm12", asm.ErrInvalidDisplacement, imm12)
	}
	var l uint32
	if load {
		l = 1
	}
	w := sizeField<<30 | 0x3D<<24 | opcHigh<<23 | l<<22 | imm12<<10 | mem.Base.ID<<5 | vt.ID
	word(buf, w)
	return nil
}

// encodeLD1R composes LD1R {Vt.<T>}, [Xn] (load one element, replicate to
// all lanes): Q | 0x0D<<24 | 1<<22 | 0xC<<12 | size<<10 | Rn | Rt. The
// element layout is mandatory - layoutBits names the element width in
// bits (8/16/32/64) and the register's own width picks the 64- or
// 128-bit arrangement (Q bit).
func encodeLD1R(buf *asm.CodeBuffer, vt asm.Register, mem asm.Memory, layoutBits int64) error {
	var size uint32
	switch layoutBits {
	case 8:
		size = 0
	case 16:
		size = 1
	case 32:
		size = 2
	case 64:
		size = 3
	default:
		return fmt.Errorf("%w: LD1R element layout %d not in {8,16,32,64}", asm.ErrInvalidOperand, layoutBits)
	}
	var q uint32
	if vt.SizeBits == 128 {
		q = 1
	}
	if mem.Disp != 0 {
		return fmt.Errorf("%w: LD1R takes no displacement, got %d", asm.ErrInvalidOperand, mem.Disp)
	}
	w := q<<30 | 0x0D<<24 | 1<<22 | 0xC<<12 | size<<10 | mem.Base.ID<<5 | vt.ID
	word(buf, w)
	return nil
}

// movImm64 decomposes v into four 16-bit lanes and emits MOVZ for lane 0
// followed by MOVK for each nonzero upper lane, the canonical 1-4
// instruction materialization names.
func movImm64(buf *asm.CodeBuffer, rd asm.Register, v uint64) error {
	lanes := [4]uint32{
		uint32(v & 0xFFFF),
		uint32((v >> 16) & 0xFFFF),
		uint32((v >> 32) & 0xFFFF),
		uint32((v >> 48) & 0xFFFF),
	}
	if err := encodeMovWide(buf, 2, rd, lanes[0], 0); err != nil {
		return err
	}
	for i := 1; i < 4; i++ {
		if lanes[i] != 0 {
			if err := encodeMovWide(buf, 3, rd, lanes[i], uint32(i)); err != nil {
				return err
			}
		}
	}
	return nil
}
