package x86

import (
	"fmt"
	"math"

	"github.com/nativejit/nativejit/internal/asm"
)

// rexBits composes a REX prefix byte (0x40 | W<<3 | R<<2 | X<<1 | B),
// returning (byte, present). present is false when none of W/R/X/B are
// required, so the caller can omit the prefix entirely.
func rexBits(w, r, x, b bool) (byte, bool) {
	if !w && !r && !x && !b {
		return 0, false
	}
	var v byte = 0x40
	if w {
		v |= 1 << 3
	}
	if r {
		v |= 1 << 2
	}
	if x {
		v |= 1 << 1
	}
	if b {
		v |= 1 << 0
	}
	return v, true
}

// extBit returns the high (4th) bit of a GP/vector register id, used to
// feed REX.R/X/B.
func extBit(id uint32) bool { return id&0x8 != 0 }

// lowBits returns the low 3 bits of a register id, the value ModRM/SIB
// fields actually store (REX carries the 4th bit separately).
func lowBits(id uint32) byte { return byte(id & 0x7) }

func modrm(mod, reg, rm byte) byte { return mod<<6 | (reg&7)<<3 | (rm & 7) }

func sibByte(scale, index, base byte) byte { return scale<<6 | (index&7)<<3 | (base & 7) }

// scaleEncoding maps a {1,2,4,8} scale factor to the 2-bit SIB.scale
// field, returning an error for any other value.
func scaleEncoding(scale uint8) (byte, error) {
	switch scale {
	case 1:
		return 0, nil
	case 2:
		return 1, nil
	case 4:
		return 2, nil
	case 8:
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: memory index scale %d not in {1,2,4,8}", asm.ErrInvalidOperand, scale)
	}
}

// encodeModRMMem writes the ModRM (+ SIB + displacement) bytes addressing
// mem, with reg as the ModRM.reg field (either the other operand's
// register, or an opcode-extension digit). It reports the REX.X/B bits
// the caller must fold into the instruction's REX byte.
//
// Grounded on ModR/M rules: shortest disp encoding, SIB
// emitted when an index is present or the base's low 3 bits require the
// 0b100 escape (RSP/R12), and the RBP/R13-with-zero-displacement special
// case forcing a disp8 of 0.
func encodeModRMMem(buf *asm.CodeBuffer, reg byte, mem asm.Memory) (xBit, bBit bool, err error) {
	if mem.AddrMode == asm.AddrModePCRelative || mem.Base.ID == RIP {
		buf.AppendU8(modrm(0b00, reg, 0b101))
		buf.AppendU32(uint32(mem.Disp))
		return false, false, nil
	}

	base := mem.Base
	baseLow := lowBits(base.ID)
	needsSIB := mem.HasIndex || baseLow == 0b100

	var scaleEnc byte
	var indexLow byte = 0b100 // "no index" encoding
	if mem.HasIndex {
		scaleEnc, err = scaleEncoding(mem.Scale)
		if err != nil {
			return false, false, err
		}
		indexLow = lowBits(mem.Index.ID)
		xBit = extBit(mem.Index.ID)
	}
	bBit = extBit(base.ID)

	forceDisp8Zero := !mem.HasIndex && baseLow == 0b101 && mem.Disp == 0

	var mod byte
	switch {
	case mem.Disp == 0 && !forceDisp8Zero:
		mod = 0b00
	case mem.Disp >= math.MinInt8 && mem.Disp <= math.MaxInt8:
		mod = 0b01
	default:
		mod = 0b10
	}

	rm := baseLow
	if needsSIB {
		rm = 0b100
	}
	buf.AppendU8(modrm(mod, reg, rm))
	if needsSIB {
		buf.AppendU8(sibByte(scaleEnc, indexLow, baseLow))
	}

	switch mod {
	case 0b01:
		buf.AppendU8(uint8(int8(mem.Disp)))
	case 0b10:
		buf.AppendU32(uint32(mem.Disp))
	}
	return xBit, bBit, nil
}

// encodeModRMReg writes the register/register ModRM byte: mod=11, reg/rm
// as given, and reports the REX.B bit for the rm register.
func encodeModRMReg(buf *asm.CodeBuffer, reg, rm uint32) (bBit bool) {
	buf.AppendU8(modrm(0b11, lowBits(reg), lowBits(rm)))
	return extBit(rm)
}

// fitsInt8 reports whether v's value fits a signed 8-bit field.
func fitsInt8(v int64) bool { return v >= math.MinInt8 && v <= math.MaxInt8 }

// fitsInt32 reports whether v's value fits a signed 32-bit field.
func fitsInt32(v int64) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

// appendImmediate writes imm as a little-endian field of width bits (8,
// 16, 32, or 64), validating the value fits.
func appendImmediate(buf *asm.CodeBuffer, imm int64, width uint8) error {
	switch width {
	case 8:
		if imm < -128 || imm > 255 {
			return fmt.Errorf("%w: %d does not fit 8 bits", asm.ErrInvalidImmediate, imm)
		}
		buf.AppendU8(uint8(imm))
	case 16:
		if imm < math.MinInt16 || imm > math.MaxUint16 {
			return fmt.Errorf("%w: %d does not fit 16 bits", asm.ErrInvalidImmediate, imm)
		}
		buf.AppendU16(uint16(imm))
	case 32:
		if !fitsInt32(imm) && (imm < 0 || imm > math.MaxUint32) {
			return fmt.Errorf("%w: %d does not fit 32 bits", asm.ErrInvalidImmediate, imm)
		}
		buf.AppendU32(uint32(imm))
	case 64:
		buf.AppendU64(uint64(imm))
	default:
		return fmt.Errorf("%w: unsupported immediate width %d", asm.ErrInvalidImmediate, width)
	}
	return nil
}

// sizePrefix writes the 0x66 operand-size override for 16-bit GP operands.
func sizePrefix(buf *asm.CodeBuffer, sizeBits uint16) {
	if sizeBits == 16 {
		buf.AppendU8(0x66)
	}
}

// VEX/EVEX pp field values, naming the mandatory prefix each stands for.
const (
	ppNone byte = 0
	pp66   byte = 1
	ppF3   byte = 2
	ppF2   byte = 3
)

// mmOF names the 0F opcode map in the VEX mmmmm / EVEX mmm field.
const mmOF byte = 1

// vexPrefix composes a VEX prefix from the required R/X/B extension bits,
// opcode map, W, the inverted second-source register (vvvv), vector
// length, and mandatory-prefix selector. The compact 2-byte C5 form is
// chosen whenever X, B, W, and a non-0F map are all unneeded, matching
// hardware assemblers' shortest-encoding preference.
func vexPrefix(buf *asm.CodeBuffer, r, x, b bool, m byte, w bool, vvvv byte, l256 bool, pp byte) {
	inv := func(bit bool) byte {
		if bit {
			return 0
		}
		return 1
	}
	var lBit byte
	if l256 {
		lBit = 1
	}
	vvvvInv := ^vvvv & 0xF
	if !x && !b && !w && m == mmOF {
		buf.AppendU8(0xC5)
		buf.AppendU8(inv(r)<<7 | vvvvInv<<3 | lBit<<2 | pp)
		return
	}
	var wBit byte
	if w {
		wBit = 1
	}
	buf.AppendU8(0xC4)
	buf.AppendU8(inv(r)<<7 | inv(x)<<6 | inv(b)<<5 | m)
	buf.AppendU8(wBit<<7 | vvvvInv<<3 | lBit<<2 | pp)
}

// evexLen maps a vector width onto the EVEX L'L field.
func evexLen(sizeBits uint16) byte {
	switch sizeBits {
	case 512:
		return 2
	case 256:
		return 1
	default:
		return 0
	}
}

// evexPrefix composes the 4-byte EVEX prefix carrying R X B R', the
// opcode map, W, the inverted second-source register (vvvv, with V' as
// its 5th bit), pp, the L'L vector length, the b broadcast bit, V', and
// the aaa opmask field (0 = no masking) with its z zeroing bit. reg and
// vvvv are full 5-bit register ids; x/b arrive precomputed because a
// memory rm draws them from its SIB index/base rather than a register id.
func evexPrefix(buf *asm.CodeBuffer, reg uint32, xBit, bBit bool, m byte, w bool, vvvv uint32, ll byte, pp byte, aaa byte, z, bcast bool) {
	inv := func(bit bool) byte {
		if bit {
			return 0
		}
		return 1
	}
	var wVal, zVal, bVal byte
	if w {
		wVal = 1
	}
	if z {
		zVal = 1
	}
	if bcast {
		bVal = 1
	}
	vvvvInv := byte(^vvvv) & 0xF
	vpInv := inv(vvvv&0x10 != 0)
	buf.AppendU8(0x62)
	buf.AppendU8(inv(reg&0x8 != 0)<<7 | inv(xBit)<<6 | inv(bBit)<<5 | inv(reg&0x10 != 0)<<4 | m)
	buf.AppendU8(wVal<<7 | vvvvInv<<3 | 1<<2 | pp)
	buf.AppendU8(zVal<<7 | ll<<5 | bVal<<4 | vpInv<<3 | (aaa & 0x7))
}
