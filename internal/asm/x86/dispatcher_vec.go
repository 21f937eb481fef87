package x86

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// Vector dispatch forms: the legacy/SSE path (mandatory prefix + 0F map +
// ModRM), the VEX path (2- or 3-byte prefix), and the EVEX path (4-byte
// prefix). Same (src.., dst) operand convention as the GP forms.

// ssePrefix writes a mandatory 66/F3/F2 prefix byte, which precedes REX.
func ssePrefix(buf *asm.CodeBuffer, pp byte) {
	switch pp {
	case pp66:
		buf.AppendU8(0x66)
	case ppF3:
		buf.AppendU8(0xF3)
	case ppF2:
		buf.AppendU8(0xF2)
	}
}

// sseRegRegForm builds an xmm, xmm form: [prefix] [REX] 0F opcode ModRM
// with reg=dst, rm=src.
func sseRegRegForm(pp byte, opcode byte) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isVecRegOf(ops[0], 128) && isVecRegOf(ops[1], 128)
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			src, dst := ops[0].Reg, ops[1].Reg
			ssePrefix(&h.Buf, pp)
			if rex, ok := rexBits(false, extBit(dst.ID), false, extBit(src.ID)); ok {
				h.Buf.AppendU8(rex)
			}
			h.Buf.AppendU8(0x0F)
			h.Buf.AppendU8(opcode)
			encodeModRMReg(&h.Buf, dst.ID, src.ID)
			return nil
		},
		features: asm.FeatureSSE2,
	}
}

// sseLoadForm builds an xmm <- mem form with reg=dst.
func sseLoadForm(pp byte, opcode byte) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isMem(ops[0]) && isVecRegOf(ops[1], 128)
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			mem, dst := ops[0].Mem, ops[1].Reg
			return sseMemOp(h, pp, opcode, dst, mem)
		},
		features: asm.FeatureSSE2,
	}
}

// sseStoreForm builds a mem <- xmm form with reg=src.
func sseStoreForm(pp byte, opcode byte) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isVecRegOf(ops[0], 128) && isMem(ops[1])
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			src, mem := ops[0].Reg, ops[1].Mem
			return sseMemOp(h, pp, opcode, src, mem)
		},
		features: asm.FeatureSSE2,
	}
}

func sseMemOp(h *asm.CodeHolder, pp byte, opcode byte, reg asm.Register, mem asm.Memory) error {
	ssePrefix(&h.Buf, pp)
	xBit, bBit, err := peekMemREX(mem)
	if err != nil {
		return err
	}
	if rex, ok := rexBits(false, extBit(reg.ID), xBit, bBit); ok {
		h.Buf.AppendU8(rex)
	}
	h.Buf.AppendU8(0x0F)
	h.Buf.AppendU8(opcode)
	_, _, err = encodeModRMMem(&h.Buf, lowBits(reg.ID), mem)
	return err
}

// vexThreeRegForm builds the (src1, src2, dst) non-destructive form:
// reg=dst, vvvv=src1, rm=src2. sizeBits selects the operand width the
// form accepts and feeds the L bit.
func vexThreeRegForm(pp byte, opcode byte, sizeBits uint16, feature asm.CpuFeature) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 3 && isVecRegOf(ops[0], sizeBits) && isVecRegOf(ops[1], sizeBits) && isVecRegOf(ops[2], sizeBits)
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			src1, src2, dst := ops[0].Reg, ops[1].Reg, ops[2].Reg
			vexPrefix(&h.Buf, extBit(dst.ID), false, extBit(src2.ID), mmOF, false, byte(src1.ID&0xF), sizeBits == 256, pp)
			h.Buf.AppendU8(opcode)
			encodeModRMReg(&h.Buf, dst.ID, src2.ID)
			return nil
		},
		features: feature,
	}
}

// vexLoadForm/vexStoreForm build VEX-encoded xmm/ymm <-> mem moves; the
// register operand's width picks L.
func vexLoadForm(pp byte, opcode byte, feature asm.CpuFeature) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isMem(ops[0]) && isVecReg(ops[1]) && ops[1].Reg.SizeBits <= 256
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			mem, dst := ops[0].Mem, ops[1].Reg
			return vexMemOp(h, pp, opcode, dst, mem)
		},
		features: feature,
	}
}

func vexStoreForm(pp byte, opcode byte, feature asm.CpuFeature) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isVecReg(ops[0]) && ops[0].Reg.SizeBits <= 256 && isMem(ops[1])
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			src, mem := ops[0].Reg, ops[1].Mem
			return vexMemOp(h, pp, opcode, src, mem)
		},
		features: feature,
	}
}

func vexMemOp(h *asm.CodeHolder, pp byte, opcode byte, reg asm.Register, mem asm.Memory) error {
	xBit, bBit, err := peekMemREX(mem)
	if err != nil {
		return err
	}
	vexPrefix(&h.Buf, extBit(reg.ID), xBit, bBit, mmOF, false, 0, reg.SizeBits == 256, pp)
	h.Buf.AppendU8(opcode)
	_, _, err = encodeModRMMem(&h.Buf, lowBits(reg.ID), mem)
	return err
}

// evexModRMMem is encodeModRMMem restricted to the displacement encodings
// EVEX can carry unmodified: EVEX scales disp8 by the vector length
// (compressed displacement), so any non-zero displacement is emitted as a
// full disp32 instead of risking a mis-scaled short form.
func evexModRMMem(buf *asm.CodeBuffer, reg byte, mem asm.Memory) error {
	if mem.AddrMode == asm.AddrModePCRelative || mem.Base.ID == RIP {
		buf.AppendU8(modrm(0b00, reg, 0b101))
		buf.AppendU32(uint32(mem.Disp))
		return nil
	}
	baseLow := lowBits(mem.Base.ID)
	needsSIB := mem.HasIndex || baseLow == 0b100

	var scaleEnc byte
	var indexLow byte = 0b100
	if mem.HasIndex {
		var err error
		scaleEnc, err = scaleEncoding(mem.Scale)
		if err != nil {
			return err
		}
		indexLow = lowBits(mem.Index.ID)
	}

	mod := byte(0b00)
	if mem.Disp != 0 || (!mem.HasIndex && baseLow == 0b101) {
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
	if mod == 0b10 {
		buf.AppendU32(uint32(mem.Disp))
	}
	return nil
}

// evexLoadForm/evexStoreForm build EVEX-encoded zmm <-> mem moves.
func evexLoadForm(pp byte, opcode byte, w bool, feature asm.CpuFeature) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isMem(ops[0]) && isVecRegOf(ops[1], 512)
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			mem, dst := ops[0].Mem, ops[1].Reg
			return evexMemOp(h, pp, opcode, w, dst, mem)
		},
		features: feature,
	}
}

func evexStoreForm(pp byte, opcode byte, w bool, feature asm.CpuFeature) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isVecRegOf(ops[0], 512) && isMem(ops[1])
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			src, mem := ops[0].Reg, ops[1].Mem
			return evexMemOp(h, pp, opcode, w, src, mem)
		},
		features: feature,
	}
}

func evexMemOp(h *asm.CodeHolder, pp byte, opcode byte, w bool, reg asm.Register, mem asm.Memory) error {
	var probe asm.CodeBuffer
	if err := evexModRMMem(&probe, 0, mem); err != nil {
		return err
	}
	xBit := mem.HasIndex && extBit(mem.Index.ID)
	bBit := mem.Base.ID != RIP && extBit(mem.Base.ID)
	evexPrefix(&h.Buf, reg.ID, xBit, bBit, mmOF, w, 0, evexLen(reg.SizeBits), pp, 0, false, false)
	h.Buf.AppendU8(opcode)
	return evexModRMMem(&h.Buf, lowBits(reg.ID), mem)
}

// evexRegRegForm builds a zmm, zmm move form: reg=dst, rm=src, with the
// rm register's high id bits carried in EVEX.X/B.
func evexRegRegForm(pp byte, opcode byte, w bool, feature asm.CpuFeature) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isVecRegOf(ops[0], 512) && isVecRegOf(ops[1], 512)
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			src, dst := ops[0].Reg, ops[1].Reg
			evexPrefix(&h.Buf, dst.ID, src.ID&0x10 != 0, src.ID&0x8 != 0, mmOF, w, 0, evexLen(dst.SizeBits), pp, 0, false, false)
			h.Buf.AppendU8(opcode)
			encodeModRMReg(&h.Buf, dst.ID, src.ID)
			return nil
		},
		features: feature,
	}
}

// movdForms are the GP <-> XMM transfer pair: 66 [REX.W] 0F 6E (xmm <-
// r/m) and 66 [REX.W] 0F 7E (r/m <- xmm); REX.W selects the 64-bit movq
// variant from the GP operand's width.
func movdForms() []form {
	toXMM := form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isGPReg(ops[0]) && isVecRegOf(ops[1], 128)
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			gp, xmm := ops[0].Reg, ops[1].Reg
			return movdOp(h, 0x6E, xmm, gp)
		},
		features: asm.FeatureSSE2,
	}
	fromXMM := form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isVecRegOf(ops[0], 128) && isGPReg(ops[1])
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			xmm, gp := ops[0].Reg, ops[1].Reg
			return movdOp(h, 0x7E, xmm, gp)
		},
		features: asm.FeatureSSE2,
	}
	return []form{toXMM, fromXMM}
}

func movdOp(h *asm.CodeHolder, opcode byte, xmm, gp asm.Register) error {
	if gp.SizeBits != 32 && gp.SizeBits != 64 {
		return fmt.Errorf("%w: MOVD GP operand must be 32 or 64 bits, got %d", asm.ErrInvalidOperand, gp.SizeBits)
	}
	ssePrefix(&h.Buf, pp66)
	if rex, ok := rexBits(gp.SizeBits == 64, extBit(xmm.ID), false, extBit(gp.ID)); ok {
		h.Buf.AppendU8(rex)
	}
	h.Buf.AppendU8(0x0F)
	h.Buf.AppendU8(opcode)
	encodeModRMReg(&h.Buf, xmm.ID, gp.ID)
	return nil
}

// registerVecForms installs the SSE/VEX/EVEX entries into the dispatch
// table; called from the table's init.
func registerVecForms(table map[asm.InstructionID][]form) {
	table[MOVD] = movdForms()
	table[MOVAPS] = []form{
		sseRegRegForm(ppNone, 0x28),
		sseLoadForm(ppNone, 0x28),
		sseStoreForm(ppNone, 0x29),
	}
	table[MOVDQU] = []form{
		sseRegRegForm(ppF3, 0x6F),
		sseLoadForm(ppF3, 0x6F),
		sseStoreForm(ppF3, 0x7F),
	}
	table[ADDPS] = []form{sseRegRegForm(ppNone, 0x58)}
	table[PADDD] = []form{sseRegRegForm(pp66, 0xFE)}
	table[VMOVDQU] = []form{
		vexLoadForm(ppF3, 0x6F, asm.FeatureAVX),
		vexStoreForm(ppF3, 0x7F, asm.FeatureAVX),
	}
	table[VADDPS] = []form{
		vexThreeRegForm(ppNone, 0x58, 256, asm.FeatureAVX),
		vexThreeRegForm(ppNone, 0x58, 128, asm.FeatureAVX),
	}
	table[VPADDD] = []form{
		vexThreeRegForm(pp66, 0xFE, 256, asm.FeatureAVX2),
		vexThreeRegForm(pp66, 0xFE, 128, asm.FeatureAVX),
	}
	table[VMOVDQU64] = []form{
		evexRegRegForm(ppF3, 0x6F, true, asm.FeatureAVX512F),
		evexLoadForm(ppF3, 0x6F, true, asm.FeatureAVX512F),
		evexStoreForm(ppF3, 0x7F, true, asm.FeatureAVX512F),
	}
}
