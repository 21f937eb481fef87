package arm64

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// form pairs a structural predicate with the encode step it triggers,
// mirroring the x86 backend's dispatch table and its "first matching
// operand-shape wins" rule. A non-zero features field gates the form on
// the CodeHolder's Environment; a matched form whose features are absent
// fails with ErrFeatureNotEnabled rather than silently dropping.
type form struct {
	match    func(ops []asm.Operand) bool
	encode   func(h *asm.CodeHolder, ops []asm.Operand) error
	features asm.CpuFeature
}

func isReg(o asm.Operand) bool { return o.Kind == asm.OperandKindRegister }
func isGPReg(o asm.Operand) bool {
	return o.Kind == asm.OperandKindRegister && o.Reg.Kind == asm.RegKindGP
}
func isVecReg(o asm.Operand) bool {
	return o.Kind == asm.OperandKindRegister && o.Reg.Kind == asm.RegKindVector
}
func isMem(o asm.Operand) bool   { return o.Kind == asm.OperandKindMemory }
func isImm(o asm.Operand) bool   { return o.Kind == asm.OperandKindImmediate }
func isCond(o asm.Operand) bool  { return o.Kind == asm.OperandKindCond }
func isLabel(o asm.Operand) bool { return o.Kind == asm.OperandKindLabel }

// threeRegForm builds a `Rd, Rn, Rm` instruction from operands given in
// Rm, Rn, Rd order (src2, src1, dst), the x86 backend's src-then-dst
// convention generalized to three operands.
func threeRegForm(encode func(buf *asm.CodeBuffer, rd, rn, rm asm.Register)) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 3 && isReg(ops[0]) && isReg(ops[1]) && isReg(ops[2])
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			rm, rn, rd := ops[0].Reg, ops[1].Reg, ops[2].Reg
			encode(&h.Buf, rd, rn, rm)
			return nil
		},
	}
}

var dispatchTable map[asm.InstructionID][]form

func init() {
	dispatchTable = map[asm.InstructionID][]form{
		NOP: {{
			match:  func(ops []asm.Operand) bool { return len(ops) == 0 },
			encode: func(h *asm.CodeHolder, _ []asm.Operand) error { word(&h.Buf, 0xD503201F); return nil },
		}},
		RET: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 0 },
			encode: func(h *asm.CodeHolder, _ []asm.Operand) error {
				word(&h.Buf, 0xD65F0000|X30<<5)
				return nil
			},
		}},
		RETreg: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 1 && isReg(ops[0]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				word(&h.Buf, 0xD65F0000|ops[0].Reg.ID<<5)
				return nil
			},
		}},
		MOVZ: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isImm(ops[0]) && isReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				imm, dst := ops[0].Imm, ops[1].Reg
				if !fitsUint(imm.Value, 16) {
					return fmt.Errorf("%w: MOVZ immediate %d does not fit 16 bits", asm.ErrInvalidImmediate, imm.Value)
				}
				return encodeMovWide(&h.Buf, 2, dst, uint32(imm.Value), 0)
			},
		}},
		MOVIMM: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isImm(ops[0]) && isReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				imm, dst := ops[0].Imm, ops[1].Reg
				return movImm64(&h.Buf, dst, uint64(imm.Value))
			},
		}},
		MOVreg: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isReg(ops[0]) && isReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				src, dst := ops[0].Reg, ops[1].Reg
				// Register 31 reads as XZR in the ORR form but as SP in
				// the ADD-immediate form, so MOV to/from SP must encode as
				// ADD Rd, Rn, #0 - the alias the reference manual assigns it.
				if src.ID == ZRorSP || dst.ID == ZRorSP {
					return encodeDPImm(&h.Buf, 0, 0, dst, src, 0, false)
				}
				encodeLogicalReg(&h.Buf, 1, dst, GPReg(ZRorSP, dst.SizeBits), src)
				return nil
			},
		}},
		ADD: {
			{
				match: func(ops []asm.Operand) bool {
					return len(ops) == 3 && isImm(ops[0]) && isReg(ops[1]) && isReg(ops[2])
				},
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					imm, rn, rd := ops[0].Imm, ops[1].Reg, ops[2].Reg
					return encodeDPImm(&h.Buf, 0, 0, rd, rn, uint32(imm.Value), false)
				},
			},
			threeRegForm(func(buf *asm.CodeBuffer, rd, rn, rm asm.Register) { encodeDPReg(buf, 0, 0, rd, rn, rm) }),
		},
		SUB: {
			{
				match: func(ops []asm.Operand) bool {
					return len(ops) == 3 && isImm(ops[0]) && isReg(ops[1]) && isReg(ops[2])
				},
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					imm, rn, rd := ops[0].Imm, ops[1].Reg, ops[2].Reg
					return encodeDPImm(&h.Buf, 1, 0, rd, rn, uint32(imm.Value), false)
				},
			},
			threeRegForm(func(buf *asm.CodeBuffer, rd, rn, rm asm.Register) { encodeDPReg(buf, 1, 0, rd, rn, rm) }),
		},
		CMP: {
			{
				match: func(ops []asm.Operand) bool { return len(ops) == 2 && isImm(ops[0]) && isReg(ops[1]) },
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					imm, rn := ops[0].Imm, ops[1].Reg
					return encodeDPImm(&h.Buf, 1, 1, GPReg(ZRorSP, rn.SizeBits), rn, uint32(imm.Value), false)
				},
			},
			{
				match: func(ops []asm.Operand) bool { return len(ops) == 2 && isReg(ops[0]) && isReg(ops[1]) },
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					rm, rn := ops[0].Reg, ops[1].Reg
					encodeDPReg(&h.Buf, 1, 1, GPReg(ZRorSP, rn.SizeBits), rn, rm)
					return nil
				},
			},
		},
		AND: {threeRegForm(func(buf *asm.CodeBuffer, rd, rn, rm asm.Register) { encodeLogicalReg(buf, 0, rd, rn, rm) })},
		ORR: {threeRegForm(func(buf *asm.CodeBuffer, rd, rn, rm asm.Register) { encodeLogicalReg(buf, 1, rd, rn, rm) })},
		EOR: {threeRegForm(func(buf *asm.CodeBuffer, rd, rn, rm asm.Register) { encodeLogicalReg(buf, 2, rd, rn, rm) })},
		NEG: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isReg(ops[0]) && isReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				src, dst := ops[0].Reg, ops[1].Reg
				encodeDPReg(&h.Buf, 1, 0, dst, GPReg(ZRorSP, dst.SizeBits), src)
				return nil
			},
		}},
		MUL: {threeRegForm(encodeMul)},
		LDR: {
			{
				match: func(ops []asm.Operand) bool {
					return len(ops) == 2 && isMem(ops[0]) && isGPReg(ops[1])
				},
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					mem, dst := ops[0].Mem, ops[1].Reg
					return encodeLDRSTR(&h.Buf, true, dst, mem)
				},
			},
			{
				match: func(ops []asm.Operand) bool {
					return len(ops) == 2 && isMem(ops[0]) && isVecReg(ops[1])
				},
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					mem, dst := ops[0].Mem, ops[1].Reg
					return encodeLDRSTRVec(&h.Buf, true, dst, mem)
				},
				features: asm.FeatureNEON,
			},
		},
		STR: {
			{
				match: func(ops []asm.Operand) bool {
					return len(ops) == 2 && isGPReg(ops[0]) && isMem(ops[1])
				},
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					src, mem := ops[0].Reg, ops[1].Mem
					return encodeLDRSTR(&h.Buf, false, src, mem)
				},
			},
			{
				match: func(ops []asm.Operand) bool {
					return len(ops) == 2 && isVecReg(ops[0]) && isMem(ops[1])
				},
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					src, mem := ops[0].Reg, ops[1].Mem
					return encodeLDRSTRVec(&h.Buf, false, src, mem)
				},
				features: asm.FeatureNEON,
			},
		},
		STP: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 3 && isReg(ops[0]) && isReg(ops[1]) && isMem(ops[2]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				rt, rt2, mem := ops[0].Reg, ops[1].Reg, ops[2].Mem
				return encodeLDPSTP(&h.Buf, false, mem.AddrMode, rt, rt2, mem.Base, mem.Disp)
			},
		}},
		LDP: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 3 && isMem(ops[0]) && isReg(ops[1]) && isReg(ops[2]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				mem, rt, rt2 := ops[0].Mem, ops[1].Reg, ops[2].Reg
				return encodeLDPSTP(&h.Buf, true, mem.AddrMode, rt, rt2, mem.Base, mem.Disp)
			},
		}},
		LD1R: {
			{
				match: func(ops []asm.Operand) bool {
					return len(ops) == 3 && isImm(ops[0]) && isMem(ops[1]) && isVecReg(ops[2])
				},
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					layout, mem, vt := ops[0].Imm, ops[1].Mem, ops[2].Reg
					return encodeLD1R(&h.Buf, vt, mem, layout.Value)
				},
				features: asm.FeatureNEON,
			},
			{
				// An explicit element layout (.b/.h/.s/.d, passed as a
				// leading 8/16/32/64 immediate) is mandatory: without it
				// the size field is ambiguous, so the bare two-operand
				// shape is rejected rather than guessed at.
				match: func(ops []asm.Operand) bool {
					return len(ops) == 2 && isMem(ops[0]) && isVecReg(ops[1])
				},
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					return fmt.Errorf("%w: LD1R requires an explicit element layout", asm.ErrInvalidOperand)
				},
				features: asm.FeatureNEON,
			},
		},
		B: {{
			match:  func(ops []asm.Operand) bool { return len(ops) == 1 && isLabel(ops[0]) },
			encode: encodeBranch26(0x05 << 26),
		}},
		BL: {{
			match:  func(ops []asm.Operand) bool { return len(ops) == 1 && isLabel(ops[0]) },
			encode: encodeBranch26(0x25 << 26),
		}},
		BCOND: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isCond(ops[0]) && isLabel(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				cc, label := uint32(ops[0].Cnd), ops[1].Lbl
				at := uint32(h.Buf.Len())
				word(&h.Buf, 0x54<<24|uint32(cc))
				h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: at, Label: label, Kind: asm.FixupA64Branch19})
				return nil
			},
		}},
		CBZ: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isReg(ops[0]) && isLabel(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				rt, label := ops[0].Reg, ops[1].Lbl
				at := uint32(h.Buf.Len())
				word(&h.Buf, sf(rt.SizeBits)<<31|0x1A<<25|rt.ID)
				h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: at, Label: label, Kind: asm.FixupA64Branch19})
				return nil
			},
		}},
		CBNZ: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isReg(ops[0]) && isLabel(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				rt, label := ops[0].Reg, ops[1].Lbl
				at := uint32(h.Buf.Len())
				word(&h.Buf, sf(rt.SizeBits)<<31|0x1A<<25|1<<24|rt.ID)
				h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: at, Label: label, Kind: asm.FixupA64Branch19})
				return nil
			},
		}},
		ADR: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isLabel(ops[0]) && isReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				label, rd := ops[0].Lbl, ops[1].Reg
				at := uint32(h.Buf.Len())
				word(&h.Buf, 0x10<<24|rd.ID)
				h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: at, Label: label, Kind: asm.FixupA64Adr})
				return nil
			},
		}},
		ADRP: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isLabel(ops[0]) && isReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				label, rd := ops[0].Lbl, ops[1].Reg
				at := uint32(h.Buf.Len())
				word(&h.Buf, 0x90<<24|rd.ID)
				h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: at, Label: label, Kind: asm.FixupA64Adrp})
				return nil
			},
		}},
	}
}

// encodeBranch26 builds the B/BL encoder: opcodeBits already carries the
// family bit (0 for B, 1 for BL) shifted into place at bit 31/26.
func encodeBranch26(opcodeBits uint32) func(h *asm.CodeHolder, ops []asm.Operand) error {
	return func(h *asm.CodeHolder, ops []asm.Operand) error {
		label := ops[0].Lbl
		at := uint32(h.Buf.Len())
		word(&h.Buf, opcodeBits)
		h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: at, Label: label, Kind: asm.FixupA64Branch26})
		return nil
	}
}

// Dispatch implements asm.Dispatcher for the AArch64 table.
func Dispatch(h *asm.CodeHolder, inst asm.InstructionID, operands []asm.Operand) (bool, error) {
	forms, ok := dispatchTable[inst]
	if !ok {
		asm.LogSilentDrop(instructionName(inst), operands)
		return false, nil
	}
	for _, f := range forms {
		if f.match(operands) {
			if f.features != 0 && !h.Environment().Features.Has(f.features) {
				return true, fmt.Errorf("%w: %s requires %s", asm.ErrFeatureNotEnabled, instructionName(inst), f.features)
			}
			if err := f.encode(h, operands); err != nil {
				return true, fmt.Errorf("%s: %w", instructionName(inst), err)
			}
			return true, nil
		}
	}
	asm.LogSilentDrop(instructionName(inst), operands)
	return false, nil
}
