package x86

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// Operand convention: every 2-operand form here takes (src, dst), matching
// AT&T assembly order and wazero's CompileRegisterToRegister(inst, from,
// to) parameter order.
//
// form pairs a structural predicate with the bytes it emits when matched.
// Dispatch walks a form list in order and applies the first match,
// implementing the "first form whose operand-pattern accepts all inputs"
// rule; if none match, Dispatch reports ok=false and the caller
// (Assembler) treats that as the documented silent-drop extension point,
// not an error. A non-zero features field gates the form on the
// CodeHolder's Environment: a matched form whose required feature is
// absent fails with ErrFeatureNotEnabled instead of encoding.
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
func isVecRegOf(o asm.Operand, sizeBits uint16) bool {
	return isVecReg(o) && o.Reg.SizeBits == sizeBits
}
func isMem(o asm.Operand) bool   { return o.Kind == asm.OperandKindMemory }
func isImm(o asm.Operand) bool   { return o.Kind == asm.OperandKindImmediate }
func isCond(o asm.Operand) bool  { return o.Kind == asm.OperandKindCond }
func isLabel(o asm.Operand) bool { return o.Kind == asm.OperandKindLabel }

func regRegForm(opcode byte, regIsDst bool) form {
	return form{
		match: func(ops []asm.Operand) bool { return len(ops) == 2 && isGPReg(ops[0]) && isGPReg(ops[1]) },
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			src, dst := ops[0].Reg, ops[1].Reg
			w := dst.SizeBits == 64
			sizePrefix(&h.Buf, dst.SizeBits)
			regField, rmField := src.ID, dst.ID
			if !regIsDst {
				regField, rmField = dst.ID, src.ID
			}
			if rex, ok := rexBits(w, extBit(regField), false, extBit(rmField)); ok {
				h.Buf.AppendU8(rex)
			}
			h.Buf.AppendU8(opcode)
			encodeModRMReg(&h.Buf, regField, rmField)
			return nil
		},
	}
}

func regMemLoadForm(opcode byte, twoByte bool) form {
	// dst(reg) <- src(mem): reg field carries dst.
	return form{
		match: func(ops []asm.Operand) bool { return len(ops) == 2 && isMem(ops[0]) && isGPReg(ops[1]) },
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			mem, dst := ops[0].Mem, ops[1].Reg
			w := dst.SizeBits == 64
			sizePrefix(&h.Buf, dst.SizeBits)
			xBit, bBit, err := peekMemREX(mem)
			if err != nil {
				return err
			}
			if rex, ok := rexBits(w, extBit(dst.ID), xBit, bBit); ok {
				h.Buf.AppendU8(rex)
			}
			if twoByte {
				h.Buf.AppendU8(0x0F)
			}
			h.Buf.AppendU8(opcode)
			_, _, err = encodeModRMMem(&h.Buf, lowBits(dst.ID), mem)
			return err
		},
	}
}

func memRegStoreForm(opcode byte) form {
	// dst(mem) <- src(reg): reg field carries src.
	return form{
		match: func(ops []asm.Operand) bool { return len(ops) == 2 && isGPReg(ops[0]) && isMem(ops[1]) },
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			src, mem := ops[0].Reg, ops[1].Mem
			w := src.SizeBits == 64
			sizePrefix(&h.Buf, src.SizeBits)
			xBit, bBit, err := peekMemREX(mem)
			if err != nil {
				return err
			}
			if rex, ok := rexBits(w, extBit(src.ID), xBit, bBit); ok {
				h.Buf.AppendU8(rex)
			}
			h.Buf.AppendU8(opcode)
			_, _, err = encodeModRMMem(&h.Buf, lowBits(src.ID), mem)
			return err
		},
	}
}

// peekMemREX computes the REX.X/B bits a memory operand requires without
// writing anything, by probing encodeModRMMem against a scratch buffer.
func peekMemREX(mem asm.Memory) (xBit, bBit bool, err error) {
	var scratch asm.CodeBuffer
	return encodeModRMMem(&scratch, 0, mem)
}

// group1ImmForm builds the ADD/OR/AND/SUB/XOR/CMP-family "r/m, imm" forms:
// opcode 0x81 /digit id32 (or 0x83 /digit ib whenever the immediate fits a
// sign-extended byte and the operand is wider than 8 bits; 8-bit operands
// use 0x80 /digit ib). Immediate.SourceWidth is not consulted.
func group1ImmForm(digit byte) form {
	return form{
		match: func(ops []asm.Operand) bool {
			return len(ops) == 2 && isImm(ops[0]) && (isGPReg(ops[1]) || isMem(ops[1]))
		},
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			imm := ops[0].Imm
			dst := ops[1]
			var sizeBits uint16
			if isReg(dst) {
				sizeBits = dst.Reg.SizeBits
			} else {
				sizeBits = dst.Mem.SizeHint
			}
			w := sizeBits == 64
			sizePrefix(&h.Buf, sizeBits)

			useImm8 := fitsInt8(imm.Value) && sizeBits != 8
			var xBit, bBit bool
			var err error
			if isReg(dst) {
				bBit = extBit(dst.Reg.ID)
			} else {
				xBit, bBit, err = peekMemREX(dst.Mem)
				if err != nil {
					return err
				}
			}
			if rex, ok := rexBits(w, false, xBit, bBit); ok {
				h.Buf.AppendU8(rex)
			}
			if sizeBits == 8 {
				h.Buf.AppendU8(0x80)
			} else if useImm8 {
				h.Buf.AppendU8(0x83)
			} else {
				h.Buf.AppendU8(0x81)
			}
			if isReg(dst) {
				encodeModRMReg(&h.Buf, uint32(digit), dst.Reg.ID)
			} else {
				if _, _, err := encodeModRMMem(&h.Buf, digit, dst.Mem); err != nil {
					return err
				}
			}
			width := uint8(32)
			if sizeBits == 8 {
				width = 8
			} else if useImm8 {
				width = 8
			} else if sizeBits == 16 {
				width = 16
			}
			return appendImmediate(&h.Buf, imm.Value, width)
		},
	}
}

var dispatchTable map[asm.InstructionID][]form

func init() {
	dispatchTable = map[asm.InstructionID][]form{
		NOP: {{
			match:  func(ops []asm.Operand) bool { return len(ops) == 0 },
			encode: func(h *asm.CodeHolder, _ []asm.Operand) error { h.Buf.AppendU8(0x90); return nil },
		}},
		RET: {{
			match:  func(ops []asm.Operand) bool { return len(ops) == 0 },
			encode: func(h *asm.CodeHolder, _ []asm.Operand) error { h.Buf.AppendU8(0xc3); return nil },
		}},
		PUSH: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 1 && isReg(ops[0]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				r := ops[0].Reg
				if rex, ok := rexBits(false, false, false, extBit(r.ID)); ok {
					h.Buf.AppendU8(rex)
				}
				h.Buf.AppendU8(0x50 + lowBits(r.ID))
				return nil
			},
		}},
		POP: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 1 && isReg(ops[0]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				r := ops[0].Reg
				if rex, ok := rexBits(false, false, false, extBit(r.ID)); ok {
					h.Buf.AppendU8(rex)
				}
				h.Buf.AppendU8(0x58 + lowBits(r.ID))
				return nil
			},
		}},
		LEA: {regMemLoadForm(0x8D, false), {
			// lea reg, [rip+label]: address-of-constant form backing the
			// static constant pool (builder.EmbedConstant) - a label bound
			// to a Data node's start, loaded PC-relative the same way a
			// branch target is, but via a fixup anchored after the whole
			// instruction instead of a branch opcode.
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isLabel(ops[0]) && isReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				label, dst := ops[0].Lbl, ops[1].Reg
				w := dst.SizeBits == 64
				if rex, ok := rexBits(w, extBit(dst.ID), false, false); ok {
					h.Buf.AppendU8(rex)
				}
				h.Buf.AppendU8(0x8D)
				h.Buf.AppendU8(0x05 | lowBits(dst.ID)<<3) // ModRM mod=00 rm=101 (RIP-relative)
				at := uint32(h.Buf.Len())
				h.Buf.AppendU32(0)
				anchor := uint32(h.Buf.Len())
				h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: anchor, Label: label, Kind: asm.FixupX86Rel32})
				return nil
			},
		}},
		MOV: {
			regRegForm(0x89, true),
			regMemLoadForm(0x8B, false),
			memRegStoreForm(0x89),
			{ // imm -> reg
				match: func(ops []asm.Operand) bool { return len(ops) == 2 && isImm(ops[0]) && isGPReg(ops[1]) },
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					imm, dst := ops[0].Imm, ops[1].Reg
					sizePrefix(&h.Buf, dst.SizeBits)
					w := dst.SizeBits == 64
					if rex, ok := rexBits(w, false, false, extBit(dst.ID)); ok {
						h.Buf.AppendU8(rex)
					}
					if dst.SizeBits == 8 {
						h.Buf.AppendU8(0xB0 + lowBits(dst.ID))
						return appendImmediate(&h.Buf, imm.Value, 8)
					}
					h.Buf.AppendU8(0xB8 + lowBits(dst.ID))
					width := uint8(32)
					if dst.SizeBits == 64 {
						width = 64
					} else if dst.SizeBits == 16 {
						width = 16
					}
					return appendImmediate(&h.Buf, imm.Value, width)
				},
			},
			{ // imm -> mem
				match: func(ops []asm.Operand) bool { return len(ops) == 2 && isImm(ops[0]) && isMem(ops[1]) },
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					imm, mem := ops[0].Imm, ops[1].Mem
					w := mem.SizeHint == 64
					sizePrefix(&h.Buf, mem.SizeHint)
					xBit, bBit, err := peekMemREX(mem)
					if err != nil {
						return err
					}
					if rex, ok := rexBits(w, false, xBit, bBit); ok {
						h.Buf.AppendU8(rex)
					}
					h.Buf.AppendU8(0xC7)
					if _, _, err := encodeModRMMem(&h.Buf, 0, mem); err != nil {
						return err
					}
					return appendImmediate(&h.Buf, imm.Value, 32)
				},
			},
		},
		ADD: {regRegForm(0x01, true), regMemLoadForm(0x03, false), memRegStoreForm(0x01), group1ImmForm(0)},
		OR:  {regRegForm(0x09, true), regMemLoadForm(0x0B, false), memRegStoreForm(0x09), group1ImmForm(1)},
		AND: {regRegForm(0x21, true), regMemLoadForm(0x23, false), memRegStoreForm(0x21), group1ImmForm(4)},
		SUB: {regRegForm(0x29, true), regMemLoadForm(0x2B, false), memRegStoreForm(0x29), group1ImmForm(5)},
		XOR: {regRegForm(0x31, true), regMemLoadForm(0x33, false), memRegStoreForm(0x31), group1ImmForm(6)},
		CMP: {regRegForm(0x39, true), regMemLoadForm(0x3B, false), memRegStoreForm(0x39), group1ImmForm(7)},
		TEST: {
			regRegForm(0x85, false),
			{
				match: func(ops []asm.Operand) bool { return len(ops) == 2 && isImm(ops[0]) && isGPReg(ops[1]) },
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					imm, dst := ops[0].Imm, ops[1].Reg
					w := dst.SizeBits == 64
					sizePrefix(&h.Buf, dst.SizeBits)
					if rex, ok := rexBits(w, false, false, extBit(dst.ID)); ok {
						h.Buf.AppendU8(rex)
					}
					h.Buf.AppendU8(0xF7)
					encodeModRMReg(&h.Buf, 0, dst.ID)
					return appendImmediate(&h.Buf, imm.Value, 32)
				},
			},
		},
		NEG: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 1 && isReg(ops[0]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				r := ops[0].Reg
				w := r.SizeBits == 64
				if rex, ok := rexBits(w, false, false, extBit(r.ID)); ok {
					h.Buf.AppendU8(rex)
				}
				h.Buf.AppendU8(0xF7)
				encodeModRMReg(&h.Buf, 3, r.ID)
				return nil
			},
		}},
		IMUL: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isGPReg(ops[0]) && isGPReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				src, dst := ops[0].Reg, ops[1].Reg
				w := dst.SizeBits == 64
				if rex, ok := rexBits(w, extBit(dst.ID), false, extBit(src.ID)); ok {
					h.Buf.AppendU8(rex)
				}
				h.Buf.AppendU8(0x0F)
				h.Buf.AppendU8(0xAF)
				encodeModRMReg(&h.Buf, dst.ID, src.ID)
				return nil
			},
		}},
		MOVZX: {regMemLoadForm(0xB6, true), {
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isGPReg(ops[0]) && isGPReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				src, dst := ops[0].Reg, ops[1].Reg
				w := dst.SizeBits == 64
				if rex, ok := rexBits(w, extBit(dst.ID), false, extBit(src.ID)); ok {
					h.Buf.AppendU8(rex)
				}
				h.Buf.AppendU8(0x0F)
				if src.SizeBits == 16 {
					h.Buf.AppendU8(0xB7)
				} else {
					h.Buf.AppendU8(0xB6)
				}
				encodeModRMReg(&h.Buf, dst.ID, src.ID)
				return nil
			},
		}},
		MOVSX: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isGPReg(ops[0]) && isGPReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				src, dst := ops[0].Reg, ops[1].Reg
				w := dst.SizeBits == 64
				if rex, ok := rexBits(w, extBit(dst.ID), false, extBit(src.ID)); ok {
					h.Buf.AppendU8(rex)
				}
				if src.SizeBits == 32 {
					h.Buf.AppendU8(0x63) // MOVSXD
					encodeModRMReg(&h.Buf, dst.ID, src.ID)
					return nil
				}
				h.Buf.AppendU8(0x0F)
				if src.SizeBits == 16 {
					h.Buf.AppendU8(0xBF)
				} else {
					h.Buf.AppendU8(0xBE)
				}
				encodeModRMReg(&h.Buf, dst.ID, src.ID)
				return nil
			},
		}},
		SHL: shiftForm(4),
		SHR: shiftForm(5),
		SAR: shiftForm(7),
		CALL: {
			{
				match:  func(ops []asm.Operand) bool { return len(ops) == 1 && isLabel(ops[0]) },
				encode: encodeRelBranch(0xE8, nil),
			},
			{
				match: func(ops []asm.Operand) bool { return len(ops) == 1 && isReg(ops[0]) },
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					r := ops[0].Reg
					if rex, ok := rexBits(false, false, false, extBit(r.ID)); ok {
						h.Buf.AppendU8(rex)
					}
					h.Buf.AppendU8(0xFF)
					encodeModRMReg(&h.Buf, 2, r.ID)
					return nil
				},
			},
		},
		JMP: {
			{
				match:  func(ops []asm.Operand) bool { return len(ops) == 1 && isLabel(ops[0]) },
				encode: encodeRelBranch(0xE9, []byte{0xEB}),
			},
			{
				match: func(ops []asm.Operand) bool { return len(ops) == 1 && isReg(ops[0]) },
				encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
					r := ops[0].Reg
					if rex, ok := rexBits(false, false, false, extBit(r.ID)); ok {
						h.Buf.AppendU8(rex)
					}
					h.Buf.AppendU8(0xFF)
					encodeModRMReg(&h.Buf, 4, r.ID)
					return nil
				},
			},
		},
		JCC: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isCond(ops[0]) && isLabel(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				cc := byte(ops[0].Cnd)
				label := ops[1].Lbl
				return emitJcc(h, cc, label)
			},
		}},
		SETCC: {{
			match: func(ops []asm.Operand) bool { return len(ops) == 2 && isCond(ops[0]) && isReg(ops[1]) },
			encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
				cc := byte(ops[0].Cnd)
				dst := ops[1].Reg
				if rex, ok := rexBits(false, false, false, extBit(dst.ID)); ok {
					h.Buf.AppendU8(rex)
				}
				h.Buf.AppendU8(0x0F)
				h.Buf.AppendU8(0x90 + cc)
				encodeModRMReg(&h.Buf, 0, dst.ID)
				return nil
			},
		}},
	}
	registerVecForms(dispatchTable)
}

func shiftForm(digit byte) []form {
	return []form{{
		match: func(ops []asm.Operand) bool { return len(ops) == 2 && isImm(ops[0]) && isGPReg(ops[1]) },
		encode: func(h *asm.CodeHolder, ops []asm.Operand) error {
			imm, dst := ops[0].Imm, ops[1].Reg
			w := dst.SizeBits == 64
			if rex, ok := rexBits(w, false, false, extBit(dst.ID)); ok {
				h.Buf.AppendU8(rex)
			}
			if imm.Value == 1 {
				h.Buf.AppendU8(0xD1)
				encodeModRMReg(&h.Buf, uint32(digit), dst.ID)
				return nil
			}
			h.Buf.AppendU8(0xC1)
			encodeModRMReg(&h.Buf, uint32(digit), dst.ID)
			return appendImmediate(&h.Buf, imm.Value, 8)
		},
	}}
}

// encodeRelBranch emits a direct relative CALL/JMP. If shortOpcode is
// non-nil and the label is already bound within rel8 range, the short
// encoding is used; otherwise (and always for unbound forward branches,
// open question) the long rel32 form is emitted and a
// FixupX86Rel32 is recorded.
func encodeRelBranch(longOpcode byte, shortOpcode []byte) func(h *asm.CodeHolder, ops []asm.Operand) error {
	return func(h *asm.CodeHolder, ops []asm.Operand) error {
		label := ops[0].Lbl
		if shortOpcode != nil {
			if off, ok := h.Labels.Offset(label); ok {
				anchor := uint32(h.Buf.Len()) + uint32(len(shortOpcode)) + 1
				delta := int64(off) - int64(anchor)
				if fitsInt8(delta) {
					h.Buf.AppendBytes(shortOpcode)
					h.Buf.AppendU8(uint8(int8(delta)))
					return nil
				}
			}
		}
		h.Buf.AppendU8(longOpcode)
		at := uint32(h.Buf.Len())
		h.Buf.AppendU32(0)
		anchor := uint32(h.Buf.Len())
		h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: anchor, Label: label, Kind: asm.FixupX86Rel32})
		return nil
	}
}

// emitJcc emits Jcc; short form (0x70+cc rel8) when the label is already
// bound and reachable, else the long 0F 0x80+cc rel32 form with a fixup.
func emitJcc(h *asm.CodeHolder, cc byte, label asm.LabelID) error {
	if off, ok := h.Labels.Offset(label); ok {
		anchor := uint32(h.Buf.Len()) + 2
		delta := int64(off) - int64(anchor)
		if fitsInt8(delta) {
			h.Buf.AppendU8(0x70 + cc)
			h.Buf.AppendU8(uint8(int8(delta)))
			return nil
		}
	}
	h.Buf.AppendU8(0x0F)
	h.Buf.AppendU8(0x80 + cc)
	at := uint32(h.Buf.Len())
	h.Buf.AppendU32(0)
	anchor := uint32(h.Buf.Len())
	h.AddFixup(asm.Fixup{AtOffset: at, AnchorOffset: anchor, Label: label, Kind: asm.FixupX86Rel32})
	return nil
}

// Dispatch implements asm.Dispatcher for the x86-64 table.
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
