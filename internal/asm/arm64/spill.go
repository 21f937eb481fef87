package arm64

import "github.com/nativejit/nativejit/internal/asm"

// WriteOperands reports which operand indices inst writes, for the
// register allocator's spill-materialization pass. LDP is the one
// two-destination form in this package's dispatch table; every other
// writing instruction puts its destination register last, matching the
// Rm, Rn, Rd convention dispatcher.go documents. CMP/STR/STP/branches
// never write a register operand.
func WriteOperands(inst asm.InstructionID, ops []asm.Operand) []int {
	switch inst {
	case CMP, STR, STP, RET, RETreg, B, BL, BCOND, CBZ, CBNZ, NOP:
		return nil
	case LDP:
		return []int{1, 2}
	default:
		if len(ops) == 0 {
			return nil
		}
		last := len(ops) - 1
		if ops[last].Kind == asm.OperandKindRegister {
			return []int{last}
		}
		return nil
	}
}

// SpillEmitter implements regalloc.LoadStoreEmitter over this package's
// LDR/STR unsigned-offset encoders, used by the Compiler tier to
// materialize loads/stores around spilled VirtRegs. The dispatcher
// routes GP and vector scratch registers to the matching encoder form,
// so one emitter covers both classes.
type SpillEmitter struct{}

// LoadNode returns `LDR scratch, [base, #offset]`.
func (SpillEmitter) LoadNode(scratch, base asm.Register, offset int32) asm.Node {
	mem := asm.Memory{Base: base, Disp: offset, AddrMode: asm.AddrModeBaseOffset, SizeHint: scratch.SizeBits}
	return asm.Node{Kind: asm.NodeKindInst, InstID: LDR, Operands: []asm.Operand{asm.MemOperand(mem), asm.RegOperand(scratch)}}
}

// StoreNode returns `STR scratch, [base, #offset]`.
func (SpillEmitter) StoreNode(scratch, base asm.Register, offset int32) asm.Node {
	mem := asm.Memory{Base: base, Disp: offset, AddrMode: asm.AddrModeBaseOffset, SizeHint: scratch.SizeBits}
	return asm.Node{Kind: asm.NodeKindInst, InstID: STR, Operands: []asm.Operand{asm.RegOperand(scratch), asm.MemOperand(mem)}}
}
