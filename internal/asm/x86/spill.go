package x86

import "github.com/nativejit/nativejit/internal/asm"

// WriteOperands reports which operand indices inst writes, for the
// register allocator's spill-materialization pass (internal/regalloc.
// Materialize). Every 2-operand form in this package's dispatcher puts
// the destination last (the src-then-dst convention dispatcher.go
// documents); compare/test instructions never write a register operand
// at all.
func WriteOperands(inst asm.InstructionID, ops []asm.Operand) []int {
	switch inst {
	case CMP, TEST, PUSH, CALL, JMP, JCC, RET, NOP:
		return nil
	case POP:
		return []int{0}
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
// MOV and MOVDQU encoders, used by the Compiler tier to materialize
// loads/stores around spilled VirtRegs: GP scratch registers move
// through MOV, vector scratch registers through MOVDQU.
type SpillEmitter struct{}

func spillMoveInst(scratch asm.Register) asm.InstructionID {
	if scratch.Kind == asm.RegKindVector {
		return MOVDQU
	}
	return MOV
}

// LoadNode returns `MOV scratch, [base+offset]` (MOVDQU for a vector
// scratch).
func (SpillEmitter) LoadNode(scratch, base asm.Register, offset int32) asm.Node {
	mem := asm.Memory{Base: base, Disp: offset, AddrMode: asm.AddrModeBaseOffset, SizeHint: scratch.SizeBits}
	return asm.Node{Kind: asm.NodeKindInst, InstID: spillMoveInst(scratch), Operands: []asm.Operand{asm.MemOperand(mem), asm.RegOperand(scratch)}}
}

// StoreNode returns `MOV [base+offset], scratch` (MOVDQU for a vector
// scratch).
func (SpillEmitter) StoreNode(scratch, base asm.Register, offset int32) asm.Node {
	mem := asm.Memory{Base: base, Disp: offset, AddrMode: asm.AddrModeBaseOffset, SizeHint: scratch.SizeBits}
	return asm.Node{Kind: asm.NodeKindInst, InstID: spillMoveInst(scratch), Operands: []asm.Operand{asm.RegOperand(scratch), asm.MemOperand(mem)}}
}
