package compiler

import (
	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/x86"
	"github.com/nativejit/nativejit/internal/builder"
	"github.com/nativejit/nativejit/internal/regalloc"
)

// x86Target implements archTarget over internal/asm/x86, grounded on
// x86-64 prologue/epilogue bullet and its scratch-pool
// list ("rax, rcx, rdx, r10, r11 for x86-64 SysV").
type x86Target struct{}

func (x86Target) NewAssembler(holder *asm.CodeHolder) targetAssembler { return x86.New(holder) }
func (x86Target) Patcher() asm.FixupPatcher                           { return x86.Patcher{} }

func (x86Target) GPReg(id uint32, sizeBits uint16) asm.Register { return x86.GPReg(id, sizeBits) }
func (x86Target) MovRegInst() asm.InstructionID                 { return x86.MOV }

// AllocatablePool excludes RSP (stack pointer) and RBP, since this
// Compiler always uses a fixed frame pointer and keeps both permanently
// reserved. The vector pool leaves XMM12-XMM15 to spill scratch.
func (x86Target) AllocatablePool() regalloc.Policy {
	return regalloc.Policy{
		// Spill-scratch registers (rax, rcx, rdx, r10, r11) sit last so
		// they are only allocated under heavy pressure, keeping them free
		// for the materialization pass in the common case.
		GPPool: []uint32{
			x86.RBX, x86.RSI, x86.RDI, x86.R8, x86.R9,
			x86.R12, x86.R13, x86.R14, x86.R15,
			x86.RAX, x86.RCX, x86.RDX, x86.R10, x86.R11,
		},
		VecPool: []uint32{
			x86.XMM0, x86.XMM1, x86.XMM2, x86.XMM3, x86.XMM4, x86.XMM5,
			x86.XMM6, x86.XMM7, x86.XMM8, x86.XMM9, x86.XMM10, x86.XMM11,
		},
	}
}

func (x86Target) ScratchPool() regalloc.ScratchPolicy {
	return regalloc.ScratchPolicy{
		GPScratch:  []uint32{x86.RAX, x86.RCX, x86.RDX, x86.R10, x86.R11},
		VecScratch: []uint32{x86.XMM12, x86.XMM13, x86.XMM14, x86.XMM15},
	}
}

func (x86Target) WriteOperands(inst asm.InstructionID, ops []asm.Operand) []int {
	return x86.WriteOperands(inst, ops)
}

func (x86Target) SpillEmitter() regalloc.LoadStoreEmitter { return x86.SpillEmitter{} }

func (x86Target) SPReg() asm.Register { return x86.GPReg(x86.RSP, 64) }

func (x86Target) RetInstIDs() []asm.InstructionID { return []asm.InstructionID{x86.RET} }

// EmitPrologue emits `push rbp; mov rbp, rsp; sub rsp, #frame_size`.
func (x86Target) EmitPrologue(b *builder.Builder, frame FuncFrame) {
	rbp := x86.GPReg(x86.RBP, 64)
	rsp := x86.GPReg(x86.RSP, 64)
	b.Emit(x86.PUSH, asm.RegOperand(rbp))
	b.Emit(x86.MOV, asm.RegOperand(rsp), asm.RegOperand(rbp))
	if frame.StackSize > 0 {
		b.Emit(x86.SUB, asm.ImmOperand(asm.Immediate{Value: int64(frame.StackSize), SourceWidth: 32}), asm.RegOperand(rsp))
	}
}

// EmitEpilogue emits the reverse sequence: `mov rsp, rbp; pop rbp`.
func (x86Target) EmitEpilogue(b *builder.Builder, frame FuncFrame) {
	rbp := x86.GPReg(x86.RBP, 64)
	rsp := x86.GPReg(x86.RSP, 64)
	if frame.StackSize > 0 {
		b.Emit(x86.MOV, asm.RegOperand(rbp), asm.RegOperand(rsp))
	}
	b.Emit(x86.POP, asm.RegOperand(rbp))
}
