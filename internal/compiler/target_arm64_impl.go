package compiler

import (
	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/arm64"
	"github.com/nativejit/nativejit/internal/builder"
	"github.com/nativejit/nativejit/internal/regalloc"
)

// arm64Target implements archTarget over internal/asm/arm64, grounded on
// AArch64 prologue/epilogue bullet and its scratch-pool
// list ("x0-x10, x16, x17 on A64").
type arm64Target struct{}

func (arm64Target) NewAssembler(holder *asm.CodeHolder) targetAssembler { return arm64.New(holder) }
func (arm64Target) Patcher() asm.FixupPatcher                           { return arm64.Patcher{} }

func (arm64Target) GPReg(id uint32, sizeBits uint16) asm.Register { return arm64.GPReg(id, sizeBits) }
func (arm64Target) MovRegInst() asm.InstructionID                 { return arm64.MOVreg }

// AllocatablePool excludes SP/XZR (id 31), the frame pointer X29, the
// link register X30, and the platform-reserved X16/X17. The vector pool
// prefers the caller-saved temporaries v16-v31 before the callee-saved
// v8-v15, and leaves v0-v7 (argument registers) to spill scratch.
func (arm64Target) AllocatablePool() regalloc.Policy {
	return regalloc.Policy{
		// X9/X10 double as spill scratch, so they sit last and are only
		// allocated under heavy pressure.
		GPPool: []uint32{
			arm64.X11, arm64.X12, arm64.X13, arm64.X14, arm64.X15,
			arm64.X19, arm64.X20, arm64.X21, arm64.X22, arm64.X23, arm64.X24, arm64.X25,
			arm64.X26, arm64.X27, arm64.X28, arm64.X9, arm64.X10,
		},
		VecPool: []uint32{
			arm64.V16, arm64.V17, arm64.V18, arm64.V19, arm64.V20, arm64.V21,
			arm64.V22, arm64.V23, arm64.V24, arm64.V25, arm64.V26, arm64.V27,
			arm64.V28, arm64.V29, arm64.V30, arm64.V31,
			arm64.V8, arm64.V9, arm64.V10, arm64.V11, arm64.V12, arm64.V13,
			arm64.V14, arm64.V15,
		},
	}
}

func (arm64Target) ScratchPool() regalloc.ScratchPolicy {
	return regalloc.ScratchPolicy{
		GPScratch: []uint32{
			arm64.X0, arm64.X1, arm64.X2, arm64.X3, arm64.X4, arm64.X5, arm64.X6,
			arm64.X7, arm64.X8, arm64.X9, arm64.X10, arm64.X16, arm64.X17,
		},
		VecScratch: []uint32{
			arm64.V0, arm64.V1, arm64.V2, arm64.V3, arm64.V4, arm64.V5, arm64.V6, arm64.V7,
		},
	}
}

func (arm64Target) WriteOperands(inst asm.InstructionID, ops []asm.Operand) []int {
	return arm64.WriteOperands(inst, ops)
}

func (arm64Target) SpillEmitter() regalloc.LoadStoreEmitter { return arm64.SpillEmitter{} }

func (arm64Target) SPReg() asm.Register { return arm64.GPReg(arm64.ZRorSP, 64) }

func (arm64Target) RetInstIDs() []asm.InstructionID {
	return []asm.InstructionID{arm64.RET, arm64.RETreg}
}

// EmitPrologue emits `stp x29, x30, [sp, #-16]!; mov x29, sp;
// sub sp, sp, #frame_size`.
func (arm64Target) EmitPrologue(b *builder.Builder, frame FuncFrame) {
	x29, x30 := arm64.GPReg(arm64.X29, 64), arm64.GPReg(arm64.X30, 64)
	sp := arm64.GPReg(arm64.ZRorSP, 64)
	preIndexed := asm.Memory{Base: sp, Disp: -16, AddrMode: asm.AddrModePreIndex, SizeHint: 64}
	b.Emit(arm64.STP, asm.RegOperand(x29), asm.RegOperand(x30), asm.MemOperand(preIndexed))
	b.Emit(arm64.MOVreg, asm.RegOperand(sp), asm.RegOperand(x29))
	if frame.StackSize > 0 {
		b.Emit(arm64.SUB, asm.ImmOperand(asm.Immediate{Value: int64(frame.StackSize), SourceWidth: 32}), asm.RegOperand(sp), asm.RegOperand(sp))
	}
}

// EmitEpilogue emits the reverse sequence: a separate
// `add sp, sp, #frame_size` when the frame is non-empty, then
// `ldp x29, x30, [sp], #16`.
func (arm64Target) EmitEpilogue(b *builder.Builder, frame FuncFrame) {
	x29, x30 := arm64.GPReg(arm64.X29, 64), arm64.GPReg(arm64.X30, 64)
	sp := arm64.GPReg(arm64.ZRorSP, 64)
	if frame.StackSize > 0 {
		b.Emit(arm64.ADD, asm.ImmOperand(asm.Immediate{Value: int64(frame.StackSize), SourceWidth: 32}), asm.RegOperand(sp), asm.RegOperand(sp))
	}
	postIndexed := asm.Memory{Base: sp, Disp: 16, AddrMode: asm.AddrModePostIndex, SizeHint: 64}
	b.Emit(arm64.LDP, asm.MemOperand(postIndexed), asm.RegOperand(x29), asm.RegOperand(x30))
}
