package compiler

import (
	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/builder"
	"github.com/nativejit/nativejit/internal/regalloc"
)

// targetAssembler is the tier-1 Assembler surface the Compiler replays
// onto: builder.TargetAssembler's record/replay contract, plus Assemble
// to run CodeHolder.Finalize with the architecture's own FixupPatcher.
type targetAssembler interface {
	builder.TargetAssembler
	Assemble() ([]byte, error)
}

// archTarget is what each architecture package (x86, arm64) supplies so
// the Compiler tier can stay architecture-neutral: register constructors,
// the allocator's physical-register/scratch pools, the spill
// load/store/write-operand triple, and prologue/epilogue emission.
//
// Grounded on wazero's backend split between isa/amd64 and isa/arm64,
// each implementing the same machine.Backend contract
// (machine_pro_epi_logue.go's per-arch prologue/epilogue emitters, abi.go/
// abi_go_entry.go's argument-register assignment) behind one arch-neutral
// interface the Compiler tier consumes.
type archTarget interface {
	NewAssembler(holder *asm.CodeHolder) targetAssembler
	Patcher() asm.FixupPatcher

	GPReg(id uint32, sizeBits uint16) asm.Register
	MovRegInst() asm.InstructionID

	AllocatablePool() regalloc.Policy
	ScratchPool() regalloc.ScratchPolicy
	WriteOperands(inst asm.InstructionID, ops []asm.Operand) []int
	SpillEmitter() regalloc.LoadStoreEmitter

	SPReg() asm.Register
	RetInstIDs() []asm.InstructionID

	// EmitPrologue/EmitEpilogue append the architecture's function
	// entry/exit sequence to b for the given frame.
	EmitPrologue(b *builder.Builder, frame FuncFrame)
	EmitEpilogue(b *builder.Builder, frame FuncFrame)
}

func resolveTarget(arch asm.Arch) (archTarget, bool) {
	switch arch {
	case asm.ArchX86, asm.ArchX86_64:
		return x86Target{}, true
	case asm.ArchAArch64:
		return arm64Target{}, true
	default:
		return nil, false
	}
}

func alignUp32(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}
