package arm64_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/arm64"
)

func newVecAssembler(t *testing.T, features asm.CpuFeatureSet) *arm64.Assembler {
	t.Helper()
	env := asm.NewEnvironment(asm.ArchAArch64, asm.PlatformLinux, asm.WithFeatures(features))
	return arm64.New(asm.NewCodeHolder(env))
}

func neonFeatures() asm.CpuFeatureSet {
	return asm.CpuFeatureSet(0).With(asm.FeatureNEON)
}

func emitWord(t *testing.T, a *arm64.Assembler, inst asm.InstructionID, ops ...asm.Operand) uint32 {
	t.Helper()
	matched, err := a.Emit(inst, ops...)
	require.True(t, matched)
	require.NoError(t, err)
	code, err := a.Assemble()
	require.NoError(t, err)
	require.Len(t, code, 4)
	return binary.LittleEndian.Uint32(code)
}

func TestVec_LDRSTRQRegister(t *testing.T) {
	sp := arm64.GPReg(arm64.ZRorSP, 64)

	a := newVecAssembler(t, neonFeatures())
	mem := asm.Memory{Base: sp, AddrMode: asm.AddrModeBaseOffset, SizeHint: 128}
	w := emitWord(t, a, arm64.LDR, asm.MemOperand(mem), asm.RegOperand(arm64.VecReg(arm64.V0, 128)))
	// ldr q0, [sp]
	require.EqualValues(t, 0x3DC003E0, w)

	a = newVecAssembler(t, neonFeatures())
	mem = asm.Memory{Base: sp, Disp: 16, AddrMode: asm.AddrModeBaseOffset, SizeHint: 128}
	w = emitWord(t, a, arm64.STR, asm.RegOperand(arm64.VecReg(arm64.V1, 128)), asm.MemOperand(mem))
	// str q1, [sp, #16]
	require.EqualValues(t, 0x3D8007E1, w)
}

func TestVec_LDRDRegister(t *testing.T) {
	a := newVecAssembler(t, neonFeatures())
	x0 := arm64.GPReg(arm64.X0, 64)
	mem := asm.Memory{Base: x0, Disp: 8, AddrMode: asm.AddrModeBaseOffset, SizeHint: 64}
	w := emitWord(t, a, arm64.LDR, asm.MemOperand(mem), asm.RegOperand(arm64.VecReg(arm64.V2, 64)))
	// ldr d2, [x0, #8]
	require.EqualValues(t, 0xFD400402, w)
}

func TestVec_LD1RRequiresLayout(t *testing.T) {
	x0 := arm64.GPReg(arm64.X0, 64)
	mem := asm.Memory{Base: x0, AddrMode: asm.AddrModeBaseOffset, SizeHint: 128}

	a := newVecAssembler(t, neonFeatures())
	w := emitWord(t, a, arm64.LD1R,
		asm.ImmOperand(asm.Immediate{Value: 32}),
		asm.MemOperand(mem),
		asm.RegOperand(arm64.VecReg(arm64.V0, 128)))
	// ld1r {v0.4s}, [x0]
	require.EqualValues(t, 0x4D40C800, w)

	// Without the explicit element layout the operand shape is rejected.
	a = newVecAssembler(t, neonFeatures())
	matched, err := a.Emit(arm64.LD1R, asm.MemOperand(mem), asm.RegOperand(arm64.VecReg(arm64.V0, 128)))
	require.True(t, matched)
	require.ErrorIs(t, err, asm.ErrInvalidOperand)
}

func TestVec_FeatureGating(t *testing.T) {
	a := newVecAssembler(t, 0)
	mem := asm.Memory{Base: arm64.GPReg(arm64.X0, 64), AddrMode: asm.AddrModeBaseOffset, SizeHint: 128}
	matched, err := a.Emit(arm64.LDR, asm.MemOperand(mem), asm.RegOperand(arm64.VecReg(arm64.V0, 128)))
	require.True(t, matched)
	require.ErrorIs(t, err, asm.ErrFeatureNotEnabled)
}

func TestMOVToFromSPEncodesAsADDImmediate(t *testing.T) {
	a := newVecAssembler(t, 0)
	sp := arm64.GPReg(arm64.ZRorSP, 64)
	x29 := arm64.GPReg(arm64.X29, 64)
	w := emitWord(t, a, arm64.MOVreg, asm.RegOperand(sp), asm.RegOperand(x29))
	// mov x29, sp is the ADD x29, sp, #0 alias; the ORR form would read
	// the zero register instead of SP.
	require.EqualValues(t, 0x910003FD, w)
}
