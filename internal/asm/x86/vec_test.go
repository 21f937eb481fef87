package x86_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/x86"
)

func newVecAssembler(t *testing.T, features asm.CpuFeatureSet) *x86.Assembler {
	t.Helper()
	env := asm.NewEnvironment(asm.ArchX86_64, asm.PlatformLinux, asm.WithFeatures(features))
	return x86.New(asm.NewCodeHolder(env))
}

func sse2Features() asm.CpuFeatureSet {
	return asm.CpuFeatureSet(0).With(asm.FeatureSSE2)
}

func avxFeatures() asm.CpuFeatureSet {
	return sse2Features().With(asm.FeatureAVX).With(asm.FeatureAVX2)
}

func avx512Features() asm.CpuFeatureSet {
	return avxFeatures().With(asm.FeatureAVX512F)
}

func emitOne(t *testing.T, a *x86.Assembler, inst asm.InstructionID, ops ...asm.Operand) []byte {
	t.Helper()
	matched, err := a.Emit(inst, ops...)
	require.True(t, matched)
	require.NoError(t, err)
	code, err := a.Assemble()
	require.NoError(t, err)
	return code
}

func TestVec_MOVDQULoadStore(t *testing.T) {
	rsp := x86.GPReg(x86.RSP, 64)

	a := newVecAssembler(t, sse2Features())
	mem := asm.Memory{Base: rsp, Disp: 16, AddrMode: asm.AddrModeBaseOffset, SizeHint: 128}
	code := emitOne(t, a, x86.MOVDQU, asm.MemOperand(mem), asm.RegOperand(x86.VecReg(x86.XMM1, 128)))
	// movdqu xmm1, [rsp+0x10]
	require.Equal(t, []byte{0xF3, 0x0F, 0x6F, 0x4C, 0x24, 0x10}, code)

	a = newVecAssembler(t, sse2Features())
	mem = asm.Memory{Base: rsp, AddrMode: asm.AddrModeBaseOffset, SizeHint: 128}
	code = emitOne(t, a, x86.MOVDQU, asm.RegOperand(x86.VecReg(x86.XMM0, 128)), asm.MemOperand(mem))
	// movdqu [rsp], xmm0
	require.Equal(t, []byte{0xF3, 0x0F, 0x7F, 0x04, 0x24}, code)
}

func TestVec_MOVAPSRegReg(t *testing.T) {
	a := newVecAssembler(t, sse2Features())
	code := emitOne(t, a, x86.MOVAPS,
		asm.RegOperand(x86.VecReg(x86.XMM3, 128)), asm.RegOperand(x86.VecReg(x86.XMM2, 128)))
	// movaps xmm2, xmm3
	require.Equal(t, []byte{0x0F, 0x28, 0xD3}, code)
}

func TestVec_PADDD(t *testing.T) {
	a := newVecAssembler(t, sse2Features())
	code := emitOne(t, a, x86.PADDD,
		asm.RegOperand(x86.VecReg(x86.XMM2, 128)), asm.RegOperand(x86.VecReg(x86.XMM1, 128)))
	// paddd xmm1, xmm2
	require.Equal(t, []byte{0x66, 0x0F, 0xFE, 0xCA}, code)
}

func TestVec_MOVDTransfers(t *testing.T) {
	a := newVecAssembler(t, sse2Features())
	code := emitOne(t, a, x86.MOVD,
		asm.RegOperand(x86.GPReg(x86.RAX, 32)), asm.RegOperand(x86.VecReg(x86.XMM0, 128)))
	// movd xmm0, eax
	require.Equal(t, []byte{0x66, 0x0F, 0x6E, 0xC0}, code)

	a = newVecAssembler(t, sse2Features())
	code = emitOne(t, a, x86.MOVD,
		asm.RegOperand(x86.GPReg(x86.RAX, 64)), asm.RegOperand(x86.VecReg(x86.XMM0, 128)))
	// movq xmm0, rax (REX.W selects the 64-bit form)
	require.Equal(t, []byte{0x66, 0x48, 0x0F, 0x6E, 0xC0}, code)
}

func TestVec_VADDPSUsesTwoByteVEX(t *testing.T) {
	a := newVecAssembler(t, avxFeatures())
	code := emitOne(t, a, x86.VADDPS,
		asm.RegOperand(x86.VecReg(x86.XMM1, 256)),
		asm.RegOperand(x86.VecReg(x86.XMM2, 256)),
		asm.RegOperand(x86.VecReg(x86.XMM0, 256)))
	// vaddps ymm0, ymm1, ymm2
	require.Equal(t, []byte{0xC5, 0xF4, 0x58, 0xC2}, code)
}

func TestVec_VMOVDQULoad(t *testing.T) {
	a := newVecAssembler(t, avxFeatures())
	mem := asm.Memory{Base: x86.GPReg(x86.RAX, 64), AddrMode: asm.AddrModeBaseOffset, SizeHint: 256}
	code := emitOne(t, a, x86.VMOVDQU, asm.MemOperand(mem), asm.RegOperand(x86.VecReg(x86.XMM0, 256)))
	// vmovdqu ymm0, [rax]
	require.Equal(t, []byte{0xC5, 0xFE, 0x6F, 0x00}, code)
}

func TestVec_VMOVDQUHighRegisterUsesThreeByteVEX(t *testing.T) {
	a := newVecAssembler(t, avxFeatures())
	mem := asm.Memory{Base: x86.GPReg(x86.R8, 64), AddrMode: asm.AddrModeBaseOffset, SizeHint: 256}
	code := emitOne(t, a, x86.VMOVDQU, asm.MemOperand(mem), asm.RegOperand(x86.VecReg(x86.XMM0, 256)))
	// vmovdqu ymm0, [r8]: the base's B extension forces the C4 form.
	require.Equal(t, []byte{0xC4, 0xC1, 0x7E, 0x6F, 0x00}, code)
}

func TestVec_VMOVDQU64UsesEVEX(t *testing.T) {
	a := newVecAssembler(t, avx512Features())
	mem := asm.Memory{Base: x86.GPReg(x86.RAX, 64), AddrMode: asm.AddrModeBaseOffset, SizeHint: 512}
	code := emitOne(t, a, x86.VMOVDQU64, asm.MemOperand(mem), asm.RegOperand(x86.VecReg(x86.XMM1, 512)))
	// vmovdqu64 zmm1, [rax]
	require.Equal(t, []byte{0x62, 0xF1, 0xFE, 0x48, 0x6F, 0x08}, code)
}

func TestVec_FeatureGating(t *testing.T) {
	// SSE2 form against an Environment with no features at all.
	a := newVecAssembler(t, 0)
	matched, err := a.Emit(x86.PADDD,
		asm.RegOperand(x86.VecReg(x86.XMM1, 128)), asm.RegOperand(x86.VecReg(x86.XMM0, 128)))
	require.True(t, matched)
	require.ErrorIs(t, err, asm.ErrFeatureNotEnabled)

	// AVX form against an SSE2-only Environment.
	a = newVecAssembler(t, sse2Features())
	mem := asm.Memory{Base: x86.GPReg(x86.RAX, 64), AddrMode: asm.AddrModeBaseOffset, SizeHint: 256}
	matched, err = a.Emit(x86.VMOVDQU, asm.MemOperand(mem), asm.RegOperand(x86.VecReg(x86.XMM0, 256)))
	require.True(t, matched)
	require.ErrorIs(t, err, asm.ErrFeatureNotEnabled)

	// EVEX form against an AVX-only Environment.
	a = newVecAssembler(t, avxFeatures())
	mem.SizeHint = 512
	matched, err = a.Emit(x86.VMOVDQU64, asm.MemOperand(mem), asm.RegOperand(x86.VecReg(x86.XMM0, 512)))
	require.True(t, matched)
	require.ErrorIs(t, err, asm.ErrFeatureNotEnabled)
}

func TestVec_GPFormsRejectVectorRegisters(t *testing.T) {
	// The GP ADD forms must not structurally match xmm operands; with no
	// vector ADD form either, the dispatch is a silent drop, not a
	// mis-encode.
	a := newVecAssembler(t, sse2Features())
	matched, err := a.Emit(x86.ADD,
		asm.RegOperand(x86.VecReg(x86.XMM0, 128)), asm.RegOperand(x86.VecReg(x86.XMM1, 128)))
	require.False(t, matched)
	require.NoError(t, err)
}
