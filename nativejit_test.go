package nativejit_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit"
	"github.com/nativejit/nativejit/arm64"
	"github.com/nativejit/nativejit/x86"
)

// TestX86AddFunction is scenario 1, driven entirely through
// the public API: mov eax, 0; ret.
func TestX86AddFunction(t *testing.T) {
	env := nativejit.NewEnvironment(nativejit.ArchX86_64, nativejit.PlatformLinux)
	holder := nativejit.NewCodeHolder(env)
	asmr, err := nativejit.NewAssembler(holder)
	require.NoError(t, err)

	eax := x86.GPReg(x86.RAX, 32)
	_, err = asmr.Emit(x86.MOV, nativejit.ImmOperand(nativejit.Immediate{Value: 0}), nativejit.RegOperand(eax))
	require.NoError(t, err)
	_, err = asmr.Emit(x86.RET)
	require.NoError(t, err)

	code, err := asmr.Assemble()
	require.NoError(t, err)
	require.Equal(t, []byte{0xB8, 0x00, 0x00, 0x00, 0x00, 0xC3}, code)
}

// TestAArch64AddFunction is scenario 2: movz w0, #0; ret.
func TestAArch64AddFunction(t *testing.T) {
	env := nativejit.NewEnvironment(nativejit.ArchAArch64, nativejit.PlatformLinux)
	holder := nativejit.NewCodeHolder(env)
	asmr, err := nativejit.NewAssembler(holder)
	require.NoError(t, err)

	w0 := arm64.GPReg(arm64.X0, 32)
	_, err = asmr.Emit(arm64.MOVZ, nativejit.ImmOperand(nativejit.Immediate{Value: 0}), nativejit.RegOperand(w0))
	require.NoError(t, err)
	_, err = asmr.Emit(arm64.RET)
	require.NoError(t, err)

	code, err := asmr.Assemble()
	require.NoError(t, err)
	require.Len(t, code, 8)
	require.EqualValues(t, 0x52800000, binary.LittleEndian.Uint32(code[0:4]))
	require.EqualValues(t, 0xD65F03C0, binary.LittleEndian.Uint32(code[4:8]))
}

// TestX86ForwardBranchResolution is scenario 3: cmp eax, 0;
// jz L1; mov eax, 1; L1: ret. Verifies the rel32 following jz's opcode
// equals (offset_of_L1 - offset_of_next_instruction_after_jz).
func TestX86ForwardBranchResolution(t *testing.T) {
	env := nativejit.NewEnvironment(nativejit.ArchX86_64, nativejit.PlatformLinux)
	holder := nativejit.NewCodeHolder(env)
	asmr, err := nativejit.NewAssembler(holder)
	require.NoError(t, err)

	eax := x86.GPReg(x86.RAX, 32)
	l1 := asmr.NewLabel("L1")

	_, err = asmr.Emit(x86.CMP, nativejit.ImmOperand(nativejit.Immediate{Value: 0}), nativejit.RegOperand(eax))
	require.NoError(t, err)
	_, err = asmr.Emit(x86.JCC, nativejit.CondOperand(x86.CondE), nativejit.LabelOperand(l1))
	require.NoError(t, err)
	_, err = asmr.Emit(x86.MOV, nativejit.ImmOperand(nativejit.Immediate{Value: 1}), nativejit.RegOperand(eax))
	require.NoError(t, err)
	require.NoError(t, asmr.Bind(l1))
	_, err = asmr.Emit(x86.RET)
	require.NoError(t, err)

	code, err := asmr.Assemble()
	require.NoError(t, err)

	// cmp eax,0 (83 F8 00) + long-form jz (0F 84 + rel32) puts the jz's
	// rel32 field at byte offset 5; jz ends at offset 9, where the
	// instruction following it starts, and L1 resolves to offset 14 (after
	// the 5-byte mov).
	require.Equal(t, []byte{0x83, 0xF8, 0x00, 0x0F, 0x84}, code[0:5])
	rel32 := int32(binary.LittleEndian.Uint32(code[5:9]))
	require.EqualValues(t, 5, rel32)
	require.Equal(t, byte(0xC3), code[len(code)-1])
}

// TestAArch64ForwardBranchResolution is scenario 4: cbz x0,
// L1; mov x0, #1; L1: ret. Verifies the imm19 embedded in the CBZ word
// equals (L1_offset - cbz_offset) / 4.
func TestAArch64ForwardBranchResolution(t *testing.T) {
	env := nativejit.NewEnvironment(nativejit.ArchAArch64, nativejit.PlatformLinux)
	holder := nativejit.NewCodeHolder(env)
	asmr, err := nativejit.NewAssembler(holder)
	require.NoError(t, err)

	x0 := arm64.GPReg(arm64.X0, 64)
	l1 := asmr.NewLabel("L1")

	_, err = asmr.Emit(arm64.CBZ, nativejit.RegOperand(x0), nativejit.LabelOperand(l1))
	require.NoError(t, err)
	_, err = asmr.Emit(arm64.MOVZ, nativejit.ImmOperand(nativejit.Immediate{Value: 1}), nativejit.RegOperand(x0))
	require.NoError(t, err)
	require.NoError(t, asmr.Bind(l1))
	_, err = asmr.Emit(arm64.RET)
	require.NoError(t, err)

	code, err := asmr.Assemble()
	require.NoError(t, err)
	require.Len(t, code, 12)

	cbzWord := binary.LittleEndian.Uint32(code[0:4])
	imm19 := int32(cbzWord>>5) & 0x7FFFF
	// Sign bit of a 19-bit field is bit 18; unused here since the offset
	// is small and positive, but shift-normalize via int32 for clarity.
	require.EqualValues(t, 2, imm19)
}

// TestRuntimeWXLifecycle is scenario 6, exercised through the
// public Runtime/JitFunction API: add a function, confirm a non-zero
// pointer, release it, confirm the pointer reads zero afterward.
func TestRuntimeWXLifecycle(t *testing.T) {
	env := nativejit.NewEnvironment(nativejit.ArchX86_64, nativejit.PlatformLinux)
	holder := nativejit.NewCodeHolder(env)
	asmr, err := nativejit.NewAssembler(holder)
	require.NoError(t, err)

	eax := x86.GPReg(x86.RAX, 32)
	_, err = asmr.Emit(x86.MOV, nativejit.ImmOperand(nativejit.Immediate{Value: 0}), nativejit.RegOperand(eax))
	require.NoError(t, err)
	_, err = asmr.Emit(x86.RET)
	require.NoError(t, err)
	_, err = asmr.Assemble()
	require.NoError(t, err)

	rt := nativejit.NewRuntime(0)
	fn, err := rt.Add(holder)
	require.NoError(t, err)
	require.NotZero(t, fn.AsPtr())

	require.NoError(t, rt.Release(fn))
	require.Zero(t, fn.AsPtr())
	require.ErrorIs(t, rt.Release(fn), nativejit.ErrAlreadyReleased)
}

// TestCompilerPublicAPI exercises Compiler end to end through the public
// wrapper, matching scenario 5's shape (virtual registers,
// a calling-convention-bound argument, allocator-driven materialization)
// without pinning exact spill counts, which internal/compiler's own
// tests already assert precisely.
func TestCompilerPublicAPI(t *testing.T) {
	env := nativejit.NewEnvironment(nativejit.ArchX86_64, nativejit.PlatformLinux)
	c, err := nativejit.NewCompiler(env)
	require.NoError(t, err)

	sig := nativejit.Signature{CallConv: nativejit.SystemVAMD64, GPRetSizes: []uint16{64}}
	require.NoError(t, c.AddFunc(sig))

	v0 := c.NewGP(64)
	c.Emit(x86.MOV, nativejit.ImmOperand(nativejit.Immediate{Value: 42}), nativejit.RegOperand(v0))
	c.Emit(x86.MOV, nativejit.RegOperand(v0), nativejit.RegOperand(x86.GPReg(x86.RAX, 64)))
	c.Emit(x86.RET)
	require.NoError(t, c.EndFunc())

	code, err := c.Finalize()
	require.NoError(t, err)
	require.NotEmpty(t, code.Bytes)
	require.Equal(t, byte(0xC3), code.Bytes[len(code.Bytes)-1])
}
