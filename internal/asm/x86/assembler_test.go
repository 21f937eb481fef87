package x86_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/x86"
)

func newAssembler(t *testing.T) *x86.Assembler {
	t.Helper()
	env := asm.NewEnvironment(asm.ArchX86_64, asm.PlatformLinux)
	h := asm.NewCodeHolder(env)
	return x86.New(h)
}

func TestAssembler_AddFunction(t *testing.T) {
	a := newAssembler(t)
	eax := x86.GPReg(x86.RAX, 32)

	matched, err := a.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 0}), asm.RegOperand(eax))
	require.True(t, matched)
	require.NoError(t, err)

	matched, err = a.Emit(x86.RET)
	require.True(t, matched)
	require.NoError(t, err)

	code, err := a.Assemble()
	require.NoError(t, err)
	require.Equal(t, []byte{0xB8, 0x00, 0x00, 0x00, 0x00, 0xC3}, code)
}

func TestAssembler_ForwardBranch(t *testing.T) {
	a := newAssembler(t)
	eax := x86.GPReg(x86.RAX, 32)

	l1 := a.NewLabel("L1")
	_, err := a.Emit(x86.CMP, asm.ImmOperand(asm.Immediate{Value: 0}), asm.RegOperand(eax))
	require.NoError(t, err)
	_, err = a.Emit(x86.JCC, asm.CondOperand(x86.CondE), asm.LabelOperand(l1))
	require.NoError(t, err)
	_, err = a.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 1}), asm.RegOperand(eax))
	require.NoError(t, err)
	require.NoError(t, a.Bind(l1))
	_, err = a.Emit(x86.RET)
	require.NoError(t, err)

	code, err := a.Assemble()
	require.NoError(t, err)

	// cmp eax,0 encodes as the imm8 form (0x83 /7 ib) = 3 bytes; jz rel32
	// (0F 8x + 4 bytes) = 6 bytes; mov eax,imm32 = 5 bytes; ret = 1 byte.
	require.Equal(t, byte(0x0F), code[3])
	require.Equal(t, byte(0x84), code[4])
	rel := int32(code[5]) | int32(code[6])<<8 | int32(code[7])<<16 | int32(code[8])<<24
	require.EqualValues(t, 5, rel) // skips the 5-byte "mov eax,1"
}

func TestAssembler_ReplayInvariant(t *testing.T) {
	build := func() []byte {
		a := newAssembler(t)
		eax := x86.GPReg(x86.RAX, 32)
		_, err := a.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 7}), asm.RegOperand(eax))
		require.NoError(t, err)
		_, err = a.Emit(x86.RET)
		require.NoError(t, err)
		code, err := a.Assemble()
		require.NoError(t, err)
		return code
	}
	require.Equal(t, build(), build())
}

func TestAssembler_UnmatchedFormIsNoOp(t *testing.T) {
	a := newAssembler(t)
	matched, err := a.Emit(x86.RET, asm.RegOperand(x86.GPReg(x86.RAX, 64)))
	require.False(t, matched)
	require.NoError(t, err)
	require.Equal(t, 0, a.Holder().Buf.Len())
}
