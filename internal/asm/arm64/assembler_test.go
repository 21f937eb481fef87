package arm64_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/arm64"
)

func newAssembler(t *testing.T) *arm64.Assembler {
	t.Helper()
	env := asm.NewEnvironment(asm.ArchAArch64, asm.PlatformLinux)
	h := asm.NewCodeHolder(env)
	return arm64.New(h)
}

func TestAssembler_AddFunction(t *testing.T) {
	a := newAssembler(t)
	w0 := arm64.GPReg(arm64.X0, 32)

	matched, err := a.Emit(arm64.MOVZ, asm.ImmOperand(asm.Immediate{Value: 0}), asm.RegOperand(w0))
	require.True(t, matched)
	require.NoError(t, err)
	matched, err = a.Emit(arm64.RET)
	require.True(t, matched)
	require.NoError(t, err)

	code, err := a.Assemble()
	require.NoError(t, err)
	require.Len(t, code, 8)
	require.EqualValues(t, 0x52800000, binary.LittleEndian.Uint32(code[0:4]))
	require.EqualValues(t, 0xD65F03C0, binary.LittleEndian.Uint32(code[4:8]))
}

func TestAssembler_ForwardBranchCBZ(t *testing.T) {
	a := newAssembler(t)
	x0 := arm64.GPReg(arm64.X0, 64)

	l1 := a.NewLabel("L1")
	cbzOffset := a.Offset()
	matched, err := a.Emit(arm64.CBZ, asm.RegOperand(x0), asm.LabelOperand(l1))
	require.True(t, matched)
	require.NoError(t, err)
	_, err = a.Emit(arm64.MOVIMM, asm.ImmOperand(asm.Immediate{Value: 1}), asm.RegOperand(x0))
	require.NoError(t, err)
	require.NoError(t, a.Bind(l1))
	_, err = a.Emit(arm64.RET)
	require.NoError(t, err)

	code, err := a.Assemble()
	require.NoError(t, err)

	l1Offset, ok := func() (uint32, bool) {
		// MOVIMM with a small positive value materializes as a single MOVZ,
		// so L1 lands 8 bytes after cbzOffset (the CBZ word plus the MOVZ).
		return cbzOffset + 8, true
	}()
	require.True(t, ok)

	w := binary.LittleEndian.Uint32(code[cbzOffset : cbzOffset+4])
	imm19 := int32(w<<8) >> 13 // sign-extend bits [23:5]
	require.EqualValues(t, (int64(l1Offset)-int64(cbzOffset))/4, imm19)
}

func TestAssembler_MovImm64AllLanes(t *testing.T) {
	a := newAssembler(t)
	x0 := arm64.GPReg(arm64.X0, 64)

	matched, err := a.Emit(arm64.MOVIMM, asm.ImmOperand(asm.Immediate{Value: int64(0x1122334455667788)}), asm.RegOperand(x0))
	require.True(t, matched)
	require.NoError(t, err)

	code, err := a.Assemble()
	require.NoError(t, err)
	require.Len(t, code, 16) // MOVZ + 3 MOVK (all four lanes nonzero)

	w0 := binary.LittleEndian.Uint32(code[0:4])
	require.EqualValues(t, 2, (w0>>29)&0x3)     // MOVZ opc
	require.EqualValues(t, 0x7788, (w0>>5)&0xFFFF) // lane 0 imm16
}

func TestAssembler_ReplayInvariant(t *testing.T) {
	build := func() []byte {
		a := newAssembler(t)
		x0 := arm64.GPReg(arm64.X0, 64)
		_, err := a.Emit(arm64.MOVIMM, asm.ImmOperand(asm.Immediate{Value: 7}), asm.RegOperand(x0))
		require.NoError(t, err)
		_, err = a.Emit(arm64.RET)
		require.NoError(t, err)
		code, err := a.Assemble()
		require.NoError(t, err)
		return code
	}
	require.Equal(t, build(), build())
}
