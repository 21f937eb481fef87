package builder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/x86"
	"github.com/nativejit/nativejit/internal/builder"
)

func assembleViaAssembler(t *testing.T, emit func(a *x86.Assembler)) []byte {
	t.Helper()
	h := asm.NewCodeHolder(asm.NewEnvironment(asm.ArchX86_64, asm.PlatformLinux))
	a := x86.New(h)
	emit(a)
	code, err := a.Assemble()
	require.NoError(t, err)
	return code
}

func assembleViaBuilder(t *testing.T, record func(b *builder.Builder)) []byte {
	t.Helper()
	b := builder.New()
	record(b)

	h := asm.NewCodeHolder(asm.NewEnvironment(asm.ArchX86_64, asm.PlatformLinux))
	a := x86.New(h)
	require.NoError(t, b.SerializeTo(a, h))
	code, err := a.Assemble()
	require.NoError(t, err)
	return code
}

func TestBuilder_AssemblerSerializeEquivalence(t *testing.T) {
	eax := x86.GPReg(x86.RAX, 32)

	direct := assembleViaAssembler(t, func(a *x86.Assembler) {
		_, err := a.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 5}), asm.RegOperand(eax))
		require.NoError(t, err)
		_, err = a.Emit(x86.RET)
		require.NoError(t, err)
	})

	viaBuilder := assembleViaBuilder(t, func(b *builder.Builder) {
		b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 5}), asm.RegOperand(eax))
		b.Emit(x86.RET)
	})

	require.Equal(t, direct, viaBuilder)
}

func TestBuilder_ReplayableMultipleTimes(t *testing.T) {
	eax := x86.GPReg(x86.RAX, 32)
	b := builder.New()
	l1 := b.Label("L1")
	b.Emit(x86.CMP, asm.ImmOperand(asm.Immediate{Value: 0}), asm.RegOperand(eax))
	b.Emit(x86.JCC, asm.CondOperand(x86.CondE), asm.LabelOperand(l1))
	b.Bind(l1)
	b.Emit(x86.RET)

	replay := func() []byte {
		h := asm.NewCodeHolder(asm.NewEnvironment(asm.ArchX86_64, asm.PlatformLinux))
		a := x86.New(h)
		require.NoError(t, b.SerializeTo(a, h))
		code, err := a.Assemble()
		require.NoError(t, err)
		return code
	}

	require.Equal(t, replay(), replay())
}

func TestBuilder_Clear(t *testing.T) {
	b := builder.New()
	b.Emit(x86.NOP)
	require.Equal(t, 1, b.Len())
	b.Clear()
	require.Equal(t, 0, b.Len())
}

// TestBuilder_EmbedConstantLoadsAddressPCRelative exercises the static
// constant pool supplement: a LEA against the returned label must load
// an address that, when the rel32 is added back to the instruction
// pointer at runtime, points exactly at the embedded bytes.
func TestBuilder_EmbedConstantLoadsAddressPCRelative(t *testing.T) {
	eax := x86.GPReg(x86.RAX, 32)
	b := builder.New()
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 0}), asm.RegOperand(eax))
	l := b.EmbedConstant("pool0", []byte{0xDE, 0xAD, 0xBE, 0xEF})
	b.Emit(x86.LEA, asm.LabelOperand(l), asm.RegOperand(eax))
	b.Emit(x86.RET)

	h := asm.NewCodeHolder(asm.NewEnvironment(asm.ArchX86_64, asm.PlatformLinux))
	a := x86.New(h)
	require.NoError(t, b.SerializeTo(a, h))
	code, err := a.Assemble()
	require.NoError(t, err)

	// mov eax,0 (B8 + imm32, 5 bytes, no REX) then the 4-byte embedded
	// constant, then a RIP-relative lea (8D + ModRM + rel32, 6 bytes),
	// then ret.
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, code[5:9])
	require.Equal(t, byte(0x8D), code[9])
	require.Equal(t, byte(0xC3), code[len(code)-1])
	require.Len(t, code, 16)
}
