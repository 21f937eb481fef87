package regalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/x86"
	"github.com/nativejit/nativejit/internal/builder"
	"github.com/nativejit/nativejit/internal/regalloc"
)

func virtGP(id uint32) asm.Register {
	return asm.Register{Kind: asm.RegKindGP, ID: asm.VirtBase + id, SizeBits: 64}
}

func TestAllocate_NoSpillWhenPoolSufficient(t *testing.T) {
	b := builder.New()
	v0, v1 := virtGP(0), virtGP(1)
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 1}), asm.RegOperand(v0))
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 2}), asm.RegOperand(v1))
	b.Emit(x86.ADD, asm.RegOperand(v0), asm.RegOperand(v1))

	policy := regalloc.Policy{GPPool: []uint32{x86.RAX, x86.RCX}}
	result, err := regalloc.Allocate(b.Nodes(), policy)
	require.NoError(t, err)

	for _, v := range []asm.Register{v0, v1} {
		a, ok := result.Lookup(v)
		require.True(t, ok)
		require.False(t, a.Spilled)
	}
	// Distinct, overlapping-lifetime vregs must land on distinct registers.
	a0, _ := result.Lookup(v0)
	a1, _ := result.Lookup(v1)
	require.NotEqual(t, a0.Phys, a1.Phys)
}

func TestAllocate_SpillsUnderPressure(t *testing.T) {
	// Three simultaneously-live vregs, a 2-register pool: one must spill.
	b := builder.New()
	v0, v1, v2 := virtGP(0), virtGP(1), virtGP(2)
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 1}), asm.RegOperand(v0))
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 2}), asm.RegOperand(v1))
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 3}), asm.RegOperand(v2))
	b.Emit(x86.ADD, asm.RegOperand(v0), asm.RegOperand(v1))
	b.Emit(x86.ADD, asm.RegOperand(v1), asm.RegOperand(v2))
	b.Emit(x86.ADD, asm.RegOperand(v0), asm.RegOperand(v2))

	policy := regalloc.Policy{GPPool: []uint32{x86.RAX, x86.RCX}}
	result, err := regalloc.Allocate(b.Nodes(), policy)
	require.NoError(t, err)

	spilled := 0
	for _, v := range []asm.Register{v0, v1, v2} {
		a, _ := result.Lookup(v)
		if a.Spilled {
			spilled++
		}
	}
	require.Equal(t, 1, spilled)
	// One 8-byte GP slot, rounded up to the 16-byte spill area alignment.
	require.Equal(t, uint32(16), result.SpillAreaSize)
}

func TestAllocate_RegistersExhaustedWithEmptyPool(t *testing.T) {
	b := builder.New()
	v0 := virtGP(0)
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 1}), asm.RegOperand(v0))

	_, err := regalloc.Allocate(b.Nodes(), regalloc.Policy{})
	require.ErrorIs(t, err, asm.ErrRegistersExhausted)
}
