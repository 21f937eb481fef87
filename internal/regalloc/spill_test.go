package regalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/x86"
	"github.com/nativejit/nativejit/internal/builder"
	"github.com/nativejit/nativejit/internal/regalloc"
)

// assertNoVirtRegs walks a materialized node list and fails the test if
// any operand still names a VirtReg - the allocation-safety property
// Materialize's output must uphold.
func assertNoVirtRegs(t *testing.T, nodes *asm.NodeList) {
	t.Helper()
	nodes.Walk(func(_ asm.NodeID, n *asm.Node) bool {
		for _, op := range n.Operands {
			switch op.Kind {
			case asm.OperandKindRegister:
				require.False(t, op.Reg.IsVirtual(), "leaked virtual register in %+v", n)
			case asm.OperandKindMemory:
				require.False(t, op.Mem.Base.IsVirtual(), "leaked virtual base in %+v", n)
				require.False(t, op.Mem.HasIndex && op.Mem.Index.IsVirtual(), "leaked virtual index in %+v", n)
			}
		}
		return true
	})
}

func TestMaterialize_DirectSubstitutionNoSpill(t *testing.T) {
	b := builder.New()
	v0, v1 := virtGP(0), virtGP(1)
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 1}), asm.RegOperand(v0))
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 2}), asm.RegOperand(v1))
	b.Emit(x86.ADD, asm.RegOperand(v0), asm.RegOperand(v1))

	policy := regalloc.Policy{GPPool: []uint32{x86.RAX, x86.RCX}}
	result, err := regalloc.Allocate(b.Nodes(), policy)
	require.NoError(t, err)
	require.Equal(t, uint32(0), result.SpillAreaSize)

	scratch := regalloc.ScratchPolicy{GPScratch: []uint32{x86.RDX}}
	base := x86.GPReg(x86.RSP, 64)
	out, err := regalloc.Materialize(b.Nodes(), result, x86.WriteOperands, x86.SpillEmitter{}, scratch, base, 0)
	require.NoError(t, err)
	assertNoVirtRegs(t, out)
	// No spilling happened, so no extra load/store nodes are inserted.
	require.Equal(t, b.Nodes().Len(), out.Len())
}

func TestMaterialize_InsertsLoadAndStoreAroundSpill(t *testing.T) {
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
	require.Equal(t, uint32(16), result.SpillAreaSize)

	scratch := regalloc.ScratchPolicy{GPScratch: []uint32{x86.RDX, x86.RBX}}
	base := x86.GPReg(x86.RSP, 64)
	out, err := regalloc.Materialize(b.Nodes(), result, x86.WriteOperands, x86.SpillEmitter{}, scratch, base, 0)
	require.NoError(t, err)
	assertNoVirtRegs(t, out)

	// At least one MOV-from-memory load and one MOV-to-memory store were
	// inserted for the spilled vreg's occurrences.
	loads, stores := 0, 0
	out.Walk(func(_ asm.NodeID, n *asm.Node) bool {
		if n.Kind != asm.NodeKindInst || n.InstID != x86.MOV || len(n.Operands) != 2 {
			return true
		}
		if n.Operands[0].Kind == asm.OperandKindMemory && n.Operands[1].Kind == asm.OperandKindRegister {
			loads++
		}
		if n.Operands[0].Kind == asm.OperandKindRegister && n.Operands[1].Kind == asm.OperandKindMemory {
			stores++
		}
		return true
	})
	require.GreaterOrEqual(t, loads, 1)
	require.GreaterOrEqual(t, stores, 1)
	require.Greater(t, out.Len(), b.Nodes().Len())
}

func TestMaterialize_ScratchAvoidsPhysicalOperands(t *testing.T) {
	// A single-register pool forces v1 to spill while v0 keeps RAX (v0's
	// interval ends before v1's, so the "steal only if the victim outlives
	// the newcomer" rule leaves v0 in place). v1 also co-occurs with RDX
	// read directly in the final instruction, so the scratch pool - which
	// offers RDX first - must skip it.
	b := builder.New()
	v0, v1 := virtGP(0), virtGP(1)
	rdx := x86.GPReg(x86.RDX, 64)
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 1}), asm.RegOperand(v0))
	b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 2}), asm.RegOperand(v1))
	b.Emit(x86.ADD, asm.RegOperand(v0), asm.RegOperand(v1))
	b.Emit(x86.ADD, asm.RegOperand(rdx), asm.RegOperand(v1))

	policy := regalloc.Policy{GPPool: []uint32{x86.RAX}}
	result, err := regalloc.Allocate(b.Nodes(), policy)
	require.NoError(t, err)
	a0, _ := result.Lookup(v0)
	a1, _ := result.Lookup(v1)
	require.False(t, a0.Spilled)
	require.True(t, a1.Spilled)

	scratch := regalloc.ScratchPolicy{GPScratch: []uint32{x86.RDX, x86.RCX}}
	base := x86.GPReg(x86.RSP, 64)
	out, err := regalloc.Materialize(b.Nodes(), result, x86.WriteOperands, x86.SpillEmitter{}, scratch, base, 0)
	require.NoError(t, err)
	assertNoVirtRegs(t, out)

	seenTargetAdd := false
	out.Walk(func(_ asm.NodeID, n *asm.Node) bool {
		if n.Kind != asm.NodeKindInst || n.InstID != x86.ADD || len(n.Operands) != 2 {
			return true
		}
		if n.Operands[0].Kind != asm.OperandKindRegister || n.Operands[0].Reg.ID != x86.RDX {
			return true
		}
		// This is the rewritten `ADD rdx, <scratch-for-v1>` node: the
		// untouched physical operand stays RDX, but the substituted
		// scratch for v1 must not also be RDX.
		seenTargetAdd = true
		require.Equal(t, x86.RDX, n.Operands[0].Reg.ID)
		require.NotEqual(t, x86.RDX, n.Operands[1].Reg.ID, "scratch must not collide with the instruction's own RDX operand")
		return true
	})
	require.True(t, seenTargetAdd, "expected to find the rewritten ADD rdx, <scratch> node")
}

func virtVec(id uint32) asm.Register {
	return asm.Register{Kind: asm.RegKindVector, ID: asm.VirtBase + id, SizeBits: 128}
}

func TestMaterialize_VectorSpillUsesVectorMoves(t *testing.T) {
	// Three simultaneously-live vector vregs against a 2-register pool:
	// one spills, and its reloads/stores must come out as MOVDQU with a
	// vector scratch, not GP MOVs.
	b := builder.New()
	v0, v1, v2 := virtVec(0), virtVec(1), virtVec(2)
	x0 := x86.VecReg(x86.XMM0, 128)
	b.Emit(x86.MOVAPS, asm.RegOperand(x0), asm.RegOperand(v0))
	b.Emit(x86.MOVAPS, asm.RegOperand(x0), asm.RegOperand(v1))
	b.Emit(x86.MOVAPS, asm.RegOperand(x0), asm.RegOperand(v2))
	b.Emit(x86.PADDD, asm.RegOperand(v0), asm.RegOperand(v1))
	b.Emit(x86.PADDD, asm.RegOperand(v1), asm.RegOperand(v2))
	b.Emit(x86.PADDD, asm.RegOperand(v0), asm.RegOperand(v2))

	policy := regalloc.Policy{VecPool: []uint32{x86.XMM1, x86.XMM2}}
	result, err := regalloc.Allocate(b.Nodes(), policy)
	require.NoError(t, err)
	require.Equal(t, uint32(16), result.SpillAreaSize)

	scratch := regalloc.ScratchPolicy{VecScratch: []uint32{x86.XMM14, x86.XMM15}}
	base := x86.GPReg(x86.RSP, 64)
	out, err := regalloc.Materialize(b.Nodes(), result, x86.WriteOperands, x86.SpillEmitter{}, scratch, base, 0)
	require.NoError(t, err)
	assertNoVirtRegs(t, out)

	vecLoads, vecStores := 0, 0
	out.Walk(func(_ asm.NodeID, n *asm.Node) bool {
		if n.Kind != asm.NodeKindInst || n.InstID != x86.MOVDQU || len(n.Operands) != 2 {
			return true
		}
		if n.Operands[0].Kind == asm.OperandKindMemory {
			require.Equal(t, asm.RegKindVector, n.Operands[1].Reg.Kind)
			vecLoads++
		} else if n.Operands[1].Kind == asm.OperandKindMemory {
			require.Equal(t, asm.RegKindVector, n.Operands[0].Reg.Kind)
			vecStores++
		}
		return true
	})
	require.GreaterOrEqual(t, vecLoads, 1)
	require.GreaterOrEqual(t, vecStores, 1)
}

func TestAllocate_MixedClassSpillSlotsDoNotOverlap(t *testing.T) {
	// Force one gp spill and one vec spill in the same function and check
	// their slots occupy disjoint ranges of the shared spill area.
	b := builder.New()
	g0, g1, g2 := virtGP(0), virtGP(1), virtGP(2)
	w0, w1, w2 := virtVec(0), virtVec(1), virtVec(2)
	for _, r := range []asm.Register{g0, g1, g2} {
		b.Emit(x86.MOV, asm.ImmOperand(asm.Immediate{Value: 1}), asm.RegOperand(r))
	}
	x0 := x86.VecReg(x86.XMM0, 128)
	for _, r := range []asm.Register{w0, w1, w2} {
		b.Emit(x86.MOVAPS, asm.RegOperand(x0), asm.RegOperand(r))
	}
	b.Emit(x86.ADD, asm.RegOperand(g0), asm.RegOperand(g1))
	b.Emit(x86.ADD, asm.RegOperand(g1), asm.RegOperand(g2))
	b.Emit(x86.ADD, asm.RegOperand(g0), asm.RegOperand(g2))
	b.Emit(x86.PADDD, asm.RegOperand(w0), asm.RegOperand(w1))
	b.Emit(x86.PADDD, asm.RegOperand(w1), asm.RegOperand(w2))
	b.Emit(x86.PADDD, asm.RegOperand(w0), asm.RegOperand(w2))

	policy := regalloc.Policy{
		GPPool:  []uint32{x86.RAX, x86.RCX},
		VecPool: []uint32{x86.XMM1, x86.XMM2},
	}
	result, err := regalloc.Allocate(b.Nodes(), policy)
	require.NoError(t, err)

	type slot struct{ off, size uint32 }
	var slots []slot
	for _, r := range []asm.Register{g0, g1, g2} {
		if a, ok := result.Lookup(r); ok && a.Spilled {
			slots = append(slots, slot{a.SpillOffset, 8})
		}
	}
	for _, r := range []asm.Register{w0, w1, w2} {
		if a, ok := result.Lookup(r); ok && a.Spilled {
			slots = append(slots, slot{a.SpillOffset, 16})
		}
	}
	require.GreaterOrEqual(t, len(slots), 2, "expected both classes to spill")
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			a, b := slots[i], slots[j]
			disjoint := a.off+a.size <= b.off || b.off+b.size <= a.off
			require.True(t, disjoint, "slots %+v and %+v overlap", a, b)
		}
	}
	require.Zero(t, result.SpillAreaSize%16)
}
