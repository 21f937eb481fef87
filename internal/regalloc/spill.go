package regalloc

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// ScratchPolicy lists the caller-saved physical registers spill
// materialization may borrow, per class, in preference order.
type ScratchPolicy struct {
	GPScratch  []uint32
	VecScratch []uint32
}

func (p ScratchPolicy) pool(c Class) []uint32 {
	if c == ClassVec {
		return p.VecScratch
	}
	return p.GPScratch
}

// WriteOperandFunc reports the indices within ops that inst writes, so
// Materialize knows which spilled reads also need a post-instruction
// store.
// Each architecture package supplies its own (x86.WriteOperands,
// arm64.WriteOperands); the Compiler tier selects the one matching its
// target.
type WriteOperandFunc func(inst asm.InstructionID, ops []asm.Operand) []int

// LoadStoreEmitter lets spill materialization ask the architecture
// package for the load-before/store-after instructions it needs. The
// load/store opcode and its Memory operand shape are architecture
// specific; both implementations (internal/asm/x86.SpillEmitter,
// internal/asm/arm64.SpillEmitter) pick the GP or vector move by the
// scratch register's kind.
type LoadStoreEmitter interface {
	// LoadNode returns a Node loading from [base+offset] into scratch.
	LoadNode(scratch, base asm.Register, offset int32) asm.Node
	// StoreNode returns a Node storing scratch to [base+offset].
	StoreNode(scratch, base asm.Register, offset int32) asm.Node
}

// Materialize rewrites nodes into a fresh NodeList so that, afterward, no
// node references any VirtReg: every
// VirtReg occurrence assigned a physical register is substituted directly,
// and every occurrence assigned a spill slot instead gets a load inserted
// immediately before the instruction, a scratch register substituted in
// its place, and - for occurrences WriteOperandFunc reports as written - a
// store inserted immediately after. Nodes with no VirtReg operand are copied
// through unchanged.
//
// base names the physical register the spill area hangs off (the
// function's frame/stack pointer); baseOffset folds in the frame's own
// fixed offset to the start of the spill area.
func Materialize(nodes *asm.NodeList, result Result, writeOps WriteOperandFunc, emitter LoadStoreEmitter, scratch ScratchPolicy, base asm.Register, baseOffset int32) (*asm.NodeList, error) {
	out := asm.NewNodeList()

	var err error
	nodes.Walk(func(_ asm.NodeID, n *asm.Node) bool {
		if n.Kind != asm.NodeKindInst || len(n.Operands) == 0 {
			out.Append(*n)
			return true
		}

		direct, spilledAt, reserved := virtOperands(n.Operands, result)
		if len(direct) == 0 && len(spilledAt) == 0 {
			out.Append(*n)
			return true
		}

		writePositions := writeOps(n.InstID, n.Operands)
		isWritePos := make(map[int]bool, len(writePositions))
		for _, p := range writePositions {
			isWritePos[p] = true
		}

		newOps := append([]asm.Operand(nil), n.Operands...)

		// Occurrences already assigned a physical register: substitute in
		// place, no load/store needed.
		for _, occ := range direct {
			a := result.Assignments[vkey{kind: occ.reg.Kind, id: occ.reg.ID}]
			phys := asm.Register{Kind: occ.reg.Kind, ID: a.Phys, SizeBits: occ.reg.SizeBits}
			setOperandRegister(&newOps[occ.opIndex], occ.field, phys)
		}

		scratchFor := make(map[vkey]asm.Register)
		assignedScratch := make(map[uint32]bool)

		for _, occ := range spilledAt {
			k := vkey{kind: occ.reg.Kind, id: occ.reg.ID}
			sc, ok := scratchFor[k]
			if !ok {
				assignment := result.Assignments[k]
				id, ferr := pickScratch(scratch.pool(assignment.Class), reserved, assignedScratch)
				if ferr != nil {
					err = ferr
					return false
				}
				assignedScratch[id] = true
				sc = asm.Register{Kind: occ.reg.Kind, ID: id, SizeBits: occ.reg.SizeBits}
				scratchFor[k] = sc

				off := baseOffset + int32(assignment.SpillOffset)
				out.Append(emitter.LoadNode(sc, base, off))
			}
			setOperandRegister(&newOps[occ.opIndex], occ.field, sc)
		}

		rewritten := *n
		rewritten.Operands = newOps
		out.Append(rewritten)

		for _, occ := range spilledAt {
			if occ.field != fieldRegister || !isWritePos[occ.opIndex] {
				continue
			}
			k := vkey{kind: occ.reg.Kind, id: occ.reg.ID}
			sc := scratchFor[k]
			assignment := result.Assignments[k]
			off := baseOffset + int32(assignment.SpillOffset)
			out.Append(emitter.StoreNode(sc, base, off))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type operandField uint8

const (
	fieldRegister operandField = iota
	fieldMemBase
	fieldMemIndex
)

type spilledOccurrence struct {
	opIndex int
	field   operandField
	reg     asm.Register
}

// virtOperands finds every operand occurrence (direct Register, or Memory
// base/index) naming a VirtReg, bucketed into direct (assigned a physical
// register - plain substitution) and spilled (needs load/scratch/store),
// and separately collects every physical register id the rewritten
// instruction names - operands already physical in ops plus the registers
// assigned to direct occurrences - (so scratch selection never collides with an operand
// the instruction also reads through a physical register).
func virtOperands(ops []asm.Operand, result Result) (direct, spilled []spilledOccurrence, reservedPhys map[uint32]bool) {
	reservedPhys = make(map[uint32]bool)
	bucket := func(i int, field operandField, r asm.Register) {
		a, ok := result.lookup(r)
		if !ok {
			return
		}
		occ := spilledOccurrence{opIndex: i, field: field, reg: r}
		if a.Spilled {
			spilled = append(spilled, occ)
		} else {
			direct = append(direct, occ)
			reservedPhys[a.Phys] = true
		}
	}
	for i, o := range ops {
		switch o.Kind {
		case asm.OperandKindRegister:
			if o.Reg.IsVirtual() {
				bucket(i, fieldRegister, o.Reg)
			} else {
				reservedPhys[o.Reg.ID] = true
			}
		case asm.OperandKindMemory:
			if o.Mem.Base.Valid() {
				if o.Mem.Base.IsVirtual() {
					bucket(i, fieldMemBase, o.Mem.Base)
				} else {
					reservedPhys[o.Mem.Base.ID] = true
				}
			}
			if o.Mem.HasIndex {
				if o.Mem.Index.IsVirtual() {
					bucket(i, fieldMemIndex, o.Mem.Index)
				} else {
					reservedPhys[o.Mem.Index.ID] = true
				}
			}
		}
	}
	return direct, spilled, reservedPhys
}

func setOperandRegister(op *asm.Operand, field operandField, phys asm.Register) {
	switch field {
	case fieldRegister:
		op.Reg = phys
	case fieldMemBase:
		op.Mem.Base = phys
	case fieldMemIndex:
		op.Mem.Index = phys
	}
}

// pickScratch returns the first pool register not already reserved by a
// physical operand or claimed by another spilled operand in this same
// instruction.
func pickScratch(pool []uint32, reserved map[uint32]bool, claimed map[uint32]bool) (uint32, error) {
	for _, id := range pool {
		if !reserved[id] && !claimed[id] {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: no scratch register free for spill materialization", asm.ErrRegistersExhausted)
}
