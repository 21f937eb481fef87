// Package regalloc implements the linear-scan register allocator:
// interval construction over a Builder's recorded node list, a
// Poletto-Sarkar-style allocation pass, and the post-allocation
// spill-materialization rewrite.
//
// Grounded on wazero's internal/engine/wazevo/backend/regalloc package for
// the vocabulary (VReg/RealReg split, a RegSet bitmask for allocatable
// pools) and the "separate pools per register class, assign or spill"
// shape, but replaces wazero's SSA-liveness/graph-coloring implementation
// with a simpler linear-scan-over-recorded-nodes algorithm: this module's
// IR has no SSA dominance structure to exploit, and interval-splitting
// and a def-vs-use distinction are both out of scope for the supported
// instruction classes.
package regalloc

import "github.com/nativejit/nativejit/internal/asm"

// Class distinguishes the two independently-allocated register pools.
type Class uint8

const (
	ClassGP Class = iota
	ClassVec
)

func (c Class) String() string {
	if c == ClassVec {
		return "vec"
	}
	return "gp"
}

// classOf maps a Register's Kind onto an allocation Class; Mask/Segment
// registers are never virtual and never reach the allocator.
func classOf(k asm.RegKind) Class {
	if k == asm.RegKindVector {
		return ClassVec
	}
	return ClassGP
}

// Interval is one VirtReg's live range over a Builder's node positions.
// Position = node_index * 2; Start is the first
// observed use, End is the last.
type Interval struct {
	VReg  asm.Register
	Class Class
	Start int
	End   int
}

// BuildIntervals walks nodes in insertion order and records a use at each
// operand referencing a virtual register.
func BuildIntervals(nodes *asm.NodeList) []Interval {
	byID := make(map[vkey]*Interval)
	var order []vkey

	pos := 0
	var scratch [8]asm.Register
	nodes.Walk(func(_ asm.NodeID, n *asm.Node) bool {
		if n.Kind == asm.NodeKindInst {
			vregs := asm.VirtRegsIn(n.Operands, scratch[:0])
			for _, r := range vregs {
				k := vkey{kind: r.Kind, id: r.ID}
				iv, ok := byID[k]
				if !ok {
					iv = &Interval{VReg: r, Class: classOf(r.Kind), Start: pos, End: pos}
					byID[k] = iv
					order = append(order, k)
				}
				iv.End = pos
			}
		}
		pos += 2
		return true
	})

	out := make([]Interval, len(order))
	for i, k := range order {
		out[i] = *byID[k]
	}
	return out
}

type vkey struct {
	kind asm.RegKind
	id   uint32
}
