package asm

import "fmt"

// NodeID is an index into a NodeList's arena. The zero value, NodeIDNil,
// never names a real node.
//
// Implemented as an arena-allocated index-based graph (NodeList backed by
// a slice of Node, with next/prev stored as u32 indices) to avoid the
// lifetime tangles a pointer-linked list invites. wazero's
// internal/asm/amd64/impl.go nodeImpl uses real pointers with a
// jumpOrigins map keyed by pointer identity; here the pointer links and
// the pointer-keyed map are both replaced with index arithmetic over a
// single growable slice.
type NodeID uint32

// NodeIDNil is the reserved "no node" id.
const NodeIDNil NodeID = 0

// NodeKind discriminates the Node tagged union.
type NodeKind uint8

const (
	NodeKindInst NodeKind = iota + 1
	NodeKindLabel
	NodeKindAlign
	NodeKindData
	NodeKindSentinel
	NodeKindComment
)

// AlignMode selects the padding byte/instruction used by an Align node.
type AlignMode uint8

const (
	AlignModeNop AlignMode = iota
	AlignModeZero
)

// SentinelKind marks structural boundaries in the node list (function
// entry/exit) that the Compiler tier uses to scope prologue/epilogue
// insertion without needing a separate side table.
type SentinelKind uint8

const (
	SentinelFuncStart SentinelKind = iota + 1
	SentinelFuncEnd
)

// InstructionID is a dense, architecture-specific mnemonic identifier:
// one id per mnemonic family, not per encoding. The
// dispatcher picks the encoding based on the accompanying Operands.
type InstructionID uint16

// InstOptions carries per-instruction emission hints that do not change
// the operand shape: e.g. "prefer short jump" or a lock prefix request.
type InstOptions uint8

const (
	InstOptionNone InstOptions = 0
	InstOptionLock InstOptions = 1 << iota
)

// Node is one entry in a NodeList: an instruction, a label placement, an
// alignment directive, embedded data, a sentinel, or a comment.
//
// Only the fields relevant to Kind are meaningful; this mirrors wazero's
// per-architecture nodeImpl, which also carries every field
// unconditionally and only interprets the ones matching its kind.
type Node struct {
	Kind NodeKind
	Next NodeID
	Prev NodeID

	// NodeKindInst
	InstID   InstructionID
	Operands []Operand
	Options  InstOptions

	// NodeKindLabel
	LabelID LabelID

	// NodeKindAlign
	AlignMode AlignMode
	Alignment uint32

	// NodeKindData
	Bytes []byte

	// NodeKindSentinel
	Sentinel SentinelKind

	// NodeKindComment
	Comment string

	// JumpTarget can name the Label a branch Inst node targets. No emitter
	// or pass in this module sets or reads it: branch targets travel as
	// Label operands, which Builder replay remaps.
	JumpTarget LabelID

	offsetInBinary uint64
	hasOffset      bool
}

// OffsetInBinary returns the byte offset recorded for this node and
// whether one was recorded. Neither replay nor CodeHolder.Finalize records
// node offsets, so it reports (0, false).
func (n *Node) OffsetInBinary() (uint64, bool) { return n.offsetInBinary, n.hasOffset }

// String renders an AT&T-like one-line form of n, grounded on the
// wazero's nodeImpl.String() (internal/asm/amd64/impl.go): debug/test
// use only, never consulted by replay or encoding.
func (n *Node) String() string {
	switch n.Kind {
	case NodeKindInst:
		s := fmt.Sprintf("inst#%d", n.InstID)
		for i, op := range n.Operands {
			if i == 0 {
				s += " "
			} else {
				s += ", "
			}
			s += op.String()
		}
		return s
	case NodeKindLabel:
		return fmt.Sprintf("L%d:", n.LabelID)
	case NodeKindAlign:
		return fmt.Sprintf("align %d", n.Alignment)
	case NodeKindData:
		return fmt.Sprintf("data[%d]", len(n.Bytes))
	case NodeKindSentinel:
		if n.Sentinel == SentinelFuncStart {
			return "func_start"
		}
		return "func_end"
	case NodeKindComment:
		return "; " + n.Comment
	default:
		return "?"
	}
}

// NodeList is an arena of Nodes forming a doubly-linked list in insertion
// order, the sole source of truth for a Builder.
type NodeList struct {
	arena      []Node
	head, tail NodeID
}

// NewNodeList returns an empty NodeList.
func NewNodeList() *NodeList {
	// Index 0 is reserved for NodeIDNil, so the arena always starts with
	// one throwaway slot.
	return &NodeList{arena: make([]Node, 1)}
}

// Len returns the number of nodes appended so far.
func (l *NodeList) Len() int { return len(l.arena) - 1 }

// Head returns the id of the first node, or NodeIDNil if empty.
func (l *NodeList) Head() NodeID { return l.head }

// Tail returns the id of the last node, or NodeIDNil if empty.
func (l *NodeList) Tail() NodeID { return l.tail }

// At returns a pointer to the node with the given id. The pointer is
// invalidated by the next Append (the arena may reallocate).
func (l *NodeList) At(id NodeID) *Node {
	return &l.arena[id]
}

// Append adds n to the end of the list and returns its id.
func (l *NodeList) Append(n Node) NodeID {
	id := NodeID(len(l.arena))
	n.Next, n.Prev = NodeIDNil, l.tail
	l.arena = append(l.arena, n)
	if l.tail != NodeIDNil {
		l.arena[l.tail].Next = id
	} else {
		l.head = id
	}
	l.tail = id
	return id
}

// Reset clears the list back to empty while keeping the backing array's
// capacity, mirroring CodeBuffer.Reset's reuse-not-reallocate discipline.
func (l *NodeList) Reset() {
	l.arena = l.arena[:1]
	l.head, l.tail = NodeIDNil, NodeIDNil
}

// Walk calls f for every node in insertion order. f returning false stops
// the walk early.
func (l *NodeList) Walk(f func(id NodeID, n *Node) bool) {
	for id := l.head; id != NodeIDNil; {
		n := &l.arena[id]
		next := n.Next
		if !f(id, n) {
			return
		}
		id = next
	}
}
