// Package builder implements the tier-2 emitter: instead of
// writing bytes immediately, each call records a Node onto an
// arena-allocated list, deferring encoding to a replay pass
// (serialize_to) against a concrete architecture Assembler.
//
// Grounded on wazero's Node-list design (internal/asm/assembler.go's
// NodeImpl chain plus AssemblerBase.Assemble's "resolve relative
// addresses, then encode" split), adapted to this module's index-based
// NodeList (internal/asm/node.go) instead of wazero's pointer-chained
// nodes.
package builder

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// TargetAssembler is the subset of the x86/arm64 tier-1 Assembler that
// serialize_to needs to replay a recorded node list. Both architecture
// packages' Assembler type satisfies this without modification, since
// both were written against the same (matched bool, err error) Emit shape.
type TargetAssembler interface {
	Emit(inst asm.InstructionID, operands ...asm.Operand) (matched bool, err error)
	NewLabel(name string) asm.LabelID
	Bind(label asm.LabelID) error
}

// Builder records a sequence of emit/label/align/embed operations without
// encoding them, so the same sequence can be replayed (serialize_to)
// against an Assembler multiple times with identical output.
type Builder struct {
	nodes  asm.NodeList
	labels map[asm.LabelID]string
	nextID uint32
}

// New returns an empty Builder.
func New() *Builder {
	b := &Builder{labels: make(map[asm.LabelID]string)}
	b.nodes = *asm.NewNodeList()
	return b
}

// Emit records an instruction node; unlike the Assembler tier, this never
// fails immediately (operand validation is deferred to replay), so it
// returns only the recorded NodeID.
func (b *Builder) Emit(inst asm.InstructionID, operands ...asm.Operand) asm.NodeID {
	return b.nodes.Append(asm.Node{Kind: asm.NodeKindInst, InstID: inst, Operands: operands})
}

// Label allocates a fresh label id (not yet bound to a position). It
// records no node; Bind records the Label node that marks the binding site.
func (b *Builder) Label(name string) asm.LabelID {
	b.nextID++
	id := asm.LabelID(b.nextID)
	b.labels[id] = name
	return id
}

// Bind records that label resolves to the current node-list position.
func (b *Builder) Bind(label asm.LabelID) asm.NodeID {
	return b.nodes.Append(asm.Node{Kind: asm.NodeKindLabel, LabelID: label})
}

// Align records a padding directive: the replay Assembler's buffer is
// padded (per mode) to the next multiple of n bytes before the following
// node is emitted.
func (b *Builder) Align(mode asm.AlignMode, n uint32) asm.NodeID {
	return b.nodes.Append(asm.Node{Kind: asm.NodeKindAlign, AlignMode: mode, Alignment: n})
}

// Embed records a raw byte blob to be copied verbatim at replay time
// (used for static-constant-pool entries, 's supplemented
// static-constant feature).
func (b *Builder) Embed(bytes []byte) asm.NodeID {
	return b.nodes.Append(asm.Node{Kind: asm.NodeKindData, Bytes: bytes})
}

// Comment records a debug-only annotation; serialize_to never emits bytes
// for it.
func (b *Builder) Comment(text string) asm.NodeID {
	return b.nodes.Append(asm.Node{Kind: asm.NodeKindComment, Comment: text})
}

// EmbedConstant records data as a static constant: it binds a fresh label at the current position
// and embeds data immediately after it, so emitting `LEA dst, label`
// (x86) or `ADR dst, label` (arm64) against the returned label loads the
// constant's address PC-relative, with no separate data section or
// second CodeHolder required. Callers needing several constants call
// this once per constant; the replay Assembler naturally collects the
// resulting Data nodes whereever they were recorded - typically placed
// after a function's return, so they are never reached as instructions.
func (b *Builder) EmbedConstant(name string, data []byte) asm.LabelID {
	label := b.Label(name)
	b.Bind(label)
	b.Embed(data)
	return label
}

// Clear discards all recorded nodes and labels, returning the Builder to
// its initial empty state.
func (b *Builder) Clear() {
	b.nodes.Reset()
	b.labels = make(map[asm.LabelID]string)
	b.nextID = 0
}

// Len reports the number of recorded nodes.
func (b *Builder) Len() int { return b.nodes.Len() }

// Nodes exposes the recorded node list for the register allocator
// (internal/regalloc), which walks it to build live intervals before any
// replay happens.
func (b *Builder) Nodes() *asm.NodeList { return &b.nodes }

// LabelNames exposes the recorded label-id-to-debug-name map for callers
// (internal/compiler) that rewrite this Builder's node list into a fresh
// one (e.g. after register-allocation spill materialization) and need to
// replay the result through SerializeNodes with the same names.
func (b *Builder) LabelNames() map[asm.LabelID]string { return b.labels }

// SerializeTo walks the recorded nodes in insertion order and dispatches
// each to target: Inst nodes call target.Emit, Label nodes allocate (on
// first sight) and bind a target label, Align/Data nodes are expanded by
// appending raw padding/bytes directly into the assembler's CodeHolder
// buffer (the only tier-2 operation that reaches past the TargetAssembler
// interface, mirroring how wazero's node-walk touches the buffer
// directly for non-instruction nodes).
//
// A Builder must be replayable multiple times with identical output:
// SerializeTo performs no mutation of b itself, only of target and its
// CodeHolder.
func (b *Builder) SerializeTo(target TargetAssembler, holder *asm.CodeHolder) error {
	return SerializeNodes(&b.nodes, b.labels, target, holder)
}

// SerializeNodes is SerializeTo generalized to any NodeList plus its
// label-name map, for callers (internal/compiler) that rewrite a
// Builder's recorded nodes into a fresh NodeList - e.g. the register
// allocator's spill-materialization pass - and need to replay the result
// without going through the original Builder instance.
func SerializeNodes(nodes *asm.NodeList, labelNames map[asm.LabelID]string, target TargetAssembler, holder *asm.CodeHolder) error {
	targetLabels := make(map[asm.LabelID]asm.LabelID, len(labelNames))
	resolve := func(recorded asm.LabelID) asm.LabelID {
		if id, ok := targetLabels[recorded]; ok {
			return id
		}
		id := target.NewLabel(labelNames[recorded])
		targetLabels[recorded] = id
		return id
	}

	var err error
	nodes.Walk(func(_ asm.NodeID, n *asm.Node) bool {
		switch n.Kind {
		case asm.NodeKindInst:
			operands := remapLabels(n.Operands, resolve)
			_, err = target.Emit(n.InstID, operands...)
		case asm.NodeKindLabel:
			err = target.Bind(resolve(n.LabelID))
		case asm.NodeKindAlign:
			padAlign(holder, n.AlignMode, n.Alignment)
		case asm.NodeKindData:
			holder.Buf.AppendBytes(n.Bytes)
		case asm.NodeKindComment, asm.NodeKindSentinel:
			// debug-only / scoping markers; no bytes.
		default:
			err = fmt.Errorf("%w: unrecognized node kind %d", asm.ErrInvalidState, n.Kind)
		}
		return err == nil
	})
	return err
}

// remapLabels rewrites any Label operand recorded against this Builder's
// own label ids into the replay target's label ids, since each
// SerializeTo call may target a fresh Assembler with its own LabelManager.
func remapLabels(ops []asm.Operand, resolve func(asm.LabelID) asm.LabelID) []asm.Operand {
	out := make([]asm.Operand, len(ops))
	for i, o := range ops {
		if o.Kind == asm.OperandKindLabel {
			o.Lbl = resolve(o.Lbl)
		}
		out[i] = o
	}
	return out
}

func padAlign(holder *asm.CodeHolder, mode asm.AlignMode, n uint32) {
	if n == 0 {
		return
	}
	pad := byte(0x00)
	if mode == asm.AlignModeNop {
		pad = 0x90 // x86 NOP; harmless as inert padding on A64 word boundaries too since align() there always targets a 4-byte multiple.
	}
	holder.Buf.Align(int(n), pad)
}
