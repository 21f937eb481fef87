// Package compiler implements the tier-3 emitter: it
// inherits Builder's record/replay behavior and adds virtual registers,
// function scoping driven by a calling convention, and the register
// allocator + spill materialization + prologue/epilogue pipeline that
// turns a Builder's recorded node list into a finished, physical-register-
// only program ready for a tier-1 Assembler.
//
// Grounded on wazero's internal/engine/wazevo/backend package: the
// Compiler-wraps-a-Builder-and-holds-a-VirtRegTable shape, and the
// per-architecture isa/amd64, isa/arm64 split for prologue/epilogue and
// calling-convention wiring (see target_x86.go, target_arm64_impl.go).
package compiler

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/builder"
	"github.com/nativejit/nativejit/internal/regalloc"
)

// Compiler is the tier-3 emitter: Builder behavior (Emit/Label/Bind/
// Align/Embed/Comment) plus new_gp/new_vec, add_func/set_arg/end_func,
// and Finalize, which runs the whole allocate-spill-prologue pipeline and
// produces a FinalizedCode.
type Compiler struct {
	env    asm.Environment
	target archTarget

	b          *builder.Builder
	gpCounter  uint32
	vecCounter uint32

	inFunc bool
	curSig Signature
	// sigs records each closed function's Signature in AddFunc order, so
	// Finalize can pair every sentinel-delimited segment with the calling
	// convention it was recorded under.
	sigs []Signature
}

// New returns an empty Compiler targeting env's architecture. It fails
// only if env names an architecture with no registered backend.
func New(env asm.Environment) (*Compiler, error) {
	target, ok := resolveTarget(env.Arch)
	if !ok {
		return nil, fmt.Errorf("%w: no compiler backend for architecture %s", asm.ErrInvalidState, env.Arch)
	}
	return &Compiler{env: env, target: target, b: builder.New()}, nil
}

// NewGP allocates a fresh virtual general-purpose register id.
func (c *Compiler) NewGP(sizeBits uint16) asm.Register {
	id := asm.VirtBase + c.gpCounter
	c.gpCounter++
	return asm.Register{Kind: asm.RegKindGP, ID: id, SizeBits: sizeBits}
}

// NewVec allocates a fresh virtual vector register id.
func (c *Compiler) NewVec(sizeBits uint16) asm.Register {
	id := asm.VirtBase + c.vecCounter
	c.vecCounter++
	return asm.Register{Kind: asm.RegKindVector, ID: id, SizeBits: sizeBits}
}

// Emit, Label, Bind, Align, Embed, and Comment forward to the embedded
// Builder: Compiler inherits every Builder operation unchanged.
func (c *Compiler) Emit(inst asm.InstructionID, operands ...asm.Operand) asm.NodeID {
	return c.b.Emit(inst, operands...)
}
func (c *Compiler) Label(name string) asm.LabelID        { return c.b.Label(name) }
func (c *Compiler) Bind(label asm.LabelID) asm.NodeID     { return c.b.Bind(label) }
func (c *Compiler) Align(mode asm.AlignMode, n uint32) asm.NodeID {
	return c.b.Align(mode, n)
}
func (c *Compiler) Embed(bytes []byte) asm.NodeID   { return c.b.Embed(bytes) }
func (c *Compiler) Comment(text string) asm.NodeID  { return c.b.Comment(text) }
func (c *Compiler) EmbedConstant(name string, data []byte) asm.LabelID {
	return c.b.EmbedConstant(name, data)
}

// AddFunc scopes a new function: sig's calling convention decides
// argument-register assignment and the preserved-register mask Finalize
// uses when it builds this function's FuncFrame. Calls nest depth 1 only:
// AddFunc before a prior EndFunc returns ErrInvalidState.
func (c *Compiler) AddFunc(sig Signature) error {
	if c.inFunc {
		return fmt.Errorf("%w: AddFunc called while a function is already open", asm.ErrInvalidState)
	}
	c.inFunc = true
	c.curSig = sig
	c.b.Nodes().Append(asm.Node{Kind: asm.NodeKindSentinel, Sentinel: asm.SentinelFuncStart})
	return nil
}

// SetArg binds virtReg to the incoming argument at position index within
// its class's physical argument-register list, since GP and vector
// arguments are assigned from independent CallConv register lists and
// never share a position space. It emits a register-move copying the
// physical argument register into virtReg, so the allocator sees it like
// any other def.
func (c *Compiler) SetArg(index int, virtReg asm.Register) error {
	if !c.inFunc {
		return fmt.Errorf("%w: SetArg called outside add_func/end_func scope", asm.ErrInvalidState)
	}
	var physRegs []uint32
	switch virtReg.Kind {
	case asm.RegKindGP:
		physRegs = c.curSig.CallConv.GPArgRegs
	case asm.RegKindVector:
		physRegs = c.curSig.CallConv.VecArgRegs
	default:
		return fmt.Errorf("%w: SetArg only supports gp/vec registers", asm.ErrInvalidOperand)
	}
	if index < 0 || index >= len(physRegs) {
		return fmt.Errorf("%w: argument index %d out of range for calling convention %q", asm.ErrInvalidOperand, index, c.curSig.CallConv.Name)
	}
	phys := asm.Register{Kind: virtReg.Kind, ID: physRegs[index], SizeBits: virtReg.SizeBits}
	c.b.Emit(c.target.MovRegInst(), asm.RegOperand(phys), asm.RegOperand(virtReg))
	return nil
}

// EndFunc closes the function scope AddFunc opened.
func (c *Compiler) EndFunc() error {
	if !c.inFunc {
		return fmt.Errorf("%w: EndFunc called without a matching AddFunc", asm.ErrInvalidState)
	}
	c.b.Nodes().Append(asm.Node{Kind: asm.NodeKindSentinel, Sentinel: asm.SentinelFuncEnd})
	c.inFunc = false
	c.sigs = append(c.sigs, c.curSig)
	return nil
}

func (c *Compiler) isReturn(inst asm.InstructionID) bool {
	for _, id := range c.target.RetInstIDs() {
		if id == inst {
			return true
		}
	}
	return false
}

// Finalize runs the full tier-3 pipeline over every scoped function
// (interval construction, linear-scan allocation, spill materialization,
// prologue/epilogue insertion) and replays the result through a fresh
// tier-1 Assembler, returning the finished code. Nodes recorded outside any add_func/end_func
// scope (e.g. a bare sequence with no virtual registers) pass through
// unchanged, letting Compiler also serve as a plain Builder when a caller
// has no need for register allocation.
func (c *Compiler) Finalize() (*asm.FinalizedCode, error) {
	combined := asm.NewNodeList()

	var segment []asm.Node
	inSeg := false
	segIdx := 0
	flushPassthrough := func(n *asm.Node) { combined.Append(*n) }
	flushSegment := func() error {
		segNodes := asm.NewNodeList()
		for _, n := range segment {
			segNodes.Append(n)
		}
		frame, materialized, err := c.allocateFunc(segNodes, c.sigs[segIdx])
		if err != nil {
			return err
		}
		segIdx++
		appendFunc(combined, c.target, frame, materialized, c.isReturn)
		segment = segment[:0]
		return nil
	}

	var walkErr error
	c.b.Nodes().Walk(func(_ asm.NodeID, n *asm.Node) bool {
		switch {
		case n.Kind == asm.NodeKindSentinel && n.Sentinel == asm.SentinelFuncStart:
			inSeg = true
		case n.Kind == asm.NodeKindSentinel && n.Sentinel == asm.SentinelFuncEnd:
			inSeg = false
			walkErr = flushSegment()
		case inSeg:
			segment = append(segment, *n)
		default:
			flushPassthrough(n)
		}
		return walkErr == nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if inSeg {
		return nil, fmt.Errorf("%w: Finalize called with an open function scope (missing EndFunc)", asm.ErrInvalidState)
	}

	holder := asm.NewCodeHolder(c.env)
	targetAsm := c.target.NewAssembler(holder)
	if err := builder.SerializeNodes(combined, c.b.LabelNames(), targetAsm, holder); err != nil {
		return nil, err
	}
	return holder.Finalize(c.target.Patcher())
}

// allocateFunc runs interval construction, linear-scan allocation, and
// spill materialization over one function's node list, and derives its
// FuncFrame from the resulting spill area and the active calling
// convention's preserved-register masks.
func (c *Compiler) allocateFunc(nodes *asm.NodeList, sig Signature) (FuncFrame, *asm.NodeList, error) {
	result, err := regalloc.Allocate(nodes, c.target.AllocatablePool())
	if err != nil {
		return FuncFrame{}, nil, err
	}
	materialized, err := regalloc.Materialize(nodes, result, c.target.WriteOperands, c.target.SpillEmitter(), c.target.ScratchPool(), c.target.SPReg(), 0)
	if err != nil {
		return FuncFrame{}, nil, err
	}
	frame := FuncFrame{
		StackSize:        alignUp32(result.SpillAreaSize, 16),
		SpillAreaSize:    result.SpillAreaSize,
		PreservedGPMask:  sig.CallConv.PreservedGPMask,
		PreservedVecMask: sig.CallConv.PreservedVecMask,
		Alignment:        16,
		CallConvName:     sig.CallConv.Name,
	}
	return frame, materialized, nil
}

// appendFunc appends frame's prologue (if the frame needs one), body's
// nodes with the epilogue spliced in immediately before every return
// instruction, to out.
func appendFunc(out *asm.NodeList, target archTarget, frame FuncFrame, body *asm.NodeList, isReturn func(asm.InstructionID) bool) {
	if frame.StackSize > 0 {
		for _, n := range collectNodes(func(b *builder.Builder) { target.EmitPrologue(b, frame) }) {
			out.Append(n)
		}
	}
	epilogue := collectNodes(func(b *builder.Builder) { target.EmitEpilogue(b, frame) })
	body.Walk(func(_ asm.NodeID, n *asm.Node) bool {
		if frame.StackSize > 0 && n.Kind == asm.NodeKindInst && isReturn(n.InstID) {
			for _, e := range epilogue {
				out.Append(e)
			}
		}
		out.Append(*n)
		return true
	})
}

func collectNodes(emit func(b *builder.Builder)) []asm.Node {
	b := builder.New()
	emit(b)
	var out []asm.Node
	b.Nodes().Walk(func(_ asm.NodeID, n *asm.Node) bool {
		out = append(out, *n)
		return true
	})
	return out
}
