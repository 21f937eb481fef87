package asm

import "errors"

// Sentinel errors shared by every emitter tier and architecture backend.
//
// These form the closed set of error kinds the system can surface to a
// caller of a public API method. Architecture packages and the register
// allocator wrap these with fmt.Errorf("%w: ...") to attach the offending
// instruction id, operand index, or byte offset.
var (
	// ErrUnboundLabel is returned by CodeHolder.Finalize when a pending
	// fixup refers to a label that was never bound.
	ErrUnboundLabel = errors.New("unbound label")
	// ErrLabelAlreadyBound is returned by LabelManager.BindAt when the
	// label already has an offset.
	ErrLabelAlreadyBound = errors.New("label already bound")
	// ErrInvalidDisplacement is returned by CodeHolder.Finalize when a
	// fixup's computed delta does not fit its encoding width.
	ErrInvalidDisplacement = errors.New("invalid displacement")
	// ErrInvalidOperand is returned by an encoder when an operand's
	// kind, size, or class is incompatible with the selected instruction
	// form.
	ErrInvalidOperand = errors.New("invalid operand")
	// ErrInvalidImmediate is returned when an immediate value does not
	// fit the encoding field it is destined for.
	ErrInvalidImmediate = errors.New("invalid immediate")
	// ErrFeatureNotEnabled is returned when an encoding requires a CPU
	// feature absent from the active Environment.
	ErrFeatureNotEnabled = errors.New("cpu feature not enabled")
	// ErrInvalidState is returned when a tier method is invoked in the
	// wrong phase, e.g. emitting after Finalize.
	ErrInvalidState = errors.New("invalid state")
	// ErrRegistersExhausted is returned by the register allocator when a
	// spill cannot free a usable physical register (e.g. the scratch pool
	// is empty during spill materialization).
	ErrRegistersExhausted = errors.New("registers exhausted")
	// ErrOutOfMemory is returned by the runtime when page allocation for a
	// JIT mapping fails.
	ErrOutOfMemory = errors.New("out of memory")
)
