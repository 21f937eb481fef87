package nativejit

import "github.com/nativejit/nativejit/internal/compiler"

// Signature describes one function's argument/return shape and the
// calling convention laying it out in physical registers.
type Signature = compiler.Signature

// FuncFrame is the Compiler's per-function stack-layout decision.
type FuncFrame = compiler.FuncFrame

// Compiler is the tier-3 emitter: it inherits Builder's
// record/replay behavior, adds virtual GP/vector registers and
// function-scoped signatures, and on Finalize runs the linear-scan
// register allocator, splices in the calling convention's prologue and
// epilogue, and replays the result through a fresh tier-1 Assembler.
type Compiler = compiler.Compiler

// NewCompiler constructs a Compiler targeting env. It fails with
// ErrInvalidState if env.Arch names an architecture this module does not
// implement a Compiler backend for.
func NewCompiler(env Environment) (*Compiler, error) { return compiler.New(env) }
