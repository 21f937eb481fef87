package x86

import (
	"github.com/nativejit/nativejit/internal/asm"
)

// Assembler is the x86-64 tier-1 emitter: it writes bytes immediately
// into a CodeHolder's buffer and records fixups for forward branches.
//
// Grounded on wazero's internal/asm/amd64 assemblerImpl, but slimmed to
// one generic Emit(inst, operands...) method in
// place of one typed Compile* method per operand shape - the structural
// dispatcher (dispatcher.go) already recovers the operand-shape
// information wazero's many CompileXToY methods exist to convey.
type Assembler struct {
	holder *asm.CodeHolder
}

// New returns an Assembler writing into holder, which must target
// asm.ArchX86 or asm.ArchX86_64.
func New(holder *asm.CodeHolder) *Assembler {
	return &Assembler{holder: holder}
}

// Holder returns the underlying CodeHolder.
func (a *Assembler) Holder() *asm.CodeHolder { return a.holder }

// Offset returns the buffer position the next Emit call will land at;
// useful for recording a branch's own start offset (AArch64 fixups are
// anchored there).
func (a *Assembler) Offset() uint32 { return uint32(a.holder.Buf.Len()) }

// Emit dispatches inst/operands to the structural encoder table and
// writes bytes synchronously into the CodeBuffer. An InstructionID with
// no matching operand-shape form is a documented no-op returning
// (false, nil) - an extension mechanism, not an error. A matched form
// that fails validation returns
// (true, err) with err one of ErrInvalidOperand/ErrInvalidImmediate/
// ErrFeatureNotEnabled.
func (a *Assembler) Emit(inst asm.InstructionID, operands ...asm.Operand) (matched bool, err error) {
	return Dispatch(a.holder, inst, operands)
}

// NewLabel allocates a fresh, unbound label.
func (a *Assembler) NewLabel(name string) asm.LabelID { return a.holder.NewLabel(name) }

// Bind marks label as resolving to the current buffer position.
func (a *Assembler) Bind(label asm.LabelID) error { return a.holder.Bind(label) }

// Assemble finalizes the CodeHolder and returns the resulting bytes,
// satisfying the root package's Assembler interface. It fails with
// ErrUnboundLabel if any fixup refers to a label never bound.
func (a *Assembler) Assemble() ([]byte, error) {
	code, err := a.holder.Finalize(Patcher{})
	if err != nil {
		return nil, err
	}
	return code.Bytes, nil
}
