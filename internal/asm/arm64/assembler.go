package arm64

import "github.com/nativejit/nativejit/internal/asm"

// Assembler is the AArch64 tier-1 emitter: it writes 32-bit instruction
// words immediately into a CodeHolder's buffer and records fixups for
// branch/adr forms.
//
// Grounded on wazero's internal/asm/arm64 assemblerImpl as the tier-1
// synchronous emitter, restructured around the same generic
// Emit(inst, operands...) contract as the x86 backend (dispatcher.go holds
// the structural matching wazero's per-opcode Compile* methods perform).
type Assembler struct {
	holder *asm.CodeHolder
}

// New returns an Assembler writing into holder, which must target
// asm.ArchAArch64.
func New(holder *asm.CodeHolder) *Assembler {
	return &Assembler{holder: holder}
}

// Holder returns the underlying CodeHolder.
func (a *Assembler) Holder() *asm.CodeHolder { return a.holder }

// Offset returns the buffer position the next Emit call will land at.
func (a *Assembler) Offset() uint32 { return uint32(a.holder.Buf.Len()) }

// Emit dispatches inst/operands to the structural encoder table and writes
// a 32-bit word synchronously into the CodeBuffer. An InstructionID with no
// matching operand-shape form is a documented no-op returning (false, nil).
func (a *Assembler) Emit(inst asm.InstructionID, operands ...asm.Operand) (matched bool, err error) {
	return Dispatch(a.holder, inst, operands)
}

// NewLabel allocates a fresh, unbound label.
func (a *Assembler) NewLabel(name string) asm.LabelID { return a.holder.NewLabel(name) }

// Bind marks label as resolving to the current buffer position.
func (a *Assembler) Bind(label asm.LabelID) error { return a.holder.Bind(label) }

// Assemble finalizes the CodeHolder and returns the resulting bytes. It
// fails with ErrUnboundLabel if any fixup refers to a label never bound.
func (a *Assembler) Assemble() ([]byte, error) {
	code, err := a.holder.Finalize(Patcher{})
	if err != nil {
		return nil, err
	}
	return code.Bytes, nil
}
