package nativejit

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/asm/arm64"
	"github.com/nativejit/nativejit/internal/asm/x86"
)

// Assembler is the tier-1 emitter: it writes bytes
// immediately into a CodeHolder and records fixups for forward branches.
// Both architecture backends satisfy this identically shaped contract,
// so NewAssembler picks the concrete implementation for holder's
// Environment once, at construction.
type Assembler interface {
	// Emit dispatches inst/operands to the architecture's structural
	// encoder table. matched is false (err nil) when no form's operand
	// shape matched - the documented silent-drop extension mechanism.
	Emit(inst InstructionID, operands ...Operand) (matched bool, err error)
	NewLabel(name string) LabelID
	Bind(label LabelID) error
	// Assemble finalizes the underlying CodeHolder and returns the
	// resulting bytes.
	Assemble() ([]byte, error)
}

// NewAssembler returns the Assembler for holder's target architecture.
// It fails with ErrInvalidState wrapping the unsupported Arch if holder
// targets anything other than x86/x86_64 or aarch64.
func NewAssembler(holder *CodeHolder) (Assembler, error) {
	switch holder.Environment().Arch {
	case asm.ArchX86, asm.ArchX86_64:
		return x86.New(holder), nil
	case asm.ArchAArch64:
		return arm64.New(holder), nil
	default:
		return nil, fmt.Errorf("%w: unsupported arch %s", ErrInvalidState, holder.Environment().Arch)
	}
}
