package asm

// LabelEmitter is the label-bookkeeping contract every tier shares,
// grounded on wazero's AssemblerBase.NewLabel/Bind-equivalent calls
// (internal/asm/assembler.go). Each tier's Emit method differs in shape -
// tier 1 (Assembler) encodes synchronously and so can return an error
// immediately; tiers 2/3 (Builder,
// Compiler) only record a Node and defer validation to replay time, so
// their Emit returns a NodeID instead. That difference is deliberate
//,
// so Emit itself is declared per tier rather than forced into one
// interface.
type LabelEmitter interface {
	// NewLabel allocates a fresh, unbound label.
	NewLabel(name string) LabelID
	// Bind marks label as resolving to the current emission position.
	Bind(label LabelID) error
}

// Dispatcher selects and applies the encoding for one instruction id given
// its operands, or reports that no form matched. It is the architecture
// package's structural matcher.
type Dispatcher interface {
	// Dispatch attempts to encode inst with operands onto buf/holder. ok
	// is false (and err is nil) if no form's operand pattern matches -
	// the documented silent-drop extension mechanism. ok is true and err
	// non-nil if a form matched but the operands failed validation
	// (ErrInvalidOperand, ErrInvalidImmediate, ErrFeatureNotEnabled).
	Dispatch(h *CodeHolder, inst InstructionID, operands []Operand) (ok bool, err error)
}

// InstInfo is the read-only instruction database record describing one
// InstructionID: a name, its flags, and the CPU extensions it requires.
// It is consumed as a pure function by Assemble/Builder/Compiler and
// never mutated at runtime.
type InstInfo struct {
	Name       string
	Flags      InstFlags
	Extensions []string
}

// InstFlags are the bit flags InstInfo.Flags carries.
type InstFlags uint32

const (
	InstFlagLockable InstFlags = 1 << iota
	InstFlagRepable
	InstFlagVolatile
	InstFlagArchConstraint
)

// InstructionDB is the oracle interface both architecture packages
// implement over their (generated, in a real build) opaque lookup table.
type InstructionDB interface {
	Lookup(id InstructionID) (InstInfo, bool)
}
