package nativejit

import "github.com/nativejit/nativejit/internal/asm"

// Error kinds, re-exported at the public API
// boundary so callers never need to import internal/asm themselves to
// errors.Is against them.
var (
	ErrUnboundLabel        = asm.ErrUnboundLabel
	ErrLabelAlreadyBound   = asm.ErrLabelAlreadyBound
	ErrInvalidDisplacement = asm.ErrInvalidDisplacement
	ErrInvalidOperand      = asm.ErrInvalidOperand
	ErrInvalidImmediate    = asm.ErrInvalidImmediate
	ErrFeatureNotEnabled   = asm.ErrFeatureNotEnabled
	ErrInvalidState        = asm.ErrInvalidState
	ErrRegistersExhausted  = asm.ErrRegistersExhausted
	ErrOutOfMemory         = asm.ErrOutOfMemory
)
