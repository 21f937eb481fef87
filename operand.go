package nativejit

import "github.com/nativejit/nativejit/internal/asm"

// Operand model re-exports: every public-API Emit call
// builds these the same way the internal tiers do, so callers never need
// to import internal/asm directly.
type (
	RegKind     = asm.RegKind
	Register    = asm.Register
	AddrMode    = asm.AddrMode
	Memory      = asm.Memory
	Immediate   = asm.Immediate
	LabelID     = asm.LabelID
	Cond        = asm.Cond
	OperandKind = asm.OperandKind
	Operand     = asm.Operand

	InstructionID = asm.InstructionID
	InstInfo      = asm.InstInfo
	InstFlags     = asm.InstFlags
	InstructionDB = asm.InstructionDB
)

// Re-exported InstInfo flag bits.
const (
	InstFlagLockable       = asm.InstFlagLockable
	InstFlagRepable        = asm.InstFlagRepable
	InstFlagVolatile       = asm.InstFlagVolatile
	InstFlagArchConstraint = asm.InstFlagArchConstraint
)

const (
	RegKindGP      = asm.RegKindGP
	RegKindVector  = asm.RegKindVector
	RegKindMask    = asm.RegKindMask
	RegKindSegment = asm.RegKindSegment
)

const NoLabel = asm.NoLabel

var NilRegister = asm.NilRegister

func RegOperand(r Register) Operand  { return asm.RegOperand(r) }
func MemOperand(m Memory) Operand    { return asm.MemOperand(m) }
func ImmOperand(i Immediate) Operand { return asm.ImmOperand(i) }
func LabelOperand(l LabelID) Operand { return asm.LabelOperand(l) }
func CondOperand(c Cond) Operand     { return asm.CondOperand(c) }
