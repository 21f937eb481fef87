// Package arm64 re-exports the AArch64 backend's instruction
// identifiers, register ids, and condition codes at the module's public
// surface, so callers of the root nativejit package can name what they
// emit without reaching into internal packages.
package arm64

import (
	"github.com/nativejit/nativejit/internal/asm"
	inner "github.com/nativejit/nativejit/internal/asm/arm64"
)

// Instruction identifiers.
const (
	NOP    = inner.NOP
	RET    = inner.RET
	MOVZ   = inner.MOVZ
	MOVK   = inner.MOVK
	MOVN   = inner.MOVN
	MOVreg = inner.MOVreg
	ADD    = inner.ADD
	SUB    = inner.SUB
	CMP    = inner.CMP
	AND    = inner.AND
	ORR    = inner.ORR
	EOR    = inner.EOR
	NEG    = inner.NEG
	MUL    = inner.MUL
	LDR    = inner.LDR
	STR    = inner.STR
	LDP    = inner.LDP
	STP    = inner.STP
	B      = inner.B
	BL     = inner.BL
	BCOND  = inner.BCOND
	CBZ    = inner.CBZ
	CBNZ   = inner.CBNZ
	RETreg = inner.RETreg
	ADR    = inner.ADR
	ADRP   = inner.ADRP
	MOVIMM = inner.MOVIMM
	LD1R   = inner.LD1R
)

// Condition codes for BCOND.
const (
	CondEQ = inner.CondEQ
	CondNE = inner.CondNE
	CondHS = inner.CondHS
	CondLO = inner.CondLO
	CondMI = inner.CondMI
	CondPL = inner.CondPL
	CondVS = inner.CondVS
	CondVC = inner.CondVC
	CondHI = inner.CondHI
	CondLS = inner.CondLS
	CondGE = inner.CondGE
	CondLT = inner.CondLT
	CondGT = inner.CondGT
	CondLE = inner.CondLE
	CondAL = inner.CondAL
	CondNV = inner.CondNV
)

// General-purpose register ids. ZRorSP's meaning (zero register vs stack
// pointer) is decided by the instruction form, matching the ISA.
const (
	X0     = inner.X0
	X1     = inner.X1
	X2     = inner.X2
	X3     = inner.X3
	X4     = inner.X4
	X5     = inner.X5
	X6     = inner.X6
	X7     = inner.X7
	X8     = inner.X8
	X9     = inner.X9
	X10    = inner.X10
	X11    = inner.X11
	X12    = inner.X12
	X13    = inner.X13
	X14    = inner.X14
	X15    = inner.X15
	X16    = inner.X16
	X17    = inner.X17
	X18    = inner.X18
	X19    = inner.X19
	X20    = inner.X20
	X21    = inner.X21
	X22    = inner.X22
	X23    = inner.X23
	X24    = inner.X24
	X25    = inner.X25
	X26    = inner.X26
	X27    = inner.X27
	X28    = inner.X28
	X29    = inner.X29
	X30    = inner.X30
	ZRorSP = inner.ZRorSP
)

// Vector/FP register ids.
const (
	V0  = inner.V0
	V1  = inner.V1
	V2  = inner.V2
	V3  = inner.V3
	V4  = inner.V4
	V5  = inner.V5
	V6  = inner.V6
	V7  = inner.V7
	V8  = inner.V8
	V9  = inner.V9
	V10 = inner.V10
	V11 = inner.V11
	V12 = inner.V12
	V13 = inner.V13
	V14 = inner.V14
	V15 = inner.V15
	V16 = inner.V16
	V17 = inner.V17
	V18 = inner.V18
	V19 = inner.V19
	V20 = inner.V20
	V21 = inner.V21
	V22 = inner.V22
	V23 = inner.V23
	V24 = inner.V24
	V25 = inner.V25
	V26 = inner.V26
	V27 = inner.V27
	V28 = inner.V28
	V29 = inner.V29
	V30 = inner.V30
	V31 = inner.V31
)

// GPReg returns a GP Register operand of the given bit width (32 for the
// W view, 64 for the X view).
func GPReg(id uint32, sizeBits uint16) asm.Register { return inner.GPReg(id, sizeBits) }

// VecReg returns a vector/FP Register operand of the given bit width.
func VecReg(id uint32, sizeBits uint16) asm.Register { return inner.VecReg(id, sizeBits) }

// DB is the read-only instruction table for this backend.
var DB = inner.DB
