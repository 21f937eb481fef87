// Package arm64 implements the AArch64 architecture backend: structural
// encoding of fixed-width 32-bit instruction words, dispatch from
// architecture-neutral operands, and fixup patching for branch26/branch19/
// adr/adrp displacement fields.
//
// Register id and condition naming follows the Go assembler convention, the
// same choice wazero's internal/asm/arm64 package documents and makes
// (internal/asm/arm64/consts.go).
package arm64

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// PhysicalGPCount is the number of general-purpose integer registers,
// x0-x30 plus the zero/stack-pointer register xzr/sp (encoded as id 31).
const PhysicalGPCount = 32

// PhysicalVecCount is the number of SIMD/FP registers, v0-v31.
const PhysicalVecCount = 32

// GP register ids. ZR and SP share encoding 31; which one a given
// instruction form means is determined by the instruction, not the
// register value itself, matching the real ISA's overloading.
const (
	X0 uint32 = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	X29 // frame pointer (FP)
	X30 // link register (LR)
	ZRorSP
)

// Vector/FP register ids, V0-V31.
const (
	V0 uint32 = iota
	V1
	V2
	V3
	V4
	V5
	V6
	V7
	V8
	V9
	V10
	V11
	V12
	V13
	V14
	V15
	V16
	V17
	V18
	V19
	V20
	V21
	V22
	V23
	V24
	V25
	V26
	V27
	V28
	V29
	V30
	V31
)

// GPReg returns a GP register Operand-table register of the given id and
// bit width (32 for the W-register view, 64 for the X-register view).
func GPReg(id uint32, sizeBits uint16) asm.Register {
	return asm.Register{Kind: asm.RegKindGP, ID: id, SizeBits: sizeBits}
}

// VecReg returns a vector/FP register of the given id and bit width.
func VecReg(id uint32, sizeBits uint16) asm.Register {
	return asm.Register{Kind: asm.RegKindVector, ID: id, SizeBits: sizeBits}
}

var gpNames = [...]string{
	"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7",
	"x8", "x9", "x10", "x11", "x12", "x13", "x14", "x15",
	"x16", "x17", "x18", "x19", "x20", "x21", "x22", "x23",
	"x24", "x25", "x26", "x27", "x28", "x29", "x30", "xzr",
}

// RegisterName renders a register for debug output (Node.String and test
// failure messages), matching RegisterName helper.
func RegisterName(r asm.Register) string {
	switch r.Kind {
	case asm.RegKindGP:
		if r.IsVirtual() {
			return fmt.Sprintf("vreg%d", r.ID)
		}
		if int(r.ID) < len(gpNames) {
			if r.SizeBits == 32 {
				return "w" + gpNames[r.ID][1:]
			}
			return gpNames[r.ID]
		}
		return "?gp"
	case asm.RegKindVector:
		if r.IsVirtual() {
			return fmt.Sprintf("vvec%d", r.ID)
		}
		return fmt.Sprintf("v%d", r.ID)
	default:
		return "?"
	}
}
