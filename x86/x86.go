// Package x86 re-exports the x86-64 backend's instruction identifiers,
// register ids, and condition codes at the module's public surface, so
// callers of the root nativejit package can name what they emit without
// reaching into internal packages.
package x86

import (
	"github.com/nativejit/nativejit/internal/asm"
	inner "github.com/nativejit/nativejit/internal/asm/x86"
)

// Instruction identifiers.
const (
	NOP       = inner.NOP
	RET       = inner.RET
	MOV       = inner.MOV
	MOVZX     = inner.MOVZX
	MOVSX     = inner.MOVSX
	LEA       = inner.LEA
	ADD       = inner.ADD
	SUB       = inner.SUB
	CMP       = inner.CMP
	XOR       = inner.XOR
	AND       = inner.AND
	OR        = inner.OR
	TEST      = inner.TEST
	NEG       = inner.NEG
	IMUL      = inner.IMUL
	PUSH      = inner.PUSH
	POP       = inner.POP
	CALL      = inner.CALL
	JMP       = inner.JMP
	JCC       = inner.JCC
	SETCC     = inner.SETCC
	SHL       = inner.SHL
	SHR       = inner.SHR
	SAR       = inner.SAR
	MOVD      = inner.MOVD
	MOVAPS    = inner.MOVAPS
	MOVDQU    = inner.MOVDQU
	ADDPS     = inner.ADDPS
	PADDD     = inner.PADDD
	VMOVDQU   = inner.VMOVDQU
	VADDPS    = inner.VADDPS
	VPADDD    = inner.VPADDD
	VMOVDQU64 = inner.VMOVDQU64
)

// Condition codes for JCC/SETCC.
const (
	CondO  = inner.CondO
	CondNO = inner.CondNO
	CondB  = inner.CondB
	CondAE = inner.CondAE
	CondE  = inner.CondE
	CondNE = inner.CondNE
	CondBE = inner.CondBE
	CondA  = inner.CondA
	CondS  = inner.CondS
	CondNS = inner.CondNS
	CondL  = inner.CondL
	CondGE = inner.CondGE
	CondLE = inner.CondLE
	CondG  = inner.CondG
)

// General-purpose register ids.
const (
	RAX = inner.RAX
	RCX = inner.RCX
	RDX = inner.RDX
	RBX = inner.RBX
	RSP = inner.RSP
	RBP = inner.RBP
	RSI = inner.RSI
	RDI = inner.RDI
	R8  = inner.R8
	R9  = inner.R9
	R10 = inner.R10
	R11 = inner.R11
	R12 = inner.R12
	R13 = inner.R13
	R14 = inner.R14
	R15 = inner.R15

	// RIP requests RIP-relative addressing as a Memory base; it is never
	// a valid register operand on its own.
	RIP = inner.RIP
)

// Vector register ids (XMM/YMM/ZMM share one numbering; the Register
// operand's SizeBits selects the width).
const (
	XMM0  = inner.XMM0
	XMM1  = inner.XMM1
	XMM2  = inner.XMM2
	XMM3  = inner.XMM3
	XMM4  = inner.XMM4
	XMM5  = inner.XMM5
	XMM6  = inner.XMM6
	XMM7  = inner.XMM7
	XMM8  = inner.XMM8
	XMM9  = inner.XMM9
	XMM10 = inner.XMM10
	XMM11 = inner.XMM11
	XMM12 = inner.XMM12
	XMM13 = inner.XMM13
	XMM14 = inner.XMM14
	XMM15 = inner.XMM15
)

// GPReg returns a GP Register operand of the given bit width.
func GPReg(id uint32, sizeBits uint16) asm.Register { return inner.GPReg(id, sizeBits) }

// VecReg returns a vector Register operand of the given bit width.
func VecReg(id uint32, sizeBits uint16) asm.Register { return inner.VecReg(id, sizeBits) }

// DB is the read-only instruction table for this backend.
var DB = inner.DB
