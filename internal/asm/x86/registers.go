// Package x86 implements the x86-64 encoder, dispatcher, and tier-1
// Assembler.
//
// Grounded on github.com/tetratelabs/wazero's internal/asm/amd64 package
// (impl.go, assembler.go, consts.go): the same REX/ModRM/SIB composition
// order, the same "short form preferred, else long form + fixup" branch
// policy, and the same node-based Assembler shape. The generated opcode
// tables themselves are not reproduced byte-for-byte; only the
// instructions this module's test scenarios and domain-stack wiring
// require are implemented, over a dispatcher designed the same
// structural way the full table would be.
package x86

import "github.com/nativejit/nativejit/internal/asm"

// PhysicalGPCount is the number of architectural general-purpose
// registers (RAX..R15). Register ids >= this value are either another
// Kind's physical registers (vector/mask/segment, each with their own
// 0-based numbering) or, at >= asm.VirtBase, compiler virtual registers.
const PhysicalGPCount = 16

// PhysicalVecCount is the number of architectural vector registers
// (XMM0/YMM0/ZMM0 .. 31, AVX-512 extends the legacy 16 to 32).
const PhysicalVecCount = 32

// PhysicalMaskCount is the number of AVX-512 mask registers (K0..K7).
const PhysicalMaskCount = 8

// GP register ids, in the order the 4-bit (REX-extended) register field
// numbers them.
const (
	RAX uint32 = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// RIP is a pseudo GP register id used only as Memory.Base to request
// RIP-relative addressing; it is never a valid destination/source
// register operand.
const RIP uint32 = 1 << 8

// Vector register ids (XMM/YMM/ZMM share one numbering; SizeBits on the
// Register operand selects the width).
const (
	XMM0 uint32 = iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15
)

// GPReg returns a GP Register operand of the given bit width.
func GPReg(id uint32, sizeBits uint16) asm.Register {
	return asm.Register{Kind: asm.RegKindGP, ID: id, SizeBits: sizeBits}
}

// VecReg returns a vector Register operand of the given bit width.
func VecReg(id uint32, sizeBits uint16) asm.Register {
	return asm.Register{Kind: asm.RegKindVector, ID: id, SizeBits: sizeBits}
}

// regNames64 gives GP registers their 64-bit AT&T names for Node.String().
var regNames64 = [...]string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}

// RegisterName renders r for debug output (Node.String()); it is never
// consulted by encoding logic.
func RegisterName(r asm.Register) string {
	if r.Kind == asm.RegKindGP && int(r.ID) < len(regNames64) {
		return "%" + regNames64[r.ID]
	}
	return r.String()
}
