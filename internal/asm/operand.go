// Package asm defines the architecture-neutral operand model, node IR, and
// code buffer shared by every emitter tier (Assembler, Builder, Compiler)
// and both architecture backends (x86, arm64).
//
// Grounded on github.com/tetratelabs/wazero's internal/asm package: the
// dense small-integer Register/Instruction ids in assembler.go and the
// Node linked-list contract it documents. Where Register is
// an opaque byte (because wazero only ever addresses physical machine
// registers - it has no virtual-register tier at this layer), ours is a
// small struct carrying kind and width, because this system's Compiler
// tier must represent pre-allocation virtual registers in the same
// operand slots physical registers occupy.
package asm

import "fmt"

// RegKind classifies a Register operand.
type RegKind uint8

const (
	RegKindInvalid RegKind = iota
	RegKindGP
	RegKindVector
	RegKindMask
	RegKindSegment
)

func (k RegKind) String() string {
	switch k {
	case RegKindGP:
		return "gp"
	case RegKindVector:
		return "vec"
	case RegKindMask:
		return "mask"
	case RegKindSegment:
		return "segment"
	default:
		return "invalid"
	}
}

// VirtBase is the first id reserved for compiler-allocated virtual
// registers. Physical registers always have id < an architecture's
// PhysicalCount, which is always far below VirtBase.
const VirtBase uint32 = 1 << 16

// Register is a tagged (kind, id, size) operand.
// id < an architecture's PhysicalCount names a fixed architectural
// register; id >= VirtBase names a Compiler-allocated virtual register.
// A Register with id >= VirtBase must never reach an Assembler that has
// already been through register allocation.
type Register struct {
	Kind     RegKind
	ID       uint32
	SizeBits uint16
}

// IsVirtual reports whether this Register names a virtual register
// awaiting allocation.
func (r Register) IsVirtual() bool { return r.ID >= VirtBase }

// Valid reports whether r names any register at all.
func (r Register) Valid() bool { return r.Kind != RegKindInvalid }

func (r Register) String() string {
	if r.IsVirtual() {
		return fmt.Sprintf("v%d:%s%d", r.ID-VirtBase, r.Kind, r.SizeBits)
	}
	return fmt.Sprintf("r%d:%s%d", r.ID, r.Kind, r.SizeBits)
}

// NilRegister is the architecture-independent "no register" value.
var NilRegister = Register{}

// AddrMode classifies how a Memory operand's effective address is formed.
type AddrMode uint8

const (
	AddrModeInvalid AddrMode = iota
	AddrModeBaseOffset
	AddrModeBaseIndexed
	AddrModePreIndex
	AddrModePostIndex
	AddrModePCRelative
	AddrModeLiteral
)

// Memory is a (base, index, scale, displacement) operand.
// Scale must be one of {1,2,4,8} on x86-64, or an ARM shift amount on
// AArch64. SizeHint must match the implicit operand size the chosen
// mnemonic expects; encoders validate this and return ErrInvalidOperand
// otherwise.
type Memory struct {
	Base      Register // NilRegister if absent (e.g. pc-relative/literal)
	HasIndex  bool
	Index     Register
	Scale     uint8
	Disp      int32
	AddrMode  AddrMode
	SizeHint  uint16
}

func (m Memory) String() string {
	if m.HasIndex {
		return fmt.Sprintf("[%s + 0x%x + %s*%d]", m.Base, m.Disp, m.Index, m.Scale)
	}
	return fmt.Sprintf("[%s + 0x%x]", m.Base, m.Disp)
}

// Immediate is a signed 64-bit constant with a source-width hint. The
// encoders pick the immediate field from Value and the operand size; they
// do not read SourceWidth.
type Immediate struct {
	Value       int64
	SourceWidth uint8 // 8, 16, 32, or 64
}

// LabelID names an entry in a LabelManager. It is only meaningful within
// the CodeHolder that owns the LabelManager which minted it.
type LabelID uint32

// NoLabel is the zero value, reserved to mean "no label".
const NoLabel LabelID = 0

// Cond is an architecture-specific condition-code enum. Its numeric value
// is only meaningful when paired with the architecture package that
// produced it (isa/x86 or isa/arm64 equivalents live under
// internal/asm/x86 and internal/asm/arm64).
type Cond uint8

// OperandKind discriminates the Operand tagged union.
type OperandKind uint8

const (
	OperandKindNone OperandKind = iota
	OperandKindRegister
	OperandKindMemory
	OperandKindImmediate
	OperandKindLabel
	OperandKindCond
)

// Operand is the tagged union over Register, Memory,
// Immediate, Label, and Cond. Exactly one of the typed fields is valid,
// selected by Kind.
type Operand struct {
	Kind OperandKind
	Reg  Register
	Mem  Memory
	Imm  Immediate
	Lbl  LabelID
	Cnd  Cond
}

func RegOperand(r Register) Operand   { return Operand{Kind: OperandKindRegister, Reg: r} }
func MemOperand(m Memory) Operand     { return Operand{Kind: OperandKindMemory, Mem: m} }
func ImmOperand(i Immediate) Operand  { return Operand{Kind: OperandKindImmediate, Imm: i} }
func LabelOperand(l LabelID) Operand  { return Operand{Kind: OperandKindLabel, Lbl: l} }
func CondOperand(c Cond) Operand      { return Operand{Kind: OperandKindCond, Cnd: c} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandKindRegister:
		return o.Reg.String()
	case OperandKindMemory:
		return o.Mem.String()
	case OperandKindImmediate:
		return fmt.Sprintf("0x%x", o.Imm.Value)
	case OperandKindLabel:
		return fmt.Sprintf("L%d", o.Lbl)
	case OperandKindCond:
		return fmt.Sprintf("cond%d", o.Cnd)
	default:
		return "none"
	}
}

// VirtRegsIn appends every virtual Register referenced (directly, or as a
// Memory base/index) by ops to out and returns the result. Used by the
// register allocator's interval-construction pass.
func VirtRegsIn(ops []Operand, out []Register) []Register {
	for _, o := range ops {
		switch o.Kind {
		case OperandKindRegister:
			if o.Reg.IsVirtual() {
				out = append(out, o.Reg)
			}
		case OperandKindMemory:
			if o.Mem.Base.IsVirtual() {
				out = append(out, o.Mem.Base)
			}
			if o.Mem.HasIndex && o.Mem.Index.IsVirtual() {
				out = append(out, o.Mem.Index)
			}
		}
	}
	return out
}
