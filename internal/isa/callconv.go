// Package isa holds the read-only calling-convention catalog the Compiler
// tier consults when laying out a function's prologue, argument
// registers, and preserved-register mask.
package isa

import (
	"github.com/nativejit/nativejit/internal/asm/arm64"
	"github.com/nativejit/nativejit/internal/asm/x86"
)

// Strategy distinguishes calling conventions whose stack-argument layout
// or vararg handling differs from the architecture's default.
type Strategy uint8

const (
	StrategyDefault Strategy = iota
	StrategyAArch64Apple
)

// CallConv is one calling-convention record.
type CallConv struct {
	Name string

	GPArgRegs  []uint32
	VecArgRegs []uint32
	GPRetRegs  []uint32
	VecRetRegs []uint32

	// PreservedGPMask/PreservedVecMask are bitmasks over physical register
	// ids: bit i set means register i is callee-saved.
	PreservedGPMask  uint64
	PreservedVecMask uint64

	NaturalStackAlignment uint32
	MinStackArgSize       uint32

	Strategy Strategy
}

func mask(ids ...uint32) uint64 {
	var m uint64
	for _, id := range ids {
		m |= 1 << id
	}
	return m
}

// SystemVAMD64 is the x86-64 SysV ABI (Linux, macOS, *BSD).
var SystemVAMD64 = CallConv{
	Name:                  "x64-SystemV",
	GPArgRegs:             []uint32{x86.RDI, x86.RSI, x86.RDX, x86.RCX, x86.R8, x86.R9},
	VecArgRegs:            []uint32{0, 1, 2, 3, 4, 5, 6, 7}, // xmm0-xmm7
	GPRetRegs:             []uint32{x86.RAX, x86.RDX},
	VecRetRegs:            []uint32{0, 1},
	PreservedGPMask:       mask(x86.RBX, x86.RBP, x86.RSP, x86.R12, x86.R13, x86.R14, x86.R15),
	NaturalStackAlignment: 16,
	MinStackArgSize:       8,
	Strategy:              StrategyDefault,
}

// Win64 is the Windows x64 calling convention.
var Win64 = CallConv{
	Name:                  "x64-Windows",
	GPArgRegs:             []uint32{x86.RCX, x86.RDX, x86.R8, x86.R9},
	VecArgRegs:            []uint32{0, 1, 2, 3},
	GPRetRegs:             []uint32{x86.RAX},
	VecRetRegs:            []uint32{0},
	PreservedGPMask:       mask(x86.RBX, x86.RBP, x86.RSP, x86.RDI, x86.RSI, x86.R12, x86.R13, x86.R14, x86.R15),
	PreservedVecMask:      mask(6, 7, 8, 9, 10, 11, 12, 13, 14, 15),
	NaturalStackAlignment: 16,
	MinStackArgSize:       8, // Win64 reserves a 32-byte shadow space; callers account for it separately.
	Strategy:              StrategyDefault,
}

// Cdecl is the legacy x86-32 cdecl convention: all arguments on the stack,
// caller cleans up.
var Cdecl = CallConv{
	Name:                  "cdecl",
	NaturalStackAlignment: 4,
	MinStackArgSize:       4,
	Strategy:              StrategyDefault,
}

// Stdcall is the legacy x86-32 stdcall convention: all arguments on the
// stack, callee cleans up.
var Stdcall = CallConv{
	Name:                  "stdcall",
	NaturalStackAlignment: 4,
	MinStackArgSize:       4,
	Strategy:              StrategyDefault,
}

// Fastcall passes the first two integer arguments in ECX/EDX.
var Fastcall = CallConv{
	Name:                  "fastcall",
	GPArgRegs:             []uint32{x86.RCX, x86.RDX},
	NaturalStackAlignment: 4,
	MinStackArgSize:       4,
	Strategy:              StrategyDefault,
}

// Vectorcall extends fastcall's register set with XMM0-XMM5 for
// floating-point/vector arguments.
var Vectorcall = CallConv{
	Name:                  "vectorcall",
	GPArgRegs:             []uint32{x86.RCX, x86.RDX},
	VecArgRegs:            []uint32{0, 1, 2, 3, 4, 5},
	NaturalStackAlignment: 4,
	MinStackArgSize:       4,
	Strategy:              StrategyDefault,
}

// AAPCS64 is the standard AArch64 Procedure Call Standard.
var AAPCS64 = CallConv{
	Name:                  "aarch64-AAPCS",
	GPArgRegs:             []uint32{arm64.X0, arm64.X1, arm64.X2, arm64.X3, arm64.X4, arm64.X5, arm64.X6, arm64.X7},
	VecArgRegs:            []uint32{0, 1, 2, 3, 4, 5, 6, 7},
	GPRetRegs:             []uint32{arm64.X0, arm64.X1},
	VecRetRegs:            []uint32{0, 1},
	PreservedGPMask:       mask(19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30),
	PreservedVecMask:      mask(8, 9, 10, 11, 12, 13, 14, 15),
	NaturalStackAlignment: 16,
	MinStackArgSize:       8,
	Strategy:              StrategyDefault,
}

// AAPCS64Apple is Apple's AArch64 variant: narrower stack-argument slots
// and different vararg register spilling.
var AAPCS64Apple = CallConv{
	Name:                  "aarch64-Apple",
	GPArgRegs:             AAPCS64.GPArgRegs,
	VecArgRegs:            AAPCS64.VecArgRegs,
	GPRetRegs:             AAPCS64.GPRetRegs,
	VecRetRegs:            AAPCS64.VecRetRegs,
	PreservedGPMask:       AAPCS64.PreservedGPMask,
	PreservedVecMask:      AAPCS64.PreservedVecMask,
	NaturalStackAlignment: 16,
	MinStackArgSize:       4, // Apple's variant packs stack args at their natural (not 8-byte-rounded) size.
	Strategy:              StrategyAArch64Apple,
}

// ByName resolves a CallConv catalog entry, returning ok=false for an
// unrecognized name.
func ByName(name string) (CallConv, bool) {
	switch name {
	case SystemVAMD64.Name:
		return SystemVAMD64, true
	case Win64.Name:
		return Win64, true
	case Cdecl.Name:
		return Cdecl, true
	case Stdcall.Name:
		return Stdcall, true
	case Fastcall.Name:
		return Fastcall, true
	case Vectorcall.Name:
		return Vectorcall, true
	case AAPCS64.Name:
		return AAPCS64, true
	case AAPCS64Apple.Name:
		return AAPCS64Apple, true
	default:
		return CallConv{}, false
	}
}
