package compiler

import "github.com/nativejit/nativejit/internal/isa"

// Signature describes one function's argument/return shape and the
// calling convention that lays it out in physical registers.
type Signature struct {
	CallConv isa.CallConv

	// GPArgSizes/VecArgSizes give each argument's bit width, in argument
	// order, split by class the same way CallConv splits its register
	// lists. len(GPArgSizes) must not exceed len(CallConv.GPArgRegs).
	GPArgSizes  []uint16
	VecArgSizes []uint16

	GPRetSizes  []uint16
	VecRetSizes []uint16
}
