package compiler

// FuncFrame is the Compiler's per-function layout decision.
type FuncFrame struct {
	StackSize        uint32
	SpillAreaSize    uint32
	PreservedGPMask  uint64
	PreservedVecMask uint64
	Alignment        uint32
	CallConvName     string
}
