package nativejit

import (
	"github.com/nativejit/nativejit/internal/asm"
	"github.com/nativejit/nativejit/internal/builder"
)

// AlignMode selects the byte pattern Builder.Align pads with.
type AlignMode = asm.AlignMode

// Re-exported AlignMode values.
const (
	AlignModeNop  = asm.AlignModeNop
	AlignModeZero = asm.AlignModeZero
)

// Builder is the tier-2 emitter: it records a sequence of
// emit/label/align/embed operations without encoding them, so the same
// sequence can be replayed against an Assembler multiple times with
// identical output.
type Builder = builder.Builder

// NewBuilder returns an empty Builder ready to record operations.
func NewBuilder() *Builder { return builder.New() }
