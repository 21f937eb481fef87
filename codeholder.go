package nativejit

import "github.com/nativejit/nativejit/internal/asm"

// CodeHolder owns one in-progress text section: its byte buffer, label
// table, and pending branch fixups.
type CodeHolder = asm.CodeHolder

// FinalizedCode is the patched byte buffer plus bound label offsets
// produced by CodeHolder.Finalize.
type FinalizedCode = asm.FinalizedCode

// NewCodeHolder constructs an empty CodeHolder targeting env.
func NewCodeHolder(env Environment) *CodeHolder { return asm.NewCodeHolder(env) }
