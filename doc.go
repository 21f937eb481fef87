// Package nativejit is the public surface of the runtime code-generation
// library: Environment/CodeHolder describe
// and hold a target's in-progress machine code, Assembler/Builder/
// Compiler are the three emission tiers sitting on top of it, and
// Runtime/JitFunction turn a finalized buffer into W^X-protected,
// callable executable memory.
//
// Every exported type here is a thin wrapper over the corresponding
// internal/* package; see DESIGN.md for what each one is grounded on.
package nativejit
