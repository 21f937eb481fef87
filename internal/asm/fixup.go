package asm

// FixupKind names a deferred branch-displacement patch.
type FixupKind uint8

const (
	// FixupX86Rel8 is an 8-bit signed displacement, PC-anchored at the end
	// of the branch instruction, unscaled, range ±128.
	FixupX86Rel8 FixupKind = iota
	// FixupX86Rel32 is a 32-bit signed displacement, PC-anchored at the end
	// of the branch instruction, unscaled, range ±2GiB.
	FixupX86Rel32
	// FixupA64Branch26 is a 26-bit signed displacement packed into a B/BL
	// instruction word, PC-anchored at the start of the branch, scaled by 4,
	// range ±128MiB.
	FixupA64Branch26
	// FixupA64Branch19 is a 19-bit signed displacement packed into a
	// B.cond/CBZ/CBNZ instruction word, PC-anchored at the start of the
	// branch, scaled by 4, range ±1MiB.
	FixupA64Branch19
	// FixupA64Adr is a 21-bit signed displacement split across the
	// immlo/immhi fields of an ADR instruction, unscaled, range ±1MiB.
	FixupA64Adr
	// FixupA64Adrp is a 21-bit signed page displacement split across the
	// immlo/immhi fields of an ADRP instruction, scaled by 4096, range
	// ±4GiB (in 4KiB pages).
	FixupA64Adrp
)

// Fixup is a deferred patch of a branch displacement awaiting the target
// label's binding.
type Fixup struct {
	// AtOffset is the byte offset of the field (or, for AArch64, the whole
	// instruction word) to patch.
	AtOffset uint32
	// AnchorOffset is the byte offset the displacement is measured from:
	// end-of-instruction on x86, start-of-instruction on AArch64.
	AnchorOffset uint32
	Label        LabelID
	Kind         FixupKind
	// Addend is added to the computed delta before range-checking; used
	// for static-constant-pool references where the symbol isn't exactly
	// at the label's bound offset.
	Addend int32
}

// FixupPatcher composes the architecture-specific bit pattern for a
// resolved fixup. Each architecture's Assembler supplies one to
// CodeHolder.Finalize so the CodeHolder itself stays architecture-neutral.
type FixupPatcher interface {
	// PatchWidth returns the number of bytes, starting at a Fixup's
	// AtOffset, that Patch will read-modify-write.
	PatchWidth(kind FixupKind) int
	// Patch computes the bits for delta (already divided by the kind's
	// scale) and ORs them into existing, the PatchWidth(kind)-byte
	// little-endian word already present at the fixup's offset. It
	// returns ErrInvalidDisplacement if delta doesn't fit the kind's
	// field width.
	Patch(kind FixupKind, existing uint32, delta int64) (patched uint32, err error)
}

// Scale returns the divisor applied to a raw byte delta before range
// checking.
func (k FixupKind) Scale() int64 {
	switch k {
	case FixupA64Branch26, FixupA64Branch19:
		return 4
	case FixupA64Adrp:
		return 4096
	default:
		return 1
	}
}
