package arm64

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// Patcher implements asm.FixupPatcher for the AArch64 branch26/branch19/
// adr/adrp fields. Unlike x86's all-bits
// displacement fields, A64 immediates are embedded in specific bit
// positions within an otherwise-populated instruction word, so patching
// really does have to OR into (and not overwrite) the existing bits.
type Patcher struct{}

func (Patcher) PatchWidth(asm.FixupKind) int { return 4 }

// Patch receives delta already divided by kind.Scale() (CodeHolder.Finalize
// does that division once, generically, before calling the patcher).
func (Patcher) Patch(kind asm.FixupKind, existing uint32, delta int64) (uint32, error) {
	scaled := delta

	switch kind {
	case asm.FixupA64Branch26:
		if !fitsSigned(scaled, 26) {
			return 0, fmt.Errorf("%w: branch26 offset %d out of range", asm.ErrInvalidDisplacement, scaled)
		}
		return existing | (uint32(scaled) & 0x03FFFFFF), nil
	case asm.FixupA64Branch19:
		if !fitsSigned(scaled, 19) {
			return 0, fmt.Errorf("%w: branch19 offset %d out of range", asm.ErrInvalidDisplacement, scaled)
		}
		return existing | ((uint32(scaled) & 0x7FFFF) << 5), nil
	case asm.FixupA64Adr:
		if !fitsSigned(delta, 21) {
			return 0, fmt.Errorf("%w: adr offset %d out of range", asm.ErrInvalidDisplacement, delta)
		}
		return existing | adrImmBits(uint32(delta)), nil
	case asm.FixupA64Adrp:
		if !fitsSigned(scaled, 21) {
			return 0, fmt.Errorf("%w: adrp page offset %d out of range", asm.ErrInvalidDisplacement, scaled)
		}
		return existing | adrImmBits(uint32(scaled)), nil
	default:
		return 0, fmt.Errorf("%w: fixup kind %d is not an A64 kind", asm.ErrInvalidDisplacement, kind)
	}
}

// adrImmBits splits a 21-bit ADR/ADRP immediate into the architecture's
// immlo (bits 29-30, low 2 bits of the value) / immhi (bits 5-23, remaining
// 19 bits) fields.
func adrImmBits(imm21 uint32) uint32 {
	imm21 &= 0x1FFFFF
	immlo := imm21 & 0x3
	immhi := imm21 >> 2
	return immlo<<29 | immhi<<5
}
