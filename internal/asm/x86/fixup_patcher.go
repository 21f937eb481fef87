package x86

import (
	"fmt"
	"math"

	"github.com/nativejit/nativejit/internal/asm"
)

// Patcher implements asm.FixupPatcher for x86's rel8/rel32 displacement
// fields. Both widths are filled
// entirely by the displacement, so "OR into existing bits" degenerates to
// a plain overwrite of a zero-initialized placeholder.
type Patcher struct{}

func (Patcher) PatchWidth(kind asm.FixupKind) int {
	if kind == asm.FixupX86Rel8 {
		return 1
	}
	return 4
}

func (Patcher) Patch(kind asm.FixupKind, existing uint32, delta int64) (uint32, error) {
	switch kind {
	case asm.FixupX86Rel8:
		if delta < -128 || delta > 127 {
			return 0, fmt.Errorf("%w: rel8 delta %d out of range", asm.ErrInvalidDisplacement, delta)
		}
		return existing | (uint32(uint8(int8(delta)))), nil
	case asm.FixupX86Rel32:
		if delta < math.MinInt32 || delta > math.MaxInt32 {
			return 0, fmt.Errorf("%w: rel32 delta %d out of range", asm.ErrInvalidDisplacement, delta)
		}
		return existing | uint32(int32(delta)), nil
	default:
		return 0, fmt.Errorf("%w: fixup kind %d is not an x86 kind", asm.ErrInvalidDisplacement, kind)
	}
}
