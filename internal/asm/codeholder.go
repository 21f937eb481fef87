package asm

import "fmt"

// FinalizedCode is the result of CodeHolder.Finalize: the patched byte
// buffer, its length, and a snapshot of bound label offsets.
type FinalizedCode struct {
	Bytes      []byte
	TextLength int
	// LabelOffsets maps every label bound at finalize time to its offset,
	// for callers that need to locate internal entry points (e.g. a
	// function table built by the Compiler tier).
	LabelOffsets map[LabelID]uint32
}

// CodeHolder owns one text section (its CodeBuffer), the LabelManager, and
// the list of pending Fixup records.
//
// Grounded on wazero's per-architecture assemblerImpl, which bundles a
// *bytes.Buffer, a root/current Node pointer, and
// asm.BaseAssemblerImpl.SetBranchTargetOnNodes directly into one struct
// per architecture. pulls the buffer/label/fixup aggregate out
// into its own architecture-neutral type (CodeHolder) so Assembler,
// Builder, and Compiler can all share one instance rather than each
// architecture reimplementing buffer/label bookkeeping: the CodeHolder is
// wired once and shared by all three tiers in its owning stack.
type CodeHolder struct {
	Buf     CodeBuffer
	Labels  *LabelManager
	fixups  []Fixup
	env     Environment
	finalized bool
}

// NewCodeHolder constructs an empty CodeHolder for the given Environment.
func NewCodeHolder(env Environment) *CodeHolder {
	return &CodeHolder{Labels: NewLabelManager(), env: env}
}

// Environment returns the target this CodeHolder was created for.
func (h *CodeHolder) Environment() Environment { return h.env }

// NewLabel allocates a fresh, unbound label.
func (h *CodeHolder) NewLabel(name string) LabelID { return h.Labels.New(name) }

// Bind binds label to the CodeHolder's current buffer length. It returns
// ErrLabelAlreadyBound if already bound.
func (h *CodeHolder) Bind(label LabelID) error {
	return h.Labels.BindAt(label, uint32(h.Buf.Len()))
}

// AddFixup records a deferred displacement patch to be resolved at
// Finalize.
func (h *CodeHolder) AddFixup(f Fixup) { h.fixups = append(h.fixups, f) }

// PendingFixups returns the number of fixups not yet resolved. Exposed for
// tests asserting the replay invariant records the same fixup count.
func (h *CodeHolder) PendingFixups() int { return len(h.fixups) }

// Reset clears the buffer, labels, and fixups back to empty, allowing the
// CodeHolder to be reused once its previous contents are fully reclaimed.
func (h *CodeHolder) Reset() {
	h.Buf.Reset()
	h.Labels.Reset()
	h.fixups = h.fixups[:0]
	h.finalized = false
}

// Finalize walks the pending fixup list, patches the buffer in place using
// patcher for the architecture-specific bit composition, clears the
// pending list, and returns a FinalizedCode handle. It fails with
// ErrUnboundLabel (wrapping the offending label) on the first fixup whose
// label was never bound, and ErrInvalidDisplacement if a resolved delta
// does not fit its field. Resolution order does not matter: each fixup
// touches a disjoint byte range.
func (h *CodeHolder) Finalize(patcher FixupPatcher) (*FinalizedCode, error) {
	for _, fx := range h.fixups {
		off, ok := h.Labels.Offset(fx.Label)
		if !ok {
			return nil, fmt.Errorf("%w: label %d (%s) referenced at offset %d", ErrUnboundLabel, fx.Label, h.Labels.Name(fx.Label), fx.AtOffset)
		}
		delta := int64(off) - int64(fx.AnchorOffset) + int64(fx.Addend)
		scale := fx.Kind.Scale()
		if delta%scale != 0 {
			return nil, fmt.Errorf("%w: fixup at offset %d has unaligned delta %d for scale %d", ErrInvalidDisplacement, fx.AtOffset, delta, scale)
		}
		scaled := delta / scale

		width := patcher.PatchWidth(fx.Kind)
		var existing uint32
		switch width {
		case 1:
			existing = uint32(h.Buf.bytes[fx.AtOffset])
		case 4:
			existing = h.Buf.ReadU32At(int(fx.AtOffset))
		default:
			return nil, fmt.Errorf("%w: unsupported fixup patch width %d", ErrInvalidDisplacement, width)
		}

		patched, err := patcher.Patch(fx.Kind, existing, scaled)
		if err != nil {
			return nil, fmt.Errorf("%w: fixup at offset %d: %v", ErrInvalidDisplacement, fx.AtOffset, err)
		}

		switch width {
		case 1:
			h.Buf.PatchU8At(int(fx.AtOffset), uint8(patched))
		case 4:
			h.Buf.PatchU32At(int(fx.AtOffset), patched)
		}
	}
	h.fixups = h.fixups[:0]
	h.finalized = true

	offsets := make(map[LabelID]uint32, len(h.Labels.offsets))
	for id := range h.Labels.offsets {
		if o, ok := h.Labels.Offset(LabelID(id)); ok {
			offsets[LabelID(id)] = o
		}
	}

	out := make([]byte, h.Buf.Len())
	copy(out, h.Buf.Bytes())
	return &FinalizedCode{Bytes: out, TextLength: len(out), LabelOffsets: offsets}, nil
}

// Finalized reports whether Finalize has succeeded since the last Reset.
func (h *CodeHolder) Finalized() bool { return h.finalized }
