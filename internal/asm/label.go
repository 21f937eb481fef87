package asm

import "fmt"

// unbound marks a LabelManager slot with no bound offset yet.
const unbound int64 = -1

// LabelManager hands out fresh LabelIDs monotonically and stores an
// optional bound offset per id. Re-binding a label is a fatal error.
//
// Grounded on wazero's internal/asm "onGenerateCallbacks"/label bookkeeping
// pattern (each architecture's assemblerImpl tracks bound label offsets in
// a side map keyed by label); we centralize that bookkeeping here instead
// of duplicating it per architecture, keeping the LabelManager a
// CodeHolder-owned, architecture-neutral component.
type LabelManager struct {
	offsets []int64
	names   []string
}

// NewLabelManager returns an empty LabelManager.
func NewLabelManager() *LabelManager {
	// LabelID 0 is reserved as NoLabel.
	return &LabelManager{offsets: []int64{unbound}, names: []string{""}}
}

// New allocates a fresh, unbound label.
func (m *LabelManager) New(name string) LabelID {
	id := LabelID(len(m.offsets))
	m.offsets = append(m.offsets, unbound)
	m.names = append(m.names, name)
	return id
}

// BindAt sets id's offset. It returns ErrLabelAlreadyBound if id already
// has an offset.
func (m *LabelManager) BindAt(id LabelID, offset uint32) error {
	if m.offsets[id] != unbound {
		return fmt.Errorf("%w: label %d (%s) already bound at offset %d", ErrLabelAlreadyBound, id, m.names[id], m.offsets[id])
	}
	m.offsets[id] = int64(offset)
	return nil
}

// Offset returns id's bound offset, or (0, false) if unbound.
func (m *LabelManager) Offset(id LabelID) (uint32, bool) {
	if int(id) >= len(m.offsets) {
		return 0, false
	}
	o := m.offsets[id]
	if o == unbound {
		return 0, false
	}
	return uint32(o), true
}

// IsBound reports whether id has been assigned an offset.
func (m *LabelManager) IsBound(id LabelID) bool {
	_, ok := m.Offset(id)
	return ok
}

// Name returns the (possibly empty) human-readable name given to id.
func (m *LabelManager) Name(id LabelID) string {
	if int(id) >= len(m.names) {
		return ""
	}
	return m.names[id]
}

// Reset discards all labels, re-seeding just the reserved NoLabel slot.
func (m *LabelManager) Reset() {
	m.offsets = m.offsets[:1]
	m.names = m.names[:1]
}
