package regalloc

import (
	"fmt"

	"github.com/nativejit/nativejit/internal/asm"
)

// Policy supplies the allocator with the physical registers it is allowed
// to hand out for each class, in preference order. The Compiler tier builds a
// Policy from the active calling convention and architecture.
//
// Grounded on wazero's backend/regalloc.RegisterInfo (a per-architecture
// "which registers may this pass touch" table feeding the real allocator)
// but narrowed to the two flat slices this allocator actually consults.
type Policy struct {
	GPPool  []uint32
	VecPool []uint32
}

func (p Policy) pool(c Class) []uint32 {
	if c == ClassVec {
		return p.VecPool
	}
	return p.GPPool
}

// slotSize is the stack-slot size reserved per spilled class.
func slotSize(c Class) uint32 {
	if c == ClassVec {
		return 16
	}
	return 8
}

// Assignment is one VirtReg's allocation outcome: either a physical
// register or a spill slot offset, never both.
type Assignment struct {
	Class      Class
	Phys       uint32
	Spilled    bool
	SpillOffset uint32
}

// Result is the allocator's full output: one Assignment per VirtReg seen,
// plus the total spill area size, already rounded to 16-byte alignment.
type Result struct {
	Assignments   map[vkey]Assignment
	SpillAreaSize uint32
}

// Lookup returns reg's allocation outcome, if it was ever recorded.
func (r Result) Lookup(reg asm.Register) (Assignment, bool) {
	a, ok := r.Assignments[vkey{kind: reg.Kind, id: reg.ID}]
	return a, ok
}

func (r Result) lookup(reg asm.Register) (Assignment, bool) { return r.Lookup(reg) }

// active tracks one class's in-flight intervals during the scan, each
// paired with the physical register it currently occupies.
type activeEntry struct {
	interval Interval
	phys     uint32
}

// Allocate runs the linear-scan algorithm over the Builder's recorded
// node list: interval construction (already sorted by
// Start - see BuildIntervals), greedy free-register assignment, and
// spill-the-latest-end under pressure. No interval splitting; a VirtReg
// spilled on its first allocation keeps that slot for the rest of its
// lifetime.
//
// Grounded on wazero's backend/regalloc package for the vocabulary (active
// set per class, VReg pool) - see internal/regalloc/interval.go's package
// doc for why the algorithm itself departs from wazero's SSA-based
// coloring in favor of the classic Poletto-Sarkar scan.
func Allocate(nodes *asm.NodeList, policy Policy) (Result, error) {
	intervals := BuildIntervals(nodes)

	result := Result{Assignments: make(map[vkey]Assignment, len(intervals))}
	active := map[Class][]activeEntry{ClassGP: nil, ClassVec: nil}
	used := map[Class]map[uint32]bool{ClassGP: {}, ClassVec: {}}
	// One bump allocator serves both classes so gp and vec slots never
	// overlap within the shared spill area.
	var nextSpillOffset uint32

	expire := func(class Class, start int) {
		kept := active[class][:0]
		for _, e := range active[class] {
			if e.interval.End < start {
				delete(used[class], e.phys)
			} else {
				kept = append(kept, e)
			}
		}
		active[class] = kept
	}

	freeRegister := func(class Class) (uint32, bool) {
		for _, id := range policy.pool(class) {
			if !used[class][id] {
				return id, true
			}
		}
		return 0, false
	}

	spillSlot := func(class Class) uint32 {
		size := slotSize(class)
		// Vec slots are 16 bytes and must sit 16-byte aligned even after a
		// run of 8-byte gp slots.
		off := alignUp(nextSpillOffset, size)
		nextSpillOffset = off + size
		return off
	}

	assignKey := func(iv Interval) vkey { return vkey{kind: iv.VReg.Kind, id: iv.VReg.ID} }

	for _, iv := range intervals {
		expire(iv.Class, iv.Start)

		if reg, ok := freeRegister(iv.Class); ok {
			used[iv.Class][reg] = true
			active[iv.Class] = append(active[iv.Class], activeEntry{interval: iv, phys: reg})
			result.Assignments[assignKey(iv)] = Assignment{Class: iv.Class, Phys: reg}
			continue
		}

		// Pressure: spill the active interval (same class) with the
		// latest End, stealing its register if doing so benefits the
		// current interval more.
		latestIdx := -1
		for i, e := range active[iv.Class] {
			if latestIdx == -1 || e.interval.End > active[iv.Class][latestIdx].interval.End {
				latestIdx = i
			}
		}
		if latestIdx == -1 {
			// No active interval of this class at all yet the pool was
			// reported exhausted - the policy's pool for this class is
			// empty, which RegistersExhausted exists to report.
			return Result{}, fmt.Errorf("%w: no allocatable %s registers available", asm.ErrRegistersExhausted, iv.Class)
		}
		victim := active[iv.Class][latestIdx]
		if victim.interval.End > iv.End {
			// Steal: victim becomes spilled, current takes its register.
			off := spillSlot(iv.Class)
			result.Assignments[vkey{kind: victim.interval.VReg.Kind, id: victim.interval.VReg.ID}] = Assignment{
				Class: iv.Class, Spilled: true, SpillOffset: off,
			}
			active[iv.Class][latestIdx] = activeEntry{interval: iv, phys: victim.phys}
			result.Assignments[assignKey(iv)] = Assignment{Class: iv.Class, Phys: victim.phys}
		} else {
			off := spillSlot(iv.Class)
			result.Assignments[assignKey(iv)] = Assignment{Class: iv.Class, Spilled: true, SpillOffset: off}
		}
	}

	result.SpillAreaSize = alignUp(nextSpillOffset, 16)
	return result, nil
}

func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

