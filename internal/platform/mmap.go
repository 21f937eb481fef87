package platform

// MmapCodeSegment reserves size bytes of fresh, zeroed, read-write,
// non-executable anonymous memory for a finalized program, matching MmapCodeSegment call shape
// (internal/asm/buffer.go, internal/engine/wazevo/engine.go). The caller
// copies code bytes into the returned slice, then calls Finalize to make
// it executable.
func MmapCodeSegment(size int) ([]byte, error) {
	if size == 0 {
		bugZeroLength("MmapCodeSegment")
	}
	return mmapRW(size)
}

// Finalize transitions code's backing pages from RW to RX and
// flushes the instruction cache over the new RX range (step 5), so the
// returned error's absence is the happens-before edge requires
// between the flush and the first call through code.
func Finalize(code []byte) error {
	if len(code) == 0 {
		bugZeroLength("Finalize")
	}
	if err := makeExecutable(code); err != nil {
		return err
	}
	FlushInstructionCache(code)
	return nil
}

// MunmapCodeSegment releases code's backing pages. Accessing code after
// this call is undefined behavior; a double unmap is a caller bug wazero
// also treats as a hard error rather than a panic, since (unlike a
// zero-length call) it is detectable from a live OS error return rather
// than purely a caller-side contract.
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		bugZeroLength("MunmapCodeSegment")
	}
	return munmap(code)
}
