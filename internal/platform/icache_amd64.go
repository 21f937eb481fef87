//go:build amd64

package platform

// FlushInstructionCache is a no-op on amd64: x86-64 hardware keeps the
// instruction cache coherent with the data cache for any region the
// process itself just wrote (Intel SDM Vol. 3A §8.1.3, "self-modifying
// code"), so no explicit flush instruction is needed after the RW->RX
// mprotect transition.
func FlushInstructionCache(code []byte) {}
