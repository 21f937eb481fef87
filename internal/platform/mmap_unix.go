//go:build unix

package platform

import (
	"golang.org/x/sys/unix"
)

func compilerSupported() bool { return true }

// mmapRW reserves size bytes (rounded up to the page size by the OS) of
// anonymous, read-write, non-executable memory. The mapping is never
// created RWX; makeExecutable performs the separate RX transition.
func mmapRW(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// makeExecutable flips code's backing pages from RW to RX in place.
func makeExecutable(code []byte) error {
	return unix.Mprotect(code, unix.PROT_READ|unix.PROT_EXEC)
}

// munmap releases code's backing pages back to the OS.
func munmap(code []byte) error {
	return unix.Munmap(code)
}
