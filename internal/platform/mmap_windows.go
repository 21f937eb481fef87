//go:build windows

package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func compilerSupported() bool { return true }

// mmapRW reserves and commits size bytes of anonymous, read-write,
// non-executable memory.
func mmapRW(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// makeExecutable flips code's backing pages from RW to RX in place.
func makeExecutable(code []byte) error {
	var old uint32
	addr := uintptr(unsafe.Pointer(&code[0]))
	return windows.VirtualProtect(addr, uintptr(len(code)), windows.PAGE_EXECUTE_READ, &old)
}

// munmap releases code's backing pages back to the OS.
func munmap(code []byte) error {
	addr := uintptr(unsafe.Pointer(&code[0]))
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
