// Package platform implements the Runtime's W^X page lifecycle and CPU feature detection for internal/asm's
// Environment.
//
// Grounded on github.com/tetratelabs/wazero's internal/platform package:
// the same build-tag-per-OS split (cpuid_arm64.go/cpuid_unsupported.go's
// CpuFeatureFlags pattern) and the same MmapCodeSegment/MunmapCodeSegment
// call shape its internal/asm/buffer.go and internal/engine/wazevo/
// engine.go use. The pack only retrieved cpuid_arm64.go,
// cpuid_unsupported.go, and *_test.go files for this package - its real
// mmap_linux.go/mmap_windows.go/mmap_darwin.go were not retrieved - so the
// mmap/mprotect implementation here is grounded on own
// numbered steps plus the call-site usage visible across // engine.go/engine_cache.go files, using golang.org/x/sys/unix and
// golang.org/x/sys/windows the way those call sites imply.
package platform

import (
	"fmt"
	"runtime"
)

// CompilerSupported reports whether this package's mmap implementation
// backs the current GOARCH/GOOS, matching top-level
// CompilerSupported constant (config_unsupported.go) that gates whether a
// native backend is available at all.
func CompilerSupported() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
	default:
		return false
	}
	return compilerSupported()
}

func bugZeroLength(op string) {
	panic(fmt.Sprintf("BUG: %s with zero length", op))
}
