package platform_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/platform"
)

func TestMmapCodeSegment_W_X_Lifecycle(t *testing.T) {
	if !platform.CompilerSupported() {
		t.Skip("W^X mmap unsupported on this GOOS/GOARCH")
	}

	code, err := platform.MmapCodeSegment(4096)
	require.NoError(t, err)
	require.Len(t, code, 4096)

	// Step 3: copy code bytes into the RW mapping.
	copy(code, []byte{0xC3}) // x86-64 ret; harmless if never called on arm64.

	// Step 4-5: the RW->RX transition plus instruction-cache flush must
	// both succeed before the mapping is considered callable.
	require.NoError(t, platform.Finalize(code))

	require.NoError(t, platform.MunmapCodeSegment(code))
}

func TestMmapCodeSegment_ZeroLengthPanics(t *testing.T) {
	if !platform.CompilerSupported() {
		t.Skip("W^X mmap unsupported on this GOOS/GOARCH")
	}
	require.Panics(t, func() { _, _ = platform.MmapCodeSegment(0) })
}

func TestFinalize_ZeroLengthPanics(t *testing.T) {
	if !platform.CompilerSupported() {
		t.Skip("W^X mmap unsupported on this GOOS/GOARCH")
	}
	require.Panics(t, func() { _ = platform.Finalize(nil) })
}

func TestMunmapCodeSegment_ZeroLengthPanics(t *testing.T) {
	if !platform.CompilerSupported() {
		t.Skip("W^X mmap unsupported on this GOOS/GOARCH")
	}
	require.Panics(t, func() { _ = platform.MunmapCodeSegment(nil) })
}
