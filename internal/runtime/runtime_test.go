package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativejit/nativejit/internal/platform"
	"github.com/nativejit/nativejit/internal/runtime"
)

// retInstruction is a minimal, architecture-agnostic "valid-enough" code
// buffer: these tests only exercise Runtime's mapping/refcount/eviction
// bookkeeping, never call the mapped pages, so the actual bytes don't
// need to be a real return instruction for every GOARCH.
var retInstruction = []byte{0xC3, 0x90, 0x90, 0x90}

func skipUnlessSupported(t *testing.T) {
	t.Helper()
	if !platform.CompilerSupported() {
		t.Skip("W^X mmap unsupported on this GOOS/GOARCH")
	}
}

func TestRuntime_AddAndRelease(t *testing.T) {
	skipUnlessSupported(t)

	r := runtime.New(0)
	fn, err := r.Add(retInstruction)
	require.NoError(t, err)
	require.NotZero(t, fn.AsPtr())
	require.Equal(t, len(retInstruction), fn.Len())

	require.NoError(t, r.Release(fn))
	require.Zero(t, fn.AsPtr())
}

func TestRuntime_ReleaseTwiceErrors(t *testing.T) {
	skipUnlessSupported(t)

	r := runtime.New(0)
	fn, err := r.Add(retInstruction)
	require.NoError(t, err)

	require.NoError(t, r.Release(fn))
	require.ErrorIs(t, r.Release(fn), runtime.ErrAlreadyReleased)
}

func TestRuntime_AddEmptyCodeErrors(t *testing.T) {
	skipUnlessSupported(t)

	r := runtime.New(0)
	_, err := r.Add(nil)
	require.Error(t, err)
}

func TestRuntime_AddCachedHitSharesMapping(t *testing.T) {
	skipUnlessSupported(t)

	r := runtime.New(4)
	first, err := r.AddCached(retInstruction, "fn-a")
	require.NoError(t, err)

	second, err := r.AddCached(retInstruction, "fn-a")
	require.NoError(t, err)

	require.Equal(t, first.AsPtr(), second.AsPtr(), "cache hit must return the same mapping")

	// Both caller handles plus the cache's own slot are outstanding:
	// releasing both caller handles must not yet unmap the pages.
	require.NoError(t, r.Release(first))
	require.NotZero(t, second.AsPtr(), "cache entry keeps pages alive after one caller releases")
	require.NoError(t, r.Release(second))
	require.NotZero(t, second.AsPtr(), "cache's own reference still holds the mapping")
}

func TestRuntime_AddCachedMissMapsFreshPages(t *testing.T) {
	skipUnlessSupported(t)

	r := runtime.New(4)
	a, err := r.AddCached([]byte{0xC3}, "key-a")
	require.NoError(t, err)
	b, err := r.AddCached([]byte{0xC3, 0x90}, "key-b")
	require.NoError(t, err)

	require.NotEqual(t, a.AsPtr(), b.AsPtr())
	require.Equal(t, "key-a", a.Key())
	require.Equal(t, "key-b", b.Key())
}

func TestRuntime_AddCachedDerivesKeyFromHashWhenEmpty(t *testing.T) {
	skipUnlessSupported(t)

	r := runtime.New(4)
	a, err := r.AddCached(retInstruction, "")
	require.NoError(t, err)
	b, err := r.AddCached(retInstruction, "")
	require.NoError(t, err)

	require.Equal(t, a.AsPtr(), b.AsPtr(), "identical code with no caller key hashes to the same slot")
	require.NotEmpty(t, a.Key())
}

func TestRuntime_AddCachedEvictsLeastRecentlyUsed(t *testing.T) {
	skipUnlessSupported(t)

	r := runtime.New(2)

	first, err := r.AddCached([]byte{0xC3}, "k1")
	require.NoError(t, err)
	_, err = r.AddCached([]byte{0xC3, 0x90}, "k2")
	require.NoError(t, err)

	// Release our only caller handle to k1 so the cache's own reference
	// is the sole remaining owner, then push k1 out via a third insert.
	require.NoError(t, r.Release(first))

	_, err = r.AddCached([]byte{0xC3, 0x90, 0x90}, "k3")
	require.NoError(t, err)

	// k1 was least-recently-used (k2 and k3 were touched more recently)
	// and had no outstanding caller handle, so it should have been
	// evicted and fully unmapped: AsPtr on the stale handle now reads 0.
	require.Zero(t, first.AsPtr())
}

func TestRuntime_AddCachedKeepsEntryAliveForOutstandingHandle(t *testing.T) {
	skipUnlessSupported(t)

	r := runtime.New(1)

	held, err := r.AddCached([]byte{0xC3}, "k1")
	require.NoError(t, err)

	// Evict k1 by inserting a second entry into a capacity-1 cache.
	_, err = r.AddCached([]byte{0xC3, 0x90}, "k2")
	require.NoError(t, err)

	// held's caller-side reference is still outstanding: its pages must
	// still be valid even though the cache slot itself was evicted.
	require.NotZero(t, held.AsPtr())
	require.NoError(t, r.Release(held))
}
