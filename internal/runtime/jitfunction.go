// Package runtime implements the Runtime tier: the W^X executable-memory
// allocator that turns a finalized byte buffer into a JitFunction with
// explicitly managed lifetime, plus the fixed-capacity LRU cache
// add_cached interns into.
//
// Grounded on github.com/tetratelabs/wazero's internal/engine/compiler and
// internal/engine/wazevo engines (engine.go, engine_cache.go): both hold a
// platform.MmapCodeSegment-backed []byte per compiled function/module and
// explicitly platform.MunmapCodeSegment it on teardown; this package lifts
// that same single-owner map/copy/finalize/unmap-on-release pattern out
// into one reusable, concurrency-safe JitFunction/Runtime pair instead of
// per-engine inline bookkeeping.
package runtime

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrAlreadyReleased is returned by Runtime.Release when fn's pages have
// already been unmapped. Accessing the pointer afterwards is undefined
// behavior, so a second Release call is a caller bug we surface rather
// than silently ignore or re-unmap.
var ErrAlreadyReleased = errors.New("runtime: JitFunction already released")

// JitFunction owns one RX page mapping; dropping it releases pages back to
// the allocator. refCount tracks how many outstanding handles keep the
// mapping alive: the Runtime's own cache entry (if interned via
// AddCached) counts as one, and every caller-held reference counts as
// another, so an add_cached eviction does not yank pages out from under a
// caller still using them.
type JitFunction struct {
	mu       sync.Mutex
	code     []byte
	refCount int
	key      string
}

// AsPtr returns the function's entry address. The zero value (a released or
// empty function) returns 0.
func (f *JitFunction) AsPtr() uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.code) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&f.code[0]))
}

// Len reports the size, in bytes, of the mapped code.
func (f *JitFunction) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.code)
}

// Key reports the cache key this function was interned under, or "" if
// it was never added via add_cached.
func (f *JitFunction) Key() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.key
}

func (f *JitFunction) String() string {
	return fmt.Sprintf("JitFunction{ptr=%#x len=%d}", f.AsPtr(), f.Len())
}
