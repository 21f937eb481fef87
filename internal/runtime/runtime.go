package runtime

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/nativejit/nativejit/internal/platform"
)

// cacheEntry is the value stored in Runtime.cache and threaded through
// Runtime.order (the container/list-based LRU chain). No ecosystem LRU
// library appears anywhere in the retrieved example pack's dependency
// surface, so this intern table is hand-rolled on top of the standard
// library's container/list the way a small, self-contained cache inside
// a larger module normally would be; see DESIGN.md.
type cacheEntry struct {
	key  string
	fn   *JitFunction
	elem *list.Element
}

// Runtime is the W^X code-memory allocator: every Add/AddCached call
// produces one RW->RX mapping, and Release gives the pages back once every
// outstanding handle has dropped. A zero-capacity Runtime (New(0)) disables
// the add_cached intern table entirely - AddCached then behaves exactly
// like Add plus key bookkeeping, with no eviction.
type Runtime struct {
	mu       sync.Mutex
	cache    map[string]*cacheEntry
	order    *list.List
	capacity int
}

// New constructs a Runtime whose add_cached table holds at most
// cacheCapacity distinct entries before evicting the least-recently-used
// one. cacheCapacity <= 0 means "no cache" (Add is the only recommended
// entry point; AddCached degrades to an uncached Add).
func New(cacheCapacity int) *Runtime {
	return &Runtime{
		cache:    make(map[string]*cacheEntry),
		order:    list.New(),
		capacity: cacheCapacity,
	}
}

// Add maps fresh RX pages for code: acquire an RW mapping of that size,
// copy the code bytes in, transition it to RX, flush the instruction
// cache, and hand back a JitFunction with refCount 1 (the caller's own
// handle).
func (r *Runtime) Add(code []byte) (*JitFunction, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("runtime: Add called with empty code")
	}
	mapped, err := platform.MmapCodeSegment(len(code))
	if err != nil {
		return nil, fmt.Errorf("runtime: mmap code segment: %w", err)
	}
	copy(mapped, code)
	if err := platform.Finalize(mapped); err != nil {
		if unmapErr := platform.MunmapCodeSegment(mapped); unmapErr != nil {
			return nil, fmt.Errorf("runtime: finalize RX mapping: %w (rollback unmap also failed: %v)", err, unmapErr)
		}
		return nil, fmt.Errorf("runtime: finalize RX mapping: %w", err)
	}
	return &JitFunction{code: mapped, refCount: 1}, nil
}

// AddCached behaves like Add, but interns the result under key (or, if
// key is empty, under the sha256 hex digest of code). A cache hit returns
// the existing mapping with its refcount bumped instead of mapping new
// pages; a miss maps new pages and interns them, evicting the
// least-recently-used entry first if the table is at capacity. The
// returned JitFunction must still be released by the caller exactly
// once: the cache itself holds a separate, internal reference that keeps
// the mapping alive across evictions of OTHER entries and is only
// dropped when this entry itself is evicted; Runtime has no other path
// that drops it.
func (r *Runtime) AddCached(code []byte, key string) (*JitFunction, error) {
	if key == "" {
		sum := sha256.Sum256(code)
		key = hex.EncodeToString(sum[:])
	}

	r.mu.Lock()
	if entry, ok := r.cache[key]; ok {
		r.order.MoveToFront(entry.elem)
		entry.fn.mu.Lock()
		entry.fn.refCount++
		entry.fn.mu.Unlock()
		r.mu.Unlock()
		return entry.fn, nil
	}
	r.mu.Unlock()

	fn, err := r.Add(code)
	if err != nil {
		return nil, err
	}
	fn.key = key

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capacity > 0 {
		if entry, ok := r.cache[key]; ok {
			// Lost a race with a concurrent AddCached(same key): keep the
			// winner already interned, release our redundant mapping.
			r.order.MoveToFront(entry.elem)
			entry.fn.mu.Lock()
			entry.fn.refCount++
			entry.fn.mu.Unlock()
			r.mu.Unlock()
			// fn still carries the caller handle we're discarding in favor
			// of the winner's entry.fn - drop it, or its RX mapping never
			// gets unmapped.
			_ = r.Release(fn)
			r.mu.Lock()
			return entry.fn, nil
		}
		// The cache's own slot counts as a second reference: one for the
		// table, one for the caller-held handle this call returns.
		fn.refCount++
		entry := &cacheEntry{key: key, fn: fn}
		entry.elem = r.order.PushFront(entry)
		r.cache[key] = entry
		r.evictLocked()
	}
	return fn, nil
}

// evictLocked drops least-recently-used cache entries until the table is
// back within capacity. Must be called with r.mu held.
func (r *Runtime) evictLocked() {
	for r.order.Len() > r.capacity {
		back := r.order.Back()
		if back == nil {
			return
		}
		entry := back.Value.(*cacheEntry)
		r.order.Remove(back)
		delete(r.cache, entry.key)
		entry.fn.mu.Lock()
		entry.fn.refCount--
		shouldUnmap := entry.fn.refCount <= 0
		entry.fn.mu.Unlock()
		if shouldUnmap {
			_ = platform.MunmapCodeSegment(entry.fn.code)
			entry.fn.mu.Lock()
			entry.fn.code = nil
			entry.fn.mu.Unlock()
		}
	}
}

// Release drops the caller's handle to fn. Pages are actually unmapped
// once the refcount reaches zero - if fn is still interned in the
// add_cached table, the table's own reference keeps the mapping alive
// until the entry is evicted (discarding the Runtime does not unmap
// interned pages), so an
// outstanding handle keeps pages alive until it too is dropped. Calling
// Release on a JitFunction whose pages are already gone returns
// ErrAlreadyReleased.
func (r *Runtime) Release(fn *JitFunction) error {
	fn.mu.Lock()
	if fn.refCount <= 0 {
		fn.mu.Unlock()
		return ErrAlreadyReleased
	}
	fn.refCount--
	shouldUnmap := fn.refCount <= 0
	code := fn.code
	if shouldUnmap {
		fn.code = nil
	}
	fn.mu.Unlock()

	if !shouldUnmap {
		return nil
	}
	return platform.MunmapCodeSegment(code)
}
