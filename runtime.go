package nativejit

import "github.com/nativejit/nativejit/internal/runtime"

// JitFunction is a handle to one W^X-protected mapping of executable
// code. Dropping every handle to a JitFunction (via Runtime.Release)
// releases its pages back to the OS.
type JitFunction = runtime.JitFunction

// ErrAlreadyReleased is returned by Runtime.Release when fn's pages have
// already been unmapped.
var ErrAlreadyReleased = runtime.ErrAlreadyReleased

// Runtime is the W^X executable-memory allocator: it maps
// fresh RX pages for finalized code and, optionally, interns them behind
// a content hash or caller-supplied key so repeated adds of identical
// code share one mapping.
//
// It wraps internal/runtime.Runtime (which operates on raw []byte)
// rather than aliasing it directly, so Add can take the public API's own
// *CodeHolder and extract its finalized bytes for the caller.
type Runtime struct {
	inner *runtime.Runtime
}

// NewRuntime constructs a Runtime whose add_cached intern table holds at
// most cacheCapacity entries. Pass 0 to disable caching - Add is then the
// only entry point callers need.
func NewRuntime(cacheCapacity int) *Runtime {
	return &Runtime{inner: runtime.New(cacheCapacity)}
}

// Add maps holder's finalized code bytes into fresh RX pages, returning
// a JitFunction with one outstanding reference. Add does not finalize
// holder itself: holder must already be finalized (otherwise Add returns
// ErrInvalidState) (Assembler.Assemble, Builder replay, or
// Compiler.Finalize all finalize their CodeHolder); its bytes are copied
// into the new mapping, so holder itself may be reset or discarded
// afterward.
func (r *Runtime) Add(holder *CodeHolder) (*JitFunction, error) {
	if !holder.Finalized() {
		return nil, ErrInvalidState
	}
	return r.inner.Add(holder.Buf.Bytes())
}

// AddBytes is Add for callers who already have a finalized byte slice in
// hand (e.g. FinalizedCode.Bytes from Compiler.Finalize) rather than a
// live CodeHolder.
func (r *Runtime) AddBytes(code []byte) (*JitFunction, error) { return r.inner.Add(code) }

// AddCached behaves like AddBytes, but interns the result under key (or,
// if key is empty, the sha256 of code) so a repeated add of identical
// code returns the existing mapping instead of allocating new pages.
func (r *Runtime) AddCached(code []byte, key string) (*JitFunction, error) {
	return r.inner.AddCached(code, key)
}

// Release drops the caller's handle to fn, unmapping its pages once no
// other reference (including this Runtime's own cache slot, if any)
// remains outstanding.
func (r *Runtime) Release(fn *JitFunction) error { return r.inner.Release(fn) }
