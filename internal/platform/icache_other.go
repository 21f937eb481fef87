//go:build !amd64 && !arm64

package platform

// FlushInstructionCache is unimplemented for architectures this module's
// x86/arm64 encoders do not target; CompilerSupported reports false for these
// GOARCHes, so Runtime.Add never reaches here in practice.
func FlushInstructionCache(code []byte) {}
