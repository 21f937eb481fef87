//go:build amd64

package platform

import (
	"golang.org/x/sys/cpu"

	"github.com/nativejit/nativejit/internal/asm"
)

// detectFeatures maps golang.org/x/sys/cpu's already-probed CPUID bits
// onto asm.CpuFeatureSet, grounded on cpuid_arm64.go's
// loadCpuFeatureFlags pattern (probe once at package init, expose a
// read-only set) generalized to x86-64's richer extension list // names (SSE2, SSE4.1, AVX, AVX2, AVX-512 variants, FMA, BMI).
func detectFeatures() asm.CpuFeatureSet {
	var s asm.CpuFeatureSet
	if cpu.X86.HasSSE3 {
		s = s.With(asm.FeatureSSE3)
	}
	// amd64 always implements SSE2 (it predates the architecture's
	// baseline requirement), matching x/sys/cpu's own doc comment.
	s = s.With(asm.FeatureSSE2)
	if cpu.X86.HasSSE41 {
		s = s.With(asm.FeatureSSE4_1)
	}
	if cpu.X86.HasSSE42 {
		s = s.With(asm.FeatureSSE4_2)
	}
	if cpu.X86.HasAVX {
		s = s.With(asm.FeatureAVX)
	}
	if cpu.X86.HasAVX2 {
		s = s.With(asm.FeatureAVX2)
	}
	if cpu.X86.HasAVX512F {
		s = s.With(asm.FeatureAVX512F)
	}
	if cpu.X86.HasAVX512BW {
		s = s.With(asm.FeatureAVX512BW)
	}
	if cpu.X86.HasAVX512VL {
		s = s.With(asm.FeatureAVX512VL)
	}
	if cpu.X86.HasFMA {
		s = s.With(asm.FeatureFMA)
	}
	if cpu.X86.HasBMI1 {
		s = s.With(asm.FeatureBMI1)
	}
	if cpu.X86.HasBMI2 {
		s = s.With(asm.FeatureBMI2)
	}
	if cpu.X86.HasAES {
		s = s.With(asm.FeatureAES)
	}
	return s
}
