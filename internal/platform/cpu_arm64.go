//go:build arm64

package platform

import (
	"golang.org/x/sys/cpu"

	"github.com/nativejit/nativejit/internal/asm"
)

// detectFeatures maps golang.org/x/sys/cpu's ARM64 ID-register probe onto
// asm.CpuFeatureSet.
func detectFeatures() asm.CpuFeatureSet {
	s := asm.CpuFeatureSet(0).With(asm.FeatureNEON) // ASIMD is baseline on arm64.
	if cpu.ARM64.HasCRC32 {
		s = s.With(asm.FeatureCRC32)
	}
	if cpu.ARM64.HasAES {
		s = s.With(asm.FeatureAES)
	}
	if cpu.ARM64.HasSHA2 {
		s = s.With(asm.FeatureSHA2)
	}
	if cpu.ARM64.HasATOMICS {
		s = s.With(asm.FeatureAtomics)
	}
	return s
}
