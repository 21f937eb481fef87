package nativejit

import "github.com/nativejit/nativejit/internal/asm"

// Arch names a target instruction set.
type Arch = asm.Arch

// Re-exported Arch values.
const (
	ArchX86    = asm.ArchX86
	ArchX86_64 = asm.ArchX86_64
	ArchAArch64 = asm.ArchAArch64
)

// Platform names a target OS.
type Platform = asm.Platform

// Re-exported Platform values.
const (
	PlatformLinux   = asm.PlatformLinux
	PlatformMacOS   = asm.PlatformMacOS
	PlatformWindows = asm.PlatformWindows
	PlatformFreeBSD = asm.PlatformFreeBSD
	PlatformOther   = asm.PlatformOther
)

// CpuFeature and CpuFeatureSet re-export the extension-flag bitset
// covering SSE2, SSE4.1, AVX, AVX2, AVX-512 variants, FMA, and BMI on
// x86-64, and NEON, CRC32, AES, and SHA2 on AArch64.
type (
	CpuFeature    = asm.CpuFeature
	CpuFeatureSet = asm.CpuFeatureSet
)

// Re-exported CpuFeature values.
const (
	FeatureSSE2     = asm.FeatureSSE2
	FeatureSSE3     = asm.FeatureSSE3
	FeatureSSE4_1   = asm.FeatureSSE4_1
	FeatureSSE4_2   = asm.FeatureSSE4_2
	FeatureAVX      = asm.FeatureAVX
	FeatureAVX2     = asm.FeatureAVX2
	FeatureAVX512F  = asm.FeatureAVX512F
	FeatureAVX512BW = asm.FeatureAVX512BW
	FeatureAVX512VL = asm.FeatureAVX512VL
	FeatureFMA      = asm.FeatureFMA
	FeatureBMI1     = asm.FeatureBMI1
	FeatureBMI2     = asm.FeatureBMI2
	FeatureNEON     = asm.FeatureNEON
	FeatureCRC32    = asm.FeatureCRC32
	FeatureAES      = asm.FeatureAES
	FeatureSHA2     = asm.FeatureSHA2
	FeatureAtomics  = asm.FeatureAtomics
)

// Environment is the (arch, platform, enabled features) tuple that gates
// which encoder forms are accepted.
type Environment = asm.Environment

// EnvironmentOption configures an Environment at construction time.
type EnvironmentOption = asm.EnvironmentOption

// WithFeatures ORs additional CPU features into the Environment being
// constructed.
func WithFeatures(f CpuFeatureSet) EnvironmentOption { return asm.WithFeatures(f) }

// NewEnvironment constructs an Environment for arch/platform; a CodeHolder
// is built from one of these.
func NewEnvironment(arch Arch, platform Platform, opts ...EnvironmentOption) Environment {
	return asm.NewEnvironment(arch, platform, opts...)
}

// DetectHostEnvironment builds an Environment for the running process's
// own GOARCH/GOOS, with Features populated from the actual CPUID/ID
// register probe (internal/platform.DetectFeatures) rather than left
// empty - the common case for a caller generating code to run in this
// same process.
func DetectHostEnvironment() (Environment, error) {
	arch, ok := hostArch()
	if !ok {
		return Environment{}, ErrInvalidState
	}
	return asm.NewEnvironment(arch, hostPlatform(), WithFeatures(hostFeatures())), nil
}
