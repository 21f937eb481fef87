package asm

// Arch names a target instruction set.
type Arch uint8

const (
	ArchInvalid Arch = iota
	ArchX86
	ArchX86_64
	ArchAArch64
)

func (a Arch) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchX86_64:
		return "x86_64"
	case ArchAArch64:
		return "aarch64"
	default:
		return "invalid"
	}
}

// Platform names a target OS, which mainly affects the Runtime's W^X page
// lifecycle and the calling convention catalog's default entry.
type Platform uint8

const (
	PlatformOther Platform = iota
	PlatformLinux
	PlatformMacOS
	PlatformWindows
	PlatformFreeBSD
)

func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return "linux"
	case PlatformMacOS:
		return "macos"
	case PlatformWindows:
		return "windows"
	case PlatformFreeBSD:
		return "freebsd"
	default:
		return "other"
	}
}

// CpuFeature is a single bit in a CpuFeatureSet.
type CpuFeature uint64

const (
	FeatureSSE2 CpuFeature = 1 << iota
	FeatureSSE3
	FeatureSSE4_1
	FeatureSSE4_2
	FeatureAVX
	FeatureAVX2
	FeatureAVX512F
	FeatureAVX512BW
	FeatureAVX512VL
	FeatureFMA
	FeatureBMI1
	FeatureBMI2
	FeatureNEON
	FeatureCRC32
	FeatureAES
	FeatureSHA2
	FeatureAtomics
)

func (f CpuFeature) String() string {
	switch f {
	case FeatureSSE2:
		return "SSE2"
	case FeatureSSE3:
		return "SSE3"
	case FeatureSSE4_1:
		return "SSE4.1"
	case FeatureSSE4_2:
		return "SSE4.2"
	case FeatureAVX:
		return "AVX"
	case FeatureAVX2:
		return "AVX2"
	case FeatureAVX512F:
		return "AVX-512F"
	case FeatureAVX512BW:
		return "AVX-512BW"
	case FeatureAVX512VL:
		return "AVX-512VL"
	case FeatureFMA:
		return "FMA"
	case FeatureBMI1:
		return "BMI1"
	case FeatureBMI2:
		return "BMI2"
	case FeatureNEON:
		return "NEON"
	case FeatureCRC32:
		return "CRC32"
	case FeatureAES:
		return "AES"
	case FeatureSHA2:
		return "SHA2"
	case FeatureAtomics:
		return "atomics"
	default:
		return "unknown"
	}
}

// CpuFeatureSet is a bitset of enabled CpuFeature extensions. Encoders
// consult it to decide whether a form is legal for the active Environment
//).
type CpuFeatureSet uint64

// Has reports whether every bit in f is present in s.
func (s CpuFeatureSet) Has(f CpuFeature) bool { return s&CpuFeatureSet(f) == CpuFeatureSet(f) }

// With returns s with f added.
func (s CpuFeatureSet) With(f CpuFeature) CpuFeatureSet { return s | CpuFeatureSet(f) }

// Environment is the tuple of target architecture, platform, and enabled
// CPU features that gates which encoder forms are accepted.
type Environment struct {
	Arch     Arch
	Platform Platform
	Features CpuFeatureSet
}

// EnvironmentOption configures an Environment at construction time.
type EnvironmentOption func(*Environment)

// WithFeatures ORs additional CPU features into the Environment.
func WithFeatures(f CpuFeatureSet) EnvironmentOption {
	return func(e *Environment) { e.Features |= f }
}

// NewEnvironment constructs an Environment for arch/platform, applying any
// options (functional-options style, matching wazero's RuntimeConfig
// builder convention).
func NewEnvironment(arch Arch, platform Platform, opts ...EnvironmentOption) Environment {
	e := Environment{Arch: arch, Platform: platform}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
