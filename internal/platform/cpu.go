package platform

import "github.com/nativejit/nativejit/internal/asm"

// DetectFeatures probes the running CPU for the extensions
// asm.CpuFeatureSet encodes. Architectures outside
// {amd64, arm64} return an empty set, matching cpuid_unsupported.go's
// all-false stub in wazero.
func DetectFeatures() asm.CpuFeatureSet {
	return detectFeatures()
}
