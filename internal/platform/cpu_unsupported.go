//go:build !amd64 && !arm64

package platform

import "github.com/nativejit/nativejit/internal/asm"

// detectFeatures returns the empty set on architectures this module's
// encoders never target, matching cpuid_unsupported.go's all-false stub
// in wazero.
func detectFeatures() asm.CpuFeatureSet { return 0 }
