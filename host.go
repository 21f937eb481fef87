package nativejit

import (
	goruntime "runtime"

	"github.com/nativejit/nativejit/internal/platform"
)

func hostArch() (Arch, bool) {
	switch goruntime.GOARCH {
	case "amd64":
		return ArchX86_64, true
	case "arm64":
		return ArchAArch64, true
	default:
		return ArchX86_64, false
	}
}

func hostPlatform() Platform {
	switch goruntime.GOOS {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	case "freebsd":
		return PlatformFreeBSD
	default:
		return PlatformOther
	}
}

func hostFeatures() CpuFeatureSet {
	return platform.DetectFeatures()
}
