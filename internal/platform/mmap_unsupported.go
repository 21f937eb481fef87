//go:build !unix && !windows

package platform

import "errors"

var errUnsupported = errors.New("platform: W^X code mapping unsupported on this GOOS")

func compilerSupported() bool { return false }

func mmapRW(size int) ([]byte, error)  { return nil, errUnsupported }
func makeExecutable(code []byte) error { return errUnsupported }
func munmap(code []byte) error         { return errUnsupported }
