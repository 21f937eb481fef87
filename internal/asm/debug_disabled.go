//go:build !debug_asm

package asm

// LogSilentDrop is a no-op by default: the dispatcher's "no form matched
// this operand shape" outcome is a documented extension mechanism, not
// an error, so nothing is logged in normal builds. Build with
// -tags debug_asm to see every silent drop, matching wazero's
// internal/asm/amd64/debug_disabled.go build-tag split between a
// default quiet path and an opt-in verbose one.
func LogSilentDrop(instName string, operands []Operand) {}
