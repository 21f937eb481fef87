//go:build debug_asm

package asm

import "log"

// LogSilentDrop reports a dispatcher form-match miss when built with
// -tags debug_asm, for diagnosing a missing encoder form during
// development. Never called from a non-debug build; see
// debug_disabled.go.
func LogSilentDrop(instName string, operands []Operand) {
	log.Printf("asm: no dispatch form matched %s%v", instName, operands)
}
