package nativejit

import "github.com/nativejit/nativejit/internal/isa"

// CallConv is one calling-convention record from catalog:
// argument/return register lists, preserved-register masks, and stack
// layout parameters.
type CallConv = isa.CallConv

// Re-exported calling-convention catalog entries.
var (
	SystemVAMD64 = isa.SystemVAMD64
	Win64        = isa.Win64
	Cdecl        = isa.Cdecl
	Stdcall      = isa.Stdcall
	Fastcall     = isa.Fastcall
	Vectorcall   = isa.Vectorcall
	AAPCS64      = isa.AAPCS64
	AAPCS64Apple = isa.AAPCS64Apple
)

// CallConvByName looks up a calling convention by its catalog name
// ("x64-SystemV", "x64-Windows", "aarch64-AAPCS", "aarch64-Apple", ...).
func CallConvByName(name string) (CallConv, bool) { return isa.ByName(name) }
