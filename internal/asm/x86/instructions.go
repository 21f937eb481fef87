package x86

import "github.com/nativejit/nativejit/internal/asm"

// Instruction ids. One id per mnemonic family; operand-shape
// discrimination happens in the dispatcher.
const (
	NOP asm.InstructionID = iota + 1
	RET
	MOV
	MOVZX
	MOVSX
	LEA
	ADD
	SUB
	CMP
	XOR
	AND
	OR
	TEST
	NEG
	IMUL
	PUSH
	POP
	CALL
	JMP
	JCC // conditional jump; the Cond operand picks cc
	SETCC
	SHL
	SHR
	SAR
	MOVD // GP <-> XMM moves; REX.W selects the 64-bit (movq) form
	MOVAPS
	MOVDQU
	ADDPS
	PADDD
	VMOVDQU
	VADDPS
	VPADDD
	VMOVDQU64
)

// Cond values for JCC/SETCC, numbered after the x86 cc nibble so the
// dispatcher can compute the opcode with a simple addition.
const (
	CondO  asm.Cond = 0x0
	CondNO asm.Cond = 0x1
	CondB  asm.Cond = 0x2
	CondAE asm.Cond = 0x3
	CondE  asm.Cond = 0x4
	CondNE asm.Cond = 0x5
	CondBE asm.Cond = 0x6
	CondA  asm.Cond = 0x7
	CondS  asm.Cond = 0x8
	CondNS asm.Cond = 0x9
	CondL  asm.Cond = 0xC
	CondGE asm.Cond = 0xD
	CondLE asm.Cond = 0xE
	CondG  asm.Cond = 0xF
)

var instInfo = map[asm.InstructionID]asm.InstInfo{
	NOP:   {Name: "NOP"},
	RET:   {Name: "RET"},
	MOV:   {Name: "MOV"},
	MOVZX: {Name: "MOVZX"},
	MOVSX: {Name: "MOVSX"},
	LEA:   {Name: "LEA"},
	ADD:   {Name: "ADD", Flags: asm.InstFlagLockable},
	SUB:   {Name: "SUB", Flags: asm.InstFlagLockable},
	CMP:   {Name: "CMP"},
	XOR:   {Name: "XOR", Flags: asm.InstFlagLockable},
	AND:   {Name: "AND", Flags: asm.InstFlagLockable},
	OR:    {Name: "OR", Flags: asm.InstFlagLockable},
	TEST:  {Name: "TEST"},
	NEG:   {Name: "NEG", Flags: asm.InstFlagLockable},
	IMUL:  {Name: "IMUL"},
	PUSH:  {Name: "PUSH"},
	POP:   {Name: "POP"},
	CALL:  {Name: "CALL"},
	JMP:   {Name: "JMP"},
	JCC:   {Name: "Jcc"},
	SETCC: {Name: "SETcc"},
	SHL:       {Name: "SHL"},
	SHR:       {Name: "SHR"},
	SAR:       {Name: "SAR"},
	MOVD:      {Name: "MOVD", Extensions: []string{"SSE2"}},
	MOVAPS:    {Name: "MOVAPS", Extensions: []string{"SSE2"}},
	MOVDQU:    {Name: "MOVDQU", Extensions: []string{"SSE2"}},
	ADDPS:     {Name: "ADDPS", Extensions: []string{"SSE2"}},
	PADDD:     {Name: "PADDD", Extensions: []string{"SSE2"}},
	VMOVDQU:   {Name: "VMOVDQU", Extensions: []string{"AVX"}},
	VADDPS:    {Name: "VADDPS", Extensions: []string{"AVX"}},
	VPADDD:    {Name: "VPADDD", Extensions: []string{"AVX2"}},
	VMOVDQU64: {Name: "VMOVDQU64", Extensions: []string{"AVX512F"}},
}

// DB is the package-level InstructionDB oracle. In a real
// build this table is generated offline from isa_x86.json; here it is a
// hand-written stub covering exactly the mnemonics this package encodes.
var DB asm.InstructionDB = instructionDB{}

type instructionDB struct{}

func (instructionDB) Lookup(id asm.InstructionID) (asm.InstInfo, bool) {
	info, ok := instInfo[id]
	return info, ok
}

func instructionName(id asm.InstructionID) string {
	if info, ok := instInfo[id]; ok {
		return info.Name
	}
	return "UNKNOWN"
}
