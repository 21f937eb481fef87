package arm64

import "github.com/nativejit/nativejit/internal/asm"

// InstructionID constants for the AArch64 subset this backend encodes:
// data-processing immediate/register, load/store, the branch family, and
// 64-bit immediate materialization via MOVZ/MOVK.
const (
	_ asm.InstructionID = iota
	NOP
	RET
	MOVZ
	MOVK
	MOVN
	MOVreg // MOV Xd, Xn (alias of ORR Xd, XZR, Xn)
	ADD
	SUB
	CMP
	AND
	ORR
	EOR
	NEG
	MUL
	LDR
	STR
	LDP
	STP
	B
	BL
	BCOND
	CBZ
	CBNZ
	RETreg // RET Xn (BR-family with link register default)
	ADR
	ADRP
	MOVIMM // pseudo-op: materialize a 64-bit constant via movImm64
	LD1R   // load one element, replicate to all lanes; layout is mandatory
)

// Cond holds the AArch64 4-bit condition field, named per the architecture
// reference manual and matching the Go assembler's COND_* naming in
// wazero's internal/asm/arm64/consts.go.
const (
	CondEQ asm.Cond = 0x0
	CondNE asm.Cond = 0x1
	CondHS asm.Cond = 0x2
	CondLO asm.Cond = 0x3
	CondMI asm.Cond = 0x4
	CondPL asm.Cond = 0x5
	CondVS asm.Cond = 0x6
	CondVC asm.Cond = 0x7
	CondHI asm.Cond = 0x8
	CondLS asm.Cond = 0x9
	CondGE asm.Cond = 0xA
	CondLT asm.Cond = 0xB
	CondGT asm.Cond = 0xC
	CondLE asm.Cond = 0xD
	CondAL asm.Cond = 0xE
	CondNV asm.Cond = 0xF
)

var instInfo = map[asm.InstructionID]asm.InstInfo{
	NOP:    {Name: "NOP"},
	RET:    {Name: "RET"},
	MOVZ:   {Name: "MOVZ"},
	MOVK:   {Name: "MOVK"},
	MOVN:   {Name: "MOVN"},
	MOVreg: {Name: "MOV"},
	ADD:    {Name: "ADD"},
	SUB:    {Name: "SUB"},
	CMP:    {Name: "CMP"},
	AND:    {Name: "AND"},
	ORR:    {Name: "ORR"},
	EOR:    {Name: "EOR"},
	NEG:    {Name: "NEG"},
	MUL:    {Name: "MUL"},
	LDR:    {Name: "LDR"},
	STR:    {Name: "STR"},
	LDP:    {Name: "LDP"},
	STP:    {Name: "STP"},
	B:      {Name: "B"},
	BL:     {Name: "BL"},
	BCOND:  {Name: "B.cond"},
	CBZ:    {Name: "CBZ"},
	CBNZ:   {Name: "CBNZ"},
	RETreg: {Name: "RET"},
	ADR:    {Name: "ADR"},
	ADRP:   {Name: "ADRP"},
	MOVIMM: {Name: "MOVIMM"},
	LD1R:   {Name: "LD1R", Extensions: []string{"NEON"}},
}

type instructionDB struct{}

func (instructionDB) Lookup(id asm.InstructionID) (asm.InstInfo, bool) {
	info, ok := instInfo[id]
	return info, ok
}

// DB is the read-only instruction table for the AArch64 backend.
var DB asm.InstructionDB = instructionDB{}

func instructionName(id asm.InstructionID) string {
	if info, ok := instInfo[id]; ok {
		return info.Name
	}
	return "?"
}
