package cpu

import (
	"fmt"
	"strings"
)

// Op identifies a decoded instruction.
type Op uint8

// Known instructions, named after their usual mnemonic and operand shape.
const (
	OpInvalid Op = iota
	OpSYS        // 0nnn
	OpCLS        // 00E0
	OpRET        // 00EE
	OpJP         // 1nnn
	OpCALL       // 2nnn
	OpSEImm      // 3xkk
	OpSNEImm     // 4xkk
	OpSEReg      // 5xy0
	OpLDImm      // 6xkk
	OpADDImm     // 7xkk
	OpLDReg      // 8xy0
	OpOR         // 8xy1
	OpAND        // 8xy2
	OpXOR        // 8xy3
	OpADDReg     // 8xy4
	OpSUB        // 8xy5
	OpSHR        // 8xy6
	OpSUBN       // 8xy7
	OpSHL        // 8xyE
	OpSNEReg     // 9xy0
	OpLDI        // Annn
	OpJPV0       // Bnnn
	OpRND        // Cxkk
	OpDRW        // Dxyn
	OpSKP        // Ex9E
	OpSKNP       // ExA1
	OpLDVxDT     // Fx07
	OpLDVxK      // Fx0A
	OpLDDTVx     // Fx15
	OpLDSTVx     // Fx18
	OpADDIVx     // Fx1E
	OpLDFVx      // Fx29
	OpLDBVx      // Fx33
	OpLDIVx      // Fx55
	OpLDVxI      // Fx65
	opCount
)

// arg describes one operand of an instruction form. Register and number
// operands map to a field of the instruction word, the rest are literals.
type arg uint8

const (
	argVX arg = iota + 1
	argVY
	argV0
	argKK
	argNNN
	argN
	argI
	argIndirect
	argDT
	argST
	argK
	argF
	argB
)

var literals = map[arg]string{
	argV0:       "V0",
	argI:        "I",
	argIndirect: "[I]",
	argDT:       "DT",
	argST:       "ST",
	argK:        "K",
	argF:        "F",
	argB:        "B",
}

// form is one row of the instruction table shared by the decoder, the
// encoder, the disassembler and the assembler.
type form struct {
	op      Op
	name    string
	mask    uint16
	pattern uint16
	args    []arg
}

// forms is ordered so that more specific patterns are tried first.
var forms = []form{
	{OpCLS, "CLS", 0xFFFF, 0x00E0, nil},
	{OpRET, "RET", 0xFFFF, 0x00EE, nil},
	{OpSYS, "SYS", 0xF000, 0x0000, []arg{argNNN}},
	{OpJP, "JP", 0xF000, 0x1000, []arg{argNNN}},
	{OpCALL, "CALL", 0xF000, 0x2000, []arg{argNNN}},
	{OpSEImm, "SE", 0xF000, 0x3000, []arg{argVX, argKK}},
	{OpSNEImm, "SNE", 0xF000, 0x4000, []arg{argVX, argKK}},
	{OpSEReg, "SE", 0xF00F, 0x5000, []arg{argVX, argVY}},
	{OpLDImm, "LD", 0xF000, 0x6000, []arg{argVX, argKK}},
	{OpADDImm, "ADD", 0xF000, 0x7000, []arg{argVX, argKK}},
	{OpLDReg, "LD", 0xF00F, 0x8000, []arg{argVX, argVY}},
	{OpOR, "OR", 0xF00F, 0x8001, []arg{argVX, argVY}},
	{OpAND, "AND", 0xF00F, 0x8002, []arg{argVX, argVY}},
	{OpXOR, "XOR", 0xF00F, 0x8003, []arg{argVX, argVY}},
	{OpADDReg, "ADD", 0xF00F, 0x8004, []arg{argVX, argVY}},
	{OpSUB, "SUB", 0xF00F, 0x8005, []arg{argVX, argVY}},
	{OpSHR, "SHR", 0xF00F, 0x8006, []arg{argVX, argVY}},
	{OpSUBN, "SUBN", 0xF00F, 0x8007, []arg{argVX, argVY}},
	{OpSHL, "SHL", 0xF00F, 0x800E, []arg{argVX, argVY}},
	{OpSNEReg, "SNE", 0xF00F, 0x9000, []arg{argVX, argVY}},
	{OpLDI, "LD", 0xF000, 0xA000, []arg{argI, argNNN}},
	{OpJPV0, "JP", 0xF000, 0xB000, []arg{argV0, argNNN}},
	{OpRND, "RND", 0xF000, 0xC000, []arg{argVX, argKK}},
	{OpDRW, "DRW", 0xF000, 0xD000, []arg{argVX, argVY, argN}},
	{OpSKP, "SKP", 0xF0FF, 0xE09E, []arg{argVX}},
	{OpSKNP, "SKNP", 0xF0FF, 0xE0A1, []arg{argVX}},
	{OpLDVxDT, "LD", 0xF0FF, 0xF007, []arg{argVX, argDT}},
	{OpLDVxK, "LD", 0xF0FF, 0xF00A, []arg{argVX, argK}},
	{OpLDDTVx, "LD", 0xF0FF, 0xF015, []arg{argDT, argVX}},
	{OpLDSTVx, "LD", 0xF0FF, 0xF018, []arg{argST, argVX}},
	{OpADDIVx, "ADD", 0xF0FF, 0xF01E, []arg{argI, argVX}},
	{OpLDFVx, "LD", 0xF0FF, 0xF029, []arg{argF, argVX}},
	{OpLDBVx, "LD", 0xF0FF, 0xF033, []arg{argB, argVX}},
	{OpLDIVx, "LD", 0xF0FF, 0xF055, []arg{argIndirect, argVX}},
	{OpLDVxI, "LD", 0xF0FF, 0xF065, []arg{argVX, argIndirect}},
}

var formOf [opCount]*form

func init() {
	for i := range forms {
		formOf[forms[i].op] = &forms[i]
	}
}

// Instruction defines decoded instruction data. Every field is extracted
// from Word; which ones are meaningful depends on Op.
type Instruction struct {
	Op   Op
	Word uint16
	X    uint8  // Register index in bits 8-11.
	Y    uint8  // Register index in bits 4-7.
	N    uint8  // Low nibble.
	KK   uint8  // Low byte.
	NNN  uint16 // Low 12 bits, an address.
}

// Decode decodes a big-endian instruction word. Words that match no
// instruction return an Instruction with Op set to OpInvalid and
// ErrInvalidOpcode.
func Decode(word uint16) (Instruction, error) {
	in := Instruction{
		Word: word,
		X:    uint8(word>>8) & 0xF,
		Y:    uint8(word>>4) & 0xF,
		N:    uint8(word) & 0xF,
		KK:   uint8(word),
		NNN:  word & 0x0FFF,
	}

	for i := range forms {
		if word&forms[i].mask == forms[i].pattern {
			in.Op = forms[i].op
			return in, nil
		}
	}

	return in, ErrInvalidOpcode
}

// Encode rebuilds the instruction word from Op and its operand fields.
func (in Instruction) Encode() uint16 {
	if in.Op >= opCount || formOf[in.Op] == nil {
		return in.Word
	}

	f := formOf[in.Op]
	w := f.pattern
	for _, a := range f.args {
		switch a {
		case argVX:
			w |= uint16(in.X&0xF) << 8
		case argVY:
			w |= uint16(in.Y&0xF) << 4
		case argKK:
			w |= uint16(in.KK)
		case argNNN:
			w |= in.NNN & 0x0FFF
		case argN:
			w |= uint16(in.N & 0xF)
		}
	}
	return w
}

// Mnemonic returns the instruction name. Undecodable words are shown as
// data words ("DW").
func (in Instruction) Mnemonic() string {
	if in.Op >= opCount || formOf[in.Op] == nil {
		return "DW"
	}
	return formOf[in.Op].name
}

// Operands returns the formatted operand list.
func (in Instruction) Operands() []string {
	if in.Op >= opCount || formOf[in.Op] == nil {
		return []string{fmt.Sprintf("0x%04X", in.Word)}
	}

	f := formOf[in.Op]
	out := make([]string, 0, len(f.args))
	for _, a := range f.args {
		switch a {
		case argVX:
			out = append(out, fmt.Sprintf("V%X", in.X))
		case argVY:
			out = append(out, fmt.Sprintf("V%X", in.Y))
		case argKK:
			out = append(out, fmt.Sprintf("0x%02X", in.KK))
		case argNNN:
			out = append(out, fmt.Sprintf("0x%03X", in.NNN))
		case argN:
			out = append(out, fmt.Sprintf("0x%X", in.N))
		default:
			out = append(out, literals[a])
		}
	}
	return out
}

func (in Instruction) String() string {
	ops := in.Operands()
	if len(ops) == 0 {
		return in.Mnemonic()
	}
	return in.Mnemonic() + " " + strings.Join(ops, ", ")
}
