package debug

import (
	"fmt"

	"github.com/beanboi7/chyp8/emu/cpu"
)

// Line is one disassembled instruction.
type Line struct {
	Addr        uint16
	Instruction cpu.Instruction
	Mnemonic    string
	Operands    []string
}

func (l Line) String() string {
	return fmt.Sprintf("%#04x  %04X  %s", l.Addr, l.Instruction.Word, l.Instruction)
}

// Disassemble decodes the word at addr without executing it. Words that
// are not instructions come back as data ("DW"); only an address outside
// memory is an error.
func (d *Debugger) Disassemble(addr uint16) (Line, error) {
	word, err := d.emu.Fetch(addr)
	if err != nil {
		return Line{Addr: addr}, err
	}

	in, _ := cpu.Decode(word)
	return Line{
		Addr:        addr,
		Instruction: in,
		Mnemonic:    in.Mnemonic(),
		Operands:    in.Operands(),
	}, nil
}

// DisassembleRange disassembles up to n consecutive words from addr,
// stopping at the end of memory.
func (d *Debugger) DisassembleRange(addr uint16, n int) ([]Line, error) {
	lines := make([]Line, 0, n)
	for i := 0; i < n; i++ {
		line, err := d.Disassemble(addr)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			break
		}
		lines = append(lines, line)
		addr += 2
	}
	return lines, nil
}
