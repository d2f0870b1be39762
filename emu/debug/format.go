package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/beanboi7/chyp8/emu/cpu"
)

const bytesPerRow = 8

// FormatMemory writes data as a hex dump, labelling each row with its
// address starting from base.
func FormatMemory(w io.Writer, base uint16, data []byte) {
	for i, b := range data {
		if i%bytesPerRow == 0 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "[%#04x]", int(base)+i)
		}
		fmt.Fprintf(w, " %02x", b)
	}
	if len(data) > 0 {
		fmt.Fprintln(w)
	}
}

// FormatRegisters writes the register file, eight registers per row,
// followed by the special registers and the live part of the stack.
func FormatRegisters(w io.Writer, r cpu.Registers) {
	for i, v := range r.V {
		fmt.Fprintf(w, "V%X:%02x", i, v)
		if i%8 == 7 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, " ")
		}
	}

	fmt.Fprintf(w, "PC:%#04x I:%#04x DT:%d ST:%d SP:%d\n", r.PC, r.I, r.DT, r.ST, r.SP)

	if r.SP > 0 {
		frames := make([]string, 0, r.SP)
		for _, addr := range r.Stack[:r.SP] {
			frames = append(frames, fmt.Sprintf("%#04x", addr))
		}
		fmt.Fprintf(w, "stack: %s\n", strings.Join(frames, " "))
	}
}
