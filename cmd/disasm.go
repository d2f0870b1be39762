package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/debug"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm path/ROM",
	Short: "print a listing of a ROM",
	Args:  cobra.ExactArgs(1),
	RunE:  Disasm,
}

func Disasm(cmd *cobra.Command, args []string) error {
	emu, size, err := loadEMU(args[0], cpu.Options{})
	if err != nil {
		return err
	}

	lines, err := debug.New(emu, 0).DisassembleRange(cpu.ProgramOffset, (size+1)/2)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
