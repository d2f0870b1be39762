package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/beanboi7/chyp8/emu/debug"
)

var debugCmd = &cobra.Command{
	Use:   "debug path/ROM",
	Short: "load a ROM into the line debugger",
	Long: `Load a ROM without a window and control it from the command line.
Type "help" at the prompt for the list of commands; an empty line repeats
the previous one and Ctrl-C interrupts a running "continue".`,
	Args: cobra.ExactArgs(1),
	RunE: Debug,
}

func Debug(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	emu, _, err := loadEMU(args[0], cfg.Options())
	if err != nil {
		return err
	}

	console := debug.NewConsole(debug.New(emu, cfg.CyclesPerTick), os.Stdout)
	console.Interrupt = func() (context.Context, context.CancelFunc) {
		return signal.NotifyContext(context.Background(), os.Interrupt)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		console.Prompt = "(dbg) "
	}

	err = console.Serve(os.Stdin)
	if console.Prompt != "" {
		fmt.Println()
	}
	return err
}
