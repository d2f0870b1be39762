package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/beanboi7/chyp8/emu/audio"
	"github.com/beanboi7/chyp8/emu/clock"
	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/screen"
)

var startCmd = &cobra.Command{
	Use:   "start path/ROM",
	Short: "load and start the Emulator",
	Args:  cobra.ExactArgs(1),
	RunE:  Start,
}

// chyp8 start 'path/to/ROM' -r 69
func Start(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pacer, err := clock.New(cfg.Clock())
	if err != nil {
		return err
	}

	emu, _, err := loadEMU(args[0], cfg.Options())
	if err != nil {
		return err
	}

	win, err := screen.NewWindow("Chyp8 - "+filepath.Base(args[0]), cfg.Scale)
	if err != nil {
		return err
	}
	defer win.Destroy()

	beeper, err := audio.New(cfg.Beep)
	if err != nil {
		log.Printf("sound disabled: %v", err)
	} else {
		defer beeper.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = pacer.Run(ctx, emu, clock.Hooks{
		Input: func() error {
			if win.Closed() {
				return clock.ErrStop
			}
			return win.PollKeys(emu.SetKey)
		},
		Present: func() error {
			if emu.Dirty() {
				win.Draw(emu.Framebuffer())
				emu.MarkClean()
			} else {
				win.Update()
			}
			if beeper != nil {
				beeper.Update(emu.SoundActive())
			}
			return nil
		},
	})
	if err != nil {
		var e *cpu.Error
		if errors.As(err, &e) {
			log.Printf("halted at %#04x: %v", e.PC, e.Err)
		}
		return errors.Wrap(err, "emulation stopped")
	}

	log.Printf("stopped after %d frames (%.0f instructions/s)", pacer.Frames(), pacer.Frequency())
	return nil
}
