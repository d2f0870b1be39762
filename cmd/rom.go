package cmd

import (
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/beanboi7/chyp8/emu/cpu"
)

// loadEMU reads the ROM at path and returns an engine with it loaded,
// along with the ROM size.
func loadEMU(path string, opts cpu.Options) (*cpu.EMU, int, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "read ROM %s", path)
	}

	emu := cpu.NewEMU(opts)
	if err := emu.LoadProgram(rom); err != nil {
		return nil, 0, errors.Wrapf(err, "load ROM %s", path)
	}
	log.Printf("loaded %s (%d bytes)", path, len(rom))
	return emu, len(rom), nil
}
