package cmd

import (
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/beanboi7/chyp8/emu/clock"
	"github.com/beanboi7/chyp8/emu/cpu"
)

// Config is the merged view of flags, environment and config file.
type Config struct {
	CyclesPerTick int    `mapstructure:"cycles-per-tick"`
	TickRate      int    `mapstructure:"tick-rate"`
	Scale         int    `mapstructure:"scale"`
	ShiftVY       bool   `mapstructure:"shift-vy"`
	Beep          string `mapstructure:"beep"`
	Trace         bool   `mapstructure:"trace"`
	Seed          int64  `mapstructure:"seed"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "read configuration")
	}
	return cfg, nil
}

// Options returns the engine options for cfg.
func (c Config) Options() cpu.Options {
	opts := cpu.Options{
		ShiftFromVY: c.ShiftVY,
		Seed:        c.Seed,
	}
	if c.Trace {
		opts.Trace = func(pc uint16, in cpu.Instruction) {
			log.Printf("%04x  %04X  %s", pc, in.Word, in)
		}
	}
	return opts
}

// Clock returns the pacing configuration for cfg.
func (c Config) Clock() clock.Config {
	return clock.Config{
		CyclesPerTick: c.CyclesPerTick,
		TickRate:      c.TickRate,
	}
}
