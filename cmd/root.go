package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "chyp8 [command]",
	Short:        "Chip-8 emulator using Go",
	Long:         "A Chip-8 emulator written from scratch that mimics the functionalities of a Chip-8, an interpretted language originally written for the COSMAC VIP / Telmac 8 bit systems.",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chyp8)")
	flags.Int("cycles-per-tick", 10, "instructions executed per timer tick")
	flags.IntP("refresh", "r", 60, "timer and display refresh rate in Hz")
	flags.Int("scale", 10, "window pixels per Chip-8 pixel")
	flags.Bool("shift-vy", false, "SHR/SHL shift VY into VX (COSMAC behaviour)")
	flags.String("beep", "", "mp3 file played while the sound timer runs")
	flags.Bool("trace", false, "log every executed instruction")
	flags.Int64("seed", 0, "random seed for RND, 0 seeds from the clock")

	bind := map[string]string{
		"cycles-per-tick": "cycles-per-tick",
		"tick-rate":       "refresh",
		"scale":           "scale",
		"shift-vy":        "shift-vy",
		"beep":            "beep",
		"trace":           "trace",
		"seed":            "seed",
	}
	for key, flag := range bind {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Fatal(err)
		}
	}

	rootCmd.AddCommand(startCmd, debugCmd, disasmCmd, versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".chyp8" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".chyp8")
	}

	viper.SetEnvPrefix("chyp8")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Println("using config file:", viper.ConfigFileUsed())
	}
}
