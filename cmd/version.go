package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const (
	AppName    = "chyp8"
	AppVersion = "v0.2.0"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version())
	},
}

// Version returns program version information.
func Version() string {
	version := AppVersion
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	return fmt.Sprintf("%s %s", AppName, version)
}
