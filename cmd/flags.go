package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/inference-sim/allocsim/sim"
)

// flagsCmd prints the effective mode flags after --config and --set
var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Show the effective simulator mode flags",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		modes := sim.DefaultModes()
		configureModes(modes)
		printModes(os.Stdout, modes)
	},
}
