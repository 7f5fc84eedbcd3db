package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inference-sim/allocsim/sim"
)

// sizeCmd formats byte counts the way the simulator's diagnostics do
var sizeCmd = &cobra.Command{
	Use:   "size BYTES...",
	Short: "Format byte counts with binary units",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			n, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid byte count %q: %w", arg, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", arg, sim.FormatSize(n))
		}
		return nil
	},
}
