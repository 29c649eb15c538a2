package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if long {
				fmt.Printf("snapsweep version %s (commit %s, built %s)\n", sweepVersion, sweepCommit, sweepDate)
				return nil
			}
			fmt.Printf("snapsweep version %s\n", sweepVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Include commit and build date")

	return cmd
}
