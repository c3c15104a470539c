package main

import (
	"fmt"

	"github.com/aretw0/auticonnect"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of auticonnect",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "auticonnect version %s\n", auticonnect.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
