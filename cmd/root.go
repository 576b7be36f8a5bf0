package cmd

import (
	"fmt"
	"os"

	"MuseGen/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "musegen",
	Short: "MuseGen is an internal AI song generation service.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
