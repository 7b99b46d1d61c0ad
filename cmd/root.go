package cmd

import (
	"fmt"
	"log"
	"os"

	"gojam/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gojam",
	Short: "GoJam is a music recognition and catalog service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting GoJam server...")
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
