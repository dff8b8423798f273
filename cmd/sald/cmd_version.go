package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sald version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sald %s\n", version)
	},
}
