package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Overridden via -ldflags at release build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuiltAt   = "unknown"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version: %s\nCommit: %s\nBuilt At: %s\n", Version, GitCommit, BuiltAt)
	},
}

func init() {
	RootCmd.AddCommand(VersionCmd)
}
