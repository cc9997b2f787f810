package main

import (
	"github.com/spf13/cobra"
)

var (
	// Set via ldflags at build time
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			a.printf("opactx %s\n", version)
			a.printf("  commit:  %s\n", commit)
			a.printf("  built:   %s\n", buildDate)
		},
	}
}
