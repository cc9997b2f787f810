package main

import (
	"github.com/spf13/cobra"

	"opactx/internal/build"
)

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <bundle> [path]",
		Short: "Summarize a bundle and optionally print one value",
		Long: `Read the manifest and data.json of a bundle directory and list the top-level
context keys. A path selects a value to print, either as a JSON pointer into
data.json (/context/standards/env) or as a context path (context.standards).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := build.InspectOptions{BundleDir: args[0]}
			if len(args) == 2 {
				opts.Path = args[1]
			}

			res, err := a.runner(true).Inspect(cmd.Context(), opts)
			if err != nil {
				a.printf("FAIL %s\n", err)
				return &failure{err: err}
			}

			a.printf("Bundle:   %s\n", res.BundleDir)
			a.printf("Revision: %s\n", res.Manifest.Revision)

			if id, ok := res.Manifest.Metadata["build_id"]; ok {
				a.printf("Build:    %v\n", id)
			}

			a.printf("Data:     %d bytes\n", res.DataBytes)
			a.printf("Keys:\n")

			for _, key := range res.Keys {
				a.printf("  %s (%d)\n", key, res.Counts[key])
			}

			if res.Extracted {
				a.printf("\n%s (%s):\n%s\n", res.Path, res.ValueType, res.Preview)
			}

			return nil
		},
	}
}
