package main

import (
	"github.com/spf13/cobra"

	"opactx/internal/source"
	"opactx/internal/transform"
)

func (a *app) listPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-plugins",
		Short: "List source types and builtin transforms",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			a.printf("Sources:\n")

			for _, typ := range source.Builtins().Types() {
				a.printf("  %s\n", typ)
			}

			a.printf("Transforms (type: %s):\n", transform.BuiltinType)

			for _, name := range transform.Names() {
				a.printf("  %s\n", name)
			}
		},
	}
}
