package main

import (
	"github.com/spf13/cobra"

	"opactx/internal/build"
)

func (a *app) compileCmd() *cobra.Command {
	var (
		project projectFlags
		opts    build.CompileOptions
	)

	cmd := &cobra.Command{
		Use:   "compile [schema]",
		Short: "Compile a schema DSL file to JSON Schema",
		Long: `Compile a schema DSL document (or check a JSON Schema) and write the result
as indented JSON. Without an argument the schema named in the config is used.
The output defaults to build/schema/<name>.json in the project.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ProjectDir = project.dir
			opts.ConfigPath = project.config

			if len(args) == 1 {
				opts.SchemaPath = args[0]
			}

			res, err := a.runner(false).Compile(cmd.Context(), opts)
			if err != nil {
				return &failure{err: err}
			}

			a.printf("Compiled %s to %s\n", res.SchemaPath, res.OutPath)

			return nil
		},
	}

	project.register(cmd)

	cmd.Flags().StringVarP(&opts.OutPath, "out", "o", "", "output file")

	return cmd
}
