package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"opactx/internal/build"
)

func (a *app) validateCmd() *cobra.Command {
	var (
		project projectFlags
		opts    build.ValidateOptions
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the project without fetching sources",
		Long: `Validate the config, the schema, the intent files and the configured source
and transform types, then check the intent against the schema. Violations that
only concern data provided by sources make the schema check partial unless
--strict is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ProjectDir = project.dir
			opts.ConfigPath = project.config

			report := a.runner(true).Validate(cmd.Context(), opts)

			for _, check := range report.Checks {
				a.printf("%-7s %s\n", check.Status, check.Name)

				for _, d := range report.ForCheck(check.Name) {
					a.printf("        %s: %s\n", d.Severity, d.Message)
				}
			}

			if !report.OK {
				return &failure{err: errors.New("project is not valid")}
			}

			a.printf("Project is valid.\n")

			return nil
		},
	}

	project.register(cmd)

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on unresolved plugins and source-dependent violations")
	cmd.Flags().BoolVar(&opts.SkipSchemaCheck, "no-schema-check", false, "skip checking the intent against the schema")

	return cmd
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
