package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"opactx/internal/build"
)

type projectFlags struct {
	dir    string
	config string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dir, "project", "p", ".", "project directory")
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "config file (default <project>/opactx.yaml)")
}

func (a *app) buildCmd() *cobra.Command {
	var (
		project projectFlags
		opts    build.Options
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the context bundle",
		Long: `Load the config and intent, fetch sources, apply transforms, validate the
context against the schema and write data.json and .manifest to the output
directory.

Examples:
  opactx build
  opactx build --dry-run
  opactx build --clean --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ProjectDir = project.dir
			opts.ConfigPath = project.config

			if watch {
				return a.watch(cmd.Context(), opts)
			}

			res, err := a.runner(false).Build(cmd.Context(), opts)
			if err != nil {
				return &failure{err: err}
			}

			if opts.DryRun {
				a.printf("Dry run: context is valid, revision %s\n", res.Revision)
				return nil
			}

			a.printf("Bundle written to %s (revision %s)\n", res.OutputDir, res.Revision)

			return nil
		},
	}

	project.register(cmd)

	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "output directory (overrides output.dir)")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "remove the output directory first")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate without writing the bundle")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when project files change")

	return cmd
}

// watch rebuilds until interrupted. Failed builds are reported and watching
// continues.
func (a *app) watch(ctx context.Context, opts build.Options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.runner(false).Watch(ctx, opts, build.DefaultDebounce, func(res *build.Result, err error) {
		if err != nil {
			a.printf("Build failed; waiting for changes\n")
			return
		}

		a.printf("Bundle written to %s (revision %s); waiting for changes\n", res.OutputDir, res.Revision)
	})
}
