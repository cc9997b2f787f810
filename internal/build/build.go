package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"opactx/internal/config"
	"opactx/internal/schemadsl"
	"opactx/internal/source"
	"opactx/internal/transform"
	"opactx/internal/validator"
	"opactx/internal/value"
)

// Options configures a build.
type Options struct {
	// ProjectDir holds opactx.yaml; the working directory when empty.
	ProjectDir string
	// ConfigPath overrides opactx.yaml.
	ConfigPath string
	// OutputDir overrides output.dir from the configuration.
	OutputDir string
	// Clean removes the output directory before writing.
	Clean bool
	// DryRun runs every stage except write_bundle.
	DryRun bool
}

// Result describes a finished build.
type Result struct {
	RunID      string
	ProjectDir string
	SchemaPath string
	OutputDir  string
	// Revision is the hex SHA-256 of data.json.
	Revision string
	// Files lists the bundle files relative to OutputDir.
	Files []string
	// Tarball is the archive path when output.tarball is set.
	Tarball string
	Written bool
	Context map[string]any
}

// Build runs the build pipeline. On failure the error is a *StageError and
// the partial result is still returned.
func (r *Runner) Build(ctx context.Context, opts Options) (res *Result, err error) {
	res = &Result{RunID: uuid.NewString()}

	log := r.logger.With().
		Str("command", CommandBuild).
		Str("run_id", res.RunID).
		Logger()

	var dataSize int

	defer func() {
		if r.metrics != nil {
			r.metrics.ObserveBuild(err == nil, dataSize, r.now())
		}
	}()

	projectDir, err := absDir(opts.ProjectDir)
	if err != nil {
		return res, stageError(StageLoadConfig, "", err)
	}

	res.ProjectDir = projectDir

	log.Info().Str("project", projectDir).Bool("dry_run", opts.DryRun).Msg("build started")

	var (
		cfg       *config.Config
		intent    map[string]any
		sources   map[string]any
		canonical map[string]any
	)

	err = r.stage(log, CommandBuild, StageLoadConfig, func() (Status, error) {
		var loadErr error

		cfg, loadErr = config.Load(projectDir, opts.ConfigPath)

		return StatusSuccess, loadErr
	})
	if err != nil {
		return res, err
	}

	res.SchemaPath = cfg.ResolveSchemaPath(projectDir)
	res.OutputDir = cfg.ResolveOutputDir(projectDir, opts.OutputDir)

	err = r.stage(log, CommandBuild, StageLoadIntent, func() (Status, error) {
		var loadErr error

		intent, loadErr = config.LoadIntent(cfg.ResolveContextDir(projectDir))

		return StatusSuccess, loadErr
	})
	if err != nil {
		return res, err
	}

	err = r.stage(log, CommandBuild, StageFetchSources, func() (Status, error) {
		var fetchErr error

		sources, fetchErr = r.fetchSources(ctx, log, projectDir, cfg.Sources)

		return StatusSuccess, fetchErr
	})
	if err != nil {
		return res, err
	}

	err = r.stage(log, CommandBuild, StageNormalize, func() (Status, error) {
		var runErr error

		canonical, runErr = r.normalize(ctx, log, projectDir, cfg, intent, sources)

		return StatusSuccess, runErr
	})
	if err != nil {
		return res, err
	}

	res.Context = canonical

	err = r.stage(log, CommandBuild, StageValidateSchema, func() (Status, error) {
		return StatusSuccess, r.validateContext(projectDir, cfg.SchemaPath, res.SchemaPath, canonical)
	})
	if err != nil {
		return res, err
	}

	data, err := value.StableJSON(map[string]any{"context": canonical})
	if err != nil {
		return res, stageError(StageWriteBundle, "", err)
	}

	data = append(data, '\n')
	sum := sha256.Sum256(data)
	res.Revision = hex.EncodeToString(sum[:])

	err = r.stage(log, CommandBuild, StageWriteBundle, func() (Status, error) {
		if opts.DryRun {
			return StatusSkipped, nil
		}

		files, tarball, writeErr := writeBundle(bundleSpec{
			projectDir:    projectDir,
			dir:           res.OutputDir,
			data:          data,
			revision:      res.Revision,
			buildID:       res.RunID,
			clean:         opts.Clean,
			tarball:       cfg.Output.Tarball,
			includePolicy: cfg.Output.IncludePolicy,
		})
		if writeErr != nil {
			return StatusFailed, fmt.Errorf("Failed to write bundle: %w", writeErr)
		}

		res.Files = files
		res.Tarball = tarball
		res.Written = true
		dataSize = len(data)

		r.emit(Event{
			Kind:    BundleWritten,
			Command: CommandBuild,
			Stage:   StageWriteBundle,
			Path:    res.OutputDir,
			Size:    len(data),
			Details: files,
		})

		return StatusSuccess, nil
	})
	if err != nil {
		return res, err
	}

	log.Info().
		Str("revision", res.Revision).
		Str("out_dir", res.OutputDir).
		Bool("written", res.Written).
		Msg("build completed")

	return res, nil
}

func (r *Runner) fetchSources(
	ctx context.Context,
	log zerolog.Logger,
	projectDir string,
	specs []config.Source,
) (map[string]any, error) {
	out := make(map[string]any, len(specs))

	for _, s := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		note := source.Note(s.Type, s.With)
		started := time.Now()

		payload, size, err := r.sources.Fetch(ctx, s.Type, projectDir, s.With)
		elapsed := time.Since(started)

		if r.metrics != nil {
			r.metrics.ObserveSource(s.Name, s.Type, size, err)
		}

		if err != nil {
			r.emit(Event{
				Kind:     SourceFailed,
				Command:  CommandBuild,
				Stage:    StageFetchSources,
				Status:   StatusFailed,
				Duration: elapsed,
				Name:     s.Name,
				Note:     note,
				Message:  err.Error(),
			})

			return nil, fmt.Errorf("source %q: %w", s.Name, err)
		}

		out[s.Name] = payload

		r.emit(Event{
			Kind:     SourceFetched,
			Command:  CommandBuild,
			Stage:    StageFetchSources,
			Status:   StatusSuccess,
			Duration: elapsed,
			Name:     s.Name,
			Note:     note,
			Size:     size,
		})

		log.Debug().
			Str("source", s.Name).
			Str("type", s.Type).
			Int("bytes", size).
			Dur("duration", elapsed).
			Msg("source fetched")
	}

	return out, nil
}

func (r *Runner) normalize(
	ctx context.Context,
	log zerolog.Logger,
	projectDir string,
	cfg *config.Config,
	intent, sources map[string]any,
) (map[string]any, error) {
	engine := transform.NewEngine(
		transform.WithRegistry(r.transforms),
		transform.WithStepHook(r.stepHook(log, CommandBuild)),
	)

	canonical, err := engine.Run(ctx, cfg.Transforms, transform.Env{
		Intent:     intent,
		Sources:    sources,
		ProjectDir: projectDir,
		SchemaPath: cfg.SchemaPath,
	})
	if err != nil {
		return nil, err
	}

	if _, err := value.StableJSON(canonical); err != nil {
		return nil, fmt.Errorf("Canonical context is not JSON-serializable: %w", err)
	}

	return canonical, nil
}

// validateContext loads the configured schema (compiling DSL documents and
// emitting their artifact) and checks canonical against it.
func (r *Runner) validateContext(projectDir, schemaPath, resolved string, canonical map[string]any) error {
	doc, err := schemadsl.LoadCompiledSchema(projectDir, schemaPath, true)
	if err != nil {
		return err
	}

	r.emit(Event{Kind: SchemaLoaded, Command: CommandBuild, Stage: StageValidateSchema, Path: resolved})

	schema, err := validator.Compile(doc, "")
	if err != nil {
		return err
	}

	violations, err := schema.Validate(canonical)
	if err != nil {
		return err
	}

	if len(violations) > 0 {
		r.emit(Event{
			Kind:    SchemaViolations,
			Command: CommandBuild,
			Stage:   StageValidateSchema,
			Path:    resolved,
			Details: violations.Messages(),
		})

		return stageError(StageValidateSchema, CodeSchemaValidation,
			fmt.Errorf("Schema validation failed: %w", violations))
	}

	return nil
}

func absDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving project directory: %w", err)
	}

	return abs, nil
}

// IsStage reports whether err is a failure of the given stage.
func IsStage(err error, stage string) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
