package build

import (
	"context"
	"path/filepath"

	"opactx/internal/config"
	"opactx/internal/schemadsl"
)

// CompileOptions configures Compile.
type CompileOptions struct {
	ProjectDir string
	ConfigPath string
	// SchemaPath names the DSL or JSON schema; the configured schema when
	// empty.
	SchemaPath string
	// OutPath is where the compiled schema goes; build/schema/<stem>.json
	// when empty.
	OutPath string
}

// Compiled is the result of Compile.
type Compiled struct {
	SchemaPath string
	OutPath    string
	Schema     map[string]any
}

// Compile loads a schema (compiling DSL documents), checks it against the
// Draft 2020-12 meta-schema and writes it as indented JSON.
func (r *Runner) Compile(_ context.Context, opts CompileOptions) (*Compiled, error) {
	log := r.logger.With().Str("command", CommandCompile).Logger()

	projectDir, err := absDir(opts.ProjectDir)
	if err != nil {
		return nil, stageError(StageCompileSchema, "", err)
	}

	res := &Compiled{SchemaPath: opts.SchemaPath}

	if res.SchemaPath == "" {
		err := r.stage(log, CommandCompile, StageLoadConfig, func() (Status, error) {
			cfg, err := config.Load(projectDir, opts.ConfigPath)
			if err != nil {
				return StatusFailed, err
			}

			res.SchemaPath = cfg.SchemaPath

			return StatusSuccess, nil
		})
		if err != nil {
			return res, err
		}
	}

	err = r.stage(log, CommandCompile, StageCompileSchema, func() (Status, error) {
		doc, err := schemadsl.LoadCompiledSchema(projectDir, res.SchemaPath, false)
		res.Schema = doc

		return StatusSuccess, err
	})
	if err != nil {
		return res, err
	}

	res.OutPath = opts.OutPath
	if res.OutPath == "" {
		res.OutPath = schemadsl.ArtifactPath(projectDir, res.SchemaPath)
	} else if !filepath.IsAbs(res.OutPath) {
		res.OutPath = filepath.Join(projectDir, res.OutPath)
	}

	err = r.stage(log, CommandCompile, StageWriteArtifact, func() (Status, error) {
		return StatusSuccess, schemadsl.WriteArtifact(res.OutPath, res.Schema)
	})

	return res, err
}
