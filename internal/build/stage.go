package build

import (
	"errors"
)

// Command names.
const (
	CommandBuild    = "build"
	CommandValidate = "validate"
	CommandInspect  = "inspect"
	CommandCompile  = "compile"
)

// Stage identifiers.
const (
	StageLoadConfig     = "load_config"
	StageLoadIntent     = "load_intent"
	StageFetchSources   = "fetch_sources"
	StageNormalize      = "normalize"
	StageValidateSchema = "validate_schema"
	StageWriteBundle    = "write_bundle"

	StageOpenBundle   = "open_bundle"
	StageReadManifest = "read_manifest"
	StageReadData     = "read_data"
	StageSummarize    = "summarize_context"
	StageExtractPath  = "extract_path"

	StageCompileSchema = "compile_schema"
	StageWriteArtifact = "write_artifact"
)

// Error codes.
const (
	CodeConfig           = "config_error"
	CodeIntent           = "intent_error"
	CodeSource           = "source_error"
	CodeTransform        = "transform_error"
	CodeSchema           = "schema_error"
	CodeSchemaValidation = "schema_validation"
	CodeWrite            = "write_error"
	CodeBundleMissing    = "bundle_missing"
	CodeBundleType       = "bundle_type"
	CodeManifest         = "manifest_error"
	CodeData             = "data_error"
	CodePath             = "path_error"
)

var stageLabels = map[string]string{
	StageLoadConfig:     "Load config",
	StageLoadIntent:     "Load intent context",
	StageFetchSources:   "Fetch sources",
	StageNormalize:      "Normalize",
	StageValidateSchema: "Validate schema",
	StageWriteBundle:    "Write bundle",
	StageOpenBundle:     "Open bundle",
	StageReadManifest:   "Read manifest",
	StageReadData:       "Read data",
	StageSummarize:      "Summarize context",
	StageExtractPath:    "Extract path",
	StageCompileSchema:  "Compile schema",
	StageWriteArtifact:  "Write artifact",
}

// defaultCodes is the code a stage failure gets unless the stage says
// otherwise.
var defaultCodes = map[string]string{
	StageLoadConfig:     CodeConfig,
	StageLoadIntent:     CodeIntent,
	StageFetchSources:   CodeSource,
	StageNormalize:      CodeTransform,
	StageValidateSchema: CodeSchema,
	StageWriteBundle:    CodeWrite,
	StageOpenBundle:     CodeBundleMissing,
	StageReadManifest:   CodeManifest,
	StageReadData:       CodeData,
	StageSummarize:      CodeData,
	StageExtractPath:    CodePath,
	StageCompileSchema:  CodeSchema,
	StageWriteArtifact:  CodeWrite,
}

// Label returns the display label of a stage, or the id itself.
func Label(stage string) string {
	if l, ok := stageLabels[stage]; ok {
		return l
	}

	return stage
}

// Status is the outcome of a stage.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageError reports a failed stage. Its message is the cause's message.
type StageError struct {
	Stage string
	Code  string
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// stageError tags err with stage and code. An empty code means the stage's
// default; an error that already belongs to the stage is kept as is.
func stageError(stage, code string, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) && se.Stage == stage {
		return se
	}

	if code == "" {
		code = defaultCodes[stage]
	}

	return &StageError{Stage: stage, Code: code, Err: err}
}
