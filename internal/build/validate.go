package build

import (
	"context"
	"fmt"
	"strings"

	"opactx/internal/config"
	"opactx/internal/diagnostic"
	"opactx/internal/match"
	"opactx/internal/schemadsl"
	"opactx/internal/transform"
	"opactx/internal/validator"
)

// Project checks run by Validate, in order.
const (
	CheckConfig      = "config"
	CheckSchema      = "schema"
	CheckIntent      = "intent"
	CheckPlugins     = "plugins"
	CheckSchemaCheck = "schema_check"
)

// maxListed bounds the violations listed in a schema_check failure.
const maxListed = 20

// SourcesRequiredWarning is reported when the intent alone only misses data
// that sources provide.
const SourcesRequiredWarning = "Schema requires data from sources; build may succeed only when sources are fetched."

// CheckStatus is the outcome of one project check.
type CheckStatus string

const (
	CheckOK      CheckStatus = "ok"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped"
	CheckPartial CheckStatus = "partial"
)

// Check is a named check and its outcome.
type Check struct {
	Name   string
	Status CheckStatus
}

// Report is the result of Validate.
type Report struct {
	OK     bool
	Checks []Check
	diagnostic.Diagnostics
}

// Status returns the status of a check, or "" when it did not run.
func (r *Report) Status(name string) CheckStatus {
	for _, c := range r.Checks {
		if c.Name == name {
			return c.Status
		}
	}

	return ""
}

func (r *Report) set(name string, status CheckStatus) {
	for i := range r.Checks {
		if r.Checks[i].Name == name {
			r.Checks[i].Status = status
			return
		}
	}

	r.Checks = append(r.Checks, Check{Name: name, Status: status})
}

func (r *Report) fail(check, code, message, path string) {
	r.OK = false
	r.set(check, CheckFailed)
	r.AddError(code, message, check, path)
}

// ValidateOptions configures Validate.
type ValidateOptions struct {
	ProjectDir string
	ConfigPath string
	// Strict turns unresolved plugins and source-dependent schema
	// violations into failures.
	Strict bool
	// SkipSchemaCheck skips validating the intent against the schema.
	SkipSchemaCheck bool
}

// Validate checks a project without fetching sources or writing anything.
// Checks stop at the first failure of config, schema or intent.
func (r *Runner) Validate(_ context.Context, opts ValidateOptions) *Report {
	report := &Report{OK: true}
	log := r.logger.With().Str("command", CommandValidate).Logger()

	projectDir, err := absDir(opts.ProjectDir)
	if err != nil {
		report.fail(CheckConfig, CodeConfig, err.Error(), "")
		return report
	}

	cfg, err := config.Load(projectDir, opts.ConfigPath)
	if err != nil {
		report.fail(CheckConfig, CodeConfig, err.Error(), "")
		return report
	}

	report.set(CheckConfig, CheckOK)

	schemaPath := cfg.ResolveSchemaPath(projectDir)

	schema, err := schemadsl.LoadCompiledSchema(projectDir, cfg.SchemaPath, false)
	if err != nil {
		report.fail(CheckSchema, CodeSchema, err.Error(), schemaPath)
		return report
	}

	report.set(CheckSchema, CheckOK)

	intent, err := config.LoadIntent(cfg.ResolveContextDir(projectDir))
	if err != nil {
		report.fail(CheckIntent, CodeIntent, err.Error(), "")
		return report
	}

	report.set(CheckIntent, CheckOK)

	r.checkPlugins(report, cfg, opts.Strict)

	if opts.SkipSchemaCheck {
		report.set(CheckSchemaCheck, CheckSkipped)
	} else {
		checkIntentSchema(report, schema, intent, opts.Strict)
	}

	for _, c := range report.Checks {
		if c.Status == CheckFailed {
			report.OK = false
		}
	}

	log.Debug().Bool("ok", report.OK).Int("errors", len(report.Errors)).Msg("validation finished")

	return report
}

// checkPlugins resolves every source type and transform. Unresolved entries
// are errors in strict mode and warnings otherwise.
func (r *Runner) checkPlugins(report *Report, cfg *config.Config, strict bool) {
	var unresolved diagnostic.Diagnostics

	add := func(code, message, path string) {
		if strict {
			unresolved.AddError(code, message, CheckPlugins, path)
		} else {
			unresolved.AddWarning(code, message, CheckPlugins, path)
		}
	}

	for i, s := range cfg.Sources {
		path := fmt.Sprintf("sources[%d]", i)

		switch {
		case s.Type == "":
			unresolved.AddError("empty_type", fmt.Sprintf("Source '%s' has an empty type.", s.Name), CheckPlugins, path)
		case !r.sources.Has(s.Type):
			add("unknown_source_type",
				fmt.Sprintf("Unknown source type: %s%s", s.Type, match.Hint(s.Type, r.sources.Types())), path)
		}
	}

	for i, t := range cfg.Transforms {
		path := fmt.Sprintf("transforms[%d]", i)

		switch {
		case t.Type == "":
			unresolved.AddError("empty_type", fmt.Sprintf("Transform '%s' has an empty type.", t.Name), CheckPlugins, path)
		case t.Type != transform.BuiltinType:
			add("unknown_transform_type", "Unknown transform type: "+t.Type, path)
		default:
			kind, err := transform.ParseKind(t.Name)
			if err != nil {
				add("unknown_transform", err.Error(), path)
			} else if !r.transforms.Has(kind) {
				add("unknown_transform", "Unknown builtin transform: "+t.Name, path)
			}
		}
	}

	report.Merge(unresolved)

	switch {
	case unresolved.HasErrors():
		report.OK = false
		report.set(CheckPlugins, CheckFailed)
	case unresolved.HasWarnings():
		report.set(CheckPlugins, CheckPartial)
	default:
		report.set(CheckPlugins, CheckOK)
	}
}

// checkIntentSchema validates {standards, exceptions, sources: {}} and
// separates violations that fetched sources may still satisfy.
func checkIntentSchema(report *Report, doc map[string]any, intent map[string]any, strict bool) {
	candidate := map[string]any{
		"standards":  intent["standards"],
		"exceptions": intent["exceptions"],
		"sources":    map[string]any{},
	}

	schema, err := validator.Compile(doc, "")
	if err != nil {
		report.fail(CheckSchemaCheck, CodeSchema, err.Error(), "")
		return
	}

	violations, err := schema.Validate(candidate)
	if err != nil {
		report.fail(CheckSchemaCheck, CodeSchema, err.Error(), "")
		return
	}

	if len(violations) == 0 {
		report.set(CheckSchemaCheck, CheckOK)
		return
	}

	sourceDependent, hard := validator.SplitBySource(violations)
	if len(hard) > 0 {
		report.fail(CheckSchemaCheck, CodeSchemaValidation, FormatViolations(hard.Messages()), "")
		return
	}

	if strict {
		report.fail(CheckSchemaCheck, CodeSchemaValidation, SourcesRequiredWarning, "")
		return
	}

	report.set(CheckSchemaCheck, CheckPartial)
	report.AddWarning("sources_required", SourcesRequiredWarning, CheckSchemaCheck, "")

	for _, v := range sourceDependent {
		report.AddInfo("source_dependent", v.String(), CheckSchemaCheck, v.Pointer())
	}
}

// FormatViolations renders "Schema validation failed:" followed by one
// "- line" per violation, listing at most 20 and summarizing the rest.
func FormatViolations(lines []string) string {
	var b strings.Builder

	b.WriteString("Schema validation failed:")

	for i, line := range lines {
		if i == maxListed {
			fmt.Fprintf(&b, "\n...and %d more", len(lines)-maxListed)
			break
		}

		b.WriteString("\n- ")
		b.WriteString(line)
	}

	return b.String()
}
