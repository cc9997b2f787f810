package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostics holds everything reported by one or more checks.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a stable identifier for this kind of problem.
	Code string
	// Message is the human-readable description.
	Message string
	// Check names the check that produced the entry (if any).
	Check string
	// Path locates the problem in a file or document (if any).
	Path string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, check, path string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  message,
		Check:    check,
		Path:     path,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, check, path string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Check:    check,
		Path:     path,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, check, path string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Message:  message,
		Check:    check,
		Path:     path,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// HasWarnings returns true if there are any warning diagnostics.
func (d *Diagnostics) HasWarnings() bool {
	return len(d.Warnings) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// ForCheck returns the entries produced by check, in severity order.
func (d *Diagnostics) ForCheck(check string) []Diagnostic {
	var out []Diagnostic

	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, e := range group {
			if e.Check == check {
				out = append(out, e)
			}
		}
	}

	return out
}

// Messages returns the plain messages of the error diagnostics.
func (d *Diagnostics) Messages() []string {
	out := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		out = append(out, e.Message)
	}

	return out
}

// Error returns a combined error from all error diagnostics, or nil if valid.
// Only messages are joined, codes stay available on the entries.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	return errors.New(strings.Join(d.Messages(), "\n"))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Check != "" {
		prefix = append(prefix, "["+d.Check+"]")
	}

	if d.Path != "" {
		prefix = append(prefix, d.Path)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, d.Code)
	}

	if len(d.Suggestions) > 0 {
		msg += "; try " + strings.Join(d.Suggestions, ", ")
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
