package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"opactx/internal/value"
)

// Exec runs a command and decodes its standard output as JSON.
type Exec struct {
	dir  string
	args []string
	wait time.Duration
}

// NewExec builds an exec source from "cmd" (a list of strings) and optional
// "timeout_s". The command runs in the project directory.
func NewExec(projectDir string, with map[string]any) (Source, error) {
	args, ok := stringList(with["cmd"])
	if !ok || len(args) == 0 {
		return nil, errors.New("exec source requires cmd as a list of strings")
	}

	wait, err := timeout(with, TypeExec)
	if err != nil {
		return nil, err
	}

	return &Exec{dir: projectDir, args: args, wait: wait}, nil
}

// Fetch implements Source.
func (e *Exec) Fetch(ctx context.Context) (any, error) {
	if e.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.wait)

		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.args[0], e.args[1:]...)
	cmd.Dir = e.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return nil, fmt.Errorf("command failed with exit code %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("command %s: %w", e.args[0], ctx.Err())
		}

		return nil, fmt.Errorf("command %s: %w", e.args[0], err)
	}

	doc, err := value.DecodeJSON(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("command output is not valid JSON: %w", err)
	}

	return doc, nil
}

func stringList(raw any) ([]string, bool) {
	switch t := raw.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}

			out = append(out, s)
		}

		return out, true
	default:
		return nil, false
	}
}
