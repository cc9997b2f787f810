package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"opactx/internal/config"
	"opactx/internal/schemadsl"
	"opactx/internal/source"
)

// DefaultDebounce is how long Watch waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watch builds once, then rebuilds whenever a project input changes, until
// ctx is done. Inputs are the configuration, the context directory, the
// schema and local file sources; the output directory and compiled schema
// artifacts are ignored. onBuild receives every result.
func (r *Runner) Watch(ctx context.Context, opts Options, debounce time.Duration, onBuild func(*Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	projectDir, err := absDir(opts.ProjectDir)
	if err != nil {
		return err
	}

	opts.ProjectDir = projectDir

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	log := r.logger.With().Str("command", CommandBuild).Bool("watch", true).Logger()

	var ignored []string

	rebuild := func() {
		res, err := r.Build(ctx, opts)
		if onBuild != nil {
			onBuild(res, err)
		}

		dirs, skip := watchTargets(projectDir, opts)
		ignored = skip

		for _, dir := range dirs {
			if err := watcher.Add(dir); err != nil {
				log.Debug().Err(err).Str("dir", dir).Msg("cannot watch directory")
			}
		}
	}

	rebuild()

	log.Info().Str("project", projectDir).Msg("watching project for changes")

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if isIgnored(event.Name, ignored) {
				continue
			}

			log.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("project file changed")

			timer.Reset(debounce)

		case <-timer.C:
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			log.Error().Err(err).Msg("file watcher error")
		}
	}
}

// watchTargets returns the directories to watch and the paths whose
// changes must not trigger a rebuild.
func watchTargets(projectDir string, opts Options) (dirs, ignored []string) {
	dirs = []string{projectDir}
	ignored = []string{filepath.Join(projectDir, filepath.FromSlash(schemadsl.ArtifactDir))}

	cfg, err := config.Load(projectDir, opts.ConfigPath)
	if err != nil {
		return dirs, ignored
	}

	if opts.ConfigPath != "" {
		dirs = append(dirs, filepath.Dir(resolvePath(projectDir, opts.ConfigPath)))
	}

	dirs = append(dirs,
		cfg.ResolveContextDir(projectDir),
		filepath.Dir(cfg.ResolveSchemaPath(projectDir)),
	)

	for _, s := range cfg.Sources {
		if s.Type != source.TypeFile {
			continue
		}

		p, ok := s.With["path"].(string)
		if !ok || p == "" {
			continue
		}

		dirs = append(dirs, staticDir(resolvePath(projectDir, p)))
	}

	out := cfg.ResolveOutputDir(projectDir, opts.OutputDir)
	ignored = append(ignored, out, TarballPath(out))

	slices.Sort(dirs)

	return slices.Compact(dirs), ignored
}

// staticDir is the deepest directory of pattern above its first glob
// character.
func staticDir(pattern string) string {
	if i := strings.IndexAny(pattern, "*?[{"); i >= 0 {
		return filepath.Dir(pattern[:i])
	}

	return filepath.Dir(pattern)
}

// isIgnored reports whether path is an ignored path, lies below one or is a
// parent directory created on the way to one.
func isIgnored(path string, ignored []string) bool {
	sep := string(os.PathSeparator)

	for _, p := range ignored {
		if path == p || strings.HasPrefix(path, p+sep) || strings.HasPrefix(p, path+sep) {
			return true
		}
	}

	return false
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(base, path)
}
