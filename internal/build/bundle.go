package build

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"opactx/internal/value"
)

// Bundle file names.
const (
	DataFile     = "data.json"
	ManifestFile = ".manifest"
)

// PolicyPattern selects the policy files copied into the bundle when
// output.include_policy is set.
const PolicyPattern = "policy/**/*.rego"

// Manifest is the bundle's .manifest document. Fields are declared in key
// order so the encoding is sorted.
type Manifest struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	Revision string         `json:"revision"`
	Roots    []string       `json:"roots"`
}

type bundleSpec struct {
	projectDir    string
	dir           string
	data          []byte
	revision      string
	buildID       string
	clean         bool
	tarball       bool
	includePolicy bool
}

// writeBundle writes data.json, .manifest and, optionally, policy files and
// a tarball. It returns the bundle files relative to the bundle directory
// and the tarball path.
func writeBundle(spec bundleSpec) ([]string, string, error) {
	info, err := os.Stat(spec.dir)

	switch {
	case err == nil && !info.IsDir():
		return nil, "", fmt.Errorf("Output path is a file: %s", spec.dir)
	case err == nil && spec.clean:
		if err := os.RemoveAll(spec.dir); err != nil {
			return nil, "", err
		}
	case err != nil && !os.IsNotExist(err):
		return nil, "", err
	}

	if err := os.MkdirAll(spec.dir, 0o755); err != nil {
		return nil, "", err
	}

	if err := os.WriteFile(filepath.Join(spec.dir, DataFile), spec.data, 0o644); err != nil {
		return nil, "", err
	}

	manifest := Manifest{
		Revision: spec.revision,
		Roots:    []string{DataFile},
		Metadata: map[string]any{"build_id": spec.buildID},
	}

	raw, err := value.StableJSON(manifest)
	if err != nil {
		return nil, "", err
	}

	if err := os.WriteFile(filepath.Join(spec.dir, ManifestFile), append(raw, '\n'), 0o644); err != nil {
		return nil, "", err
	}

	files := []string{DataFile, ManifestFile}

	if spec.includePolicy {
		copied, err := copyPolicies(spec.projectDir, spec.dir)
		if err != nil {
			return nil, "", err
		}

		files = append(files, copied...)
	}

	if !spec.tarball {
		return files, "", nil
	}

	archive := TarballPath(spec.dir)
	if err := writeTarball(spec.dir, archive); err != nil {
		return nil, "", err
	}

	return files, archive, nil
}

// TarballPath is the bundle directory with its extension replaced by .tar.gz.
func TarballPath(dir string) string {
	dir = filepath.Clean(dir)
	return strings.TrimSuffix(dir, filepath.Ext(dir)) + ".tar.gz"
}

func copyPolicies(projectDir, dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(projectDir), PolicyPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	for _, rel := range matches {
		data, err := os.ReadFile(filepath.Join(projectDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}

		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}

		if err := os.WriteFile(target, data, 0o644); err != nil {
			return nil, err
		}
	}

	slices.Sort(matches)

	return matches, nil
}

// writeTarball archives every regular file under dir, in sorted order, with
// names relative to dir.
func writeTarball(dir, archive string) (err error) {
	var files []string

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.Type().IsRegular() {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return err
	}

	slices.Sort(files)

	f, err := os.Create(archive)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for _, path := range files {
		if err := addToTar(tw, dir, path); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}

	return gz.Close()
}

func addToTar(tw *tar.Writer, dir, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return err
	}

	hdr.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(tw, src)

	return err
}
