package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"squeeze/internal/pipeline"
)

// File writes results to an output directory, or over the input when
// InPlace is set. Writes go through a temp file in the destination
// directory and are renamed into place.
type File struct {
	OutputDir string
	InPlace   bool
}

func (f File) Put(_ context.Context, src Source, res *pipeline.Result) (string, error) {
	destPath, err := f.resolveDestination(src)
	if err != nil {
		return "", err
	}
	destPath = withExtension(destPath, filepath.Ext(res.Name))

	// Nothing changed; leave the input alone.
	if f.InPlace && destPath == src.Path && res.Provenance == pipeline.ProvenanceOriginal {
		return destPath, nil
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(src.Path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := writeAtomic(destPath, res.Data, mode); err != nil {
		return "", err
	}

	if f.InPlace && destPath != src.Path {
		if err := os.Remove(src.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return destPath, err
		}
	}
	return destPath, nil
}

func (f File) resolveDestination(src Source) (string, error) {
	if f.InPlace {
		return src.Path, nil
	}
	if f.OutputDir == "" {
		return "", fmt.Errorf("output directory required when not writing in place")
	}

	destPath := filepath.Join(f.OutputDir, src.RelPath)
	if filepath.Clean(destPath) == filepath.Clean(src.Path) {
		return "", fmt.Errorf("output path resolves to input path; use in-place mode or a different output directory")
	}
	return destPath, nil
}

// withExtension swaps the extension of path for ext when they differ.
// Equivalent spellings such as .jpeg and .jpg are left alone.
func withExtension(path, ext string) string {
	if ext == "" {
		return path
	}
	cur := filepath.Ext(path)
	if sameExtension(cur, ext) {
		return path
	}
	return strings.TrimSuffix(path, cur) + ext
}

func sameExtension(a, b string) bool {
	norm := func(e string) string {
		e = strings.ToLower(e)
		switch e {
		case ".jpeg", ".jpe":
			return ".jpg"
		case ".tif":
			return ".tiff"
		}
		return e
	}
	return norm(a) == norm(b)
}

func writeAtomic(destPath string, data []byte, mode os.FileMode) error {
	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(destDir, "squeeze-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return replaceFile(tmpFile.Name(), destPath)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
