package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	errs "assetfetch/pkg/errors"
)

// Manager writes assets into a single output directory
type Manager struct {
	outputDir string
	extension string
}

// NewManager creates the output directory (and parents) if needed
func NewManager(outputDir, extension string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.New(errs.ErrorTypeStorage, 0, err, "failed to create output directory: %v", err)
	}

	return &Manager{
		outputDir: outputDir,
		extension: strings.TrimPrefix(extension, "."),
	}, nil
}

// AssetPath returns <outputDir>/<localID>.<extension>
func (m *Manager) AssetPath(localID string) string {
	return filepath.Join(m.outputDir, localID+"."+m.extension)
}

// Exists reports whether an asset for localID is already on disk
func (m *Manager) Exists(localID string) bool {
	info, err := os.Stat(m.AssetPath(localID))
	return err == nil && info.Mode().IsRegular()
}

// SaveAsset copies r verbatim to the asset path of localID, replacing any
// existing file. Data goes to a temporary file first, so a failed copy never
// leaves a partial or truncated asset behind.
func (m *Manager) SaveAsset(r io.Reader, localID string) (int64, error) {
	target := m.AssetPath(localID)

	out, err := os.CreateTemp(m.outputDir, "."+localID+".*.tmp")
	if err != nil {
		return 0, errs.New(errs.ErrorTypeStorage, 0, err, "failed to create temporary file: %v", err)
	}
	tempFile := out.Name()

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, errs.New(errs.ErrorTypeStorage, 0, err, "failed to write %s: %v", filepath.Base(target), err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errs.New(errs.ErrorTypeStorage, 0, closeErr, "failed to close file: %v", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return 0, errs.New(errs.ErrorTypeStorage, 0, err, "failed to set file mode: %v", err)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return 0, errs.New(errs.ErrorTypeStorage, 0, err, "failed to rename temporary file: %v", err)
	}

	return written, nil
}

// List returns the local ids of the assets present in the output directory
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	suffix := "." + m.extension
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(ids)

	return ids, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
