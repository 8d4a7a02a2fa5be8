// Package storage locates and opens the spreadsheet an import reads, either on
// local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrSheetNotFound is returned when an input sheet cannot be located
var ErrSheetNotFound = errors.New("sheet not found")

// SheetNotFoundError lists every path that was tried
type SheetNotFoundError struct {
	Name  string
	Tried []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found (looked in: %s)", e.Name, strings.Join(e.Tried, ", "))
}

// Unwrap lets errors.Is match ErrSheetNotFound
func (e *SheetNotFoundError) Unwrap() error {
	return ErrSheetNotFound
}

// LocalSheetSource finds sheets on the local filesystem. A path that does not
// exist as given is retried by base name under each search directory.
type LocalSheetSource struct {
	searchDirs []string
	homeDir    func() (string, error)
}

// NewLocalSheetSource creates a source with the given fallback directories.
// A leading ~ in a directory expands to the user's home.
func NewLocalSheetSource(searchDirs []string) *LocalSheetSource {
	return &LocalSheetSource{
		searchDirs: searchDirs,
		homeDir:    os.UserHomeDir,
	}
}

// Resolve returns the first existing regular file for name
func (s *LocalSheetSource) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &SheetNotFoundError{Name: name}
	}

	candidates := []string{s.expand(name)}
	base := filepath.Base(name)
	for _, dir := range s.searchDirs {
		dir = s.expand(dir)
		if dir == "" {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, base))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", &SheetNotFoundError{Name: name, Tried: candidates}
}

// Open resolves name and opens it for reading
func (s *LocalSheetSource) Open(_ context.Context, name string) (string, io.ReadCloser, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return "", nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open sheet %s: %w", path, err)
	}
	return path, f, nil
}

func (s *LocalSheetSource) expand(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := s.homeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
