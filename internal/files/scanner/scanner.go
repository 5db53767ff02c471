package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/sparkify-data/sparkify-etl/internal/files/filesystem"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// Scanner is safe for concurrent use when its provider is.
type Scanner struct {
	extension  string
	fsProvider filesystem.FileSystemProvider
}

// NewScanner scans the OS filesystem for files ending in extension.
func NewScanner(extension string) *Scanner {
	return NewScannerWithFS(extension, filesystem.NewOSFileSystem())
}

// NewScannerWithFS scans fsProvider. Panics if fsProvider is nil.
// An extension without a leading dot gets one.
func NewScannerWithFS(extension string, fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if extension == "" {
		extension = sparkify.DefaultExtension
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return &Scanner{extension: strings.ToLower(extension), fsProvider: fsProvider}
}

// Scan returns every matching file below root. A missing root wraps
// sparkify.ErrDataDirNotFound; an existing root without matches yields an
// empty slice.
func (s *Scanner) Scan(root string) ([]sparkify.DataFile, error) {
	dir, err := s.fsProvider.Open(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", sparkify.ErrDataDirNotFound, root)
		}
		return nil, fmt.Errorf("failed to open %s: %w", root, err)
	}

	files := []sparkify.DataFile{}
	err = dir.Walk(func(file filesystem.File, err error) error {
		if err != nil {
			return fmt.Errorf("error walking %s: %w", root, err)
		}
		if !s.matches(file) {
			return nil
		}
		files = append(files, sparkify.DataFile{
			Path:         file.Path(),
			RelativePath: file.RelativePath(),
			SizeBytes:    file.Info().Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) ReadFile(p string) ([]byte, error) {
	return s.fsProvider.ReadFile(p)
}

func (s *Scanner) matches(file filesystem.File) bool {
	info := file.Info()
	if info.IsDir() || !info.Mode().IsRegular() {
		return false
	}
	name := info.Name()
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.ToLower(path.Ext(name)) == s.extension
}

var _ sparkify.FileScanner = (*Scanner)(nil)
