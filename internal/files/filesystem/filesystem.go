package filesystem

import (
	"io/fs"
)

type FileInfo = fs.FileInfo

// File is one entry found while walking a directory.
type File interface {
	// Path returns the path used to read the file.
	Path() string

	// RelativePath returns the slash-separated path below the walked root.
	RelativePath() string

	Info() FileInfo
}

// Directory is a root that can be walked.
type Directory interface {
	Path() string

	// Walk visits every entry below the root, directories included.
	// Returning an error from fn stops the walk.
	Walk(fn func(File, error) error) error
}

// FileSystemProvider opens directories and reads files.
type FileSystemProvider interface {
	// Open returns an error wrapping fs.ErrNotExist when path is missing.
	Open(path string) (Directory, error)

	ReadFile(path string) ([]byte, error)
}
