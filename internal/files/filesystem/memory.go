package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (f *memoryFileInfo) Name() string { return f.name }
func (f *memoryFileInfo) Size() int64  { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode {
	if f.isDir {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (f *memoryFileInfo) ModTime() time.Time { return time.Time{} }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryFile struct {
	absPath string
	relPath string
	info    *memoryFileInfo
}

func (f *memoryFile) Path() string         { return f.absPath }
func (f *memoryFile) RelativePath() string { return f.relPath }
func (f *memoryFile) Info() FileInfo       { return f.info }

type memoryDirectory struct {
	absPath string
	fs      *MemoryFileSystem
}

func (d *memoryDirectory) Path() string { return d.absPath }

// Walk visits entries in path order.
func (d *memoryDirectory) Walk(fn func(File, error) error) error {
	for _, entry := range d.fs.entriesUnder(d.absPath) {
		if err := fn(entry, nil); err != nil {
			return err
		}
	}
	return nil
}

// MemoryFileSystem is an in-memory tree with slash-separated absolute paths.
// Safe for concurrent use.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true},
	}
}

// AddFile stores content at p, creating parent directories.
func (m *MemoryFileSystem) AddFile(p, content string) {
	p = clean(p)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = []byte(content)
	for dir := path.Dir(p); !m.dirs[dir]; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
}

// AddDir creates an empty directory.
func (m *MemoryFileSystem) AddDir(p string) {
	p = clean(p)
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := p; !m.dirs[dir]; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
}

func (m *MemoryFileSystem) Open(p string) (Directory, error) {
	p = clean(p)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.dirs[p] {
		if _, isFile := m.files[p]; isFile {
			return nil, fmt.Errorf("%s is not a directory", p)
		}
		return nil, fmt.Errorf("open %s: %w", p, fs.ErrNotExist)
	}
	return &memoryDirectory{absPath: p, fs: m}, nil
}

func (m *MemoryFileSystem) ReadFile(p string) ([]byte, error) {
	p = clean(p)
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", p, fs.ErrNotExist)
	}
	return append([]byte(nil), content...), nil
}

func (m *MemoryFileSystem) entriesUnder(root string) []*memoryFile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := strings.TrimSuffix(root, "/") + "/"
	var entries []*memoryFile
	add := func(p string, info *memoryFileInfo) {
		rel := "."
		if p != root {
			if !strings.HasPrefix(p, prefix) {
				return
			}
			rel = strings.TrimPrefix(p, prefix)
		}
		entries = append(entries, &memoryFile{absPath: p, relPath: rel, info: info})
	}
	for dir := range m.dirs {
		add(dir, &memoryFileInfo{name: path.Base(dir), isDir: true})
	}
	for p, content := range m.files {
		add(p, &memoryFileInfo{name: path.Base(p), size: int64(len(content))})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].absPath < entries[j].absPath })
	return entries
}

func clean(p string) string {
	return path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
}

var _ FileSystemProvider = (*MemoryFileSystem)(nil)
