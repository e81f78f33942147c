package source

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"fortio.org/safecast"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileSet keeps the texts the analysis has seen, by path. Every Add creates a
// new version; lookups by path return the latest one.
type FileSet struct {
	mu    sync.RWMutex
	files []*File
	index map[string]FileID // path -> latest id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		index: make(map[string]FileID),
	}
}

// Add stores a new version of path and returns its id.
func (fileSet *FileSet) Add(path, content string, flags FileFlags) FileID {
	if strings.Contains(content, "\r") {
		flags |= FileHadCR
	}
	normalizedPath := NormalizePath(path)

	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()

	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(n)
	fileSet.files = append(fileSet.files, &File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads path from disk and adds it. A UTF-8 BOM is stripped, line
// endings are kept as they are.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := bytes.CutPrefix(content, utf8BOM)
	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	return fileSet.Add(path, string(content), flags), nil
}

// AddVirtual adds text that did not come from disk.
func (fileSet *FileSet) AddVirtual(name, content string) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file with the given id, or nil.
func (fileSet *FileSet) Get(id FileID) *File {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return fileSet.files[id]
}

// GetByPath returns the latest version of path.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if id, ok := fileSet.index[NormalizePath(path)]; ok {
		return fileSet.files[id], true
	}
	return nil, false
}

// Text returns the latest text of path, loading it from disk if the set has
// never seen it.
func (fileSet *FileSet) Text(path string) (*File, error) {
	if f, ok := fileSet.GetByPath(path); ok {
		return f, nil
	}
	id, err := fileSet.Load(path)
	if err != nil {
		return nil, err
	}
	return fileSet.Get(id), nil
}

// Forget drops the path so that the next Text call reloads it.
func (fileSet *FileSet) Forget(path string) {
	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()
	delete(fileSet.index, NormalizePath(path))
}
