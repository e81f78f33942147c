package cache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ulikunitz/xz"
	"github.com/vmihailenco/msgpack/v5"
)

// FileBackend stores one msgpack file per crate, optionally xz-compressed.
// Thread-safe for concurrent access.
type FileBackend struct {
	mu       sync.RWMutex
	dir      string
	compress bool
}

// NewFileBackend returns a backend rooted at dir.
func NewFileBackend(dir string, compress bool) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir, compress: compress}, nil
}

// Dir returns the directory holding the crate files.
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) ext() string {
	if b.compress {
		return ".mp.xz"
	}
	return ".mp"
}

// pathFor escapes crate so that distinct names never share a file and no
// name leaves the directory.
func (b *FileBackend) pathFor(crate string) string {
	return filepath.Join(b.dir, url.QueryEscape(crate)+b.ext())
}

func (b *FileBackend) Load(crate string) (*Data, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	f, err := os.Open(b.pathFor(crate))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewData(), nil
		}
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if b.compress {
		if r, err = xz.NewReader(r); err != nil {
			return nil, err
		}
	}
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	data := NewData()
	if err := dec.Decode(data); err != nil {
		return nil, err
	}
	if data.Schema != SchemaVersion {
		return nil, ErrSchemaMismatch
	}
	if data.Entries == nil {
		data.Entries = NewData().Entries
	}
	return data, nil
}

func (b *FileBackend) Save(crate string, data *Data) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.pathFor(crate)
	f, err := os.CreateTemp(b.dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	w := bufio.NewWriter(f)
	var out io.Writer = w
	var xw *xz.Writer
	if b.compress {
		if xw, err = xz.NewWriter(w); err != nil {
			return err
		}
		out = xw
	}
	enc := msgpack.NewEncoder(out)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err = enc.Encode(data); err != nil {
		return err
	}
	if xw != nil {
		if err = xw.Close(); err != nil {
			return err
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), p)
}

func (b *FileBackend) Drop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".mp") || strings.HasSuffix(name, ".mp.xz")) {
			continue
		}
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *FileBackend) Close() error { return nil }

// Crates lists the stored crates and their function counts. Files written
// with the other compression setting are not listed.
func (b *FileBackend) Crates() (map[string]int, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]int{}, nil
		}
		return nil, err
	}
	out := make(map[string]int)
	for _, e := range entries {
		escaped, ok := strings.CutSuffix(e.Name(), b.ext())
		if e.IsDir() || !ok || escaped == "" {
			continue
		}
		crate, err := url.QueryUnescape(escaped)
		if err != nil {
			continue
		}
		data, err := b.Load(crate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out[crate] = data.Len()
	}
	return out, nil
}
