// Package cache keeps analyzed functions between runs, keyed by the hash of
// the file they live in and the hash of their region-erased body.
package cache

import (
	"errors"
	"fmt"

	"owl/internal/mir"
	"owl/internal/project"
)

// SchemaVersion is bumped whenever the stored layout changes. Data written
// under another schema is discarded on load.
const SchemaVersion uint16 = 1

// ErrSchemaMismatch reports a store written by an incompatible version.
var ErrSchemaMismatch = errors.New("cache: schema mismatch")

// Key addresses one cached function.
type Key struct {
	File project.Digest // hash of the source file text
	Body project.Digest // control-flow hash of the body
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.File.Short(), k.Body.Short())
}

// Data is the whole store of one crate: file hash -> body hash -> function.
type Data struct {
	Schema  uint16                             `msgpack:"schema"`
	Entries map[string]map[string]mir.Function `msgpack:"entries"`
}

// NewData returns an empty store of the current schema.
func NewData() *Data {
	return &Data{Schema: SchemaVersion, Entries: make(map[string]map[string]mir.Function)}
}

// Get looks up key.
func (d *Data) Get(key Key) (mir.Function, bool) {
	byBody, ok := d.Entries[key.File.String()]
	if !ok {
		return mir.Function{}, false
	}
	fn, ok := byBody[key.Body.String()]
	return fn, ok
}

// Put stores fn under key.
func (d *Data) Put(key Key, fn mir.Function) {
	fk := key.File.String()
	byBody := d.Entries[fk]
	if byBody == nil {
		byBody = make(map[string]mir.Function)
		d.Entries[fk] = byBody
	}
	byBody[key.Body.String()] = fn
}

// Len returns the number of stored functions.
func (d *Data) Len() int {
	n := 0
	for _, byBody := range d.Entries {
		n += len(byBody)
	}
	return n
}

// Backend persists per-crate stores.
type Backend interface {
	// Load returns the store of crate, or an empty store when nothing was
	// saved yet.
	Load(crate string) (*Data, error)
	Save(crate string, data *Data) error
	// Drop removes every stored crate.
	Drop() error
	Close() error
}

// Lister is implemented by backends that can enumerate their crates.
type Lister interface {
	Crates() (map[string]int, error)
}
