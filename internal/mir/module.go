package mir

import (
	"maps"
	"slices"
)

// File holds the analyzed functions of one source file.
type File struct {
	Items []Function `json:"items"`
}

// Merge adds the functions of other. A function already present is replaced
// by the incoming one with the same FnID.
func (f *File) Merge(other File) {
	for _, fn := range other.Items {
		if i := slices.IndexFunc(f.Items, func(x Function) bool { return x.FnID == fn.FnID }); i >= 0 {
			f.Items[i] = fn
			continue
		}
		f.Items = append(f.Items, fn)
	}
}

// Crate maps file paths to their analyzed functions.
type Crate map[string]File

// Merge unions the files of other into c.
func (c Crate) Merge(other Crate) {
	for path, file := range other {
		cur := c[path]
		cur.Merge(file)
		c[path] = cur
	}
}

// Workspace maps crate names to crates.
type Workspace map[string]Crate

// Merge unions the crates of other into w. Merging is idempotent per
// function: re-merging a fragment replaces, never duplicates.
func (w Workspace) Merge(other Workspace) {
	for name, krate := range other {
		cur, ok := w[name]
		if !ok {
			cur = make(Crate, len(krate))
			w[name] = cur
		}
		cur.Merge(krate)
	}
}

// Clone returns a copy that shares no maps or slices with w. Functions
// themselves are immutable once produced and are shared.
func (w Workspace) Clone() Workspace {
	out := make(Workspace, len(w))
	for name, krate := range w {
		c := make(Crate, len(krate))
		for path, file := range krate {
			c[path] = File{Items: slices.Clone(file.Items)}
		}
		out[name] = c
	}
	return out
}

// FileCount returns the number of files with at least one function.
func (w Workspace) FileCount() int {
	n := 0
	for _, krate := range w {
		for _, file := range krate {
			if len(file.Items) > 0 {
				n++
			}
		}
	}
	return n
}

// FunctionCount returns the number of functions across all files.
func (w Workspace) FunctionCount() int {
	n := 0
	for _, krate := range w {
		for _, file := range krate {
			n += len(file.Items)
		}
	}
	return n
}

// Functions returns every function recorded for path across all crates, in
// crate-name order.
func (w Workspace) Functions(path string) []Function {
	var out []Function
	for _, name := range slices.Sorted(maps.Keys(w)) {
		if file, ok := w[name][path]; ok {
			out = append(out, file.Items...)
		}
	}
	return out
}

// HasFile reports whether any crate recorded path.
func (w Workspace) HasFile(path string) bool {
	for _, krate := range w {
		if _, ok := krate[path]; ok {
			return true
		}
	}
	return false
}
