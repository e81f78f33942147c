package source

import "sync"

type (
	// FileID identifies one version of a file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks text that did not come from disk (editor buffer, test).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileHadCR
)

// File is one version of a source file as the analysis saw it. Content is
// kept verbatim: front-end byte positions refer to the raw text.
type File struct {
	ID      FileID
	Path    string
	Content string
	Flags   FileFlags

	indexOnce sync.Once
	index     *Index
}

// Index returns the byte-to-character table for the file, building it on
// first use.
func (f *File) Index() *Index {
	f.indexOnce.Do(func() {
		f.index = NewIndex(f.Content)
	})
	return f.index
}

// Position converts a zero-based line/character pair into a Loc.
func (f *File) Position(line, char uint32) Loc {
	return LineCharToIndex(f.Content, line, char)
}

// LineChar converts a Loc back into a zero-based line/character pair.
func (f *File) LineChar(loc Loc) (line, char uint32) {
	return IndexToLineChar(f.Content, loc)
}
