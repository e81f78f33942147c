package mir

import "owl/internal/source"

// Decl describes one variable of a function and the ranges computed for it.
// Name and Span are only set for user-named variables.
type Decl struct {
	Handle VarHandle    `json:"local"`
	Ty     string       `json:"ty"`
	User   bool         `json:"user,omitempty"`
	Name   string       `json:"name,omitempty"`
	Span   source.Range `json:"span"`

	Lives         []source.Range `json:"lives"`
	MustLiveAt    []source.Range `json:"must_live_at"`
	SharedBorrow  []source.Range `json:"shared_borrow"`
	MutableBorrow []source.Range `json:"mutable_borrow"`
	DropRange     []source.Range `json:"drop_range"`
	Drop          bool           `json:"drop"`
}

// Function is the analysis result for one function body.
type Function struct {
	FnID        uint32       `json:"fn_id"`
	BasicBlocks []BasicBlock `json:"basic_blocks"`
	Decls       []Decl       `json:"decls"`
}

// Decl returns the declaration of local, if any.
func (f *Function) Decl(local uint32) (*Decl, bool) {
	for i := range f.Decls {
		if f.Decls[i].Handle.Local == local {
			return &f.Decls[i], true
		}
	}
	return nil, false
}
