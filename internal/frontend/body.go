package frontend

// Span is a byte span in the front end's address space. Hidden spans come
// from code that does not appear in the source text, such as macro
// expansions and desugarings.
type Span struct {
	Lo     uint32 `json:"lo"`
	Hi     uint32 `json:"hi"`
	Hidden bool   `json:"hidden,omitempty"`
}

// OperandKind classifies how an assignment reads its right-hand side.
type OperandKind string

const (
	OperandMove  OperandKind = "move"
	OperandCopy  OperandKind = "copy"
	OperandRef   OperandKind = "ref"
	OperandOther OperandKind = "other"
)

// RawRvalue is the right-hand side of an assignment as the front end reports
// it. Local is the place read by move, copy and ref operands.
type RawRvalue struct {
	Kind    OperandKind `json:"kind"`
	Local   uint32      `json:"local"`
	Mutable bool        `json:"mutable,omitempty"`
	Region  uint32      `json:"region,omitempty"`
}

// StatementKind classifies a raw statement.
type StatementKind string

const (
	StatementAssign StatementKind = "assign"
	StatementOther  StatementKind = "other"
)

type RawStatement struct {
	Kind   StatementKind `json:"kind"`
	Span   Span          `json:"span"`
	Place  uint32        `json:"place,omitempty"`
	Rvalue *RawRvalue    `json:"rvalue,omitempty"`
}

// TerminatorKind classifies a raw terminator.
type TerminatorKind string

const (
	TerminatorDrop  TerminatorKind = "drop"
	TerminatorCall  TerminatorKind = "call"
	TerminatorOther TerminatorKind = "other"
)

// RawTerminator ends a raw block. For calls Place is the destination and
// FnSpan covers the whole call expression. Callee is informational.
type RawTerminator struct {
	Kind   TerminatorKind `json:"kind"`
	Span   Span           `json:"span"`
	Place  uint32         `json:"place,omitempty"`
	FnSpan Span           `json:"fn_span"`
	Callee string         `json:"callee,omitempty"`
}

type RawBlock struct {
	Statements []RawStatement `json:"statements"`
	Terminator *RawTerminator `json:"terminator,omitempty"`
}

// LocalDecl is the declared type of one local. Regions lists the inferred
// regions appearing in the type.
type LocalDecl struct {
	Ty      string   `json:"ty"`
	Regions []uint32 `json:"regions,omitempty"`
}

// DebugVar binds a user-visible name to a local. Constants have no local.
type DebugVar struct {
	Name  string `json:"name"`
	Local uint32 `json:"local"`
	Span  Span   `json:"span"`
	Const bool   `json:"const,omitempty"`
}

// Location addresses a statement (or the terminator, when Statement equals
// the number of statements) inside a block.
type Location struct {
	Block     uint32 `json:"block"`
	Statement uint32 `json:"statement"`
}

// RawBorrow is one entry of the borrow set. Its index is the loan id used by
// the relations. Borrowed is the local being referenced, Assigned the local
// that receives the reference.
type RawBorrow struct {
	Location Location `json:"location"`
	Mutable  bool     `json:"mutable,omitempty"`
	Borrowed uint32   `json:"borrowed"`
	Assigned uint32   `json:"assigned"`
	Region   uint32   `json:"region,omitempty"`
}

// Body is everything the front end reports for one function.
type Body struct {
	FnID   uint32 `json:"fn_id"`
	Name   string `json:"name,omitempty"`
	File   string `json:"file"`
	Offset uint32 `json:"offset,omitempty"`

	Locals    []LocalDecl `json:"locals"`
	DebugVars []DebugVar  `json:"debug_vars,omitempty"`
	Blocks    []RawBlock  `json:"blocks"`
	Borrows   []RawBorrow `json:"borrows,omitempty"`

	Locations LocationTable `json:"locations,omitempty"`
	Facts     Relations     `json:"facts"`
}

// BlockSizes returns the number of statements of every block.
func (b *Body) BlockSizes() []int {
	sizes := make([]int, len(b.Blocks))
	for i := range b.Blocks {
		sizes[i] = len(b.Blocks[i].Statements)
	}
	return sizes
}

// LocationTable returns the explicit table, or the standard layout derived
// from the blocks when the front end omitted it.
func (b *Body) LocationTable() LocationTable {
	if len(b.Locations) > 0 {
		return b.Locations
	}
	return NewLocationTable(b.BlockSizes())
}
