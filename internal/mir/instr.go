package mir

import "owl/internal/source"

// RvalueKind classifies the right-hand side of an assignment.
type RvalueKind uint8

const (
	// RvalueNone is any right-hand side that is neither a move nor a borrow.
	RvalueNone RvalueKind = iota
	// RvalueMove moves a variable out.
	RvalueMove
	// RvalueBorrow takes a reference to a variable.
	RvalueBorrow
)

func (k RvalueKind) String() string {
	switch k {
	case RvalueMove:
		return "move"
	case RvalueBorrow:
		return "borrow"
	default:
		return "none"
	}
}

// Rvalue is the right-hand side of an assignment.
type Rvalue struct {
	Kind    RvalueKind   `json:"kind"`
	Target  VarHandle    `json:"target_local"`
	Range   source.Range `json:"range"`
	Mutable bool         `json:"mutable,omitempty"`
}

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtOther is an opaque statement that only carries a range.
	StmtOther StmtKind = iota
	// StmtAssign assigns to Target.
	StmtAssign
)

// Statement is one statement of a basic block.
type Statement struct {
	Kind   StmtKind     `json:"kind"`
	Target VarHandle    `json:"target_local"`
	Range  source.Range `json:"range"`
	Rvalue Rvalue       `json:"rval"`
}

// IsMove reports whether the statement moves a variable.
func (s *Statement) IsMove() bool {
	return s.Kind == StmtAssign && s.Rvalue.Kind == RvalueMove
}

// IsBorrow reports whether the statement borrows a variable.
func (s *Statement) IsBorrow() bool {
	return s.Kind == StmtAssign && s.Rvalue.Kind == RvalueBorrow
}
