// Package mir holds the per-function analysis result: the control-flow
// skeleton with source ranges, and the per-variable range sets computed from
// the borrow facts.
package mir

import "fmt"

// VarHandle identifies a variable by its local slot and owning function.
type VarHandle struct {
	Local uint32 `json:"id"`
	Fn    uint32 `json:"fn_id"`
}

// NewVarHandle returns the handle of local in function fn.
func NewVarHandle(local, fn uint32) VarHandle {
	return VarHandle{Local: local, Fn: fn}
}

func (h VarHandle) String() string {
	return fmt.Sprintf("_%d@%d", h.Local, h.Fn)
}
