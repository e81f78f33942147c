package mir

// Visitor receives the parts of a function in a fixed order: the function,
// every declaration, then each block's statements followed by its
// terminator.
type Visitor interface {
	VisitFunc(fn *Function)
	VisitDecl(decl *Decl)
	VisitStmt(stmt *Statement)
	VisitTerm(term *Terminator)
}

// Walk drives v over fn.
func Walk(fn *Function, v Visitor) {
	if fn == nil || v == nil {
		return
	}
	v.VisitFunc(fn)
	for i := range fn.Decls {
		v.VisitDecl(&fn.Decls[i])
	}
	for i := range fn.BasicBlocks {
		bb := &fn.BasicBlocks[i]
		for j := range bb.Statements {
			v.VisitStmt(&bb.Statements[j])
		}
		if bb.Terminator != nil {
			v.VisitTerm(bb.Terminator)
		}
	}
}
