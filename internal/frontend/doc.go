// Package frontend describes what owl consumes from the compiler front end:
// per-function bodies with source spans, the borrow set, the location table
// and the relations computed by the borrow-fact solver. It also owns the
// newline-delimited JSON messages exchanged with analysis worker processes
// and the process stream that reads them.
package frontend
