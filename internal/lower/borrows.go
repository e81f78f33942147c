package lower

import "owl/internal/frontend"

// Borrow is one loan: Borrowed is referenced, Assigned holds the reference.
type Borrow struct {
	Location frontend.Location
	Borrowed uint32
	Assigned uint32
	Mutable  bool
}

// BorrowMap indexes the body's borrow set by loan and by assigned local.
type BorrowMap struct {
	borrows    []Borrow
	byAssigned map[uint32][]frontend.Loan
}

// NewBorrowMap builds the map from the raw borrow set. The position of a
// borrow in the set is its loan id.
func NewBorrowMap(body *frontend.Body) *BorrowMap {
	m := &BorrowMap{
		borrows:    make([]Borrow, len(body.Borrows)),
		byAssigned: make(map[uint32][]frontend.Loan),
	}
	for i, raw := range body.Borrows {
		m.borrows[i] = Borrow{
			Location: raw.Location,
			Borrowed: raw.Borrowed,
			Assigned: raw.Assigned,
			Mutable:  raw.Mutable,
		}
		loan := frontend.Loan(i) // #nosec G115 -- bounded by slice length
		m.byAssigned[raw.Assigned] = append(m.byAssigned[raw.Assigned], loan)
	}
	return m
}

// Get returns the borrow behind loan.
func (m *BorrowMap) Get(loan frontend.Loan) (Borrow, bool) {
	if m == nil || int(loan) >= len(m.borrows) {
		return Borrow{}, false
	}
	return m.borrows[loan], true
}

// LocalBorrows returns the loans whose reference is assigned into local.
func (m *BorrowMap) LocalBorrows(local uint32) []frontend.Loan {
	if m == nil {
		return nil
	}
	return m.byAssigned[local]
}

// Len returns the number of loans.
func (m *BorrowMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.borrows)
}
