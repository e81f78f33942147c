package frontend

type (
	// Point is an abstract program location: the start or mid of a
	// statement or terminator.
	Point uint32
	// Origin is an inferred region.
	Origin uint32
	// Loan is an index into the body's borrow set.
	Loan uint32
)

// PointKind tells the two halves of a statement apart.
type PointKind string

const (
	PointStart PointKind = "start"
	PointMid   PointKind = "mid"
)

// RichLocation is the statement-level meaning of a Point.
type RichLocation struct {
	Kind      PointKind `json:"kind"`
	Block     uint32    `json:"block"`
	Statement uint32    `json:"statement"`
}

// Less orders locations by block, then statement.
func (l RichLocation) Less(o RichLocation) bool {
	if l.Block != o.Block {
		return l.Block < o.Block
	}
	return l.Statement < o.Statement
}

// LocationTable maps every point of a body to its rich location. The index
// of an entry is the point.
type LocationTable []RichLocation

// NewLocationTable builds the standard layout: every statement and every
// terminator gets a start point followed by a mid point, block by block.
func NewLocationTable(blockSizes []int) LocationTable {
	var t LocationTable
	for b, n := range blockSizes {
		for s := 0; s <= n; s++ {
			loc := RichLocation{Block: uint32(b), Statement: uint32(s)} // #nosec G115 -- sizes come from slice lengths
			loc.Kind = PointStart
			t = append(t, loc)
			loc.Kind = PointMid
			t = append(t, loc)
		}
	}
	return t
}

// Rich resolves p. ok is false for points outside the table.
func (t LocationTable) Rich(p Point) (RichLocation, bool) {
	if int(p) >= len(t) {
		return RichLocation{}, false
	}
	return t[p], true
}

// LocalAt pairs a local with a point.
type LocalAt struct {
	Local uint32 `json:"local"`
	Point Point  `json:"point"`
}

// Relations is the output of the borrow-fact solver for one body, plus the
// var_dropped_at input relation.
type Relations struct {
	VarLiveOnEntry       map[Point][]uint32            `json:"var_live_on_entry,omitempty"`
	VarDropLiveOnEntry   map[Point][]uint32            `json:"var_drop_live_on_entry,omitempty"`
	Subset               map[Point]map[Origin][]Origin `json:"subset,omitempty"`
	OriginLiveOnEntry    map[Point][]Origin            `json:"origin_live_on_entry,omitempty"`
	LoanLiveAt           map[Point][]Loan              `json:"loan_live_at,omitempty"`
	OriginContainsLoanAt map[Point]map[Origin][]Loan   `json:"origin_contains_loan_at,omitempty"`
	VarDroppedAt         []LocalAt                     `json:"var_dropped_at,omitempty"`
}

// DroppedLocals returns the set of locals with a drop obligation anywhere.
func (r *Relations) DroppedLocals() map[uint32]struct{} {
	out := make(map[uint32]struct{}, len(r.VarDroppedAt))
	for _, d := range r.VarDroppedAt {
		out[d.Local] = struct{}{}
	}
	return out
}
