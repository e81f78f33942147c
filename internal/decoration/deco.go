// Package decoration picks the variable under the cursor and turns its
// ranges into the annotations shown in the editor.
package decoration

import (
	"fmt"

	"owl/internal/mir"
	"owl/internal/source"
)

// Kind is the closed set of decoration kinds.
type Kind uint8

const (
	KindLifetime Kind = iota
	KindImmBorrow
	KindMutBorrow
	KindMove
	KindCall
	KindSharedMut
	KindOutlive
)

type kindInfo struct {
	name     string
	code     string
	priority uint8
	severity Severity
}

// kinds is indexed by Kind. priority orders overlap resolution; a higher
// priority decoration clips the ones placed before it.
var kinds = [...]kindInfo{
	KindLifetime:  {"lifetime", "owl:lifetime", 0, SeverityHint},
	KindImmBorrow: {"imm_borrow", "owl:imm-borrow", 1, SeverityHint},
	KindMutBorrow: {"mut_borrow", "owl:mut-borrow", 2, SeverityInformation},
	KindMove:      {"move", "owl:move", 3, SeverityWarning},
	KindCall:      {"call", "owl:call", 4, SeverityInformation},
	KindSharedMut: {"shared_mut", "owl:shared-mut", 5, SeverityWarning},
	KindOutlive:   {"outlive", "owl:outlive", 6, SeverityError},
}

func (k Kind) info() kindInfo {
	if int(k) >= len(kinds) {
		panic(fmt.Sprintf("decoration: unknown kind %d", k))
	}
	return kinds[k]
}

func (k Kind) String() string { return k.info().name }

// Priority returns the kind's rank in overlap resolution.
func (k Kind) Priority() uint8 { return k.info().priority }

// MarshalText encodes the kind as its snake_case name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a snake_case kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for i := range kinds {
		if kinds[i].name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("decoration: unknown kind %q", b)
}

// Severity follows the LSP diagnostic severity numbering.
type Severity uint8

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Deco is one annotation. Overlapped is set once overlap resolution has
// clipped the decoration to a range shared with a higher-priority one.
type Deco struct {
	Kind       Kind          `json:"type" yaml:"type"`
	Local      mir.VarHandle `json:"local" yaml:"local"`
	Range      source.Range  `json:"range" yaml:"range"`
	HoverText  string        `json:"hover_text" yaml:"hover_text"`
	Overlapped bool          `json:"overlapped" yaml:"overlapped"`
}

// ShouldShow reports whether the decoration is actionable enough to be
// reported as a diagnostic. Lifetimes are too verbose.
func (d Deco) ShouldShow() bool { return d.Kind != KindLifetime }

func (d Deco) Severity() Severity { return d.Kind.info().severity }

// Code is the diagnostic code, such as "owl:move".
func (d Deco) Code() string { return d.Kind.info().code }

func (d Deco) withRange(r source.Range, overlapped bool) Deco {
	d.Range = r
	d.Overlapped = overlapped
	return d
}
