package decoration

import (
	"owl/internal/mir"
	"owl/internal/source"
)

// Position is a zero-based line/character pair.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// LineRange is a range in line/character coordinates.
type LineRange struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Item is a decoration with its range converted for an editor.
type Item struct {
	Kind       Kind          `json:"type"`
	Local      mir.VarHandle `json:"local"`
	Range      LineRange     `json:"range"`
	HoverText  string        `json:"hover_text"`
	Overlapped bool          `json:"overlapped"`
}

// Diagnostic is the editor diagnostic form of a decoration.
type Diagnostic struct {
	Range    LineRange `json:"range"`
	Severity Severity  `json:"severity"`
	Code     string    `json:"code"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
}

func lineRange(text string, r source.Range) LineRange {
	sl, sc := source.IndexToLineChar(text, r.From)
	el, ec := source.IndexToLineChar(text, r.Until)
	return LineRange{
		Start: Position{Line: sl, Character: sc},
		End:   Position{Line: el, Character: ec},
	}
}

// Item converts d against the text of its file.
func (d Deco) Item(text string) Item {
	return Item{
		Kind:       d.Kind,
		Local:      d.Local,
		Range:      lineRange(text, d.Range),
		HoverText:  d.HoverText,
		Overlapped: d.Overlapped,
	}
}

// Diagnostic converts d against the text of its file.
func (d Deco) Diagnostic(text string) Diagnostic {
	return Diagnostic{
		Range:    lineRange(text, d.Range),
		Severity: d.Severity(),
		Code:     d.Code(),
		Source:   "owl",
		Message:  d.HoverText,
	}
}

// Items converts every decoration.
func Items(text string, decos []Deco) []Item {
	out := make([]Item, len(decos))
	for i, d := range decos {
		out[i] = d.Item(text)
	}
	return out
}

// Diagnostics converts the decorations worth reporting.
func Diagnostics(text string, decos []Deco) []Diagnostic {
	var out []Diagnostic
	for _, d := range decos {
		if d.ShouldShow() {
			out = append(out, d.Diagnostic(text))
		}
	}
	return out
}
