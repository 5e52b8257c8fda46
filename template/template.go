// Package template implements the two-phase template miner: bucketing log
// lines by shape, then inferring which token positions are variable,
// producing a dense set of templates and a per-line assignment.
package template

import "github.com/adam-bouafia/logpress/format"

// Slot is one position in a template: either a literal (fixed token shared
// by every matching line) or a variable (a semantically typed column
// reference).
type Slot struct {
	Position    int
	Literal     bool
	LiteralText string
	SemType     format.SemanticType
	// ColumnRef is assigned by the caller once the template set is final,
	// identifying the column that stores this slot's per-line values.
	ColumnRef int
}

// Template is a canonical sequence of literal and variable slots
// identifying a log shape. Templates are immutable after mining.
type Template struct {
	ID         int
	Arity      int
	Slots      []Slot
	MatchCount int
	FirstLogID uint64
	// Synthetic marks the fallback "raw" template used for lines that never
	// reach a real template's min_support; it stores each line's full text
	// in a single string column.
	Synthetic bool
}

// VariableSlots returns the subset of Slots that are variable, in position order.
func (t Template) VariableSlots() []Slot {
	var out []Slot
	for _, s := range t.Slots {
		if !s.Literal {
			out = append(out, s)
		}
	}

	return out
}

// Value is one variable occurrence: its raw text plus the normalized
// numeric form carried over from the token that produced it.
type Value struct {
	Text      string
	NormInt   int64
	NormFloat float64
	NormOK    bool
}

// Assignment is the per-line mining result: which template the line matched
// and the ordered values it contributed to that template's variable
// columns.
type Assignment struct {
	LogID      uint64
	TemplateID int
	Values     []Value
}
