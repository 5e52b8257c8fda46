// Package token defines the typed lexeme produced by the logpress tokenizer
// and the finite-state scanner that produces a token vector from a raw log
// line.
package token

import "github.com/adam-bouafia/logpress/format"

// Token is a typed lexeme with its raw text span and, for recognized
// lexical classes, a normalized value. Tokens are produced once per line
// and are never mutated after emission.
type Token struct {
	Class format.LexClass
	Text  string

	// NormInt/NormFloat hold the normalized numeric value for classes that
	// carry one (Integer, Float, Timestamp as epoch-milliseconds). NormOK
	// reports whether a normalized value was computed; callers must check it
	// before trusting NormInt/NormFloat.
	NormInt   int64
	NormFloat float64
	NormOK    bool
}

// Line is an ordered token sequence plus the originating byte span, kept
// only for debugging: the artifact never stores raw lines.
type Line struct {
	LogID  uint64
	Tokens []Token
	Raw    []byte
}

// Arity returns the token count of the line, used to bucket lines by shape
// during template mining.
func (l Line) Arity() int { return len(l.Tokens) }
