// Package semtype implements the semantic type recognizer: a prioritized
// rule table that assigns an operator-level field kind to each token,
// beyond its lexical class.
package semtype

import (
	"strconv"
	"strings"

	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/token"
)

// DefaultThreshold is the minimum confidence for a rule to win; below it
// the token is classified UNKNOWN.
const DefaultThreshold = 0.7

// Rule is a predicate over a single token yielding a (type, confidence)
// pair. Built-in rules wrap lexical classes and keyword sets; custom rules
// are registered as ordered data, never as subclasses.
type Rule struct {
	Name       string
	Type       format.SemanticType
	Confidence float64
	Match      func(tok token.Token) bool
}

func builtinRules() []Rule {
	return []Rule{
		{Name: "timestamp", Type: format.SemanticTimestamp, Confidence: 0.95, Match: func(t token.Token) bool {
			return t.Class == format.LexTimestamp
		}},
		{Name: "ipv4", Type: format.SemanticIPv4, Confidence: 0.95, Match: func(t token.Token) bool {
			return t.Class == format.LexIPv4
		}},
		{Name: "ipv6", Type: format.SemanticIPv6, Confidence: 0.95, Match: func(t token.Token) bool {
			return t.Class == format.LexIPv6
		}},
		{Name: "severity", Type: format.SemanticSeverity, Confidence: 0.95, Match: func(t token.Token) bool {
			return t.Class == format.LexSeverity
		}},
		{Name: "url", Type: format.SemanticURL, Confidence: 0.95, Match: func(t token.Token) bool {
			return t.Class == format.LexURL
		}},
		{Name: "path", Type: format.SemanticPath, Confidence: 0.95, Match: func(t token.Token) bool {
			return t.Class == format.LexPath
		}},
		{Name: "uuid", Type: format.SemanticUUID, Confidence: 0.95, Match: func(t token.Token) bool {
			return t.Class == format.LexUUID
		}},
		{Name: "hex_id", Type: format.SemanticHexID, Confidence: 0.9, Match: func(t token.Token) bool {
			return t.Class == format.LexHex
		}},
		{Name: "duration", Type: format.SemanticDuration, Confidence: 0.8, Match: func(t token.Token) bool {
			return (t.Class == format.LexInteger || t.Class == format.LexFloat) && hasDurationSuffix(t.Text)
		}},
		{Name: "byte_count", Type: format.SemanticByteCount, Confidence: 0.8, Match: func(t token.Token) bool {
			return (t.Class == format.LexInteger || t.Class == format.LexFloat) && hasByteSuffix(t.Text)
		}},
		{Name: "user_id", Type: format.SemanticUserID, Confidence: 0.75, Match: func(t token.Token) bool {
			return t.Class == format.LexWord && looksLikeUserID(t.Text)
		}},
		{Name: "numeric_id", Type: format.SemanticNumericID, Confidence: 0.85, Match: func(t token.Token) bool {
			return t.Class == format.LexInteger
		}},
		{Name: "float", Type: format.SemanticFloat, Confidence: 0.85, Match: func(t token.Token) bool {
			return t.Class == format.LexFloat
		}},
		{Name: "word", Type: format.SemanticWord, Confidence: 0.7, Match: func(t token.Token) bool {
			return t.Class == format.LexWord
		}},
	}
}

func hasDurationSuffix(s string) bool {
	for _, suf := range []string{"ms", "us", "ns", "s", "m", "h"} {
		if strings.HasSuffix(s, suf) {
			n := strings.TrimSuffix(s, suf)
			if _, err := strconv.ParseFloat(n, 64); err == nil {
				return true
			}
		}
	}

	return false
}

func hasByteSuffix(s string) bool {
	for _, suf := range []string{"B", "KB", "MB", "GB", "TB"} {
		if strings.HasSuffix(strings.ToUpper(s), suf) {
			return true
		}
	}

	return false
}

func looksLikeUserID(s string) bool {
	lower := strings.ToLower(s)

	return strings.HasPrefix(lower, "user") || strings.HasPrefix(lower, "uid")
}
