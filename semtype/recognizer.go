package semtype

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/adam-bouafia/logpress/internal/log"
	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/token"
)

// CustomRule is a (name, pattern, confidence) tuple registered by the
// caller. Pattern is an expr-lang boolean expression evaluated against the
// token's lexical class and raw text, so extension stays data-driven
// instead of requiring a subclass per rule.
//
// Available expression variables: Text (string), Class (string, the lexical
// class name such as "word" or "integer").
type CustomRule struct {
	Name       string
	Pattern    string
	Type       format.SemanticType
	Confidence float64
	// Before, when true, is evaluated ahead of the built-in table so it can
	// pre-empt a built-in classification for the same token.
	Before bool
}

type compiledRule struct {
	name       string
	typ        format.SemanticType
	confidence float64
	program    *vm.Program
}

type ruleEnv struct {
	Text  string
	Class string
}

// Recognizer is an immutable, ordered rule table. It is built once via
// NewRecognizer and never mutated afterward.
type Recognizer struct {
	before    []compiledRule
	builtin   []Rule
	after     []compiledRule
	threshold float64
}

// Option configures a Recognizer at construction time.
type Option func(*Recognizer)

// WithThreshold overrides τ, the minimum confidence required to win (default
// DefaultThreshold).
func WithThreshold(t float64) Option {
	return func(r *Recognizer) { r.threshold = t }
}

// WithCustomRules registers additional (name, pattern, confidence) tuples,
// each evaluated before or after the built-in table per its Before field.
func WithCustomRules(rules ...CustomRule) Option {
	return func(r *Recognizer) {
		for _, cr := range rules {
			program, err := expr.Compile(cr.Pattern, expr.Env(ruleEnv{}), expr.AsBool())
			if err != nil {
				log.Warn("semtype: dropping uncompilable custom rule", "name", cr.Name, "err", err)

				continue
			}
			compiled := compiledRule{name: cr.Name, typ: cr.Type, confidence: cr.Confidence, program: program}
			if cr.Before {
				r.before = append(r.before, compiled)
			} else {
				r.after = append(r.after, compiled)
			}
		}
	}
}

// NewRecognizer builds an immutable recognizer from the built-in rule table
// plus any registered custom rules.
func NewRecognizer(opts ...Option) *Recognizer {
	r := &Recognizer{
		builtin:   builtinRules(),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Classify assigns a semantic type and confidence to a token. It never
// fails; if no rule clears the threshold, the result is
// (SemanticUnknown, 0).
func (r *Recognizer) Classify(tok token.Token) (format.SemanticType, float64) {
	env := ruleEnv{Text: tok.Text, Class: tok.Class.String()}

	if t, c, ok := runCompiled(r.before, env); ok && c >= r.threshold {
		return t, c
	}
	for _, rule := range r.builtin {
		if rule.Confidence >= r.threshold && rule.Match(tok) {
			return rule.Type, rule.Confidence
		}
	}
	if t, c, ok := runCompiled(r.after, env); ok && c >= r.threshold {
		return t, c
	}

	return format.SemanticUnknown, 0
}

func runCompiled(rules []compiledRule, env ruleEnv) (format.SemanticType, float64, bool) {
	for _, rule := range rules {
		out, err := expr.Run(rule.program, env)
		if err != nil {
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return rule.typ, rule.confidence, true
		}
	}

	return format.SemanticUnknown, 0, false
}

// ClassifyLine classifies every token in a line, returning a parallel slice
// of semantic types.
func (r *Recognizer) ClassifyLine(toks []token.Token) []format.SemanticType {
	out := make([]format.SemanticType, len(toks))
	for i, tok := range toks {
		out[i], _ = r.Classify(tok)
	}

	return out
}

// String renders a summary of the rule table (rule counts and threshold)
// for debugging.
func (r *Recognizer) String() string {
	return fmt.Sprintf("Recognizer{before=%d builtin=%d after=%d threshold=%.2f}",
		len(r.before), len(r.builtin), len(r.after), r.threshold)
}
