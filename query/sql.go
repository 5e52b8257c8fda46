package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oarkflow/sqlparser"
	"github.com/oarkflow/sqlparser/ast"
	"github.com/oarkflow/sqlparser/lexer"

	"github.com/adam-bouafia/logpress/internal/errs"
	"github.com/adam-bouafia/logpress/token"
)

// ParseWhere compiles a SQL WHERE clause into a predicate tree. Recognized
// fields: severity (alias level), template_id (alias template), and
// timestamp (aliases ts, time). Timestamps accept either epoch-milliseconds
// or a quoted timestamp in a recognized layout.
//
//	severity IN ('ERROR', 'WARN') AND timestamp BETWEEN 1704067200000 AND 1704070800000
func ParseWhere(where string) (Predicate, error) {
	where = strings.TrimSpace(where)
	if where == "" {
		return All{}, nil
	}

	stmt, err := sqlparser.ParseStatement("SELECT * FROM logs WHERE " + quoteReservedFields(where))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedPredicate, err)
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok || sel.Where == nil {
		return nil, fmt.Errorf("%w: %q", errs.ErrMalformedPredicate, where)
	}

	return compileExpr(sel.Where)
}

// quoteReservedFields double-quotes the timestamp/time field names so the
// SQL lexer treats them as identifiers rather than type keywords. Words
// inside string literals are left untouched.
func quoteReservedFields(where string) string {
	var sb strings.Builder
	i := 0
	for i < len(where) {
		c := where[i]
		if c == '\'' || c == '"' {
			j := i + 1
			for j < len(where) && where[j] != c {
				j++
			}
			if j < len(where) {
				j++
			}
			sb.WriteString(where[i:j])
			i = j

			continue
		}
		if isIdentStart(c) {
			j := i + 1
			for j < len(where) && isIdentChar(where[j]) {
				j++
			}
			word := where[i:j]
			switch strings.ToLower(word) {
			case "timestamp", "time":
				sb.WriteByte('"')
				sb.WriteString(word)
				sb.WriteByte('"')
			default:
				sb.WriteString(word)
			}
			i = j

			continue
		}
		sb.WriteByte(c)
		i++
	}

	return sb.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func compileExpr(expr ast.Expr) (Predicate, error) {
	switch n := expr.(type) {
	case *ast.BinaryExpr:
		switch n.Op {
		case lexer.AND:
			left, err := compileExpr(n.Left)
			if err != nil {
				return nil, err
			}
			right, err := compileExpr(n.Right)
			if err != nil {
				return nil, err
			}

			return And{Clauses: []Predicate{left, right}}, nil
		case lexer.OR:
			left, err := compileExpr(n.Left)
			if err != nil {
				return nil, err
			}
			right, err := compileExpr(n.Right)
			if err != nil {
				return nil, err
			}

			return Or{Clauses: []Predicate{left, right}}, nil
		default:
			return compileComparison(n)
		}

	case *ast.InExpr:
		if n.Not {
			return nil, fmt.Errorf("%w: NOT IN is not supported", errs.ErrMalformedPredicate)
		}
		field, err := fieldName(n.Expr)
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(n.List))
		for _, item := range n.List {
			v, err := literalText(item)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		switch field {
		case "severity":
			return SeverityIn{Severities: values}, nil
		default:
			return nil, fmt.Errorf("%w: IN on field %q", errs.ErrUnknownField, field)
		}

	case *ast.BetweenExpr:
		if n.Not {
			return nil, fmt.Errorf("%w: NOT BETWEEN is not supported", errs.ErrMalformedPredicate)
		}
		field, err := fieldName(n.Expr)
		if err != nil {
			return nil, err
		}
		if field != "timestamp" {
			return nil, fmt.Errorf("%w: BETWEEN on field %q", errs.ErrUnknownField, field)
		}
		lo, err := timestampValue(n.Lo)
		if err != nil {
			return nil, err
		}
		hi, err := timestampValue(n.Hi)
		if err != nil {
			return nil, err
		}

		return TimeRange{SinceMillis: lo, UntilMillis: hi}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported expression %T", errs.ErrMalformedPredicate, expr)
	}
}

func compileComparison(n *ast.BinaryExpr) (Predicate, error) {
	field, value := n.Left, n.Right
	op := n.Op
	if _, err := fieldName(field); err != nil {
		// Allow the flipped form: literal op field.
		if _, ferr := fieldName(value); ferr != nil {
			return nil, err
		}
		field, value = value, field
		op = flipOp(op)
	}

	name, err := fieldName(field)
	if err != nil {
		return nil, err
	}

	switch name {
	case "severity":
		if op != lexer.EQ {
			return nil, fmt.Errorf("%w: severity supports = and IN only", errs.ErrMalformedPredicate)
		}
		v, err := literalText(value)
		if err != nil {
			return nil, err
		}

		return SeverityIn{Severities: []string{v}}, nil

	case "template_id":
		if op != lexer.EQ {
			return nil, fmt.Errorf("%w: template_id supports = only", errs.ErrMalformedPredicate)
		}
		v, err := literalText(value)
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: template id %q", errs.ErrMalformedPredicate, v)
		}

		return TemplateIs{TemplateID: uint32(id)}, nil

	case "timestamp":
		ms, err := timestampValue(value)
		if err != nil {
			return nil, err
		}
		switch op {
		case lexer.EQ:
			return TimeRange{SinceMillis: ms, UntilMillis: ms}, nil
		case lexer.GTE:
			return TimeRange{SinceMillis: ms}, nil
		case lexer.GT:
			return TimeRange{SinceMillis: ms + 1}, nil
		case lexer.LTE:
			return TimeRange{UntilMillis: ms}, nil
		case lexer.LT:
			return TimeRange{UntilMillis: ms - 1}, nil
		default:
			return nil, fmt.Errorf("%w: unsupported timestamp operator", errs.ErrMalformedPredicate)
		}

	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownField, name)
	}
}

func flipOp(op lexer.TokenType) lexer.TokenType {
	switch op {
	case lexer.GTE:
		return lexer.LTE
	case lexer.LTE:
		return lexer.GTE
	case lexer.GT:
		return lexer.LT
	case lexer.LT:
		return lexer.GT
	default:
		return op
	}
}

func fieldName(expr ast.Expr) (string, error) {
	switch n := expr.(type) {
	case *ast.Ident:
		return canonicalField(n.Unquoted)
	case *ast.QualifiedIdent:
		if len(n.Parts) > 0 {
			return canonicalField(n.Parts[len(n.Parts)-1].Unquoted)
		}
	}

	return "", fmt.Errorf("%w: expected a field name", errs.ErrMalformedPredicate)
}

func canonicalField(name string) (string, error) {
	switch strings.ToLower(name) {
	case "severity", "level":
		return "severity", nil
	case "template_id", "template":
		return "template_id", nil
	case "timestamp", "ts", "time":
		return "timestamp", nil
	default:
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownField, name)
	}
}

func literalText(expr ast.Expr) (string, error) {
	lit, ok := expr.(*ast.Literal)
	if !ok {
		return "", fmt.Errorf("%w: expected a literal, got %T", errs.ErrMalformedPredicate, expr)
	}
	raw := string(lit.Raw)
	if lit.Kind == lexer.STRING || lit.Kind == lexer.DQUOTE {
		if len(raw) >= 2 {
			quote := raw[0:1]
			raw = raw[1 : len(raw)-1]
			raw = strings.ReplaceAll(raw, quote+quote, quote)
		}
	}

	return raw, nil
}

func timestampValue(expr ast.Expr) (int64, error) {
	text, err := literalText(expr)
	if err != nil {
		return 0, err
	}
	if ms, perr := strconv.ParseInt(text, 10, 64); perr == nil {
		return ms, nil
	}
	if ms, ok := token.ParseTimestampMillis(text); ok {
		return ms, nil
	}

	return 0, fmt.Errorf("%w: timestamp %q", errs.ErrMalformedPredicate, text)
}
