package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/adam-bouafia/logpress/artifact"
	"github.com/adam-bouafia/logpress/column"
	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/errs"
	"github.com/adam-bouafia/logpress/section"
	"github.com/adam-bouafia/logpress/token"
)

// Record is one reconstructed log line plus its typed fields.
type Record struct {
	LogID      uint64
	TemplateID uint32
	Text       string
	// Severity is the line's severity keyword, empty when none was present.
	Severity string
	// TimestampMillis is the line's first timestamp, 0 when none was present.
	TimestampMillis int64
	// Variables are the line's variable values in slot order.
	Variables []string
}

// Engine evaluates predicates against one open artifact. It is stateless
// beyond the reader handle and safe for concurrent use.
type Engine struct {
	r *artifact.Reader
}

// New creates an engine over an open artifact.
func New(r *artifact.Reader) *Engine {
	return &Engine{r: r}
}

// Count answers count() from the header without touching blocks.
func (e *Engine) Count() (uint64, error) {
	return e.r.Count()
}

// Evaluate resolves a predicate to the sorted set of matching log-ids.
func (e *Engine) Evaluate(p Predicate) ([]uint64, error) {
	switch pred := p.(type) {
	case All:
		count, err := e.r.Count()
		if err != nil {
			return nil, err
		}
		ids := make([]uint64, count)
		for i := range ids {
			ids[i] = uint64(i)
		}

		return ids, nil

	case SeverityIn:
		return e.evalSeverity(pred)

	case TemplateIs:
		return e.evalTemplate(pred)

	case TimeRange:
		return e.evalTimeRange(pred)

	case ColumnEquals:
		return e.evalColumnEquals(pred)

	case And:
		return e.evalAnd(pred)

	case Or:
		var out []uint64
		for _, clause := range pred.Clauses {
			ids, err := e.Evaluate(clause)
			if err != nil {
				return nil, err
			}
			out = union(out, ids)
		}

		return out, nil

	default:
		return nil, fmt.Errorf("%w: %T", errs.ErrMalformedPredicate, p)
	}
}

func (e *Engine) evalSeverity(pred SeverityIn) ([]uint64, error) {
	wanted := normalizeSeverities(pred.Severities)
	indexes, err := e.r.Indexes()
	if err != nil {
		return nil, err
	}

	var out []uint64
	for _, posting := range indexes.Severity {
		if _, ok := wanted[posting.Severity]; ok {
			out = union(out, posting.LogIDs)
		}
	}

	return out, nil
}

func (e *Engine) evalTemplate(pred TemplateIs) ([]uint64, error) {
	records, err := e.r.Templates()
	if err != nil {
		return nil, err
	}
	if int(pred.TemplateID) >= len(records) {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownTemplate, pred.TemplateID)
	}

	indexes, err := e.r.Indexes()
	if err != nil {
		return nil, err
	}

	var out []uint64
	for id, tid := range indexes.TemplateOf {
		if tid == pred.TemplateID {
			out = append(out, uint64(id))
		}
	}

	return out, nil
}

func (e *Engine) evalTimeRange(pred TimeRange) ([]uint64, error) {
	since, until := pred.SinceMillis, pred.UntilMillis
	if until == 0 {
		until = math.MaxInt64
	}

	indexes, err := e.r.Indexes()
	if err != nil {
		return nil, err
	}
	records, err := e.r.Templates()
	if err != nil {
		return nil, err
	}

	bounds := make(map[uint32]section.TimestampRange, len(indexes.Timestamps))
	for _, r := range indexes.Timestamps {
		bounds[r.TemplateID] = r
	}

	members := templateMembers(indexes.TemplateOf)

	var out []uint64
	for _, rec := range records {
		ids := members[rec.ID]
		if len(ids) == 0 {
			continue
		}

		tsCols := timestampColumns(rec)
		if len(tsCols) == 0 {
			if rec.Synthetic && len(rec.Slots) == 1 {
				// Raw-template lines keep their whole text in one string
				// column; each is re-lexed for its timestamp.
				values, err := e.r.ColumnStrings(rec.Slots[0].ColumnRef)
				if err != nil {
					return nil, err
				}
				for rank, id := range ids {
					if rank >= len(values) {
						break
					}
					if ms, ok := firstTimestampInText(values[rank]); ok && ms >= since && ms <= until {
						out = append(out, id)
					}
				}

				continue
			}

			// A template can carry its timestamp as a literal when every
			// matching line shares it.
			if ms, ok := literalTimestamp(e.r, rec); ok && ms >= since && ms <= until {
				out = append(out, ids...)
			}

			continue
		}

		// Prune by the stored bounds before decoding any column bytes.
		if b, ok := bounds[rec.ID]; ok && (b.Max < since || b.Min > until) {
			continue
		}

		values, err := e.r.TimestampMillis(tsCols[0])
		if err != nil {
			return nil, err
		}
		for rank, id := range ids {
			if rank < len(values) && values[rank] >= since && values[rank] <= until {
				out = append(out, id)
			}
		}
	}

	return sortIDs(out), nil
}

func (e *Engine) evalColumnEquals(pred ColumnEquals) ([]uint64, error) {
	desc, err := e.r.BlockDescriptor(pred.ColumnRef)
	if err != nil {
		return nil, err
	}

	// A dictionary-coded column whose dictionary contains none of the
	// literals matches nothing; the payload is never decoded.
	dict, hasDict, err := e.r.Dictionary(pred.ColumnRef)
	if err != nil {
		return nil, err
	}
	if hasDict {
		any := false
		for _, lit := range pred.Literals {
			if _, ok := column.DictionaryCode(dict, lit); ok {
				any = true

				break
			}
		}
		if !any {
			return nil, nil
		}
	}

	wanted := make(map[string]struct{}, len(pred.Literals))
	for _, lit := range pred.Literals {
		wanted[lit] = struct{}{}
	}

	values, err := e.r.ColumnStrings(pred.ColumnRef)
	if err != nil {
		return nil, err
	}

	indexes, err := e.r.Indexes()
	if err != nil {
		return nil, err
	}
	ids := templateMembers(indexes.TemplateOf)[desc.TemplateID]

	var out []uint64
	for rank, id := range ids {
		if rank >= len(values) {
			break
		}
		if _, ok := wanted[values[rank]]; ok {
			out = append(out, id)
		}
	}

	return out, nil
}

func (e *Engine) evalAnd(pred And) ([]uint64, error) {
	if len(pred.Clauses) == 0 {
		return e.Evaluate(All{})
	}

	results := make([][]uint64, 0, len(pred.Clauses))
	for _, clause := range pred.Clauses {
		ids, err := e.Evaluate(clause)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		results = append(results, ids)
	}

	sort.Slice(results, func(i, j int) bool { return len(results[i]) < len(results[j]) })
	out := results[0]
	for _, ids := range results[1:] {
		out = intersect(out, ids)
	}

	return out, nil
}

// Query evaluates a predicate and materializes up to limit matching records
// in log-id order. limit <= 0 means no limit.
func (e *Engine) Query(p Predicate, limit int) ([]Record, error) {
	if m := e.r.Metrics(); m != nil {
		m.QueryOps.Inc()
	}
	ids, err := e.Evaluate(p)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	return e.Materialize(ids)
}

// Materialize reconstructs the given log-ids. Only the columns backing the
// selected ids' templates are decoded.
func (e *Engine) Materialize(ids []uint64) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	indexes, err := e.r.Indexes()
	if err != nil {
		return nil, err
	}
	pool, err := e.r.TokenPool()
	if err != nil {
		return nil, err
	}

	members := templateMembers(indexes.TemplateOf)
	rankOf := make(map[uint64]int)
	needed := make(map[uint32]struct{})
	for _, id := range ids {
		if id >= uint64(len(indexes.TemplateOf)) {
			return nil, fmt.Errorf("%w: log id %d out of range", errs.ErrMalformedPredicate, id)
		}
		needed[indexes.TemplateOf[id]] = struct{}{}
	}
	for tid := range needed {
		for rank, id := range members[tid] {
			rankOf[id] = rank
		}
	}

	// Decode each needed template's variable columns once.
	columns := make(map[uint32][]string)
	templates := make(map[uint32]section.TemplateRecord)
	for tid := range needed {
		rec, err := e.r.Template(tid)
		if err != nil {
			return nil, err
		}
		templates[tid] = rec
		for _, s := range rec.Slots {
			if s.Literal {
				continue
			}
			values, err := e.r.ColumnStrings(s.ColumnRef)
			if err != nil {
				return nil, err
			}
			columns[s.ColumnRef] = values
		}
	}

	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		tid := indexes.TemplateOf[id]
		rec := templates[tid]
		rank := rankOf[id]

		r := Record{LogID: id, TemplateID: tid}
		var sb strings.Builder
		for _, s := range rec.Slots {
			if s.Literal {
				text := pool[s.TokenRef]
				sb.WriteString(text)
				if r.Severity == "" {
					if sev, ok := token.SeverityKeyword(text); ok {
						r.Severity = sev
					}
				}
				if r.TimestampMillis == 0 {
					if ms, ok := token.ParseTimestampMillis(text); ok {
						r.TimestampMillis = ms
					}
				}

				continue
			}

			values := columns[s.ColumnRef]
			if rank >= len(values) {
				return nil, fmt.Errorf("%w: column %d has %d values, need rank %d",
					errs.ErrRoundTripMismatch, s.ColumnRef, len(values), rank)
			}
			text := values[rank]
			sb.WriteString(text)
			r.Variables = append(r.Variables, text)

			switch s.SemType {
			case format.SemanticSeverity:
				if r.Severity == "" {
					r.Severity = text
				}
			case format.SemanticTimestamp:
				if r.TimestampMillis == 0 {
					if ms, ok := token.ParseTimestampMillis(text); ok {
						r.TimestampMillis = ms
					}
				}
			}
		}
		r.Text = sb.String()
		if rec.Synthetic {
			for _, tok := range token.Lex([]byte(r.Text)) {
				if r.Severity == "" {
					if sev, ok := token.SeverityKeyword(tok.Text); ok {
						r.Severity = sev
					}
				}
				if r.TimestampMillis == 0 && tok.Class == format.LexTimestamp && tok.NormOK {
					r.TimestampMillis = tok.NormInt
				}
			}
		}
		out = append(out, r)
	}

	return out, nil
}

// templateMembers inverts the per-log template vector into per-template
// sorted member lists.
func templateMembers(templateOf []uint32) map[uint32][]uint64 {
	out := make(map[uint32][]uint64)
	for id, tid := range templateOf {
		out[tid] = append(out[tid], uint64(id))
	}

	return out
}

// timestampColumns returns the column refs of a template's timestamp slots
// in position order.
func timestampColumns(rec section.TemplateRecord) []uint32 {
	var out []uint32
	for _, s := range rec.Slots {
		if !s.Literal && s.SemType == format.SemanticTimestamp {
			out = append(out, s.ColumnRef)
		}
	}

	return out
}

// firstTimestampInText lexes a reconstructed line and returns its first
// timestamp token's normalized value.
func firstTimestampInText(text string) (int64, bool) {
	for _, tok := range token.Lex([]byte(text)) {
		if tok.Class == format.LexTimestamp && tok.NormOK {
			return tok.NormInt, true
		}
	}

	return 0, false
}

// literalTimestamp scans a template's literal slots for a parseable
// timestamp shared by all matching lines.
func literalTimestamp(r *artifact.Reader, rec section.TemplateRecord) (int64, bool) {
	pool, err := r.TokenPool()
	if err != nil {
		return 0, false
	}
	for _, s := range rec.Slots {
		if !s.Literal {
			continue
		}
		if ms, ok := token.ParseTimestampMillis(pool[s.TokenRef]); ok {
			return ms, true
		}
	}

	return 0, false
}
