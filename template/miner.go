package template

import (
	"sort"
	"strings"

	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/hash"
	"github.com/adam-bouafia/logpress/semtype"
	"github.com/adam-bouafia/logpress/token"
)

// DefaultVariableThreshold is the distinct-value count at which a token
// position with a recognized semantic type becomes a variable candidate.
const DefaultVariableThreshold = 2

// DefaultMinSupport is the minimum group size required for a real
// (non-synthetic) template.
const DefaultMinSupport = 3

// Options configures Mine.
type Options struct {
	MinSupport  int
	VarThreshold int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{MinSupport: DefaultMinSupport, VarThreshold: DefaultVariableThreshold}
}

type lineInfo struct {
	logID int
	line  token.Line
	types []format.SemanticType
}

// Mine clusters token sequences of equal arity that differ only in variable
// positions, then infers which positions are variable and their semantic
// type. It is deterministic: the same input and options always yield the
// same templates and ids.
func Mine(lines []token.Line, recognizer *semtype.Recognizer, opts Options) ([]Template, []Assignment) {
	if opts.MinSupport <= 0 {
		opts.MinSupport = DefaultMinSupport
	}
	if opts.VarThreshold <= 0 {
		opts.VarThreshold = DefaultVariableThreshold
	}

	infos := make([]lineInfo, len(lines))
	buckets := map[shapeID][]int{} // shape -> line indices, insertion order
	var bucketOrder []shapeID

	for i, ln := range lines {
		types := recognizer.ClassifyLine(ln.Tokens)
		infos[i] = lineInfo{logID: i, line: ln, types: types}
		key := shapeOf(ln)
		if _, ok := buckets[key]; !ok {
			bucketOrder = append(bucketOrder, key)
		}
		buckets[key] = append(buckets[key], i)
	}

	type group struct {
		slots      []Slot
		arity      int
		members    []int
		firstLogID int
	}
	var groups []group
	var orphanMembers []int

	for _, key := range bucketOrder {
		members := buckets[key]
		arity := len(infos[members[0]].line.Tokens)

		variable := make([]bool, arity)
		semTypes := make([]format.SemanticType, arity)
		majorityText := make([]string, arity)

		for p := 0; p < arity; p++ {
			counts := map[string]int{}
			var firstSeenOrder []string
			typeCounts := map[format.SemanticType]int{}
			var typeOrder []format.SemanticType
			for _, idx := range members {
				text := infos[idx].line.Tokens[p].Text
				if _, ok := counts[text]; !ok {
					firstSeenOrder = append(firstSeenOrder, text)
				}
				counts[text]++
				tp := infos[idx].types[p]
				if _, ok := typeCounts[tp]; !ok {
					typeOrder = append(typeOrder, tp)
				}
				typeCounts[tp]++
			}
			distinct := len(counts)
			majority, majorityCount := "", -1
			for _, text := range firstSeenOrder {
				if counts[text] > majorityCount {
					majority, majorityCount = text, counts[text]
				}
			}
			majorityText[p] = majority

			// Ties break by first occurrence so mining stays deterministic.
			majorityType := format.SemanticUnknown
			bestTypeCount := -1
			for _, t := range typeOrder {
				if t == format.SemanticUnknown {
					continue
				}
				if typeCounts[t] > bestTypeCount {
					majorityType, bestTypeCount = t, typeCounts[t]
				}
			}
			semTypes[p] = majorityType

			bucketSize := len(members)
			// Rule A: a position with a recognized semantic type is variable
			// once it reaches the distinct-value threshold. Severity is
			// excluded: differing severities define different log forms, so
			// they split the bucket instead.
			ruleA := distinct >= opts.VarThreshold &&
				majorityType != format.SemanticUnknown && majorityType != format.SemanticSeverity
			// Rule B: any position, typed or not, whose distinct count
			// dominates the bucket is variable.
			ruleB := float64(distinct) > maxFloat(float64(opts.VarThreshold), float64(bucketSize)*0.5)
			variable[p] = ruleA || ruleB
		}

		// Split the bucket by the tuple of values at literal positions so
		// that every surviving group agrees on every literal slot.
		subgroups := map[string][]int{}
		var subgroupOrder []string
		for _, idx := range members {
			var sb strings.Builder
			for p := 0; p < arity; p++ {
				if !variable[p] {
					sb.WriteString(infos[idx].line.Tokens[p].Text)
					sb.WriteByte(0)
				}
			}
			k := sb.String()
			if _, ok := subgroups[k]; !ok {
				subgroupOrder = append(subgroupOrder, k)
			}
			subgroups[k] = append(subgroups[k], idx)
		}

		for _, k := range subgroupOrder {
			sub := subgroups[k]
			if len(sub) < opts.MinSupport {
				orphanMembers = append(orphanMembers, sub...)

				continue
			}

			slots := make([]Slot, arity)
			for p := 0; p < arity; p++ {
				if variable[p] {
					slots[p] = Slot{Position: p, Literal: false, SemType: semTypes[p]}
				} else {
					// Use this subgroup's own agreed value, not the
					// bucket-wide majority, since the subgroup may have
					// split off on a minority literal value.
					slots[p] = Slot{Position: p, Literal: true, LiteralText: infos[sub[0]].line.Tokens[p].Text}
				}
			}

			groups = append(groups, group{slots: slots, arity: arity, members: sub, firstLogID: sub[0]})
		}
	}

	// Canonicalize: merge groups whose literal-slot sequence and variable
	// position set are identical.
	canonicalOrder := []string{}
	canonicalMembers := map[string][]int{}
	canonicalSlots := map[string][]Slot{}
	for _, g := range groups {
		key := canonicalKey(g.slots)
		if _, ok := canonicalSlots[key]; !ok {
			canonicalOrder = append(canonicalOrder, key)
			canonicalSlots[key] = g.slots
		}
		canonicalMembers[key] = append(canonicalMembers[key], g.members...)
	}

	type templateBuild struct {
		key        string
		slots      []Slot
		members    []int
		firstLogID int
	}
	var builds []templateBuild
	for _, key := range canonicalOrder {
		members := canonicalMembers[key]
		sort.Ints(members)
		builds = append(builds, templateBuild{key: key, slots: canonicalSlots[key], members: members, firstLogID: members[0]})
	}

	hasOrphans := len(orphanMembers) > 0
	if hasOrphans {
		sort.Ints(orphanMembers)
		builds = append(builds, templateBuild{key: "__raw__", slots: nil, members: orphanMembers, firstLogID: orphanMembers[0]})
	}

	// Templates are assigned ids in the order their first-member log-id
	// appears.
	sort.Slice(builds, func(i, j int) bool { return builds[i].firstLogID < builds[j].firstLogID })

	templates := make([]Template, len(builds))
	assignByLogID := make([]Assignment, len(lines))
	for tid, b := range builds {
		synthetic := b.key == "__raw__"
		slots := b.slots
		if synthetic {
			slots = []Slot{{Position: 0, Literal: false, SemType: format.SemanticWord}}
		}

		templates[tid] = Template{
			ID:         tid,
			Arity:      len(slots),
			Slots:      slots,
			MatchCount: len(b.members),
			FirstLogID: uint64(b.firstLogID),
			Synthetic:  synthetic,
		}

		for _, idx := range b.members {
			if synthetic {
				assignByLogID[idx] = Assignment{
					LogID:      uint64(idx),
					TemplateID: tid,
					Values:     []Value{{Text: reconstructLine(infos[idx].line)}},
				}

				continue
			}

			var values []Value
			for p, slot := range templates[tid].Slots {
				if slot.Literal {
					continue
				}
				tok := infos[idx].line.Tokens[p]
				values = append(values, Value{Text: tok.Text, NormInt: tok.NormInt, NormFloat: tok.NormFloat, NormOK: tok.NormOK})
			}
			assignByLogID[idx] = Assignment{LogID: uint64(idx), TemplateID: tid, Values: values}
		}
	}

	return templates, assignByLogID
}

func reconstructLine(line token.Line) string {
	var sb strings.Builder
	for _, t := range line.Tokens {
		sb.WriteString(t.Text)
	}

	return sb.String()
}

// shapeID keys a bucket by arity plus the xxHash64 of the line's lexical
// class sequence. The arity is carried explicitly so a hash collision can
// never mix lines of different lengths; same-arity collisions only coarsen
// the clustering, which the literal-agreement split repairs.
type shapeID struct {
	arity int
	hash  uint64
}

func shapeOf(line token.Line) shapeID {
	var sb strings.Builder
	sb.Grow(len(line.Tokens))
	for _, t := range line.Tokens {
		sb.WriteByte(byte(t.Class))
	}

	return shapeID{arity: len(line.Tokens), hash: hash.ID(sb.String())}
}

func canonicalKey(slots []Slot) string {
	var sb strings.Builder
	sb.WriteString(itoa(len(slots)))
	for _, s := range slots {
		sb.WriteByte('|')
		if s.Literal {
			sb.WriteByte('L')
			sb.WriteString(s.LiteralText)
		} else {
			sb.WriteByte('V')
		}
	}

	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}

	return string(buf[i:])
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}

	return b
}
