package section

import "github.com/adam-bouafia/logpress/internal/errs"

// SeverityPosting maps one severity value to the sorted log-ids carrying it.
type SeverityPosting struct {
	Severity string
	LogIDs   []uint64
}

// TimestampRange records the min/max epoch-millisecond bounds of one
// template's timestamp columns, used to prune range scans before any column
// bytes are decoded.
type TimestampRange struct {
	TemplateID uint32
	Min, Max   int64
}

// Indexes is the metadata index section: the per-log template vector, the
// severity postings, and the per-template timestamp bounds.
type Indexes struct {
	TemplateOf []uint32
	Severity   []SeverityPosting
	Timestamps []TimestampRange
}

// Bytes serializes the indexes section. The template vector is stored as
// (template-id, run-length) pairs, since logs arrive in template bursts;
// log-id postings are delta-coded: the ids are sorted ascending, so
// consecutive gaps varint-pack tightly.
func (x Indexes) Bytes() []byte {
	var buf []byte

	buf = AppendUvarint(buf, uint64(len(x.TemplateOf)))
	for i := 0; i < len(x.TemplateOf); {
		j := i + 1
		for j < len(x.TemplateOf) && x.TemplateOf[j] == x.TemplateOf[i] {
			j++
		}
		buf = AppendUvarint(buf, uint64(x.TemplateOf[i]))
		buf = AppendUvarint(buf, uint64(j-i))
		i = j
	}

	buf = AppendUvarint(buf, uint64(len(x.Severity)))
	for _, p := range x.Severity {
		buf = AppendString(buf, p.Severity)
		buf = AppendUvarint(buf, uint64(len(p.LogIDs)))
		prev := uint64(0)
		for i, id := range p.LogIDs {
			if i == 0 {
				buf = AppendUvarint(buf, id)
			} else {
				buf = AppendUvarint(buf, id-prev)
			}
			prev = id
		}
	}

	buf = AppendUvarint(buf, uint64(len(x.Timestamps)))
	for _, r := range x.Timestamps {
		buf = AppendUvarint(buf, uint64(r.TemplateID))
		buf = AppendVarint(buf, r.Min)
		buf = AppendVarint(buf, r.Max)
	}

	return buf
}

// ParseIndexes decodes the indexes section at the cursor.
func ParseIndexes(c *Cursor) (Indexes, error) {
	var x Indexes

	logCount := c.Uvarint()
	x.TemplateOf = make([]uint32, 0, logCount)
	for uint64(len(x.TemplateOf)) < logCount {
		tid := uint32(c.Uvarint())
		run := c.Uvarint()
		if c.Err() != nil {
			return Indexes{}, c.Err()
		}
		if run == 0 || uint64(len(x.TemplateOf))+run > logCount {
			return Indexes{}, errs.ErrInvalidIndexEntry
		}
		for k := uint64(0); k < run; k++ {
			x.TemplateOf = append(x.TemplateOf, tid)
		}
	}

	sevCount := c.Uvarint()
	x.Severity = make([]SeverityPosting, 0, sevCount)
	for i := uint64(0); i < sevCount; i++ {
		var p SeverityPosting
		p.Severity = c.String()
		idCount := c.Uvarint()
		p.LogIDs = make([]uint64, 0, idCount)
		prev := uint64(0)
		for j := uint64(0); j < idCount; j++ {
			delta := c.Uvarint()
			id := delta
			if j > 0 {
				id = prev + delta
			}
			p.LogIDs = append(p.LogIDs, id)
			prev = id
		}
		if c.Err() != nil {
			return Indexes{}, c.Err()
		}
		x.Severity = append(x.Severity, p)
	}

	tsCount := c.Uvarint()
	x.Timestamps = make([]TimestampRange, 0, tsCount)
	for i := uint64(0); i < tsCount; i++ {
		var r TimestampRange
		r.TemplateID = uint32(c.Uvarint())
		r.Min = c.Varint()
		r.Max = c.Varint()
		x.Timestamps = append(x.Timestamps, r)
	}

	return x, c.Err()
}
