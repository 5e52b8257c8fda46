package section

import (
	"github.com/adam-bouafia/logpress/format"
)

// Slot kinds inside a template record.
const (
	slotLiteral  byte = 0
	slotVariable byte = 1
)

// SlotRecord is one template position on the wire: a literal referencing the
// token pool, or a variable referencing a column.
type SlotRecord struct {
	Literal   bool
	TokenRef  uint32 // token pool index, literal slots only
	SemType   format.SemanticType
	ColumnRef uint32 // dense global column index, variable slots only
}

// TemplateRecord is one template table entry.
type TemplateRecord struct {
	ID         uint32
	Synthetic  bool
	MatchCount uint64
	FirstLogID uint64
	Slots      []SlotRecord
}

// AppendTemplateTable serializes the template table section.
func AppendTemplateTable(buf []byte, records []TemplateRecord) []byte {
	buf = AppendUvarint(buf, uint64(len(records)))
	for _, r := range records {
		buf = AppendUvarint(buf, uint64(r.ID))
		flags := byte(0)
		if r.Synthetic {
			flags |= 1
		}
		buf = append(buf, flags)
		buf = AppendUvarint(buf, r.MatchCount)
		buf = AppendUvarint(buf, r.FirstLogID)
		buf = AppendUvarint(buf, uint64(len(r.Slots)))
		for _, s := range r.Slots {
			if s.Literal {
				buf = append(buf, slotLiteral)
				buf = AppendUvarint(buf, uint64(s.TokenRef))
			} else {
				buf = append(buf, slotVariable)
				buf = append(buf, byte(s.SemType))
				buf = AppendUvarint(buf, uint64(s.ColumnRef))
			}
		}
	}

	return buf
}

// ParseTemplateTable decodes the template table section at the cursor.
func ParseTemplateTable(c *Cursor) ([]TemplateRecord, error) {
	count := c.Uvarint()
	records := make([]TemplateRecord, 0, count)
	for i := uint64(0); i < count; i++ {
		var r TemplateRecord
		r.ID = uint32(c.Uvarint())
		r.Synthetic = c.Byte()&1 != 0
		r.MatchCount = c.Uvarint()
		r.FirstLogID = c.Uvarint()
		slotCount := c.Uvarint()
		r.Slots = make([]SlotRecord, 0, slotCount)
		for j := uint64(0); j < slotCount; j++ {
			var s SlotRecord
			switch c.Byte() {
			case slotLiteral:
				s.Literal = true
				s.TokenRef = uint32(c.Uvarint())
			default:
				s.SemType = format.SemanticType(c.Byte())
				s.ColumnRef = uint32(c.Uvarint())
			}
			r.Slots = append(r.Slots, s)
		}
		if c.Err() != nil {
			return nil, c.Err()
		}
		records = append(records, r)
	}

	return records, c.Err()
}

// AppendTokenPool serializes the deduplicated literal token pool.
func AppendTokenPool(buf []byte, pool []string) []byte {
	buf = AppendUvarint(buf, uint64(len(pool)))
	for _, s := range pool {
		buf = AppendString(buf, s)
	}

	return buf
}

// ParseTokenPool decodes the token pool section at the cursor.
func ParseTokenPool(c *Cursor) ([]string, error) {
	count := c.Uvarint()
	pool := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		pool = append(pool, c.String())
		if c.Err() != nil {
			return nil, c.Err()
		}
	}

	return pool, c.Err()
}

// DictionaryRecord binds a column to its string dictionary, entries in code
// order (code 0 is the reserved "unseen" sentinel and is not stored).
type DictionaryRecord struct {
	ColumnRef uint32
	Entries   []string
}

// AppendDictionaries serializes the dictionaries section.
func AppendDictionaries(buf []byte, dicts []DictionaryRecord) []byte {
	buf = AppendUvarint(buf, uint64(len(dicts)))
	for _, d := range dicts {
		buf = AppendUvarint(buf, uint64(d.ColumnRef))
		buf = AppendUvarint(buf, uint64(len(d.Entries)))
		for _, e := range d.Entries {
			buf = AppendString(buf, e)
		}
	}

	return buf
}

// ParseDictionaries decodes the dictionaries section at the cursor.
func ParseDictionaries(c *Cursor) ([]DictionaryRecord, error) {
	count := c.Uvarint()
	dicts := make([]DictionaryRecord, 0, count)
	for i := uint64(0); i < count; i++ {
		var d DictionaryRecord
		d.ColumnRef = uint32(c.Uvarint())
		entryCount := c.Uvarint()
		d.Entries = make([]string, 0, entryCount)
		for j := uint64(0); j < entryCount; j++ {
			d.Entries = append(d.Entries, c.String())
		}
		if c.Err() != nil {
			return nil, c.Err()
		}
		dicts = append(dicts, d)
	}

	return dicts, c.Err()
}
