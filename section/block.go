package section

import (
	"github.com/adam-bouafia/logpress/format"
)

// BlockDescriptor flag bits.
const (
	blockHasMinMax   byte = 1 << 0
	blockTSBracketed byte = 1 << 1
	blockHasLayout   byte = 1 << 2
)

// BlockDescriptor is the wire metadata preceding one column block's
// entropy-coded payload. The payload itself starts at the next 8-byte
// boundary after the descriptor.
type BlockDescriptor struct {
	ColumnRef  uint32
	TemplateID uint32
	Position   uint16
	SemType    format.SemanticType
	Codec      format.EncodingType
	Count      uint64
	RawSize    uint64
	CompSize   uint64
	HasMinMax  bool
	Min, Max   int64
	// TSLayout and TSBracketed reproduce the original textual rendering for
	// delta-coded timestamp columns.
	TSLayout    string
	TSBracketed bool
}

// AppendBlockDescriptor serializes the descriptor, then pads to BlockAlign
// relative to base so the payload that follows starts aligned. base is the
// absolute artifact offset at which buf began.
func AppendBlockDescriptor(buf []byte, base int, d BlockDescriptor) []byte {
	buf = AppendUvarint(buf, uint64(d.ColumnRef))
	buf = AppendUvarint(buf, uint64(d.TemplateID))
	buf = AppendUvarint(buf, uint64(d.Position))
	buf = append(buf, byte(d.SemType), byte(d.Codec))

	flags := byte(0)
	if d.HasMinMax {
		flags |= blockHasMinMax
	}
	if d.TSBracketed {
		flags |= blockTSBracketed
	}
	if d.TSLayout != "" {
		flags |= blockHasLayout
	}
	buf = append(buf, flags)

	buf = AppendUvarint(buf, d.Count)
	buf = AppendUvarint(buf, d.RawSize)
	buf = AppendUvarint(buf, d.CompSize)
	if d.HasMinMax {
		buf = AppendVarint(buf, d.Min)
		buf = AppendVarint(buf, d.Max)
	}
	if d.TSLayout != "" {
		buf = AppendString(buf, d.TSLayout)
	}

	pad := (BlockAlign - (base+len(buf))%BlockAlign) % BlockAlign
	for i := 0; i < pad; i++ {
		buf = append(buf, 0)
	}

	return buf
}

// ParseBlockDescriptor decodes a descriptor at the cursor and consumes the
// alignment padding, leaving the cursor at the payload's first byte.
func ParseBlockDescriptor(c *Cursor) (BlockDescriptor, error) {
	var d BlockDescriptor
	d.ColumnRef = uint32(c.Uvarint())
	d.TemplateID = uint32(c.Uvarint())
	d.Position = uint16(c.Uvarint())
	d.SemType = format.SemanticType(c.Byte())
	d.Codec = format.EncodingType(c.Byte())
	flags := c.Byte()
	d.Count = c.Uvarint()
	d.RawSize = c.Uvarint()
	d.CompSize = c.Uvarint()
	if flags&blockHasMinMax != 0 {
		d.HasMinMax = true
		d.Min = c.Varint()
		d.Max = c.Varint()
	}
	d.TSBracketed = flags&blockTSBracketed != 0
	if flags&blockHasLayout != 0 {
		d.TSLayout = c.String()
	}
	c.Align(BlockAlign)

	return d, c.Err()
}
