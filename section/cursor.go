package section

import (
	"encoding/binary"

	"github.com/adam-bouafia/logpress/endian"
	"github.com/adam-bouafia/logpress/internal/errs"
)

// engine is the artifact's byte order for all fixed-width integers.
var engine = endian.GetLittleEndianEngine()

// Cursor is a bounds-checked decoder over an artifact byte slice. The first
// out-of-range read latches Err and every subsequent read returns zero
// values, so parse code can run straight through and check Err once.
type Cursor struct {
	data []byte
	pos  int
	err  error
}

// NewCursor creates a cursor positioned at offset within data.
func NewCursor(data []byte, offset int) *Cursor {
	c := &Cursor{data: data, pos: offset}
	if offset < 0 || offset > len(data) {
		c.err = errs.ErrTruncatedSection
	}

	return c
}

// Pos returns the cursor's absolute offset within the artifact.
func (c *Cursor) Pos() int { return c.pos }

// Err returns the first decode error encountered, if any.
func (c *Cursor) Err() error { return c.err }

// Byte reads a single byte.
func (c *Cursor) Byte() byte {
	if c.err != nil {
		return 0
	}
	if c.pos >= len(c.data) {
		c.err = errs.ErrTruncatedSection

		return 0
	}
	b := c.data[c.pos]
	c.pos++

	return b
}

// Bytes reads n raw bytes without copying.
func (c *Cursor) Bytes(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.data) {
		c.err = errs.ErrTruncatedSection

		return nil
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n

	return b
}

// Uvarint reads an unsigned varint.
func (c *Cursor) Uvarint() uint64 {
	if c.err != nil {
		return 0
	}
	v, n := binary.Uvarint(c.data[c.pos:])
	if n <= 0 {
		c.err = errs.ErrTruncatedSection

		return 0
	}
	c.pos += n

	return v
}

// Varint reads a zigzag-encoded signed varint.
func (c *Cursor) Varint() int64 {
	u := c.Uvarint()

	return int64(u>>1) ^ -int64(u&1)
}

// Uint16 reads a little-endian uint16.
func (c *Cursor) Uint16() uint16 {
	b := c.Bytes(2)
	if b == nil {
		return 0
	}

	return engine.Uint16(b)
}

// Uint32 reads a little-endian uint32.
func (c *Cursor) Uint32() uint32 {
	b := c.Bytes(4)
	if b == nil {
		return 0
	}

	return engine.Uint32(b)
}

// Uint64 reads a little-endian uint64.
func (c *Cursor) Uint64() uint64 {
	b := c.Bytes(8)
	if b == nil {
		return 0
	}

	return engine.Uint64(b)
}

// String reads a uvarint length prefix followed by that many UTF-8 bytes.
func (c *Cursor) String() string {
	n := c.Uvarint()

	return string(c.Bytes(int(n)))
}

// Align advances the cursor to the next multiple of align, consuming padding.
func (c *Cursor) Align(align int) {
	if c.err != nil {
		return
	}
	pad := (align - c.pos%align) % align
	c.Bytes(pad)
}

// AppendUvarint appends v as an unsigned varint.
func AppendUvarint(buf []byte, v uint64) []byte {
	return binary.AppendUvarint(buf, v)
}

// AppendVarint appends v zigzag-encoded as an unsigned varint.
func AppendVarint(buf []byte, v int64) []byte {
	return binary.AppendUvarint(buf, uint64((v<<1)^(v>>63)))
}

// AppendString appends a uvarint length prefix followed by the string bytes.
func AppendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))

	return append(buf, s...)
}
