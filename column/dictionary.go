package column

import (
	"encoding/binary"

	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/dedupe"
)

// EncodeDictionary assigns small-cardinality string values dense codes in
// first-seen order, code 0 reserved as the "unseen" sentinel, and
// varint-encodes the code stream. When the code stream is a single run of a
// repeated value it is stored as RLE instead.
func EncodeDictionary(values []string) Block {
	in := dedupe.NewInterner()
	codes := make([]uint32, len(values))
	for i, v := range values {
		code, _ := in.Intern(v)
		codes[i] = code + 1 // reserve 0 for "unseen"
	}

	var scratch [binary.MaxVarintLen64]byte
	if allEqualU32(codes) && len(codes) > 0 {
		buf := make([]byte, 0, binary.MaxVarintLen64*2)
		n := binary.PutUvarint(scratch[:], uint64(codes[0]))
		buf = append(buf, scratch[:n]...)
		n = binary.PutUvarint(scratch[:], uint64(len(codes)))
		buf = append(buf, scratch[:n]...)

		return Block{Codec: format.EncodingRLE, Raw: buf, Count: len(values), Dictionary: in.Values()}
	}

	buf := make([]byte, 0, len(codes)*2)
	for _, c := range codes {
		n := binary.PutUvarint(scratch[:], uint64(c))
		buf = append(buf, scratch[:n]...)
	}

	return Block{Codec: format.EncodingDictionary, Raw: buf, Count: len(values), Dictionary: in.Values()}
}

// DecodeDictionary reverses EncodeDictionary, mapping codes back through the
// block's dictionary (code 0 decodes to the empty "unseen" sentinel string).
func DecodeDictionary(block Block) []string {
	lookup := func(code uint32) string {
		if code == 0 || int(code-1) >= len(block.Dictionary) {
			return ""
		}

		return block.Dictionary[code-1]
	}

	if block.Codec == format.EncodingRLE {
		c, n := binary.Uvarint(block.Raw)
		count, _ := binary.Uvarint(block.Raw[n:])
		out := make([]string, count)
		val := lookup(uint32(c))
		for i := range out {
			out[i] = val
		}

		return out
	}

	out := make([]string, 0, block.Count)
	pos := 0
	for i := 0; i < block.Count; i++ {
		c, n := binary.Uvarint(block.Raw[pos:])
		pos += n
		out = append(out, lookup(uint32(c)))
	}

	return out
}

// DictionaryCode resolves a literal value to its dictionary code for
// predicate pushdown. ok is false if the literal was never interned into
// this column, which lets an equality scan skip the column entirely.
func DictionaryCode(dict []string, literal string) (uint32, bool) {
	for i, v := range dict {
		if v == literal {
			return uint32(i + 1), true
		}
	}

	return 0, false
}

func allEqualU32(values []uint32) bool {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return false
		}
	}

	return true
}
