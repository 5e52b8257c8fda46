package column

import (
	"encoding/binary"

	"github.com/adam-bouafia/logpress/format"
)

// EncodeVarString concatenates values as length-prefixed UTF-8 byte
// strings, the universal lossless fallback for high-cardinality or
// untyped columns.
func EncodeVarString(values []string) Block {
	size := 0
	for _, v := range values {
		size += binary.MaxVarintLen64 + len(v)
	}
	buf := make([]byte, 0, size)
	var scratch [binary.MaxVarintLen64]byte
	for _, v := range values {
		n := binary.PutUvarint(scratch[:], uint64(len(v)))
		buf = append(buf, scratch[:n]...)
		buf = append(buf, v...)
	}

	return Block{SemType: format.SemanticWord, Codec: format.EncodingVarString, Raw: buf, Count: len(values)}
}

// DecodeVarString reverses EncodeVarString.
func DecodeVarString(block Block) []string {
	out := make([]string, 0, block.Count)
	pos := 0
	for i := 0; i < block.Count; i++ {
		l, n := binary.Uvarint(block.Raw[pos:])
		pos += n
		out = append(out, string(block.Raw[pos:pos+int(l)]))
		pos += int(l)
	}

	return out
}
