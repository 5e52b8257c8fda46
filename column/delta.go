package column

import (
	"encoding/binary"

	"github.com/adam-bouafia/logpress/format"
)

// EncodeTimestampDelta Δ-encodes epoch-millisecond timestamps: the first
// value is stored as an absolute zigzag varint, every subsequent value as
// the zigzag varint of its delta from the previous value, so jittery clocks
// still pack tightly.
func EncodeTimestampDelta(values []int64) Block {
	buf := make([]byte, 0, len(values)*2)
	var scratch [binary.MaxVarintLen64]byte

	var prev int64
	minV, maxV := int64(0), int64(0)
	for i, v := range values {
		if i == 0 {
			n := binary.PutUvarint(scratch[:], zigzagEncode(v))
			buf = append(buf, scratch[:n]...)
		} else {
			delta := v - prev
			n := binary.PutUvarint(scratch[:], zigzagEncode(delta))
			buf = append(buf, scratch[:n]...)
		}
		prev = v
		if i == 0 || v < minV {
			minV = v
		}
		if i == 0 || v > maxV {
			maxV = v
		}
	}

	return Block{
		SemType: format.SemanticTimestamp, Codec: format.EncodingDelta,
		Raw: buf, Count: len(values), HasMinMax: len(values) > 0, Min: minV, Max: maxV,
	}
}

// DecodeTimestampDelta reverses EncodeTimestampDelta.
func DecodeTimestampDelta(data []byte, count int) []int64 {
	out := make([]int64, 0, count)
	var prev int64
	pos := 0
	for i := 0; i < count; i++ {
		u, n := binary.Uvarint(data[pos:])
		pos += n
		v := zigzagDecode(u)
		if i > 0 {
			v += prev
		}
		out = append(out, v)
		prev = v
	}

	return out
}

// EncodeIntegerDelta zigzag-delta varint encodes an integer column,
// collapsing a fully-constant column to a single RLE run.
func EncodeIntegerDelta(values []int64) Block {
	if allEqual(values) && len(values) > 0 {
		var scratch [binary.MaxVarintLen64]byte
		buf := make([]byte, 0, binary.MaxVarintLen64*2)
		n := binary.PutUvarint(scratch[:], zigzagEncode(values[0]))
		buf = append(buf, scratch[:n]...)
		n = binary.PutUvarint(scratch[:], uint64(len(values)))
		buf = append(buf, scratch[:n]...)

		return Block{
			SemType: format.SemanticInteger, Codec: format.EncodingRLE,
			Raw: buf, Count: len(values), HasMinMax: true, Min: values[0], Max: values[0],
		}
	}

	buf := make([]byte, 0, len(values)*2)
	var scratch [binary.MaxVarintLen64]byte
	var prev int64
	minV, maxV := int64(0), int64(0)
	for i, v := range values {
		if i == 0 {
			n := binary.PutUvarint(scratch[:], zigzagEncode(v))
			buf = append(buf, scratch[:n]...)
		} else {
			n := binary.PutUvarint(scratch[:], zigzagEncode(v-prev))
			buf = append(buf, scratch[:n]...)
		}
		prev = v
		if i == 0 || v < minV {
			minV = v
		}
		if i == 0 || v > maxV {
			maxV = v
		}
	}

	return Block{
		SemType: format.SemanticInteger, Codec: format.EncodingDelta,
		Raw: buf, Count: len(values), HasMinMax: len(values) > 0, Min: minV, Max: maxV,
	}
}

// DecodeIntegerDelta reverses EncodeIntegerDelta, dispatching on the block's codec.
func DecodeIntegerDelta(block Block) []int64 {
	if block.Codec == format.EncodingRLE {
		u, n := binary.Uvarint(block.Raw)
		v := zigzagDecode(u)
		count, _ := binary.Uvarint(block.Raw[n:])
		out := make([]int64, count)
		for i := range out {
			out[i] = v
		}

		return out
	}

	return DecodeTimestampDelta(block.Raw, block.Count)
}

func allEqual(values []int64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return false
		}
	}

	return true
}
