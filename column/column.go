// Package column implements the per-template, per-column encoders selected
// by semantic type. Each column never crosses a template boundary: a log
// matches exactly one template and contributes exactly one value to each of
// that template's columns.
//
// Every codec here is a stateless pair of functions turning a typed slice
// into a byte block and back: zigzag-delta varint for timestamps and
// integers, dictionary plus varint codes for low-cardinality strings, RLE
// for constant runs, fixed width for addresses and ids, and length-prefixed
// UTF-8 concatenation as the universal fallback.
package column

import "github.com/adam-bouafia/logpress/format"

// Block is the encoded form of one column: its chosen codec, the raw
// (pre-entropy-coding) bytes, and optional pushdown metadata. The container
// writer (package artifact) passes Raw through the general-purpose entropy
// coder (package compress) before persisting it.
type Block struct {
	SemType    format.SemanticType
	Codec      format.EncodingType
	Raw        []byte
	Count      int
	Dictionary []string // non-nil for blocks built by EncodeDictionary (EncodingDictionary, or EncodingRLE for a single repeated value)
	HasMinMax  bool
	Min, Max   int64

	// TSLayout and TSBracketed record the original textual rendering of a
	// SemanticTimestamp column whose values round-trip through EncodingDelta,
	// so DecodeColumn can reproduce each value's exact original text.
	TSLayout    string
	TSBracketed bool
}

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// lowCardinality reports whether unique-count ≤ min(256, ⌊column length /
// 10⌋), with the limit raised to at least 1, the bar for switching a column
// to dictionary coding.
func lowCardinality(distinct, length int) bool {
	limit := 256
	if scaled := length / 10; scaled < limit {
		limit = scaled
	}
	if limit < 1 {
		limit = 1
	}

	return distinct <= limit
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}

	return len(seen)
}
