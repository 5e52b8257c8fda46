// Package format defines the shared enums and wire constants used across the
// lexer, column, section, and artifact packages: encoding/compression codec
// identifiers and the semantic type tag attached to each variable column.
package format

type (
	// EncodingType identifies the column codec used to serialize a column's values
	// before the entropy-coder layer runs over the resulting bytes.
	EncodingType uint8

	// CompressionType identifies the general-purpose entropy coder applied to a
	// column block after type-specialized encoding.
	CompressionType uint8

	// SemanticType is the operator-level field kind assigned to a variable slot,
	// beyond its lexical class. It selects which column codec applies.
	SemanticType uint8
)

const (
	// EncodingRaw stores values in their native fixed-width binary form.
	EncodingRaw EncodingType = 0x01
	// EncodingDelta stores zigzag-delta varint-encoded values (for timestamps
	// and integers).
	EncodingDelta EncodingType = 0x02
	// EncodingVarint stores zigzag + varint encoded integers without delta.
	EncodingVarint EncodingType = 0x03
	// EncodingRLE stores runs of repeated values as (value, run-length) pairs.
	EncodingRLE EncodingType = 0x04
	// EncodingDictionary stores a string→code dictionary plus a code stream.
	EncodingDictionary EncodingType = 0x05
	// EncodingVarString stores length-prefixed UTF-8 byte strings concatenated.
	EncodingVarString EncodingType = 0x06
	// EncodingFixed stores fixed-width byte values (IPv4, IPv6, UUIDs), and hex
	// ids as length-prefixed bytes.
	EncodingFixed EncodingType = 0x07
)

const (
	CompressionNone CompressionType = 0x01
	CompressionZstd CompressionType = 0x02
	CompressionS2   CompressionType = 0x03
	CompressionLZ4  CompressionType = 0x04
)

const (
	SemanticUnknown    SemanticType = 0x00
	SemanticTimestamp  SemanticType = 0x01
	SemanticIPv4       SemanticType = 0x02
	SemanticIPv6       SemanticType = 0x03
	SemanticSeverity   SemanticType = 0x04
	SemanticURL        SemanticType = 0x05
	SemanticPath       SemanticType = 0x06
	SemanticUUID       SemanticType = 0x07
	SemanticHexID      SemanticType = 0x08
	SemanticNumericID  SemanticType = 0x09
	SemanticDuration   SemanticType = 0x0A
	SemanticByteCount  SemanticType = 0x0B
	SemanticUserID     SemanticType = 0x0C
	SemanticWord       SemanticType = 0x0D
	SemanticInteger    SemanticType = 0x0E
	SemanticFloat      SemanticType = 0x0F
	// SemanticCustomBase is the first value available to user-registered
	// custom semantic types; each custom type is assigned a dense id starting here.
	SemanticCustomBase SemanticType = 0x40
)

func (e EncodingType) String() string {
	switch e {
	case EncodingRaw:
		return "Raw"
	case EncodingDelta:
		return "Delta"
	case EncodingVarint:
		return "Varint"
	case EncodingRLE:
		return "RLE"
	case EncodingDictionary:
		return "Dictionary"
	case EncodingVarString:
		return "VarString"
	case EncodingFixed:
		return "Fixed"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (s SemanticType) String() string {
	switch s {
	case SemanticUnknown:
		return "UNKNOWN"
	case SemanticTimestamp:
		return "TIMESTAMP"
	case SemanticIPv4:
		return "IPV4"
	case SemanticIPv6:
		return "IPV6"
	case SemanticSeverity:
		return "SEVERITY"
	case SemanticURL:
		return "URL"
	case SemanticPath:
		return "PATH"
	case SemanticUUID:
		return "UUID"
	case SemanticHexID:
		return "HEX_ID"
	case SemanticNumericID:
		return "NUMERIC_ID"
	case SemanticDuration:
		return "DURATION"
	case SemanticByteCount:
		return "BYTE_COUNT"
	case SemanticUserID:
		return "USER_ID"
	case SemanticWord:
		return "WORD"
	case SemanticInteger:
		return "INTEGER"
	case SemanticFloat:
		return "FLOAT"
	default:
		if s >= SemanticCustomBase {
			return "CUSTOM"
		}

		return "UNKNOWN"
	}
}

// IsRangeFilterable reports whether columns of this semantic type carry a
// min/max descriptor usable for range-predicate pushdown.
func (s SemanticType) IsRangeFilterable() bool {
	switch s {
	case SemanticTimestamp, SemanticInteger, SemanticNumericID, SemanticDuration, SemanticByteCount:
		return true
	default:
		return false
	}
}
