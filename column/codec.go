package column

import (
	"strconv"
	"strings"
	"time"

	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/pool"
	"github.com/adam-bouafia/logpress/template"
)

// timestampLayouts mirrors the layouts the tokenizer recognizes (package
// token); kept local here since rendering a column's decoded timestamps
// back to their exact original text is a column-encoder concern, not a
// lexer one.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// EncodeColumn selects a codec for a variable column by semantic type. It
// guarantees decode(encode(xs)) == xs by falling back to the lossless
// length-prefixed VarString codec whenever a value-preserving numeric,
// timestamp, or fixed-width codec could not reproduce every value's exact
// original text (e.g. a leading zero a typed re-encoding would lose).
func EncodeColumn(semType format.SemanticType, values []template.Value) Block {
	// Staging slices live only for the duration of this call; the encoders
	// copy what they keep into the block's own buffer.
	texts, releaseTexts := pool.GetStringSlice(len(values))
	defer releaseTexts()
	for i, v := range values {
		texts[i] = v.Text
	}

	var block Block
	switch semType {
	case format.SemanticTimestamp:
		ints, release := pool.GetInt64Slice(len(values))
		if layout, bracketed, ok := fillRoundTripTimestamps(ints, values); ok {
			block = EncodeTimestampDelta(ints)
			block.TSLayout, block.TSBracketed = layout, bracketed
		} else {
			block = EncodeVarString(texts)
		}
		release()
	case format.SemanticInteger, format.SemanticNumericID, format.SemanticDuration, format.SemanticByteCount:
		ints, release := pool.GetInt64Slice(len(values))
		if fillRoundTripInts(ints, values) {
			block = EncodeIntegerDelta(ints)
		} else {
			block = EncodeVarString(texts)
		}
		release()
	case format.SemanticFloat:
		floats, release := pool.GetFloat64Slice(len(values))
		if fillRoundTripFloats(floats, values) {
			block = EncodeFloat64(floats)
		} else {
			block = EncodeVarString(texts)
		}
		release()
	case format.SemanticIPv4:
		block = fixedOrFallback(semType, EncodeIPv4(texts), texts)
	case format.SemanticIPv6:
		block = fixedOrFallback(semType, EncodeIPv6(texts), texts)
	case format.SemanticSeverity:
		block = EncodeDictionary(texts)
	case format.SemanticUUID:
		block = fixedOrFallback(semType, EncodeUUID(texts), texts)
	case format.SemanticHexID:
		block = fixedOrFallback(semType, EncodeHexID(texts), texts)
	case format.SemanticWord, format.SemanticUserID, format.SemanticPath, format.SemanticURL:
		if lowCardinality(distinctCount(texts), len(texts)) {
			block = EncodeDictionary(texts)
		} else {
			block = EncodeVarString(texts)
		}
	default:
		block = EncodeVarString(texts)
	}

	block.SemType = semType

	return block
}

// DecodeColumn reverses EncodeColumn, reproducing each value's original
// display text.
func DecodeColumn(semType format.SemanticType, block Block) []string {
	if block.Dictionary != nil {
		return DecodeDictionary(block)
	}

	switch semType {
	case format.SemanticTimestamp:
		if block.Codec == format.EncodingVarString {
			return DecodeVarString(block)
		}

		return renderTimestamps(DecodeIntegerDelta(block), block.TSLayout, block.TSBracketed)
	case format.SemanticInteger, format.SemanticNumericID, format.SemanticDuration, format.SemanticByteCount:
		if block.Codec == format.EncodingVarString {
			return DecodeVarString(block)
		}

		return renderInts(DecodeIntegerDelta(block))
	case format.SemanticFloat:
		if block.Codec == format.EncodingVarString {
			return DecodeVarString(block)
		}

		return renderFloats(DecodeFloat64(block))
	case format.SemanticIPv4:
		if block.Codec == format.EncodingVarString {
			return DecodeVarString(block)
		}

		return DecodeIPv4(block)
	case format.SemanticIPv6:
		if block.Codec == format.EncodingVarString {
			return DecodeVarString(block)
		}

		return DecodeIPv6(block)
	case format.SemanticUUID:
		if block.Codec == format.EncodingVarString {
			return DecodeVarString(block)
		}

		return DecodeUUID(block)
	case format.SemanticHexID:
		if block.Codec == format.EncodingVarString {
			return DecodeVarString(block)
		}

		return DecodeHexID(block)
	default:
		return DecodeVarString(block)
	}
}

// fixedOrFallback keeps a fixed-width block only if decoding it reproduces
// every value's exact original text; otherwise the column is re-encoded with
// the lossless VarString codec. Non-canonical renderings (an uppercase UUID,
// a zero-padded IPv4 octet, bare hex without the 0x prefix) take the
// fallback path.
func fixedOrFallback(semType format.SemanticType, block Block, texts []string) Block {
	if block.Dictionary != nil {
		return block
	}
	decoded := DecodeColumn(semType, block)
	if len(decoded) != len(texts) {
		return EncodeVarString(texts)
	}
	for i := range texts {
		if decoded[i] != texts[i] {
			return EncodeVarString(texts)
		}
	}

	return block
}

func renderInts(values []int64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatInt(v, 10)
	}

	return out
}

func renderFloats(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	return out
}

func renderTimestamps(ms []int64, layout string, bracketed bool) []string {
	out := make([]string, len(ms))
	for i, v := range ms {
		text := time.UnixMilli(v).UTC().Format(layout)
		if bracketed {
			text = "[" + text + "]"
		}
		out[i] = text
	}

	return out
}

func fillRoundTripInts(ints []int64, values []template.Value) bool {
	for i, v := range values {
		if !v.NormOK || strconv.FormatInt(v.NormInt, 10) != v.Text {
			return false
		}
		ints[i] = v.NormInt
	}

	return true
}

func fillRoundTripFloats(floats []float64, values []template.Value) bool {
	for i, v := range values {
		if !v.NormOK || strconv.FormatFloat(v.NormFloat, 'g', -1, 64) != v.Text {
			return false
		}
		floats[i] = v.NormFloat
	}

	return true
}

func fillRoundTripTimestamps(ints []int64, values []template.Value) (layout string, bracketed bool, ok bool) {
	if len(values) == 0 {
		return "", false, false
	}

	first := values[0].Text
	bracketed = strings.HasPrefix(first, "[") && strings.HasSuffix(first, "]")
	inner := first
	if bracketed {
		inner = first[1 : len(first)-1]
	}
	for _, l := range timestampLayouts {
		if _, err := time.Parse(l, inner); err == nil {
			layout = l

			break
		}
	}
	if layout == "" {
		return "", false, false
	}

	for i, v := range values {
		if !v.NormOK {
			return "", false, false
		}
		text := v.Text
		isBracketed := strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")
		if isBracketed != bracketed {
			return "", false, false
		}
		body := text
		if isBracketed {
			body = text[1 : len(text)-1]
		}
		if time.UnixMilli(v.NormInt).UTC().Format(layout) != body {
			return "", false, false
		}
		ints[i] = v.NormInt
	}

	return layout, bracketed, true
}
