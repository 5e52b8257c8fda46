package column

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"net"

	"github.com/google/uuid"

	"github.com/adam-bouafia/logpress/format"
)

// EncodeIPv4 packs dotted-quad addresses into 4 raw bytes each, falling back
// to a dictionary when cardinality is low.
func EncodeIPv4(values []string) Block {
	if lowCardinality(distinctCount(values), len(values)) {
		return EncodeDictionary(values)
	}

	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		ip := net.ParseIP(v).To4()
		if ip == nil {
			ip = make([]byte, 4)
		}
		buf = append(buf, ip...)
	}

	return Block{SemType: format.SemanticIPv4, Codec: format.EncodingFixed, Raw: buf, Count: len(values)}
}

// DecodeIPv4 reverses EncodeIPv4 for the raw-fixed path; dictionary-coded
// blocks are decoded by DecodeDictionary instead.
func DecodeIPv4(block Block) []string {
	out := make([]string, 0, block.Count)
	for i := 0; i < block.Count; i++ {
		b := block.Raw[i*4 : i*4+4]
		out = append(out, net.IP(b).String())
	}

	return out
}

// EncodeIPv6 packs addresses into 16 raw bytes each, with the same
// low-cardinality dictionary fallback as IPv4.
func EncodeIPv6(values []string) Block {
	if lowCardinality(distinctCount(values), len(values)) {
		return EncodeDictionary(values)
	}

	buf := make([]byte, 0, len(values)*16)
	for _, v := range values {
		ip := net.ParseIP(v).To16()
		if ip == nil {
			ip = make([]byte, 16)
		}
		buf = append(buf, ip...)
	}

	return Block{SemType: format.SemanticIPv6, Codec: format.EncodingFixed, Raw: buf, Count: len(values)}
}

// DecodeIPv6 reverses EncodeIPv6 for the raw-fixed path.
func DecodeIPv6(block Block) []string {
	out := make([]string, 0, block.Count)
	for i := 0; i < block.Count; i++ {
		b := block.Raw[i*16 : i*16+16]
		out = append(out, net.IP(b).String())
	}

	return out
}

// EncodeFloat64 stores raw IEEE-754 little-endian values.
func EncodeFloat64(values []float64) Block {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}

	return Block{SemType: format.SemanticFloat, Codec: format.EncodingRaw, Raw: buf, Count: len(values)}
}

// DecodeFloat64 reverses EncodeFloat64.
func DecodeFloat64(block Block) []float64 {
	out := make([]float64, block.Count)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(block.Raw[i*8:]))
	}

	return out
}

// EncodeUUID stores each value's 16 raw bytes, falling back to a dictionary
// when cardinality is low.
func EncodeUUID(values []string) Block {
	if lowCardinality(distinctCount(values), len(values)) {
		return EncodeDictionary(values)
	}

	buf := make([]byte, 0, len(values)*16)
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			id = uuid.Nil
		}
		buf = append(buf, id[:]...)
	}

	return Block{SemType: format.SemanticUUID, Codec: format.EncodingFixed, Raw: buf, Count: len(values)}
}

// DecodeUUID reverses EncodeUUID for the raw-fixed path.
func DecodeUUID(block Block) []string {
	out := make([]string, 0, block.Count)
	for i := 0; i < block.Count; i++ {
		var id uuid.UUID
		copy(id[:], block.Raw[i*16:i*16+16])
		out = append(out, id.String())
	}

	return out
}

// EncodeHexID stores each value's parsed hex bytes length-prefixed (hex ids
// vary in width, unlike fixed 16-byte UUIDs), with a low-cardinality
// dictionary fallback.
func EncodeHexID(values []string) Block {
	if lowCardinality(distinctCount(values), len(values)) {
		return EncodeDictionary(values)
	}

	buf := make([]byte, 0, len(values)*9)
	var scratch [binary.MaxVarintLen64]byte
	for _, v := range values {
		clean := trimHexPrefix(v)
		decoded, err := hex.DecodeString(clean)
		if err != nil {
			decoded = []byte(v)
		}
		n := binary.PutUvarint(scratch[:], uint64(len(decoded)))
		buf = append(buf, scratch[:n]...)
		buf = append(buf, decoded...)
	}

	return Block{SemType: format.SemanticHexID, Codec: format.EncodingFixed, Raw: buf, Count: len(values)}
}

// DecodeHexID reverses EncodeHexID for the length-prefixed path.
func DecodeHexID(block Block) []string {
	out := make([]string, 0, block.Count)
	pos := 0
	for i := 0; i < block.Count; i++ {
		l, n := binary.Uvarint(block.Raw[pos:])
		pos += n
		out = append(out, "0x"+hex.EncodeToString(block.Raw[pos:pos+int(l)]))
		pos += int(l)
	}

	return out
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}

	return s
}
