// Package endian provides the byte order engine used for binary encoding
// and decoding of logpress artifacts.
//
// It combines the standard library's ByteOrder and AppendByteOrder
// interfaces into a single EndianEngine interface, so callers get both
// read/write and append operations through one value:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint64(buf, value)
//
// The artifact format is fixed little-endian, so the little-endian engine
// is the only one exposed.
//
// # Thread Safety
//
// The returned EndianEngine is immutable and stateless, and safe for
// concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single interface for convenient byte order
// operations.
//
// The interface is satisfied by binary.LittleEndian from the standard
// library, making it fully compatible with existing Go code.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the engine used for every fixed-width
// integer in an artifact.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}
