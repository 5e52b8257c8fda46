package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4 block framing markers. lz4.CompressBlock reports incompressible data
// by returning zero bytes, so every payload is prefixed with a marker byte:
// compressed block, or stored as-is.
const (
	lz4ModeStored     byte = 0xF0
	lz4ModeCompressed byte = 0xF1
)

var errLZ4BadFrame = errors.New("lz4: invalid frame marker")

type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
//
// Returns:
//   - LZ4Compressor: New LZ4 compressor instance
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data using LZ4 block compression.
//
// Uses a pooled lz4.Compressor for better performance. Incompressible
// payloads are stored verbatim behind the stored marker, so the round trip
// holds for every input.
//
// Parameters:
//   - data: Input data to compress
//
// Returns:
//   - []byte: Framed compressed data (nil if input is empty)
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dstSize := lz4.CompressBlockBound(len(data))
	dst := make([]byte, 1+dstSize)
	dst[0] = lz4ModeCompressed

	// Get compressor from pool
	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[1:])
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(data) {
		// Incompressible: store verbatim.
		stored := make([]byte, 1+len(data))
		stored[0] = lz4ModeStored
		copy(stored[1:], data)

		return stored, nil
	}

	return dst[:1+n], nil
}

// Decompress decompresses framed LZ4 data produced by Compress.
//
// For compressed frames this method uses an adaptive buffer sizing strategy
// to handle cases where the decompressed size is unknown:
//  1. Start with a buffer 4x the compressed size (common expansion ratio)
//  2. On ErrInvalidSourceShortBuffer, double the buffer size (up to maxSize)
//  3. Return error if buffer exceeds reasonable limits (prevents memory exhaustion)
//
// Parameters:
//   - data: Framed compressed data to decompress
//
// Returns:
//   - []byte: Decompressed data (nil if input is empty)
//   - error: Invalid frame marker, ErrInvalidSourceShortBuffer if buffer exceeded
//     the 128MB limit, or other decompression errors
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case lz4ModeStored:
		out := make([]byte, len(data)-1)
		copy(out, data[1:])

		return out, nil
	case lz4ModeCompressed:
		// Fall through to block decompression below.
	default:
		return nil, errLZ4BadFrame
	}
	block := data[1:]

	bufSize := len(block) * 4
	const maxSize = 128 * 1024 * 1024 // 128MB safety limit

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(block, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2 // Double buffer size and retry
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	// Buffer exceeded maxSize - likely corrupted data or unreasonable compression ratio
	return nil, lz4.ErrInvalidSourceShortBuffer
}
