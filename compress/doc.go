// Package compress provides the entropy-coder layer applied to each column
// block after type-specialized encoding.
//
// It runs after delta/varint/dictionary/RLE encoding has already exploited
// the column's semantic structure, and squeezes residual redundancy out of
// the resulting bytes. Four codecs are available, selectable per artifact
// via artifact.WithCompression or the CLI's --level flag:
//
//   - None: no compression, useful for already-incompressible columns
//   - Zstd: best ratio, moderate speed, good default for cold artifacts
//   - S2: balanced ratio/speed
//   - LZ4: fastest decompression, useful for query-heavy workloads
//
// All codecs implement the Codec interface (Compressor + Decompressor) and
// are safe for concurrent use, so blocks can be coded in parallel.
package compress
