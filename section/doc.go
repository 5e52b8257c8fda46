// Package section defines the on-disk layout of a logpress artifact: the
// magic/version/flags preamble, the JSON header, the template table, the
// deduplicated token pool, column dictionaries, column block descriptors,
// the metadata indexes, and the footer with its section-offset table and
// CRC32.
//
// Every struct here is a plain wire record with Bytes/Parse (or
// Encode/Decode) pairs and no behavior beyond serialization; the artifact
// package owns composition and I/O, the query package owns evaluation.
// All fixed-width integers are little-endian; counts and ids are unsigned
// varints; signed values are zigzag varints. Column block payloads start on
// 8-byte boundaries so a reader may map the artifact read-only.
package section
