// Package artifact composes the compression pipeline and the immutable
// container it produces: lexing, template mining, column encoding, entropy
// coding, and serialization on the write side; lazy section loading and
// on-demand column materialization on the read side.
//
// A Writer run owns all intermediate state; Finish transfers it into the
// artifact bytes and the intermediates may be released. A Reader owns the
// loaded artifact and is safe for concurrent read-only queries.
package artifact
