package section

import (
	"fmt"
	"hash/crc32"

	"github.com/adam-bouafia/logpress/internal/errs"
)

// SectionEntry locates one section within the artifact.
type SectionEntry struct {
	ID     SectionID
	Offset uint64
	Length uint64
}

// Footer is the artifact's section-offset table. It is serialized last, at
// footerOffset, followed by the fixed trailer (footer offset + CRC32), so a
// reader can locate every section from the artifact's tail alone.
type Footer struct {
	Entries []SectionEntry
}

const footerEntrySize = 1 + 8 + 8

// Bytes serializes the footer body (without the trailer).
func (f Footer) Bytes() []byte {
	buf := make([]byte, 0, 4+len(f.Entries)*footerEntrySize)
	buf = engine.AppendUint32(buf, uint32(len(f.Entries)))
	for _, e := range f.Entries {
		buf = append(buf, byte(e.ID))
		buf = engine.AppendUint64(buf, e.Offset)
		buf = engine.AppendUint64(buf, e.Length)
	}

	return buf
}

// Lookup returns the entry for id, or ok=false when the artifact does not
// carry that section.
func (f Footer) Lookup(id SectionID) (SectionEntry, bool) {
	for _, e := range f.Entries {
		if e.ID == id {
			return e, true
		}
	}

	return SectionEntry{}, false
}

// AppendTrailer appends the fixed 12-byte trailer: the footer's absolute
// offset and the CRC32 (IEEE) of every artifact byte before the CRC field
// itself.
func AppendTrailer(artifact []byte, footerOffset uint64) []byte {
	artifact = engine.AppendUint64(artifact, footerOffset)
	crc := crc32.ChecksumIEEE(artifact)

	return engine.AppendUint32(artifact, crc)
}

// ParseFooter locates and decodes the footer from the artifact tail. When
// strict is true the stored CRC is verified against the artifact bytes.
func ParseFooter(data []byte, strict bool) (Footer, error) {
	if len(data) < PreambleSize+TrailerSize {
		return Footer{}, errs.ErrTruncatedSection
	}

	trailer := data[len(data)-TrailerSize:]
	footerOffset := engine.Uint64(trailer[0:8])
	storedCRC := engine.Uint32(trailer[8:12])

	if strict {
		computed := crc32.ChecksumIEEE(data[:len(data)-4])
		if computed != storedCRC {
			return Footer{}, fmt.Errorf("%w: stored %08x computed %08x", errs.ErrCRCMismatch, storedCRC, computed)
		}
	}

	if footerOffset > uint64(len(data)-TrailerSize) {
		return Footer{}, errs.ErrTruncatedSection
	}

	c := NewCursor(data, int(footerOffset))
	count := c.Uint32()
	if c.Err() != nil {
		return Footer{}, c.Err()
	}
	if uint64(footerOffset)+4+uint64(count)*footerEntrySize > uint64(len(data)-TrailerSize) {
		return Footer{}, errs.ErrTruncatedSection
	}

	f := Footer{Entries: make([]SectionEntry, 0, count)}
	for i := uint32(0); i < count; i++ {
		id := SectionID(c.Byte())
		offset := c.Uint64()
		length := c.Uint64()
		if c.Err() != nil {
			return Footer{}, c.Err()
		}
		if offset+length > uint64(len(data)) {
			return Footer{}, errs.ErrTruncatedSection
		}
		f.Entries = append(f.Entries, SectionEntry{ID: id, Offset: offset, Length: length})
	}

	return f, nil
}
