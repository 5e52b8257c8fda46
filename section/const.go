package section

// Magic is the artifact's leading four bytes.
const Magic = "LPR1"

// Current format version. Readers reject unknown major versions and accept
// any minor version within a known major.
const (
	VersionMajor = 1
	VersionMinor = 0
)

// PreambleSize is magic(4) + major(1) + minor(1) + flags(2).
const PreambleSize = 8

// TrailerSize is the fixed tail of the artifact: footer offset (8) + CRC32 (4).
const TrailerSize = 12

// BlockAlign is the alignment imposed on column block payload starts.
const BlockAlign = 8

// Flag bits in the preamble's flags word.
const (
	FlagHasTimestampIndex uint16 = 1 << 0
	FlagHasSeverityIndex  uint16 = 1 << 1
)

// SectionID identifies a section in the footer's offset table. Unknown
// optional ids are skipped by readers, which is what makes the format
// forward-compatible.
type SectionID uint8

const (
	SectionHeader        SectionID = 1
	SectionTemplateTable SectionID = 2
	SectionTokenPool     SectionID = 3
	SectionDictionaries  SectionID = 4
	SectionColumnBlocks  SectionID = 5
	SectionIndexes       SectionID = 6
)

func (s SectionID) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionTemplateTable:
		return "template-table"
	case SectionTokenPool:
		return "token-pool"
	case SectionDictionaries:
		return "dictionaries"
	case SectionColumnBlocks:
		return "column-blocks"
	case SectionIndexes:
		return "indexes"
	default:
		return "unknown"
	}
}
