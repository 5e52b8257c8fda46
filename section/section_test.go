package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/errs"
)

func TestPreambleRoundTrip(t *testing.T) {
	p := NewPreamble(FlagHasSeverityIndex | FlagHasTimestampIndex)
	parsed, err := ParsePreamble(p.Bytes())
	require.NoError(t, err)
	require.Equal(t, p, parsed)
}

func TestPreambleBadMagic(t *testing.T) {
	b := NewPreamble(0).Bytes()
	b[0] = 'X'
	_, err := ParsePreamble(b)
	require.ErrorIs(t, err, errs.ErrBadMagic)
}

func TestPreambleUnknownMajor(t *testing.T) {
	b := NewPreamble(0).Bytes()
	b[4] = 99
	_, err := ParsePreamble(b)
	require.ErrorIs(t, err, errs.ErrUnknownMajorVersion)
}

func TestPreambleTruncated(t *testing.T) {
	_, err := ParsePreamble([]byte("LPR"))
	require.ErrorIs(t, err, errs.ErrTruncatedSection)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		FormatVersion:   "1.0",
		LogCount:        42,
		OriginalBytes:   1000,
		SkippedLines:    1,
		TemplateCount:   3,
		TrailingNewline: "normalized",
		EntropyCoder:    "zstd",
		MaxLineBytes:    65536,
	}
	b, err := h.Bytes()
	require.NoError(t, err)

	parsed, err := ParseHeader(b)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestHeaderSchemaRejectsBadCoder(t *testing.T) {
	h := Header{FormatVersion: "1.0", EntropyCoder: "brotli"}
	_, err := h.Bytes()
	require.ErrorIs(t, err, errs.ErrInvalidHeader)
}

func TestHeaderTruncated(t *testing.T) {
	h := Header{FormatVersion: "1.0", TrailingNewline: "normalized", EntropyCoder: "none"}
	b, err := h.Bytes()
	require.NoError(t, err)

	_, err = ParseHeader(b[:len(b)/2])
	require.ErrorIs(t, err, errs.ErrTruncatedSection)
}

func TestTemplateTableRoundTrip(t *testing.T) {
	records := []TemplateRecord{
		{
			ID: 0, MatchCount: 10, FirstLogID: 0,
			Slots: []SlotRecord{
				{Literal: true, TokenRef: 0},
				{SemType: format.SemanticTimestamp, ColumnRef: 0},
				{Literal: true, TokenRef: 1},
				{SemType: format.SemanticSeverity, ColumnRef: 1},
			},
		},
		{
			ID: 1, Synthetic: true, MatchCount: 2, FirstLogID: 7,
			Slots: []SlotRecord{{SemType: format.SemanticWord, ColumnRef: 2}},
		},
	}

	buf := AppendTemplateTable(nil, records)
	parsed, err := ParseTemplateTable(NewCursor(buf, 0))
	require.NoError(t, err)
	require.Equal(t, records, parsed)
}

func TestTokenPoolRoundTrip(t *testing.T) {
	pool := []string{"INFO", " ", "user=", "", "login succeeded"}
	buf := AppendTokenPool(nil, pool)
	parsed, err := ParseTokenPool(NewCursor(buf, 0))
	require.NoError(t, err)
	require.Equal(t, pool, parsed)
}

func TestDictionariesRoundTrip(t *testing.T) {
	dicts := []DictionaryRecord{
		{ColumnRef: 1, Entries: []string{"INFO", "WARN", "ERROR"}},
		{ColumnRef: 4, Entries: []string{"alice"}},
	}
	buf := AppendDictionaries(nil, dicts)
	parsed, err := ParseDictionaries(NewCursor(buf, 0))
	require.NoError(t, err)
	require.Equal(t, dicts, parsed)
}

func TestBlockDescriptorAlignment(t *testing.T) {
	d := BlockDescriptor{
		ColumnRef:  3,
		TemplateID: 1,
		Position:   5,
		SemType:    format.SemanticTimestamp,
		Codec:      format.EncodingDelta,
		Count:      100,
		RawSize:    321,
		CompSize:   123,
		HasMinMax:  true,
		Min:        -5,
		Max:        1700000000000,
		TSLayout:   "2006-01-02 15:04:05",
	}

	for base := 0; base < BlockAlign; base++ {
		buf := AppendBlockDescriptor(nil, base, d)
		require.Zero(t, (base+len(buf))%BlockAlign, "payload start must be aligned for base %d", base)

		pad := make([]byte, base)
		c := NewCursor(append(pad, buf...), base)
		parsed, err := ParseBlockDescriptor(c)
		require.NoError(t, err)
		require.Equal(t, d, parsed)
		require.Equal(t, base+len(buf), c.Pos())
	}
}

func TestIndexesRoundTrip(t *testing.T) {
	x := Indexes{
		TemplateOf: []uint32{0, 0, 1, 0, 2},
		Severity: []SeverityPosting{
			{Severity: "INFO", LogIDs: []uint64{0, 1, 3}},
			{Severity: "ERROR", LogIDs: []uint64{2, 4}},
		},
		Timestamps: []TimestampRange{
			{TemplateID: 0, Min: 1704067200000, Max: 1704067202000},
		},
	}

	buf := x.Bytes()
	parsed, err := ParseIndexes(NewCursor(buf, 0))
	require.NoError(t, err)
	require.Equal(t, x, parsed)
}

func TestFooterRoundTrip(t *testing.T) {
	artifact := NewPreamble(0).Bytes()
	artifact = append(artifact, []byte("section-bytes")...)

	f := Footer{Entries: []SectionEntry{
		{ID: SectionHeader, Offset: 8, Length: 5},
		{ID: SectionIndexes, Offset: 13, Length: 8},
	}}
	footerOffset := uint64(len(artifact))
	artifact = append(artifact, f.Bytes()...)
	artifact = AppendTrailer(artifact, footerOffset)

	parsed, err := ParseFooter(artifact, true)
	require.NoError(t, err)
	require.Equal(t, f, parsed)

	entry, ok := parsed.Lookup(SectionIndexes)
	require.True(t, ok)
	require.Equal(t, uint64(13), entry.Offset)

	_, ok = parsed.Lookup(SectionDictionaries)
	require.False(t, ok)
}

func TestFooterCRCMismatch(t *testing.T) {
	artifact := NewPreamble(0).Bytes()
	artifact = append(artifact, []byte("payload")...)
	footerOffset := uint64(len(artifact))
	artifact = append(artifact, Footer{}.Bytes()...)
	artifact = AppendTrailer(artifact, footerOffset)
	artifact[9] ^= 0xFF // flip a payload byte the footer does not reference

	_, err := ParseFooter(artifact, true)
	require.ErrorIs(t, err, errs.ErrCRCMismatch)

	// Non-strict mode skips the CRC but still parses the offsets.
	_, err = ParseFooter(artifact, false)
	require.NoError(t, err)
}

func TestFooterTruncatedArtifact(t *testing.T) {
	artifact := NewPreamble(0).Bytes()
	footerOffset := uint64(len(artifact))
	artifact = append(artifact, Footer{Entries: []SectionEntry{{ID: SectionHeader, Offset: 8, Length: 100}}}.Bytes()...)
	artifact = AppendTrailer(artifact, footerOffset)

	_, err := ParseFooter(artifact[:len(artifact)/2], false)
	require.ErrorIs(t, err, errs.ErrTruncatedSection)
}
