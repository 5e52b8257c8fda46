package artifact

import (
	"fmt"
	"os"
	"sync"

	"github.com/adam-bouafia/logpress/column"
	"github.com/adam-bouafia/logpress/compress"
	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/errs"
	"github.com/adam-bouafia/logpress/internal/options"
	"github.com/adam-bouafia/logpress/section"
	"github.com/adam-bouafia/logpress/token"
)

type readerConfig struct {
	strict  bool
	metrics *Metrics
}

// ReaderOption configures Open/OpenBytes.
type ReaderOption = options.Option[*readerConfig]

// WithStrictCRC makes Open verify the footer CRC against the full artifact.
func WithStrictCRC() ReaderOption {
	return options.NoError(func(c *readerConfig) { c.strict = true })
}

// WithReaderMetrics attaches an optional metrics recorder to the handle.
func WithReaderMetrics(m *Metrics) ReaderOption {
	return options.NoError(func(c *readerConfig) { c.metrics = m })
}

// blockEntry pairs a parsed descriptor with its still-compressed payload.
type blockEntry struct {
	desc    section.BlockDescriptor
	payload []byte
}

// Reader is an open artifact handle. Opening parses only the preamble and
// footer; every other section is parsed on first use. The handle is safe
// for concurrent read-only queries.
type Reader struct {
	data     []byte
	preamble section.Preamble
	footer   section.Footer
	metrics  *Metrics

	mu      sync.Mutex
	header  *section.Header
	codec   compress.Codec
	records []section.TemplateRecord
	pool    []string
	dicts   map[uint32][]string
	blocks  map[uint32]blockEntry
	indexes *section.Indexes
}

// Open loads the artifact at path.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInputReadFailed, err)
	}

	return OpenBytes(data, opts...)
}

// OpenBytes opens an in-memory artifact. The reader takes ownership of data.
func OpenBytes(data []byte, opts ...ReaderOption) (*Reader, error) {
	cfg := &readerConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	preamble, err := section.ParsePreamble(data)
	if err != nil {
		return nil, err
	}
	footer, err := section.ParseFooter(data, cfg.strict)
	if err != nil {
		return nil, err
	}

	return &Reader{data: data, preamble: preamble, footer: footer, metrics: cfg.metrics}, nil
}

// Flags returns the preamble flags word.
func (r *Reader) Flags() uint16 { return r.preamble.Flags }

// Metrics returns the handle's metrics recorder, nil when none is attached.
func (r *Reader) Metrics() *Metrics { return r.metrics }

// HasSeverityIndex reports whether the artifact carries a severity index.
func (r *Reader) HasSeverityIndex() bool {
	return r.preamble.Flags&section.FlagHasSeverityIndex != 0
}

// HasTimestampIndex reports whether the artifact carries timestamp bounds.
func (r *Reader) HasTimestampIndex() bool {
	return r.preamble.Flags&section.FlagHasTimestampIndex != 0
}

func (r *Reader) sectionCursor(id section.SectionID) (*section.Cursor, error) {
	entry, ok := r.footer.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: missing section %s", errs.ErrTruncatedSection, id)
	}

	return section.NewCursor(r.data, int(entry.Offset)), nil
}

// Header returns the artifact header, parsing and schema-validating it on
// first use.
func (r *Reader) Header() (section.Header, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.headerLocked()
}

func (r *Reader) headerLocked() (section.Header, error) {
	if r.header != nil {
		return *r.header, nil
	}
	entry, ok := r.footer.Lookup(section.SectionHeader)
	if !ok {
		return section.Header{}, fmt.Errorf("%w: missing header", errs.ErrTruncatedSection)
	}
	h, err := section.ParseHeader(r.data[entry.Offset : entry.Offset+entry.Length])
	if err != nil {
		return section.Header{}, err
	}
	r.header = &h

	return h, nil
}

// Count answers count() from the header alone, touching no blocks.
func (r *Reader) Count() (uint64, error) {
	h, err := r.Header()
	if err != nil {
		return 0, err
	}

	return h.LogCount, nil
}

// Templates returns the template table, parsed on first use.
func (r *Reader) Templates() ([]section.TemplateRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.records != nil {
		return r.records, nil
	}
	c, err := r.sectionCursor(section.SectionTemplateTable)
	if err != nil {
		return nil, err
	}
	records, err := section.ParseTemplateTable(c)
	if err != nil {
		return nil, err
	}
	r.records = records

	return records, nil
}

// Template returns the record for one template id.
func (r *Reader) Template(id uint32) (section.TemplateRecord, error) {
	records, err := r.Templates()
	if err != nil {
		return section.TemplateRecord{}, err
	}
	if int(id) >= len(records) {
		return section.TemplateRecord{}, fmt.Errorf("%w: %d", errs.ErrUnknownTemplate, id)
	}

	return records[id], nil
}

// TokenPool returns the deduplicated literal token pool.
func (r *Reader) TokenPool() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pool != nil {
		return r.pool, nil
	}
	c, err := r.sectionCursor(section.SectionTokenPool)
	if err != nil {
		return nil, err
	}
	pool, err := section.ParseTokenPool(c)
	if err != nil {
		return nil, err
	}
	r.pool = pool

	return pool, nil
}

// Dictionary returns the dictionary for a column, or ok=false when the
// column is not dictionary-coded.
func (r *Reader) Dictionary(columnRef uint32) ([]string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dicts == nil {
		c, err := r.sectionCursor(section.SectionDictionaries)
		if err != nil {
			return nil, false, err
		}
		dicts, err := section.ParseDictionaries(c)
		if err != nil {
			return nil, false, err
		}
		r.dicts = make(map[uint32][]string, len(dicts))
		for _, d := range dicts {
			r.dicts[d.ColumnRef] = d.Entries
		}
	}
	entries, ok := r.dicts[columnRef]

	return entries, ok, nil
}

// Indexes returns the metadata index section, parsed on first use.
func (r *Reader) Indexes() (section.Indexes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexes != nil {
		return *r.indexes, nil
	}
	c, err := r.sectionCursor(section.SectionIndexes)
	if err != nil {
		return section.Indexes{}, err
	}
	x, err := section.ParseIndexes(c)
	if err != nil {
		return section.Indexes{}, err
	}
	r.indexes = &x

	return x, nil
}

func (r *Reader) loadBlocksLocked() error {
	if r.blocks != nil {
		return nil
	}
	c, err := r.sectionCursor(section.SectionColumnBlocks)
	if err != nil {
		return err
	}
	count := c.Uvarint()
	blocks := make(map[uint32]blockEntry, count)
	for i := uint64(0); i < count; i++ {
		desc, err := section.ParseBlockDescriptor(c)
		if err != nil {
			return err
		}
		payload := c.Bytes(int(desc.CompSize))
		if c.Err() != nil {
			return c.Err()
		}
		blocks[desc.ColumnRef] = blockEntry{desc: desc, payload: payload}
	}
	r.blocks = blocks

	return nil
}

// BlockDescriptor returns the descriptor for one column without decoding
// its payload, for pushdown planning.
func (r *Reader) BlockDescriptor(columnRef uint32) (section.BlockDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadBlocksLocked(); err != nil {
		return section.BlockDescriptor{}, err
	}
	entry, ok := r.blocks[columnRef]
	if !ok {
		return section.BlockDescriptor{}, fmt.Errorf("%w: column %d", errs.ErrUnknownField, columnRef)
	}

	return entry.desc, nil
}

func (r *Reader) codecLocked() (compress.Codec, error) {
	if r.codec != nil {
		return r.codec, nil
	}
	h, err := r.headerLocked()
	if err != nil {
		return nil, err
	}
	ct, ok := compressionFromName(h.EntropyCoder)
	if !ok {
		return nil, fmt.Errorf("%w: entropy coder %q", errs.ErrInvalidHeader, h.EntropyCoder)
	}
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, err
	}
	r.codec = codec

	return codec, nil
}

// ColumnBlock materializes one column: the payload is entropy-decoded and
// wrapped with its descriptor metadata and dictionary. The returned block is
// owned by the caller.
func (r *Reader) ColumnBlock(columnRef uint32) (column.Block, error) {
	r.mu.Lock()
	if err := r.loadBlocksLocked(); err != nil {
		r.mu.Unlock()

		return column.Block{}, err
	}
	entry, ok := r.blocks[columnRef]
	if !ok {
		r.mu.Unlock()

		return column.Block{}, fmt.Errorf("%w: column %d", errs.ErrUnknownField, columnRef)
	}
	codec, err := r.codecLocked()
	if err != nil {
		r.mu.Unlock()

		return column.Block{}, err
	}
	var dict []string
	if r.dicts != nil {
		dict = r.dicts[columnRef]
	}
	r.mu.Unlock()

	if dict == nil {
		var derr error
		dict, _, derr = r.Dictionary(columnRef)
		if derr != nil {
			return column.Block{}, derr
		}
	}

	raw, err := codec.Decompress(entry.payload)
	if err != nil {
		return column.Block{}, fmt.Errorf("%w: %w", errs.ErrTruncatedSection, err)
	}
	if uint64(len(raw)) != entry.desc.RawSize {
		return column.Block{}, fmt.Errorf("%w: column %d raw size %d != %d",
			errs.ErrRoundTripMismatch, columnRef, len(raw), entry.desc.RawSize)
	}

	if r.metrics != nil {
		r.metrics.ColumnsDecoded.Inc()
	}

	return column.Block{
		SemType:     entry.desc.SemType,
		Codec:       entry.desc.Codec,
		Raw:         raw,
		Count:       int(entry.desc.Count),
		Dictionary:  dict,
		HasMinMax:   entry.desc.HasMinMax,
		Min:         entry.desc.Min,
		Max:         entry.desc.Max,
		TSLayout:    entry.desc.TSLayout,
		TSBracketed: entry.desc.TSBracketed,
	}, nil
}

// ColumnStrings decodes one column to its original display texts.
func (r *Reader) ColumnStrings(columnRef uint32) ([]string, error) {
	blk, err := r.ColumnBlock(columnRef)
	if err != nil {
		return nil, err
	}

	return column.DecodeColumn(blk.SemType, blk), nil
}

// TimestampMillis decodes a timestamp column to epoch-milliseconds. Columns
// stored on the text fallback path are parsed value by value.
func (r *Reader) TimestampMillis(columnRef uint32) ([]int64, error) {
	blk, err := r.ColumnBlock(columnRef)
	if err != nil {
		return nil, err
	}

	if blk.Codec == format.EncodingDelta {
		return column.DecodeTimestampDelta(blk.Raw, blk.Count), nil
	}

	texts := column.DecodeColumn(blk.SemType, blk)
	out := make([]int64, len(texts))
	for i, t := range texts {
		ms, ok := token.ParseTimestampMillis(t)
		if !ok {
			return nil, fmt.Errorf("%w: unparseable timestamp %q", errs.ErrMalformedPredicate, t)
		}
		out[i] = ms
	}

	return out, nil
}
