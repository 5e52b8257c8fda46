package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adam-bouafia/logpress/column"
	"github.com/adam-bouafia/logpress/compress"
	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/dedupe"
	"github.com/adam-bouafia/logpress/internal/errs"
	"github.com/adam-bouafia/logpress/internal/log"
	"github.com/adam-bouafia/logpress/internal/options"
	bufpool "github.com/adam-bouafia/logpress/internal/pool"
	"github.com/adam-bouafia/logpress/internal/workerpool"
	"github.com/adam-bouafia/logpress/section"
	"github.com/adam-bouafia/logpress/semtype"
	"github.com/adam-bouafia/logpress/template"
	"github.com/adam-bouafia/logpress/token"
)

// columnSpec is one (template, variable-position) column awaiting encoding.
type columnSpec struct {
	ref        uint32
	templateID uint32
	position   uint16
	semType    format.SemanticType
	values     []template.Value
}

type encodedBlock struct {
	desc    section.BlockDescriptor
	dict    []string
	payload []byte
	err     error
}

// Compress runs the full pipeline over lines and returns the serialized
// artifact plus run statistics. Lines are taken without trailing newlines;
// the newline normalization is recorded in the artifact header.
func Compress(ctx context.Context, lines []string, opts ...WriterOption) ([]byte, Stats, error) {
	cfg := defaultWriterConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, Stats{}, err
	}

	start := time.Now()
	stats := Stats{LogCount: uint64(len(lines))}

	prepared := make([]string, len(lines))
	for i, line := range lines {
		// Lines are joined by single newlines; the trailing one is
		// normalized away, so only len(lines)-1 separators count.
		stats.OriginalBytes += uint64(len(line))
		if i > 0 {
			stats.OriginalBytes++
		}
		if len(line) > cfg.maxLineBytes {
			line = line[:cfg.maxLineBytes]
			stats.TruncatedLines++
		}
		prepared[i] = line
	}

	// Lexing is trivially parallel: each worker owns its slice of lines and
	// emits its own token vector; order is restored by index.
	tokenVectors, err := workerpool.Map(ctx, prepared, cfg.workers, func(s string) []token.Token {
		return token.Lex([]byte(s))
	})
	if err != nil {
		return nil, Stats{}, err
	}

	tokLines := make([]token.Line, len(lines))
	for i, toks := range tokenVectors {
		tokLines[i] = token.Line{LogID: uint64(i), Tokens: toks}
	}

	recognizer := semtype.NewRecognizer(
		semtype.WithThreshold(cfg.threshold),
		semtype.WithCustomRules(cfg.customRules...),
	)

	templates, assigns := template.Mine(tokLines, recognizer, template.Options{
		MinSupport:   cfg.minSupport,
		VarThreshold: cfg.varThreshold,
	})
	if ctx.Err() != nil {
		return nil, Stats{}, errs.ErrCancelled
	}

	stats.TemplateCount = len(templates)
	covered := uint64(0)
	for _, t := range templates {
		if !t.Synthetic {
			covered += uint64(t.MatchCount)
		}
	}
	if len(lines) > 0 {
		stats.CoveragePercent = float64(covered) / float64(len(lines)) * 100
	}

	specs := buildColumns(templates, assigns)

	// Column encoding is parallel over (template, column) pairs, then each
	// block goes through the entropy coder, also in parallel.
	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, Stats{}, err
	}

	blocks, err := workerpool.Map(ctx, specs, cfg.workers, func(spec columnSpec) encodedBlock {
		blk := column.EncodeColumn(spec.semType, spec.values)
		payload, cerr := codec.Compress(blk.Raw)
		if cerr != nil {
			return encodedBlock{err: cerr}
		}

		desc := section.BlockDescriptor{
			ColumnRef:   spec.ref,
			TemplateID:  spec.templateID,
			Position:    spec.position,
			SemType:     spec.semType,
			Codec:       blk.Codec,
			Count:       uint64(blk.Count),
			RawSize:     uint64(len(blk.Raw)),
			CompSize:    uint64(len(payload)),
			HasMinMax:   blk.HasMinMax,
			Min:         blk.Min,
			Max:         blk.Max,
			TSLayout:    blk.TSLayout,
			TSBracketed: blk.TSBracketed,
		}

		return encodedBlock{desc: desc, dict: blk.Dictionary, payload: payload}
	})
	if err != nil {
		return nil, Stats{}, err
	}
	for _, b := range blocks {
		if b.err != nil {
			return nil, Stats{}, b.err
		}
	}

	artifact, err := serialize(cfg, stats, templates, assigns, blocks, severityPostings(tokLines))
	if err != nil {
		return nil, Stats{}, err
	}

	stats.CompressedBytes = uint64(len(artifact))
	stats.ElapsedMS = time.Since(start).Milliseconds()
	stats = stats.fillRatio()

	if cfg.metrics != nil {
		cfg.metrics.CompressOps.Inc()
		cfg.metrics.BytesIn.Add(float64(stats.OriginalBytes))
		cfg.metrics.BytesOut.Add(float64(stats.CompressedBytes))
	}

	log.Debug("compression finished",
		"logs", stats.LogCount, "templates", stats.TemplateCount,
		"original", stats.OriginalBytes, "compressed", stats.CompressedBytes)

	return artifact, stats, nil
}

// buildColumns assigns dense global column refs to every variable slot in
// template-id order and gathers each column's values in log-id order.
func buildColumns(templates []template.Template, assigns []template.Assignment) []columnSpec {
	var specs []columnSpec
	colOf := make(map[uint32]map[uint16]int) // templateID -> position -> spec index

	nextRef := uint32(0)
	for ti := range templates {
		t := &templates[ti]
		byPos := make(map[uint16]int)
		for si := range t.Slots {
			if t.Slots[si].Literal {
				continue
			}
			t.Slots[si].ColumnRef = int(nextRef)
			byPos[uint16(t.Slots[si].Position)] = len(specs)
			specs = append(specs, columnSpec{
				ref:        nextRef,
				templateID: uint32(t.ID),
				position:   uint16(t.Slots[si].Position),
				semType:    t.Slots[si].SemType,
			})
			nextRef++
		}
		colOf[uint32(t.ID)] = byPos
	}

	for _, a := range assigns {
		t := templates[a.TemplateID]
		vi := 0
		for _, s := range t.Slots {
			if s.Literal {
				continue
			}
			si := colOf[uint32(t.ID)][uint16(s.Position)]
			specs[si].values = append(specs[si].values, a.Values[vi])
			vi++
		}
	}

	return specs
}

// serialize lays the artifact out section by section and appends the footer
// and trailer.
func serialize(cfg *writerConfig, stats Stats, templates []template.Template, assigns []template.Assignment, blocks []encodedBlock, severity []section.SeverityPosting) ([]byte, error) {
	indexes := buildIndexes(assigns, blocks, severity)

	flags := uint16(0)
	if len(indexes.Timestamps) > 0 {
		flags |= section.FlagHasTimestampIndex
	}
	if len(indexes.Severity) > 0 {
		flags |= section.FlagHasSeverityIndex
	}

	header := section.Header{
		FormatVersion:   fmt.Sprintf("%d.%d", section.VersionMajor, section.VersionMinor),
		LogCount:        stats.LogCount,
		OriginalBytes:   stats.OriginalBytes,
		SkippedLines:    stats.SkippedLines,
		TruncatedLines:  stats.TruncatedLines,
		TemplateCount:   uint64(len(templates)),
		TrailingNewline: "normalized",
		EntropyCoder:    cfg.entropyCoderName(),
		MaxLineBytes:    uint64(cfg.maxLineBytes),
	}
	headerBytes, err := header.Bytes()
	if err != nil {
		return nil, err
	}

	pool := dedupe.NewInterner()
	records := make([]section.TemplateRecord, len(templates))
	for i, t := range templates {
		rec := section.TemplateRecord{
			ID:         uint32(t.ID),
			Synthetic:  t.Synthetic,
			MatchCount: uint64(t.MatchCount),
			FirstLogID: t.FirstLogID,
		}
		for _, s := range t.Slots {
			if s.Literal {
				code, _ := pool.Intern(s.LiteralText)
				rec.Slots = append(rec.Slots, section.SlotRecord{Literal: true, TokenRef: code})
			} else {
				rec.Slots = append(rec.Slots, section.SlotRecord{
					SemType:   s.SemType,
					ColumnRef: uint32(s.ColumnRef),
				})
			}
		}
		records[i] = rec
	}

	var dicts []section.DictionaryRecord
	for _, b := range blocks {
		if b.dict != nil {
			dicts = append(dicts, section.DictionaryRecord{ColumnRef: b.desc.ColumnRef, Entries: b.dict})
		}
	}

	buf := section.NewPreamble(flags).Bytes()
	var footer section.Footer

	// Sections are staged in a pooled scratch buffer and copied into the
	// artifact, so the per-run garbage stays bounded.
	scratch := bufpool.GetBuffer()
	defer bufpool.PutBuffer(scratch)

	addSection := func(id section.SectionID, content []byte) {
		footer.Entries = append(footer.Entries, section.SectionEntry{
			ID:     id,
			Offset: uint64(len(buf)),
			Length: uint64(len(content)),
		})
		buf = append(buf, content...)
	}
	stage := func(build func(buf []byte) []byte) []byte {
		scratch.Reset()
		scratch.B = build(scratch.B)

		return scratch.B
	}

	addSection(section.SectionHeader, headerBytes)
	addSection(section.SectionTemplateTable, stage(func(b []byte) []byte {
		return section.AppendTemplateTable(b, records)
	}))
	addSection(section.SectionTokenPool, stage(func(b []byte) []byte {
		return section.AppendTokenPool(b, pool.Values())
	}))
	addSection(section.SectionDictionaries, stage(func(b []byte) []byte {
		return section.AppendDictionaries(b, dicts)
	}))

	blocksStart := len(buf)
	buf = section.AppendUvarint(buf, uint64(len(blocks)))
	for _, b := range blocks {
		buf = section.AppendBlockDescriptor(buf, 0, b.desc)
		buf = append(buf, b.payload...)
	}
	footer.Entries = append(footer.Entries, section.SectionEntry{
		ID:     section.SectionColumnBlocks,
		Offset: uint64(blocksStart),
		Length: uint64(len(buf) - blocksStart),
	})

	addSection(section.SectionIndexes, indexes.Bytes())

	footerOffset := uint64(len(buf))
	buf = append(buf, footer.Bytes()...)
	buf = section.AppendTrailer(buf, footerOffset)

	return buf, nil
}

// severityPostings scans the token stream for severity keywords so the
// index stays sound for every line, including those that fall into a
// synthetic template.
func severityPostings(lines []token.Line) []section.SeverityPosting {
	postings := make(map[string][]uint64)
	var order []string

	for _, line := range lines {
		for _, tok := range line.Tokens {
			sev, ok := token.SeverityKeyword(tok.Text)
			if !ok {
				continue
			}
			key := strings.ToUpper(sev)
			ids := postings[key]
			if ids == nil {
				order = append(order, key)
			}
			if len(ids) > 0 && ids[len(ids)-1] == line.LogID {
				continue
			}
			postings[key] = append(ids, line.LogID)
		}
	}

	out := make([]section.SeverityPosting, 0, len(order))
	for _, sev := range order {
		out = append(out, section.SeverityPosting{Severity: sev, LogIDs: postings[sev]})
	}

	return out
}

// buildIndexes derives the per-log template vector and per-template
// timestamp bounds from the mining result and encoded blocks.
func buildIndexes(assigns []template.Assignment, blocks []encodedBlock, severity []section.SeverityPosting) section.Indexes {
	var x section.Indexes

	x.TemplateOf = make([]uint32, len(assigns))
	for i, a := range assigns {
		x.TemplateOf[i] = uint32(a.TemplateID)
	}

	x.Severity = severity

	tsRange := make(map[uint32]*section.TimestampRange)
	var tsOrder []uint32
	for _, b := range blocks {
		if b.desc.SemType != format.SemanticTimestamp || !b.desc.HasMinMax {
			continue
		}
		r, ok := tsRange[b.desc.TemplateID]
		if !ok {
			tsRange[b.desc.TemplateID] = &section.TimestampRange{
				TemplateID: b.desc.TemplateID, Min: b.desc.Min, Max: b.desc.Max,
			}
			tsOrder = append(tsOrder, b.desc.TemplateID)

			continue
		}
		if b.desc.Min < r.Min {
			r.Min = b.desc.Min
		}
		if b.desc.Max > r.Max {
			r.Max = b.desc.Max
		}
	}
	for _, tid := range tsOrder {
		x.Timestamps = append(x.Timestamps, *tsRange[tid])
	}

	return x
}

// CompressFile reads inputPath, compresses its lines, and writes the
// artifact to outputPath via a temporary file renamed atomically on success,
// so a failed or cancelled run leaves nothing behind.
func CompressFile(ctx context.Context, inputPath, outputPath string, opts ...WriterOption) (Stats, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", errs.ErrInputReadFailed, err)
	}

	lines := splitLines(string(data))
	artifact, stats, err := Compress(ctx, lines, opts...)
	if err != nil {
		return Stats{}, err
	}

	if err := writeAtomic(outputPath, artifact); err != nil {
		return Stats{}, err
	}

	// Report the on-disk size, which equals the in-memory artifact length.
	stats.CompressedBytes = uint64(len(artifact))

	return stats.fillRatio(), nil
}

func splitLines(data string) []string {
	data = strings.TrimSuffix(data, "\n")
	if data == "" {
		return nil
	}
	lines := strings.Split(data, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".logpress-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrDiskFull, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("%w: %w", errs.ErrDiskFull, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("%w: %w", errs.ErrDiskFull, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("%w: %w", errs.ErrDiskFull, err)
	}

	return nil
}
