// Package logpress implements a semantic log compression engine: it mines
// the format-string templates behind unstructured log lines and stores the
// invariant parts once, encoding the per-line variables in type-specialized
// columnar streams inside a self-describing, queryable, losslessly
// reconstructable binary artifact.
//
// # Basic Usage
//
// Compressing lines in memory:
//
//	data, stats, _ := logpress.CompressLines(lines, logpress.WithMinSupport(2))
//	fmt.Printf("ratio %.1fx, %d templates\n", stats.Ratio, stats.TemplateCount)
//
// Compressing a file:
//
//	stats, _ := logpress.CompressFile("app.log", "app.lsc")
//
// Querying an artifact:
//
//	r, _ := logpress.Open("app.lsc")
//	records, _ := logpress.QueryWhere(r, "severity IN ('ERROR','WARN')", 100)
//	for _, rec := range records {
//	    fmt.Println(rec.Text)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the artifact
// and query packages, simplifying the most common use cases. For advanced
// usage and fine-grained control, use those packages directly: token (the
// lexer), semtype (the semantic type recognizer), template (the miner),
// column (the per-type codecs), compress (the entropy-coder layer), section
// (the wire format), artifact (the pipeline and container), and query (the
// predicate engine).
package logpress

import (
	"context"

	"github.com/adam-bouafia/logpress/artifact"
	"github.com/adam-bouafia/logpress/query"
	"github.com/adam-bouafia/logpress/semtype"
	"github.com/adam-bouafia/logpress/template"
	"github.com/adam-bouafia/logpress/token"
)

// Re-exported types for the common path.
type (
	// Stats reports the outcome of one compression run.
	Stats = artifact.Stats
	// Reader is an open artifact handle.
	Reader = artifact.Reader
	// Record is one reconstructed log line plus typed fields.
	Record = query.Record
	// Predicate selects a subset of log-ids.
	Predicate = query.Predicate
	// CompressOption configures a compression run.
	CompressOption = artifact.WriterOption
	// OpenOption configures an artifact handle.
	OpenOption = artifact.ReaderOption
)

// Re-exported option constructors.
var (
	WithMinSupport        = artifact.WithMinSupport
	WithVariableThreshold = artifact.WithVariableThreshold
	WithCompression       = artifact.WithCompression
	WithMaxLineBytes      = artifact.WithMaxLineBytes
	WithWorkers           = artifact.WithWorkers
	WithCustomRules       = artifact.WithCustomRules
	WithMetrics           = artifact.WithMetrics
	WithStrictCRC         = artifact.WithStrictCRC
)

// CompressLines compresses log lines in memory and returns the artifact
// bytes plus run statistics.
func CompressLines(lines []string, opts ...CompressOption) ([]byte, Stats, error) {
	return artifact.Compress(context.Background(), lines, opts...)
}

// CompressToBytes compresses log lines and returns only the artifact bytes.
func CompressToBytes(lines []string, opts ...CompressOption) ([]byte, error) {
	data, _, err := artifact.Compress(context.Background(), lines, opts...)

	return data, err
}

// CompressFile compresses inputPath into an artifact at outputPath,
// written atomically.
func CompressFile(inputPath, outputPath string, opts ...CompressOption) (Stats, error) {
	return artifact.CompressFile(context.Background(), inputPath, outputPath, opts...)
}

// CompressContext is CompressLines with caller-controlled cancellation.
func CompressContext(ctx context.Context, lines []string, opts ...CompressOption) ([]byte, Stats, error) {
	return artifact.Compress(ctx, lines, opts...)
}

// Open loads the artifact at path.
func Open(path string, opts ...OpenOption) (*Reader, error) {
	return artifact.Open(path, opts...)
}

// OpenBytes opens an in-memory artifact.
func OpenBytes(data []byte, opts ...OpenOption) (*Reader, error) {
	return artifact.OpenBytes(data, opts...)
}

// Count returns the artifact's total log count from the header alone.
func Count(r *Reader) (uint64, error) {
	return r.Count()
}

// Query evaluates a predicate and materializes up to limit matching
// records; limit <= 0 means no limit.
func Query(r *Reader, pred Predicate, limit int) ([]Record, error) {
	return query.New(r).Query(pred, limit)
}

// QueryWhere evaluates a SQL WHERE clause against the artifact.
//
//	records, err := logpress.QueryWhere(r, "severity = 'ERROR' AND timestamp >= 1704067200000", 100)
func QueryWhere(r *Reader, where string, limit int) ([]Record, error) {
	pred, err := query.ParseWhere(where)
	if err != nil {
		return nil, err
	}

	return query.New(r).Query(pred, limit)
}

// ExtractSchemas mines templates from lines without building an artifact,
// for schema-only use.
func ExtractSchemas(lines []string, minSupport int) ([]template.Template, error) {
	tokLines := make([]token.Line, len(lines))
	for i, line := range lines {
		tokLines[i] = token.Line{LogID: uint64(i), Tokens: token.Lex([]byte(line))}
	}

	recognizer := semtype.NewRecognizer()
	templates, _ := template.Mine(tokLines, recognizer, template.Options{MinSupport: minSupport})

	return templates, nil
}
