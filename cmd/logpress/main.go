// Command logpress is the command-line front-end for the semantic log
// compression engine: compress a log file into an artifact, query or count
// an artifact, or dump its header and template table.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/adam-bouafia/logpress/artifact"
	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/errs"
	"github.com/adam-bouafia/logpress/query"
	"github.com/adam-bouafia/logpress/section"
	"github.com/adam-bouafia/logpress/token"
)

const (
	exitUsage     = 2
	exitIO        = 3
	exitMalformed = 4
	exitCancelled = 5
)

// entropyCoderEnv optionally selects the entropy coder when --level is not
// given.
const entropyCoderEnv = "LOGPRESS_ENTROPY_CODER"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "logpress",
		Usage: "semantic log compression and querying",
		Commands: []*cli.Command{
			compressCommand(ctx),
			queryCommand(),
			countCommand(),
			inspectCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "logpress:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrCancelled):
		return exitCancelled
	case errors.Is(err, errs.ErrBadMagic),
		errors.Is(err, errs.ErrUnknownMajorVersion),
		errors.Is(err, errs.ErrCRCMismatch),
		errors.Is(err, errs.ErrTruncatedSection),
		errors.Is(err, errs.ErrInvalidHeader):
		return exitMalformed
	case errors.Is(err, errs.ErrInputReadFailed),
		errors.Is(err, errs.ErrDiskFull):
		return exitIO
	default:
		return exitUsage
	}
}

func levelToCompression(level string) (format.CompressionType, error) {
	switch strings.ToLower(level) {
	case "", "zstd":
		return format.CompressionZstd, nil
	case "none", "0":
		return format.CompressionNone, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression level %q (none|zstd|s2|lz4)", level)
	}
}

func compressCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "compress",
		Usage: "compress a log file into an artifact",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "input log file"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "output artifact path"},
			&cli.IntFlag{Name: "min-support", Value: 3, Usage: "minimum group size for a real template"},
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Usage: "entropy coder: none|zstd|s2|lz4"},
			&cli.IntFlag{Name: "max-line-bytes", Value: artifact.DefaultMaxLineBytes, Usage: "truncate lines longer than this"},
			&cli.IntFlag{Name: "workers", Usage: "parallel worker count (0 = one per CPU)"},
		},
		Action: func(c *cli.Context) error {
			level := c.String("level")
			if level == "" {
				level = os.Getenv(entropyCoderEnv)
			}
			compression, err := levelToCompression(level)
			if err != nil {
				return err
			}

			stats, err := artifact.CompressFile(ctx, c.String("input"), c.String("output"),
				artifact.WithMinSupport(c.Int("min-support")),
				artifact.WithCompression(compression),
				artifact.WithMaxLineBytes(c.Int("max-line-bytes")),
				artifact.WithWorkers(c.Int("workers")),
			)
			if err != nil {
				return err
			}

			fmt.Printf("%d logs, %d templates, %d -> %d bytes (%.2fx), %.1f%% coverage, %d ms\n",
				stats.LogCount, stats.TemplateCount, stats.OriginalBytes, stats.CompressedBytes,
				stats.Ratio, stats.CoveragePercent, stats.ElapsedMS)

			return nil
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "query an artifact and print matching lines",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "artifact path"},
			&cli.StringSliceFlag{Name: "severity", Aliases: []string{"s"}, Usage: "filter by severity (repeatable)"},
			&cli.IntFlag{Name: "template", Aliases: []string{"t"}, Value: -1, Usage: "filter by template id"},
			&cli.StringFlag{Name: "since", Usage: "timestamp lower bound (epoch ms or timestamp text)"},
			&cli.StringFlag{Name: "until", Usage: "timestamp upper bound (epoch ms or timestamp text)"},
			&cli.StringFlag{Name: "where", Aliases: []string{"w"}, Usage: "SQL WHERE clause"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum results (0 = all)"},
			&cli.BoolFlag{Name: "strict", Usage: "verify the artifact CRC before querying"},
		},
		Action: func(c *cli.Context) error {
			pred, err := buildPredicate(c)
			if err != nil {
				return err
			}

			r, err := openArtifact(c)
			if err != nil {
				return err
			}

			records, err := query.New(r).Query(pred, c.Int("limit"))
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Println(rec.Text)
			}

			return nil
		},
	}
}

func buildPredicate(c *cli.Context) (query.Predicate, error) {
	if where := c.String("where"); where != "" {
		return query.ParseWhere(where)
	}

	var clauses []query.Predicate
	if sevs := c.StringSlice("severity"); len(sevs) > 0 {
		clauses = append(clauses, query.SeverityIn{Severities: sevs})
	}
	if tid := c.Int("template"); tid >= 0 {
		clauses = append(clauses, query.TemplateIs{TemplateID: uint32(tid)})
	}
	if c.String("since") != "" || c.String("until") != "" {
		tr := query.TimeRange{}
		var ok bool
		if s := c.String("since"); s != "" {
			if tr.SinceMillis, ok = parseTimeArg(s); !ok {
				return nil, fmt.Errorf("%w: --since %q", errs.ErrMalformedPredicate, s)
			}
		}
		if u := c.String("until"); u != "" {
			if tr.UntilMillis, ok = parseTimeArg(u); !ok {
				return nil, fmt.Errorf("%w: --until %q", errs.ErrMalformedPredicate, u)
			}
		}
		clauses = append(clauses, tr)
	}

	switch len(clauses) {
	case 0:
		return query.All{}, nil
	case 1:
		return clauses[0], nil
	default:
		return query.And{Clauses: clauses}, nil
	}
}

func parseTimeArg(s string) (int64, bool) {
	if ms, ok := token.ParseTimestampMillis(s); ok {
		return ms, true
	}
	var ms int64
	if _, err := fmt.Sscanf(s, "%d", &ms); err == nil {
		return ms, true
	}

	return 0, false
}

func openArtifact(c *cli.Context) (*artifact.Reader, error) {
	var opts []artifact.ReaderOption
	if c.Bool("strict") {
		opts = append(opts, artifact.WithStrictCRC())
	}

	return artifact.Open(c.String("input"), opts...)
}

func countCommand() *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "print an artifact's total log count",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "artifact path"},
			&cli.BoolFlag{Name: "strict", Usage: "verify the artifact CRC"},
		},
		Action: func(c *cli.Context) error {
			r, err := openArtifact(c)
			if err != nil {
				return err
			}
			count, err := r.Count()
			if err != nil {
				return err
			}
			fmt.Println(count)

			return nil
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "dump an artifact's header and template table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "artifact path"},
			&cli.BoolFlag{Name: "strict", Usage: "verify the artifact CRC"},
		},
		Action: func(c *cli.Context) error {
			r, err := openArtifact(c)
			if err != nil {
				return err
			}

			h, err := r.Header()
			if err != nil {
				return err
			}
			fmt.Printf("format %s, %d logs, %d original bytes, %d templates, entropy coder %s\n",
				h.FormatVersion, h.LogCount, h.OriginalBytes, h.TemplateCount, h.EntropyCoder)
			if h.SkippedLines > 0 || h.TruncatedLines > 0 {
				fmt.Printf("skipped %d lines, truncated %d lines\n", h.SkippedLines, h.TruncatedLines)
			}

			records, err := r.Templates()
			if err != nil {
				return err
			}
			pool, err := r.TokenPool()
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Printf("template %d: %d matches, first log %d%s\n  %s\n",
					rec.ID, rec.MatchCount, rec.FirstLogID, syntheticTag(rec), renderPattern(rec, pool))
			}

			return nil
		},
	}
}

func syntheticTag(rec section.TemplateRecord) string {
	if rec.Synthetic {
		return " (synthetic)"
	}

	return ""
}

func renderPattern(rec section.TemplateRecord, pool []string) string {
	var sb strings.Builder
	for _, s := range rec.Slots {
		if s.Literal {
			sb.WriteString(pool[s.TokenRef])
		} else {
			sb.WriteString("<" + s.SemType.String() + ">")
		}
	}

	return sb.String()
}
