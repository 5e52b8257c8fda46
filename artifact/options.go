package artifact

import (
	"fmt"

	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/options"
	"github.com/adam-bouafia/logpress/semtype"
	"github.com/adam-bouafia/logpress/template"
)

// DefaultMaxLineBytes caps a single input line; longer lines are truncated
// and counted.
const DefaultMaxLineBytes = 1 << 20

type writerConfig struct {
	minSupport   int
	varThreshold int
	compression  format.CompressionType
	maxLineBytes int
	workers      int
	customRules  []semtype.CustomRule
	threshold    float64
	metrics      *Metrics
}

// WriterOption configures a compression run.
type WriterOption = options.Option[*writerConfig]

func defaultWriterConfig() *writerConfig {
	return &writerConfig{
		minSupport:   template.DefaultMinSupport,
		varThreshold: template.DefaultVariableThreshold,
		compression:  format.CompressionZstd,
		maxLineBytes: DefaultMaxLineBytes,
		threshold:    semtype.DefaultThreshold,
	}
}

// WithMinSupport sets the minimum group size required for a real template.
func WithMinSupport(n int) WriterOption {
	return options.New(func(c *writerConfig) error {
		if n < 1 {
			return fmt.Errorf("min support must be >= 1, got %d", n)
		}
		c.minSupport = n

		return nil
	})
}

// WithVariableThreshold sets the distinct-value count at which a token
// position with a recognized semantic type becomes a variable candidate.
func WithVariableThreshold(n int) WriterOption {
	return options.NoError(func(c *writerConfig) { c.varThreshold = n })
}

// WithCompression selects the entropy coder applied to every column block.
func WithCompression(t format.CompressionType) WriterOption {
	return options.New(func(c *writerConfig) error {
		switch t {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			c.compression = t

			return nil
		default:
			return fmt.Errorf("invalid compression type: %s", t)
		}
	})
}

// WithMaxLineBytes caps a single input line's length.
func WithMaxLineBytes(n int) WriterOption {
	return options.New(func(c *writerConfig) error {
		if n < 1 {
			return fmt.Errorf("max line bytes must be >= 1, got %d", n)
		}
		c.maxLineBytes = n

		return nil
	})
}

// WithWorkers bounds the parallel worker count; 0 means one per CPU.
func WithWorkers(n int) WriterOption {
	return options.NoError(func(c *writerConfig) { c.workers = n })
}

// WithCustomRules registers extra semantic-type rules for the recognizer.
func WithCustomRules(rules ...semtype.CustomRule) WriterOption {
	return options.NoError(func(c *writerConfig) { c.customRules = append(c.customRules, rules...) })
}

// WithRecognizerThreshold overrides the recognizer's confidence threshold.
func WithRecognizerThreshold(t float64) WriterOption {
	return options.NoError(func(c *writerConfig) { c.threshold = t })
}

// WithMetrics attaches an optional metrics recorder to the run.
func WithMetrics(m *Metrics) WriterOption {
	return options.NoError(func(c *writerConfig) { c.metrics = m })
}

func (c *writerConfig) entropyCoderName() string {
	switch c.compression {
	case format.CompressionZstd:
		return "zstd"
	case format.CompressionS2:
		return "s2"
	case format.CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

func compressionFromName(name string) (format.CompressionType, bool) {
	switch name {
	case "zstd":
		return format.CompressionZstd, true
	case "s2":
		return format.CompressionS2, true
	case "lz4":
		return format.CompressionLZ4, true
	case "none":
		return format.CompressionNone, true
	default:
		return 0, false
	}
}
