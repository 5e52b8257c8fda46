package section

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/adam-bouafia/logpress/internal/errs"
)

// Preamble is the fixed 8-byte prefix of every artifact.
type Preamble struct {
	Major uint8
	Minor uint8
	Flags uint16
}

// NewPreamble creates a preamble at the current format version.
func NewPreamble(flags uint16) Preamble {
	return Preamble{Major: VersionMajor, Minor: VersionMinor, Flags: flags}
}

// Bytes serializes the preamble.
func (p Preamble) Bytes() []byte {
	b := make([]byte, PreambleSize)
	copy(b[0:4], Magic)
	b[4] = p.Major
	b[5] = p.Minor
	engine.PutUint16(b[6:8], p.Flags)

	return b
}

// ParsePreamble validates the magic and version and returns the parsed
// preamble. An unknown major version is rejected.
func ParsePreamble(data []byte) (Preamble, error) {
	if len(data) < PreambleSize {
		return Preamble{}, errs.ErrTruncatedSection
	}
	if string(data[0:4]) != Magic {
		return Preamble{}, errs.ErrBadMagic
	}
	p := Preamble{
		Major: data[4],
		Minor: data[5],
		Flags: engine.Uint16(data[6:8]),
	}
	if p.Major != VersionMajor {
		return Preamble{}, fmt.Errorf("%w: %d.%d", errs.ErrUnknownMajorVersion, p.Major, p.Minor)
	}

	return p, nil
}

// Header is the artifact's versioned key-value map, serialized as JSON with
// a length prefix. Field order is fixed by the struct, so serialization is
// deterministic for identical inputs.
type Header struct {
	FormatVersion   string `json:"format_version"`
	LogCount        uint64 `json:"log_count"`
	OriginalBytes   uint64 `json:"original_bytes"`
	SkippedLines    uint64 `json:"skipped_lines"`
	TruncatedLines  uint64 `json:"truncated_lines"`
	TemplateCount   uint64 `json:"template_count"`
	TrailingNewline string `json:"trailing_newline"`
	EntropyCoder    string `json:"entropy_coder"`
	MaxLineBytes    uint64 `json:"max_line_bytes"`
}

// headerSchema constrains the header map so a reader can reject artifacts
// whose header was produced by something that is not a logpress writer
// before trusting any counts in it.
const headerSchema = `{
  "type": "object",
  "required": ["format_version", "log_count", "original_bytes", "entropy_coder"],
  "properties": {
    "format_version": {"type": "string", "pattern": "^[0-9]+\\.[0-9]+$"},
    "log_count": {"type": "integer", "minimum": 0},
    "original_bytes": {"type": "integer", "minimum": 0},
    "skipped_lines": {"type": "integer", "minimum": 0},
    "truncated_lines": {"type": "integer", "minimum": 0},
    "template_count": {"type": "integer", "minimum": 0},
    "trailing_newline": {"type": "string", "enum": ["normalized", "preserved"]},
    "entropy_coder": {"type": "string", "enum": ["none", "zstd", "s2", "lz4"]},
    "max_line_bytes": {"type": "integer", "minimum": 0}
  }
}`

var compiledHeaderSchema = jsonschema.MustCompileString("header.schema.json", headerSchema)

// Bytes serializes the header as HeaderLen(u32) + JSON, validating it against
// the header schema first.
func (h Header) Bytes() ([]byte, error) {
	payload, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}
	if err := validateHeaderJSON(payload); err != nil {
		return nil, err
	}

	b := make([]byte, 4, 4+len(payload))
	engine.PutUint32(b, uint32(len(payload)))

	return append(b, payload...), nil
}

// ParseHeader decodes and schema-validates a header section.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < 4 {
		return Header{}, errs.ErrTruncatedSection
	}
	n := engine.Uint32(data[0:4])
	if int(n) > len(data)-4 {
		return Header{}, errs.ErrTruncatedSection
	}
	payload := data[4 : 4+n]
	if err := validateHeaderJSON(payload); err != nil {
		return Header{}, err
	}

	var h Header
	if err := json.Unmarshal(payload, &h); err != nil {
		return Header{}, fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}

	return h, nil
}

func validateHeaderJSON(payload []byte) error {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}
	if err := compiledHeaderSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}

	return nil
}
