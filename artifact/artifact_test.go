package artifact

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adam-bouafia/logpress/format"
	"github.com/adam-bouafia/logpress/internal/errs"
)

var e1Lines = []string{
	"[2024-01-01 00:00:00] INFO user=alice id=1",
	"[2024-01-01 00:00:01] INFO user=bob id=2",
	"[2024-01-01 00:00:02] ERROR user=alice id=3",
}

func TestCompressProducesReadableArtifact(t *testing.T) {
	data, stats, err := Compress(context.Background(), e1Lines, WithMinSupport(2))
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, uint64(3), stats.LogCount)
	assert.Positive(t, stats.TemplateCount)
	assert.Positive(t, stats.Ratio)

	r, err := OpenBytes(data, WithStrictCRC())
	require.NoError(t, err)

	count, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	h, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, "zstd", h.EntropyCoder)
	assert.Equal(t, stats.OriginalBytes, h.OriginalBytes)

	templates, err := r.Templates()
	require.NoError(t, err)
	assert.Len(t, templates, stats.TemplateCount)

	indexes, err := r.Indexes()
	require.NoError(t, err)
	assert.Len(t, indexes.TemplateOf, 3)
	require.NotEmpty(t, indexes.Severity)
}

func TestCompressDeterministic(t *testing.T) {
	a, _, err := Compress(context.Background(), e1Lines, WithMinSupport(2))
	require.NoError(t, err)
	b, _, err := Compress(context.Background(), e1Lines, WithMinSupport(2))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "same input and options must produce byte-identical artifacts")
}

func TestCompressEmptyInput(t *testing.T) {
	data, stats, err := Compress(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, stats.LogCount)

	r, err := OpenBytes(data, WithStrictCRC())
	require.NoError(t, err)
	count, err := r.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCompressCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Compress(ctx, e1Lines)
	require.ErrorIs(t, err, errs.ErrCancelled)
}

func TestCompressTruncatesLongLines(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	_, stats, err := Compress(context.Background(), []string{string(long), "short"}, WithMaxLineBytes(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TruncatedLines)
}

func TestOpenBytesBadMagic(t *testing.T) {
	data, _, err := Compress(context.Background(), e1Lines)
	require.NoError(t, err)
	data[0] = 'X'
	_, err = OpenBytes(data)
	require.ErrorIs(t, err, errs.ErrBadMagic)
}

func TestOpenBytesUnknownMajorVersion(t *testing.T) {
	data, _, err := Compress(context.Background(), e1Lines)
	require.NoError(t, err)
	data[4] = 99
	_, err = OpenBytes(data)
	require.ErrorIs(t, err, errs.ErrUnknownMajorVersion)
}

func TestOpenBytesTruncated(t *testing.T) {
	data, _, err := Compress(context.Background(), e1Lines)
	require.NoError(t, err)
	_, err = OpenBytes(data[:len(data)/2])
	require.Error(t, err)
}

func TestStrictCRCDetectsCorruption(t *testing.T) {
	data, _, err := Compress(context.Background(), e1Lines, WithCompression(format.CompressionNone))
	require.NoError(t, err)

	// Flip a byte inside the artifact body, past the preamble.
	corrupted := append([]byte(nil), data...)
	corrupted[len(corrupted)/2] ^= 0xFF

	_, err = OpenBytes(corrupted, WithStrictCRC())
	require.Error(t, err)
}

func TestColumnRoundTripThroughArtifact(t *testing.T) {
	data, _, err := Compress(context.Background(), e1Lines, WithMinSupport(2))
	require.NoError(t, err)

	r, err := OpenBytes(data)
	require.NoError(t, err)

	templates, err := r.Templates()
	require.NoError(t, err)
	for _, rec := range templates {
		for _, s := range rec.Slots {
			if s.Literal {
				continue
			}
			values, err := r.ColumnStrings(s.ColumnRef)
			require.NoError(t, err)
			assert.Len(t, values, int(rec.MatchCount))
		}
	}
}

func TestEntropyCoders(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		data, _, err := Compress(context.Background(), e1Lines, WithCompression(ct))
		require.NoError(t, err, "coder %s", ct)

		r, err := OpenBytes(data, WithStrictCRC())
		require.NoError(t, err, "coder %s", ct)
		count, err := r.Count()
		require.NoError(t, err, "coder %s", ct)
		assert.Equal(t, uint64(3), count, "coder %s", ct)
	}
}

func TestCompressFileAtomic(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "app.log")
	output := filepath.Join(dir, "app.lsc")

	var content bytes.Buffer
	for _, line := range e1Lines {
		content.WriteString(line)
		content.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(input, content.Bytes(), 0o644))

	stats, err := CompressFile(context.Background(), input, output, WithMinSupport(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.LogCount)

	r, err := Open(output, WithStrictCRC())
	require.NoError(t, err)
	count, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	// No temporary files survive a successful run.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCompressFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := CompressFile(context.Background(), filepath.Join(dir, "absent.log"), filepath.Join(dir, "out.lsc"))
	require.ErrorIs(t, err, errs.ErrInputReadFailed)
}

func TestMetricsRecorded(t *testing.T) {
	m := NewMetrics()
	_, _, err := Compress(context.Background(), e1Lines, WithMetrics(m))
	require.NoError(t, err)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "logpress_compress_operations_total" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, float64(1), f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}
