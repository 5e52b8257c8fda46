package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adam-bouafia/logpress/artifact"
)

var e1Lines = []string{
	"[2024-01-01 00:00:00] INFO user=alice id=1",
	"[2024-01-01 00:00:01] INFO user=bob id=2",
	"[2024-01-01 00:00:02] ERROR user=alice id=3",
}

func openE1(t *testing.T, opts ...artifact.WriterOption) *Engine {
	t.Helper()
	opts = append([]artifact.WriterOption{artifact.WithMinSupport(2)}, opts...)
	data, _, err := artifact.Compress(context.Background(), e1Lines, opts...)
	require.NoError(t, err)
	r, err := artifact.OpenBytes(data)
	require.NoError(t, err)

	return New(r)
}

func TestCountFromHeader(t *testing.T) {
	e := openE1(t)
	count, err := e.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSeverityPredicate(t *testing.T) {
	e := openE1(t)

	ids, err := e.Evaluate(SeverityIn{Severities: []string{"INFO"}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, ids)

	ids, err = e.Evaluate(SeverityIn{Severities: []string{"error"}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids)

	ids, err = e.Evaluate(SeverityIn{Severities: []string{"FATAL"}})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTemplatePredicate(t *testing.T) {
	e := openE1(t)

	all, err := e.Evaluate(All{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	records, err := e.Materialize(all)
	require.NoError(t, err)

	// Each log belongs to exactly one template, and the template predicate
	// returns exactly its members.
	byTemplate := map[uint32][]uint64{}
	for _, rec := range records {
		byTemplate[rec.TemplateID] = append(byTemplate[rec.TemplateID], rec.LogID)
	}
	for tid, want := range byTemplate {
		ids, err := e.Evaluate(TemplateIs{TemplateID: tid})
		require.NoError(t, err)
		assert.Equal(t, want, ids)
	}
}

func TestTimeRangePredicate(t *testing.T) {
	e := openE1(t)

	base := int64(1704067200000) // 2024-01-01 00:00:00 UTC
	ids, err := e.Evaluate(TimeRange{SinceMillis: base, UntilMillis: base + 1000})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, ids)

	ids, err = e.Evaluate(TimeRange{SinceMillis: base + 2000})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids)
}

func TestTimeRangePruneDecodesNothing(t *testing.T) {
	m := artifact.NewMetrics()
	data, _, err := artifact.Compress(context.Background(), e1Lines, artifact.WithMinSupport(1))
	require.NoError(t, err)
	r, err := artifact.OpenBytes(data, artifact.WithReaderMetrics(m))
	require.NoError(t, err)
	e := New(r)

	// A window years away from every stored bound prunes every template.
	ids, err := e.Evaluate(TimeRange{SinceMillis: 1, UntilMillis: 2})
	require.NoError(t, err)
	assert.Empty(t, ids)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "logpress_columns_decoded_total" {
			assert.Zero(t, f.GetMetric()[0].GetCounter().GetValue(),
				"a fully pruned range scan must decode no column bytes")
		}
	}
}

func TestConjunction(t *testing.T) {
	e := openE1(t)

	ids, err := e.Evaluate(And{Clauses: []Predicate{
		SeverityIn{Severities: []string{"INFO"}},
		TimeRange{SinceMillis: 1704067201000},
	}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids)
}

func TestDisjunction(t *testing.T) {
	e := openE1(t)

	ids, err := e.Evaluate(Or{Clauses: []Predicate{
		SeverityIn{Severities: []string{"ERROR"}},
		TimeRange{UntilMillis: 1704067200000},
	}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, ids)
}

func TestMaterializeRoundTrip(t *testing.T) {
	e := openE1(t)

	records, err := e.Query(All{}, 0)
	require.NoError(t, err)
	require.Len(t, records, len(e1Lines))
	for i, rec := range records {
		assert.Equal(t, e1Lines[i], rec.Text)
		assert.Equal(t, uint64(i), rec.LogID)
	}

	assert.Equal(t, "INFO", records[0].Severity)
	assert.Equal(t, "ERROR", records[2].Severity)
	assert.Equal(t, int64(1704067200000), records[0].TimestampMillis)
}

func TestQueryLimit(t *testing.T) {
	e := openE1(t)
	records, err := e.Query(All{}, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSetOps(t *testing.T) {
	assert.Equal(t, []uint64{2, 3}, intersect([]uint64{1, 2, 3}, []uint64{2, 3, 4}))
	assert.Nil(t, intersect([]uint64{1}, []uint64{2}))
	assert.Equal(t, []uint64{1, 2, 3, 4}, union([]uint64{1, 3}, []uint64{2, 3, 4}))
	assert.Equal(t, []uint64{1}, union(nil, []uint64{1}))
}
