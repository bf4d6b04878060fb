package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorim/verdicto/internal/domain"
)

func pairTable() *Table {
	return &Table{
		Columns: []string{"id", "source", "target"},
		Rows: [][]string{
			{"1", "The cat sleeps.", "O gato dorme."},
			{"2", "", ""},
			{"3", "The dog barks.", "O cão ladra."},
			{"4", "nan", "nan"},
			{"5", "Good morning.", "Bom dia."},
		},
	}
}

func newTestReconciler() *Reconciler {
	return NewReconciler("source", "target", "en", "pt")
}

func TestExtract_DensePositionsSkipInvalidRows(t *testing.T) {
	pairs, err := newTestReconciler().Extract(pairTable())
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	// Skipped rows consume no position: positions stay dense while the
	// original row indices keep their gaps.
	wantRows := map[int]int{1: 0, 2: 2, 3: 4}
	for _, p := range pairs {
		assert.Equal(t, wantRows[p.Key.Position], p.Key.Row, "position %d", p.Key.Position)
		assert.Equal(t, "en", p.SourceLanguage)
		assert.Equal(t, "pt", p.TargetLanguage)
	}
	assert.Equal(t, "The dog barks.", pairs[1].SourceText)
	assert.Equal(t, "O cão ladra.", pairs[1].TargetText)
}

func TestExtract_TrimsSurroundingWhitespace(t *testing.T) {
	table := &Table{
		Columns: []string{"source", "target"},
		Rows:    [][]string{{"  hello  ", "\tolá\n"}},
	}
	pairs, err := NewReconciler("source", "target", "en", "pt").Extract(table)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "hello", pairs[0].SourceText)
	assert.Equal(t, "olá", pairs[0].TargetText)
}

func TestExtract_NanPlaceholderIsCaseInsensitive(t *testing.T) {
	table := &Table{
		Columns: []string{"source", "target"},
		Rows: [][]string{
			{"NaN", "something"},
			{"something", "NAN"},
			{"real", "real"},
		},
	}
	pairs, err := NewReconciler("source", "target", "en", "pt").Extract(table)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "real", pairs[0].SourceText)
}

func TestExtract_UnknownColumn(t *testing.T) {
	_, err := NewReconciler("missing", "target", "en", "pt").Extract(pairTable())
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = NewReconciler("source", "missing", "en", "pt").Extract(pairTable())
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestExtract_NoValidRows(t *testing.T) {
	table := &Table{
		Columns: []string{"source", "target"},
		Rows:    [][]string{{"", ""}, {"nan", "nan"}},
	}
	_, err := NewReconciler("source", "target", "en", "pt").Extract(table)
	assert.ErrorIs(t, err, ErrNoValidRows)
}

// TestMerge_PositionResolvesToOriginalRow is the correlation property the
// whole indirection exists for: with rows [valid, empty, valid, empty,
// valid] at indices 0..4, a result tagged position=2 must land on original
// index 2, not index 1.
func TestMerge_PositionResolvesToOriginalRow(t *testing.T) {
	table := pairTable()
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	results := []domain.JudgmentResult{{
		Model:      "llama3.1:8b",
		Pair:       domain.SentencePair{Key: domain.RowKey{Position: 2, Row: 2}},
		IsCorrect:  true,
		Confidence: 0.9,
		Reasoning:  "accurate translation",
		Timestamp:  ts,
		Success:    true,
	}}

	out, err := newTestReconciler().Merge(table, results)
	require.NoError(t, err)

	verdictCol, _ := out.ColumnIndex(ColumnVerdict)
	assert.Equal(t, domain.VerdictCorrect, out.Cell(2, verdictCol))
	assert.Empty(t, out.Cell(1, verdictCol), "the empty row must stay unannotated")
	assert.Empty(t, out.Cell(0, verdictCol))

	reasonCol, _ := out.ColumnIndex(ColumnReasoning)
	confCol, _ := out.ColumnIndex(ColumnConfidence)
	modelCol, _ := out.ColumnIndex(ColumnModel)
	tsCol, _ := out.ColumnIndex(ColumnTimestamp)
	assert.Equal(t, "accurate translation", out.Cell(2, reasonCol))
	assert.Equal(t, "0.90", out.Cell(2, confCol))
	assert.Equal(t, "llama3.1:8b", out.Cell(2, modelCol))
	assert.Equal(t, "2026-03-14 09:26:53", out.Cell(2, tsCol))
}

func TestMerge_ExtractRoundTrip(t *testing.T) {
	table := pairTable()
	rec := newTestReconciler()

	pairs, err := rec.Extract(table)
	require.NoError(t, err)

	ts := time.Now()
	results := make([]domain.JudgmentResult, 0, len(pairs))
	for i, p := range pairs {
		results = append(results, domain.JudgmentResult{
			Model:      "m",
			Pair:       p,
			IsCorrect:  i%2 == 0,
			Confidence: 0.8,
			Reasoning:  "r",
			Timestamp:  ts,
			Success:    true,
		})
	}

	out, err := rec.Merge(table, results)
	require.NoError(t, err)

	verdictCol, _ := out.ColumnIndex(ColumnVerdict)
	assert.Equal(t, domain.VerdictCorrect, out.Cell(0, verdictCol))
	assert.Equal(t, domain.VerdictIncorrect, out.Cell(2, verdictCol))
	assert.Equal(t, domain.VerdictCorrect, out.Cell(4, verdictCol))
	assert.Empty(t, out.Cell(1, verdictCol))
	assert.Empty(t, out.Cell(3, verdictCol))
}

func TestMerge_NoResultsStillAppendsColumns(t *testing.T) {
	table := pairTable()
	out, err := newTestReconciler().Merge(table, nil)
	require.NoError(t, err)

	assert.Equal(t, append([]string{"id", "source", "target"}, AnnotationColumns...), out.Columns)
	for i := range out.Rows {
		require.Len(t, out.Rows[i], len(out.Columns), "row %d must be padded", i)
		for _, name := range AnnotationColumns {
			col, _ := out.ColumnIndex(name)
			assert.Empty(t, out.Cell(i, col))
		}
	}
}

func TestMerge_SkipsFailedAndUntaggedResults(t *testing.T) {
	table := pairTable()
	results := []domain.JudgmentResult{
		{
			Model:   "m",
			Pair:    domain.SentencePair{Key: domain.RowKey{Position: 1, Row: 0}},
			Success: false,
			Err:     "model communication failure",
		},
		{
			Model:     "m",
			Pair:      domain.SentencePair{}, // untagged placeholder
			IsCorrect: true,
			Success:   true,
		},
	}

	out, err := newTestReconciler().Merge(table, results)
	require.NoError(t, err)

	verdictCol, _ := out.ColumnIndex(ColumnVerdict)
	for i := range out.Rows {
		assert.Empty(t, out.Cell(i, verdictCol), "row %d", i)
	}
}

func TestMerge_DropsUnresolvablePositions(t *testing.T) {
	table := pairTable()
	results := []domain.JudgmentResult{{
		Model:     "m",
		Pair:      domain.SentencePair{Key: domain.RowKey{Position: 99, Row: 0}},
		IsCorrect: true,
		Success:   true,
		Timestamp: time.Now(),
	}}

	out, err := newTestReconciler().Merge(table, results)
	require.NoError(t, err)

	verdictCol, _ := out.ColumnIndex(ColumnVerdict)
	for i := range out.Rows {
		assert.Empty(t, out.Cell(i, verdictCol), "row %d", i)
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	table := pairTable()
	before := table.Clone()

	_, err := newTestReconciler().Merge(table, []domain.JudgmentResult{{
		Model:     "m",
		Pair:      domain.SentencePair{Key: domain.RowKey{Position: 1, Row: 0}},
		IsCorrect: true,
		Success:   true,
		Timestamp: time.Now(),
	}})
	require.NoError(t, err)

	assert.Equal(t, before.Columns, table.Columns)
	assert.Equal(t, before.Rows, table.Rows)
}

func TestMerge_ReusesExistingAnnotationColumns(t *testing.T) {
	table := &Table{
		Columns: []string{"source", "target", ColumnVerdict},
		Rows:    [][]string{{"a", "b", "stale"}},
	}

	out, err := NewReconciler("source", "target", "en", "pt").Merge(table, []domain.JudgmentResult{{
		Model:     "m",
		Pair:      domain.SentencePair{Key: domain.RowKey{Position: 1, Row: 0}},
		IsCorrect: false,
		Success:   true,
		Timestamp: time.Now(),
	}})
	require.NoError(t, err)

	// No duplicate verdict column, and the stale value is overwritten.
	count := 0
	for _, c := range out.Columns {
		if c == ColumnVerdict {
			count++
		}
	}
	assert.Equal(t, 1, count)

	verdictCol, _ := out.ColumnIndex(ColumnVerdict)
	assert.Equal(t, domain.VerdictIncorrect, out.Cell(0, verdictCol))
}
