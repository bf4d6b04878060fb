package dataset

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dmorim/verdicto/internal/domain"
)

// Annotation columns appended to the output table when absent.
const (
	ColumnVerdict    = "verdict"
	ColumnReasoning  = "reasoning"
	ColumnConfidence = "confidence"
	ColumnModel      = "model"
	ColumnTimestamp  = "timestamp"
)

// AnnotationColumns lists the appended columns in output order.
var AnnotationColumns = []string{
	ColumnVerdict, ColumnReasoning, ColumnConfidence, ColumnModel, ColumnTimestamp,
}

// nanPlaceholder is the literal cell value treated as missing, produced by
// dataframe exports of empty cells.
const nanPlaceholder = "nan"

// Reconciler extracts sentence pairs from a table's configured columns and
// merges judgment results back onto the correct original rows.
//
// Correlation runs through position indirection: extraction assigns each
// surviving row a dense 1-based position, and merge resolves positions by
// re-running the identical skip filter over the same table. Skipped rows
// consume no position, so the raw row index is never a valid correlation
// key once any row has been skipped.
type Reconciler struct {
	SourceColumn   string
	TargetColumn   string
	SourceLanguage string
	TargetLanguage string

	logger *slog.Logger
}

// NewReconciler creates a reconciler for the named text columns.
func NewReconciler(sourceColumn, targetColumn, sourceLanguage, targetLanguage string) *Reconciler {
	return &Reconciler{
		SourceColumn:   sourceColumn,
		TargetColumn:   targetColumn,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
		logger:         slog.Default().With("component", "dataset"),
	}
}

// rowValid is the shared skip filter: both cells must be non-empty after
// trimming and neither may be the dataframe NaN placeholder.
func rowValid(source, target string) bool {
	if source == "" || target == "" {
		return false
	}
	if strings.EqualFold(source, nanPlaceholder) || strings.EqualFold(target, nanPlaceholder) {
		return false
	}
	return true
}

// columnIndexes resolves the configured columns or reports which is missing.
func (r *Reconciler) columnIndexes(t *Table) (src, tgt int, err error) {
	src, ok := t.ColumnIndex(r.SourceColumn)
	if !ok {
		return 0, 0, fmt.Errorf("%w: source column %q", ErrUnknownColumn, r.SourceColumn)
	}
	tgt, ok = t.ColumnIndex(r.TargetColumn)
	if !ok {
		return 0, 0, fmt.Errorf("%w: target column %q", ErrUnknownColumn, r.TargetColumn)
	}
	return src, tgt, nil
}

// positionIndex builds the dense position → original-row-index map by
// running the skip filter over the table. It is rebuilt for every merge;
// a map from a different filter run must never be reused.
func (r *Reconciler) positionIndex(t *Table, src, tgt int) map[int]int {
	index := make(map[int]int)
	position := 0
	for i := range t.Rows {
		if !rowValid(strings.TrimSpace(t.Cell(i, src)), strings.TrimSpace(t.Cell(i, tgt))) {
			continue
		}
		position++
		index[position] = i
	}
	return index
}

// Extract iterates rows in original order, skips rows failing the filter,
// and emits one tagged SentencePair per surviving row. Positions are dense
// starting at 1; skipped rows consume no position and leave no hole.
func (r *Reconciler) Extract(t *Table) ([]domain.SentencePair, error) {
	src, tgt, err := r.columnIndexes(t)
	if err != nil {
		return nil, err
	}

	var pairs []domain.SentencePair
	position := 0
	for i := range t.Rows {
		source := strings.TrimSpace(t.Cell(i, src))
		target := strings.TrimSpace(t.Cell(i, tgt))
		if !rowValid(source, target) {
			r.logger.Debug("skipping row", "row", i, "reason", "empty or placeholder text")
			continue
		}

		position++
		pairs = append(pairs, domain.SentencePair{
			SourceText:     source,
			TargetText:     target,
			SourceLanguage: r.SourceLanguage,
			TargetLanguage: r.TargetLanguage,
			Key:            domain.RowKey{Position: position, Row: i},
		})
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: columns %q/%q", ErrNoValidRows, r.SourceColumn, r.TargetColumn)
	}

	r.logger.Info("extracted sentence pairs", "pairs", len(pairs), "rows", len(t.Rows))
	return pairs, nil
}

// Merge annotates a copy of the table with successful judgment results.
// The position map is rebuilt from the same table with the same filter;
// each successful tagged result resolves its position to the original row
// index and writes the five annotation fields there. Rows with no
// resolvable result keep empty annotations. The input table is not
// modified.
func (r *Reconciler) Merge(t *Table, results []domain.JudgmentResult) (*Table, error) {
	src, tgt, err := r.columnIndexes(t)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	out.EnsureColumns(AnnotationColumns...)
	index := r.positionIndex(t, src, tgt)

	cols := make([]int, len(AnnotationColumns))
	for i, name := range AnnotationColumns {
		cols[i], _ = out.ColumnIndex(name)
	}

	merged := 0
	for _, res := range results {
		if !res.Success || !res.Pair.Key.Tagged() {
			continue
		}
		row, ok := index[res.Pair.Key.Position]
		if !ok {
			r.logger.Warn("result position not in index, dropping",
				"position", res.Pair.Key.Position,
				"model", res.Model)
			continue
		}

		out.Set(row, cols[0], domain.VerdictLabel(res.IsCorrect))
		out.Set(row, cols[1], res.Reasoning)
		out.Set(row, cols[2], strconv.FormatFloat(res.Confidence, 'f', 2, 64))
		out.Set(row, cols[3], res.Model)
		out.Set(row, cols[4], res.Timestamp.Format(domain.TimestampLayout))
		merged++
	}

	r.logger.Info("merged results onto table", "merged", merged, "results", len(results))
	return out, nil
}
