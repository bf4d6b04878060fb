package dataset

// Stats describes a loaded table relative to the reconciler's extraction
// filter, for pre-run reporting.
type Stats struct {
	Rows      int `json:"rows"`
	Columns   int `json:"columns"`
	ValidRows int `json:"valid_rows"`
}

// Describe counts the table's rows, columns, and the rows that would survive
// extraction with this reconciler's column configuration.
func (r *Reconciler) Describe(t *Table) (Stats, error) {
	src, tgt, err := r.columnIndexes(t)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{Rows: len(t.Rows), Columns: len(t.Columns)}
	s.ValidRows = len(r.positionIndex(t, src, tgt))
	return s, nil
}
