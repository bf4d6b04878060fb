package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encoding names accepted for reading and writing tables.
const (
	EncodingUTF8    = "utf-8"
	EncodingLatin1  = "latin-1"
	EncodingCP1252  = "cp1252"
	EncodingISO8859 = "iso-8859-1"
)

// charmapFor maps a declared encoding name to its character map. UTF-8 has
// no entry: it needs no transformation.
func charmapFor(name string) (*charmap.Charmap, error) {
	switch strings.ToLower(name) {
	case EncodingLatin1, EncodingISO8859:
		return charmap.ISO8859_1, nil
	case EncodingCP1252:
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}

// LoadCSV reads a delimited table, detecting the encoding by ladder: the
// bytes are taken as UTF-8 when valid, otherwise decoded as Windows-1252,
// which covers the Latin-1 family of exports the original datasets come in.
// A missing file surfaces as the wrapped os error.
func LoadCSV(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse dataset header: %w", err)
	}

	t := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse dataset row %d: %w", len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// SaveCSV writes a table with the declared text encoding. An empty encoding
// name means UTF-8.
func SaveCSV(t *Table, path, encodingName string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	var w io.Writer = f
	if encodingName != "" && !strings.EqualFold(encodingName, EncodingUTF8) {
		cm, err := charmapFor(encodingName)
		if err != nil {
			f.Close()
			return err
		}
		w = encoding.HTMLEscapeUnsupported(cm.NewEncoder()).Writer(f)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return f.Close()
}
