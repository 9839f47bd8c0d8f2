// Package csvfile reads and writes the semicolon-separated tables that hold
// procedures, confirmations and the roster. Files are UTF-8 with a leading
// byte order mark so that spreadsheet tools open them correctly. Every write
// goes through a temp file, fsync and rename, so a crash never leaves a
// truncated table behind.
package csvfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Delimiter separates cells in every table file.
const Delimiter = ';'

var bom = []byte{0xEF, 0xBB, 0xBF}

// Table is an in-memory copy of a delimited file. Rows always have exactly
// len(Columns) cells.
type Table struct {
	Columns  []string
	Rows     [][]string
	Warnings []string
}

// Index returns the position of column name, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Load reads the table at path and projects it onto expected. It never
// fails: a missing or unreadable file yields an empty table with the
// expected header, columns absent from the file are filled with "", short
// rows are padded and surplus cells are dropped. A parse error keeps the
// rows read so far and is reported in Warnings. Header names match with
// surrounding spaces ignored. Rows of empty cells are kept, so callers
// decide which rows are usable. When expected is nil the file's own header
// is used.
func Load(path string, expected []string) Table {
	data, err := os.ReadFile(path)
	if err != nil {
		t := emptyTable(expected)
		if !errors.Is(err, os.ErrNotExist) {
			t.Warnings = append(t.Warnings, fmt.Sprintf("reading %s: %v", path, err))
		}
		return t
	}
	return parse(data, expected, path)
}

// Decode reads a table from r with the same tolerance as Load. It is used for
// uploaded files.
func Decode(r io.Reader, expected []string) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return emptyTable(expected), fmt.Errorf("reading upload: %w", err)
	}
	return parse(data, expected, "upload"), nil
}

func emptyTable(columns []string) Table {
	return Table{Columns: append([]string(nil), columns...)}
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func parse(data []byte, expected []string, name string) Table {
	cr := newReader(bytes.NewReader(bytes.TrimPrefix(data, bom)))

	header, err := cr.Read()
	if err != nil {
		t := emptyTable(expected)
		if !errors.Is(err, io.EOF) {
			t.Warnings = append(t.Warnings, fmt.Sprintf("parsing %s header: %v", name, err))
		}
		return t
	}
	if expected == nil {
		expected = make([]string, len(header))
		for i, h := range header {
			expected[i] = strings.TrimSpace(h)
		}
	}

	// Position of each expected column in the file, or -1 if absent. Names
	// match with surrounding spaces ignored on both sides.
	pos := make([]int, len(expected))
	for i, col := range expected {
		pos[i] = -1
		for j, h := range header {
			if strings.TrimSpace(h) == strings.TrimSpace(col) {
				pos[i] = j
				break
			}
		}
	}

	t := emptyTable(expected)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Warnings = append(t.Warnings, fmt.Sprintf("parsing %s: %v", name, err))
			break
		}
		row := make([]string, len(expected))
		for i, p := range pos {
			if p >= 0 && p < len(rec) {
				row[i] = rec[p]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Encode writes t to w with a byte order mark and a header line.
func Encode(w io.Writer, t Table) error {
	if _, err := w.Write(bom); err != nil {
		return fmt.Errorf("writing bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.Rows {
		if err := writeRow(w, cw, fit(row, len(t.Columns))); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeRow writes row through cw. A row of one empty cell is written as a
// quoted empty field, since csv readers skip an empty line.
func writeRow(w io.Writer, cw *csv.Writer, row []string) error {
	if len(row) != 1 || row[0] != "" {
		return cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\"\"\n")
	return err
}

// fit pads or truncates row to n cells.
func fit(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

// Save atomically replaces the file at path with t.
func Save(path string, t Table) error {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return writeAtomic(path, buf.Bytes())
}

// Append adds row to the file at path. The header is written only when the
// file does not exist or is empty. If the existing header differs from
// columns the file is rewritten projected onto columns.
func Append(path string, columns, row []string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if len(existing) == 0 {
		return Save(path, Table{Columns: columns, Rows: [][]string{row}})
	}

	if !sameHeader(existing, columns) {
		t := parse(existing, columns, path)
		t.Rows = append(t.Rows, fit(row, len(columns)))
		return Save(path, t)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	cw := csv.NewWriter(&buf)
	cw.Comma = Delimiter
	if err := writeRow(&buf, cw, fit(row, len(columns))); err != nil {
		return fmt.Errorf("encoding row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encoding row: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

func sameHeader(data []byte, columns []string) bool {
	header, err := newReader(bytes.NewReader(bytes.TrimPrefix(data, bom))).Read()
	if err != nil || len(header) != len(columns) {
		return false
	}
	for i := range header {
		if strings.TrimSpace(header[i]) != strings.TrimSpace(columns[i]) {
			return false
		}
	}
	return true
}

// writeAtomic writes data to path using the temp-file, fsync, rename
// pattern. The directory is created if needed.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".csv-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
