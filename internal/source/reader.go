// Package source reads the flat CSV exports the pipelines consume.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// ErrNotFound is returned by Open when the input file does not exist.
var ErrNotFound = errors.New("input file not found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one parsed line. Header-mode rows resolve cells by column name;
// positional rows by index.
type Row struct {
	header map[string]int
	cells  []string
	Line   int
}

// Get returns the named cell, or "" if the column is absent or the row is short.
func (r Row) Get(column string) string {
	idx, ok := r.header[column]
	if !ok {
		return ""
	}

	return r.At(idx)
}

// At returns the cell at idx, or "" when the row is shorter than that.
func (r Row) At(idx int) string {
	if idx < 0 || idx >= len(r.cells) {
		return ""
	}

	return r.cells[idx]
}

// Len returns the number of cells in the row.
func (r Row) Len() int {
	return len(r.cells)
}

// Exists reports whether path is present on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// Open opens path for reading, mapping a missing file to ErrNotFound.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return f, nil
}

// WithHeader yields rows keyed by the first line's column names.
func WithHeader(r io.Reader) iter.Seq2[Row, error] {
	return rows(r, true)
}

// Positional yields rows from a headerless file.
func Positional(r io.Reader) iter.Seq2[Row, error] {
	return rows(r, false)
}

func rows(r io.Reader, hasHeader bool) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		cr, err := newCSVReader(r)
		if err != nil {
			yield(Row{}, err)
			return
		}

		var header map[string]int

		if hasHeader {
			names, readErr := cr.Read()
			if errors.Is(readErr, io.EOF) {
				return
			}

			if readErr != nil {
				yield(Row{}, fmt.Errorf("failed to read header: %w", readErr))
				return
			}

			header = make(map[string]int, len(names))
			for i, name := range names {
				header[strings.TrimSpace(name)] = i
			}
		}

		for {
			cells, readErr := cr.Read()
			if errors.Is(readErr, io.EOF) {
				return
			}

			if readErr != nil {
				var parseErr *csv.ParseError
				if !errors.As(readErr, &parseErr) {
					yield(Row{}, fmt.Errorf("failed to read row: %w", readErr))
					return
				}

				if !yield(Row{Line: parseErr.Line}, readErr) {
					return
				}

				continue
			}

			if isBlank(cells) {
				continue
			}

			line, _ := cr.FieldPos(0)

			if !yield(Row{header: header, cells: cells, Line: line}, nil) {
				return
			}
		}
	}
}

func newCSVReader(r io.Reader) (*csv.Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(head, utf8BOM) {
		if _, err = br.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("failed to skip byte order mark: %w", err)
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	return cr, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
