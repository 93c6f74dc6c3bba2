package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Row is one CSV data row keyed by header name.
type Row map[string]string

// ReadCSV streams the rows of a CSV document whose first line is a header.
// Short rows get empty values for the missing columns.
func ReadCSV(r io.Reader) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		csvReader := csv.NewReader(r)
		csvReader.ReuseRecord = true
		csvReader.FieldsPerRecord = -1
		csvReader.TrimLeadingSpace = true

		header, err := csvReader.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				yield(nil, err)
			}
			return
		}
		// header is overwritten by the next Read
		header = append([]string(nil), header...)

		for {
			fields, err := csvReader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}

			row := make(Row, len(header))
			for i, h := range header {
				if i < len(fields) {
					row[h] = fields[i]
				} else {
					row[h] = ""
				}
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Manifest maps input file names to their expected line counts.
type Manifest map[string]int64

// ParseManifest reads a CSV with "file" and "lines" columns.
func ParseManifest(r io.Reader) (Manifest, error) {
	m := Manifest{}
	line := 1
	for row, err := range ReadCSV(r) {
		line++
		if err != nil {
			return nil, err
		}
		file := strings.TrimSpace(row["file"])
		if file == "" {
			return nil, fmt.Errorf("manifest row %d: file is required", line)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(row["lines"]), 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("manifest row %d: invalid lines %q", line, row["lines"])
		}
		m[filepath.Base(file)] = n
	}
	return m, nil
}

// LoadManifest reads the manifest at path. An empty path yields an empty
// manifest.
func LoadManifest(path string) (Manifest, error) {
	if path == "" {
		return Manifest{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseManifest(f)
}

// Lines returns the expected line count for path, 0 when unknown.
func (m Manifest) Lines(path string) int64 {
	return m[filepath.Base(path)]
}
