package exports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// BatchSize is the number of rows fetched in a single query.
const BatchSize = 2000

const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrNoSuchTable   = errors.New("no such table")
)

// ValidFormat reports whether format can be exported.
func ValidFormat(format string) bool {
	return format == FormatCSV || format == FormatNDJSON
}

// ContentType is the HTTP media type of format.
func ContentType(format string) string {
	if format == FormatNDJSON {
		return "application/x-ndjson"
	}
	return "text/csv"
}

// FileName is the export file name of table in format.
func FileName(table, format string) string {
	return slug.Make(table) + "." + format
}

// TableExists reports whether table is a table of the database.
func TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).
		Scan(&n).Error
	return n > 0, err
}

// SampleTables lists the r_* tables built by sampling.
func SampleTables(ctx context.Context, db *gorm.DB) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).
		Raw(`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'r\_%' ESCAPE '\' ORDER BY name`).
		Scan(&names).Error
	return names, err
}

// rowWriter writes one table in one format.
type rowWriter interface {
	header(cols []string) error
	row(cols []string, vals []any) error
	flush() error
}

type csvRows struct{ w *csv.Writer }

func (c *csvRows) header(cols []string) error { return c.w.Write(cols) }

func (c *csvRows) row(_ []string, vals []any) error {
	rec := make([]string, len(vals))
	for i, v := range vals {
		rec[i] = text(v)
	}
	return c.w.Write(rec)
}

func (c *csvRows) flush() error {
	c.w.Flush()
	return c.w.Error()
}

// ndjsonRows keeps column order, which a map would lose.
type ndjsonRows struct {
	w   io.Writer
	buf []byte
}

func (n *ndjsonRows) header([]string) error { return nil }

func (n *ndjsonRows) row(cols []string, vals []any) error {
	n.buf = append(n.buf[:0], '{')
	for i, col := range cols {
		if i > 0 {
			n.buf = append(n.buf, ',')
		}
		key, err := sonic.Marshal(col)
		if err != nil {
			return err
		}
		v := vals[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		val, err := sonic.Marshal(v)
		if err != nil {
			return err
		}
		n.buf = append(n.buf, key...)
		n.buf = append(n.buf, ':')
		n.buf = append(n.buf, val...)
	}
	n.buf = append(n.buf, '}', '\n')
	_, err := n.w.Write(n.buf)
	return err
}

func (n *ndjsonRows) flush() error { return nil }

func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// WriteTable writes every row of table to w with a header, BatchSize rows
// per query, and returns the number of rows written.
func WriteTable(ctx context.Context, db *gorm.DB, table, format string, w io.Writer) (int64, error) {
	var out rowWriter
	switch format {
	case FormatCSV:
		out = &csvRows{w: csv.NewWriter(w)}
	case FormatNDJSON:
		out = &ndjsonRows{w: w}
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	ok, err := TableExists(ctx, db, table)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}

	query := fmt.Sprintf(`SELECT * FROM "%s" ORDER BY rowid LIMIT ? OFFSET ?`, table)
	var total int64
	for offset := 0; ; offset += BatchSize {
		n, err := writePage(ctx, db, query, offset, out, offset == 0)
		if err != nil {
			return total, err
		}
		total += int64(n)
		if err := out.flush(); err != nil {
			return total, err
		}
		if n < BatchSize {
			return total, nil
		}
	}
}

func writePage(ctx context.Context, db *gorm.DB, query string, offset int, out rowWriter, header bool) (int, error) {
	rows, err := db.WithContext(ctx).Raw(query, BatchSize, offset).Rows()
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	if header {
		if err := out.header(cols); err != nil {
			return 0, err
		}
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return n, err
		}
		if err := out.row(cols, vals); err != nil {
			return n, err
		}
		n++
	}
	return n, rows.Err()
}

// ExportAll writes each table to its own file under dir and returns the
// file paths.
func ExportAll(ctx context.Context, db *gorm.DB, tables []string, dir, format string) ([]string, error) {
	if !ValidFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(tables))
	for _, table := range tables {
		path := filepath.Join(dir, FileName(table, format))
		if err := exportFile(ctx, db, table, format, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func exportFile(ctx context.Context, db *gorm.DB, table, format, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err = WriteTable(ctx, db, table, format, f); err != nil {
		return fmt.Errorf("export %s: %w", table, err)
	}
	return nil
}
