// Package csvexport serializes flat records into spreadsheet-friendly CSV:
// UTF-8 with a leading byte-order mark, every field double-quoted, embedded
// quotes doubled.
//
// Unlike encoding/csv, every field is quoted, not only the ones that need it.
package csvexport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// BOM is the UTF-8 byte-order mark written at the start of every export.
const BOM = "\ufeff"

// Field is one key/value pair of a record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered list of fields. All records of an export are
// expected to share the first record's keys; missing keys render empty.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the record's keys in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Write streams records to w. The header row is taken from the first
// record. With no records only the BOM is written.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	if len(records) > 0 {
		headers := records[0].Keys()
		if err := writeRow(bw, headers); err != nil {
			return fmt.Errorf("write header: %w", err)
		}

		row := make([]string, len(headers))
		for i, rec := range records {
			for j, h := range headers {
				v, ok := rec.Get(h)
				if !ok {
					row[j] = ""
					continue
				}
				row[j] = Stringify(v)
			}
			if err := writeRow(bw, row); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Encode returns the full CSV body for records.
func Encode(records []Record) []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes cannot fail.
	_ = Write(&buf, records)
	return buf.Bytes()
}

// Download writes records as an attachment named filename.
func Download(w http.ResponseWriter, filename string, records []Record) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(filename)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	return Write(w, records)
}

// Stringify renders a cell value the way it appears in the export.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return val.String()
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// sanitizeFilename keeps header injection out of Content-Disposition.
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '\r', '\n':
			return -1
		}
		return r
	}, name)
	if name == "" {
		return "export.csv"
	}
	return name
}
