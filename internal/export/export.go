// Package export writes tables as CSV, JSON, Parquet or Arrow.
package export

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/pkg/errors"
)

// Format is an output encoding
type Format string

const (
	CSV     Format = "csv"
	JSON    Format = "json"
	Parquet Format = "parquet"
	Arrow   Format = "arrow"
)

// Every format ends a record with the listing path and text URL its row
// came from.
const (
	URLColumn    = "url"
	TxtURLColumn = "txt_url"
)

var reservedColumns = []string{"time", URLColumn, TxtURLColumn}

func checkColumns(tbl *models.Table) error {
	for _, c := range tbl.Columns {
		for _, r := range reservedColumns {
			if c.Name == r {
				return errors.Errorf("column name %q is reserved", c.Name)
			}
		}
	}
	return nil
}

// Formats lists every supported format
var Formats = []Format{CSV, JSON, Parquet, Arrow}

// ParseFormat reads a format name, case-insensitively
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown format %q (want csv, json, parquet or arrow)", s)
}

// ContentType is the HTTP media type of the format
func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv"
	case JSON:
		return "application/json"
	case Parquet:
		return "application/vnd.apache.parquet"
	case Arrow:
		return "application/vnd.apache.arrow.stream"
	}
	return "application/octet-stream"
}

// Extension is the file suffix, without a dot
func (f Format) Extension() string {
	return string(f)
}

// Write encodes tbl to w
func Write(w io.Writer, f Format, tbl *models.Table) error {
	switch f {
	case CSV:
		return WriteCSV(w, tbl)
	case JSON:
		return WriteJSON(w, tbl)
	case Parquet:
		return WriteParquet(w, tbl)
	case Arrow:
		return WriteArrow(w, tbl)
	}
	return errors.Errorf("unknown format %q", f)
}

// WriteFile writes tbl to path through a temp file so readers never see
// a partial file
func WriteFile(path string, f Format, tbl *models.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(out, f, tbl); err != nil {
		out.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
