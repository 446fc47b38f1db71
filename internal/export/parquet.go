package export

import (
	"io"
	"strings"

	"github.com/ngmaloney/buoy-terminal/internal/models"
	parquet "github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// parquetSchema builds a flat schema: a required millisecond "time", one
// optional double or string leaf per column and the optional provenance
// strings. Fields are ordered by name, so the returned index maps a leaf
// name to its column position.
func parquetSchema(tbl *models.Table) (*parquet.Schema, map[string]int, error) {
	if err := checkColumns(tbl); err != nil {
		return nil, nil, err
	}
	group := parquet.Group{
		"time":       parquet.Timestamp(parquet.Millisecond),
		URLColumn:    parquet.Optional(parquet.String()),
		TxtURLColumn: parquet.Optional(parquet.String()),
	}
	for _, c := range tbl.Columns {
		if c.Kind == models.KindText {
			group[c.Name] = parquet.Optional(parquet.String())
		} else {
			group[c.Name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		}
	}
	schema := parquet.NewSchema("buoy", group)

	index := make(map[string]int)
	for i, path := range schema.Columns() {
		index[strings.Join(path, ".")] = i
	}
	return schema, index, nil
}

// WriteParquet writes tbl as a single parquet file
func WriteParquet(w io.Writer, tbl *models.Table) error {
	schema, index, err := parquetSchema(tbl)
	if err != nil {
		return err
	}

	pw := parquet.NewWriter(w, schema)
	timeCol := index["time"]
	rows := make([]parquet.Row, 0, tbl.Len())
	for _, r := range tbl.Rows {
		row := make(parquet.Row, len(index))
		row[timeCol] = parquet.Int64Value(r.Time.UnixMilli()).Level(0, 0, timeCol)
		row[index[URLColumn]] = optionalString(r.URL, index[URLColumn])
		row[index[TxtURLColumn]] = optionalString(r.TxtURL, index[TxtURLColumn])
		for i, v := range r.Values {
			c := tbl.Columns[i]
			col := index[c.Name]
			switch {
			case !v.Valid:
				row[col] = parquet.NullValue().Level(0, 0, col)
			case c.Kind == models.KindText:
				row[col] = parquet.ByteArrayValue([]byte(v.Text)).Level(0, 1, col)
			default:
				row[col] = parquet.DoubleValue(v.Number).Level(0, 1, col)
			}
		}
		rows = append(rows, row)
	}

	if _, err := pw.WriteRows(rows); err != nil {
		return errors.Wrap(err, "writing parquet rows")
	}
	return pw.Close()
}

func optionalString(s string, col int) parquet.Value {
	if s == "" {
		return parquet.NullValue().Level(0, 0, col)
	}
	return parquet.ByteArrayValue([]byte(s)).Level(0, 1, col)
}
