package export

import (
	"io"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	"github.com/apache/arrow/go/v16/arrow/ipc"
	"github.com/apache/arrow/go/v16/arrow/memory"
	"github.com/ngmaloney/buoy-terminal/internal/models"
)

var timestampMs = &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}

// ArrowSchema maps table columns to nullable float64 or string fields,
// followed by the nullable url and txt_url strings. Units are kept as
// field metadata.
func ArrowSchema(tbl *models.Table) *arrow.Schema {
	fields := []arrow.Field{{Name: "time", Type: timestampMs, Nullable: false}}
	for _, c := range tbl.Columns {
		f := arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}
		if c.Kind == models.KindText {
			f.Type = arrow.BinaryTypes.String
		}
		if c.Unit != "" {
			f.Metadata = arrow.NewMetadata([]string{"unit"}, []string{c.Unit})
		}
		fields = append(fields, f)
	}
	fields = append(fields,
		arrow.Field{Name: URLColumn, Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: TxtURLColumn, Type: arrow.BinaryTypes.String, Nullable: true},
	)
	return arrow.NewSchema(fields, nil)
}

// Record converts tbl to a single arrow record. The caller releases it.
func Record(mem memory.Allocator, schema *arrow.Schema, tbl *models.Table) arrow.Record {
	tb := array.NewTimestampBuilder(mem, timestampMs)
	defer tb.Release()
	for _, r := range tbl.Rows {
		tb.Append(arrow.Timestamp(r.Time.UnixMilli()))
	}
	cols := []arrow.Array{tb.NewArray()}

	for i, c := range tbl.Columns {
		if c.Kind == models.KindText {
			sb := array.NewStringBuilder(mem)
			for _, r := range tbl.Rows {
				if v := r.Values[i]; v.Valid {
					sb.Append(v.Text)
				} else {
					sb.AppendNull()
				}
			}
			cols = append(cols, sb.NewArray())
			sb.Release()
			continue
		}

		fb := array.NewFloat64Builder(mem)
		for _, r := range tbl.Rows {
			if v := r.Values[i]; v.Valid {
				fb.Append(v.Number)
			} else {
				fb.AppendNull()
			}
		}
		cols = append(cols, fb.NewArray())
		fb.Release()
	}

	for _, source := range []func(models.Row) string{
		func(r models.Row) string { return r.URL },
		func(r models.Row) string { return r.TxtURL },
	} {
		sb := array.NewStringBuilder(mem)
		for _, r := range tbl.Rows {
			if s := source(r); s != "" {
				sb.Append(s)
			} else {
				sb.AppendNull()
			}
		}
		cols = append(cols, sb.NewArray())
		sb.Release()
	}

	rec := array.NewRecord(schema, cols, int64(tbl.Len()))
	for _, c := range cols {
		c.Release()
	}
	return rec
}

// WriteArrow writes tbl as an arrow IPC stream holding one record
func WriteArrow(w io.Writer, tbl *models.Table) error {
	if err := checkColumns(tbl); err != nil {
		return err
	}
	mem := memory.NewGoAllocator()
	schema := ArrowSchema(tbl)

	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	rec := Record(mem, schema, tbl)
	defer rec.Release()

	if err := wr.Write(rec); err != nil {
		wr.Close()
		return err
	}
	return wr.Close()
}
