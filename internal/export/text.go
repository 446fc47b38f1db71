package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/ngmaloney/buoy-terminal/internal/models"
)

// WriteCSV writes a header of time, the column names and the provenance
// columns, then one line per row. Missing cells are empty.
func WriteCSV(w io.Writer, tbl *models.Table) error {
	if err := checkColumns(tbl); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := append([]string{"time"}, tbl.ColumnNames()...)
	header = append(header, URLColumn, TxtURLColumn)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	n := len(tbl.Columns)
	for _, r := range tbl.Rows {
		record[0] = r.Time.UTC().Format(time.RFC3339)
		for i, v := range r.Values {
			record[i+1] = cell(tbl.Columns[i], v)
		}
		record[n+1], record[n+2] = r.URL, r.TxtURL
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(c models.Column, v models.Value) string {
	switch {
	case !v.Valid:
		return ""
	case c.Kind == models.KindText:
		return v.Text
	default:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
}

type jsonTable struct {
	Columns []models.Column  `json:"columns"`
	Records []map[string]any `json:"records"`
}

// WriteJSON writes {"columns": [...], "records": [{"time": ..., name: value}]}
// with null for missing cells. Records also carry url and txt_url.
func WriteJSON(w io.Writer, tbl *models.Table) error {
	if err := checkColumns(tbl); err != nil {
		return err
	}
	out := jsonTable{
		Columns: tbl.Columns,
		Records: make([]map[string]any, 0, tbl.Len()),
	}
	if out.Columns == nil {
		out.Columns = []models.Column{}
	}
	for _, r := range tbl.Rows {
		rec := make(map[string]any, len(r.Values)+3)
		rec["time"] = r.Time.UTC().Format(time.RFC3339)
		rec[URLColumn] = nullable(r.URL)
		rec[TxtURLColumn] = nullable(r.TxtURL)
		for i, v := range r.Values {
			c := tbl.Columns[i]
			switch {
			case !v.Valid:
				rec[c.Name] = nil
			case c.Kind == models.KindText:
				rec[c.Name] = v.Text
			default:
				rec[c.Name] = v.Number
			}
		}
		out.Records = append(out.Records, rec)
	}
	return json.NewEncoder(w).Encode(out)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
