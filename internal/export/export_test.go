package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	"github.com/apache/arrow/go/v16/arrow/ipc"
	"github.com/apache/arrow/go/v16/arrow/memory"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	parquet "github.com/parquet-go/parquet-go"
)

func sampleTable() *models.Table {
	tbl := models.NewTable(
		models.Column{Name: "wave_height", Unit: "m", Kind: models.KindNumeric},
		models.Column{Name: "swd", Kind: models.KindText},
	)
	tbl.Rows = []models.Row{
		{
			Time:   time.Date(2024, 2, 9, 12, 40, 0, 0, time.UTC),
			Values: []models.Value{models.Num(1.2), models.Str("SSE")},
			URL:    "/data/realtime2/41013.spec",
			TxtURL: "https://www.ndbc.noaa.gov/data/realtime2/41013.spec",
		},
		{Time: time.Date(2024, 2, 9, 13, 40, 0, 0, time.UTC), Values: []models.Value{models.Missing, models.Missing}},
	}
	return tbl
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", CSV, false},
		{" JSON ", JSON, false},
		{"Parquet", Parquet, false},
		{"arrow", Arrow, false},
		{"xlsx", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleTable()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := "time,wave_height,swd,url,txt_url\n" +
		"2024-02-09T12:40:00Z,1.2,SSE,/data/realtime2/41013.spec,https://www.ndbc.noaa.gov/data/realtime2/41013.spec\n" +
		"2024-02-09T13:40:00Z,,,,\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleTable()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var got struct {
		Columns []models.Column  `json:"columns"`
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Columns) != 2 || got.Columns[0].Unit != "m" {
		t.Errorf("columns = %+v", got.Columns)
	}
	if len(got.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(got.Records))
	}
	if got.Records[0]["wave_height"] != 1.2 || got.Records[0]["swd"] != "SSE" {
		t.Errorf("first record = %v", got.Records[0])
	}
	if v, ok := got.Records[1]["wave_height"]; !ok || v != nil {
		t.Errorf("missing cell = %v (present %v), want null", v, ok)
	}
	if got.Records[0]["url"] != "/data/realtime2/41013.spec" {
		t.Errorf("url = %v", got.Records[0]["url"])
	}
	if got.Records[0]["txt_url"] != "https://www.ndbc.noaa.gov/data/realtime2/41013.spec" {
		t.Errorf("txt_url = %v", got.Records[0]["txt_url"])
	}
	if v, ok := got.Records[1]["url"]; !ok || v != nil {
		t.Errorf("unknown url = %v (present %v), want null", v, ok)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, models.NewTable()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"columns":[],"records":[]}` {
		t.Errorf("WriteJSON(empty) = %s", got)
	}
}

func TestWriteArrow(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArrow(&buf, sampleTable()); err != nil {
		t.Fatalf("WriteArrow() error = %v", err)
	}

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		t.Fatalf("ipc.NewReader: %v", err)
	}
	defer r.Release()

	if !r.Next() {
		t.Fatal("no record in stream")
	}
	rec := r.Record()
	if rec.NumRows() != 2 || rec.NumCols() != 5 {
		t.Fatalf("record = %d rows x %d cols", rec.NumRows(), rec.NumCols())
	}

	schema := rec.Schema()
	if schema.Field(0).Name != "time" || schema.Field(0).Type.ID() != arrow.TIMESTAMP {
		t.Errorf("field 0 = %v", schema.Field(0))
	}
	md := schema.Field(1).Metadata
	if i := md.FindKey("unit"); i < 0 || md.Values()[i] != "m" {
		t.Errorf("wave_height metadata = %v", md)
	}

	ts := rec.Column(0).(*array.Timestamp)
	if got := time.UnixMilli(int64(ts.Value(0))).UTC(); !got.Equal(time.Date(2024, 2, 9, 12, 40, 0, 0, time.UTC)) {
		t.Errorf("time[0] = %v", got)
	}

	wvht := rec.Column(1).(*array.Float64)
	if wvht.Value(0) != 1.2 || !wvht.IsNull(1) {
		t.Errorf("wave_height = %v", wvht)
	}
	swd := rec.Column(2).(*array.String)
	if swd.Value(0) != "SSE" || !swd.IsNull(1) {
		t.Errorf("swd = %v", swd)
	}
	if schema.Field(3).Name != "url" || schema.Field(4).Name != "txt_url" {
		t.Errorf("provenance fields = %v, %v", schema.Field(3), schema.Field(4))
	}
	txt := rec.Column(4).(*array.String)
	if txt.Value(0) != "https://www.ndbc.noaa.gov/data/realtime2/41013.spec" || !txt.IsNull(1) {
		t.Errorf("txt_url = %v", txt)
	}
}

func TestWriteParquetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "41013.parquet")
	if err := WriteFile(path, Parquet, sampleTable()); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		t.Fatalf("parquet.OpenFile: %v", err)
	}
	if pf.NumRows() != 2 {
		t.Errorf("NumRows() = %d, want 2", pf.NumRows())
	}

	var names []string
	for _, path := range pf.Schema().Columns() {
		names = append(names, strings.Join(path, "."))
	}
	if strings.Join(names, ",") != "swd,time,txt_url,url,wave_height" {
		t.Errorf("columns = %v", names)
	}

	rows := make([]parquet.Row, 2)
	n, err := pf.RowGroups()[0].Rows().ReadRows(rows)
	if n != 2 {
		t.Fatalf("ReadRows() = %d, %v", n, err)
	}
	url := rows[0][3]
	if url.IsNull() || string(url.ByteArray()) != "/data/realtime2/41013.spec" {
		t.Errorf("url = %v", url)
	}
	if !rows[1][3].IsNull() {
		t.Errorf("second url = %v, want null", rows[1][3])
	}
}

func TestWriteReservedNames(t *testing.T) {
	for _, name := range []string{"time", "url", "txt_url"} {
		tbl := models.NewTable(models.Column{Name: name, Kind: models.KindNumeric})
		for _, f := range Formats {
			if err := Write(&bytes.Buffer{}, f, tbl); err == nil {
				t.Errorf("Write(%s) should reject a column named %s", f, name)
			}
		}
	}
}
