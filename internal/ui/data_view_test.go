package ui

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ngmaloney/buoy-terminal/internal/models"
)

func TestRenderTail(t *testing.T) {
	out := renderTail(testTable(), "wave_height")

	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("renderTail() = %d lines, want header + 3", len(lines))
	}
	for _, want := range []string{"wind_speed", "swd", "wave_height"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header missing %q", want)
		}
	}
	if !strings.HasPrefix(lines[3], "2024-02-09 12:20") {
		t.Errorf("last line = %q, want newest row last", lines[3])
	}
	if !strings.Contains(lines[1], "SSE") || !strings.Contains(lines[1], "-") {
		t.Errorf("row = %q, want text value and missing marker", lines[1])
	}

	if got := renderTail(models.NewTable(), ""); !strings.Contains(got, "No rows") {
		t.Errorf("empty table = %q", got)
	}
}

func TestRenderTail_LongColumnNames(t *testing.T) {
	tbl := models.NewTable(
		models.Column{Name: "dissolved_o2_perc", Kind: models.KindNumeric},
		models.Column{Name: "dissolved_o2_ppm", Kind: models.KindNumeric},
	)
	tbl.Rows = []models.Row{{
		Time:   time.Date(2024, 2, 9, 12, 0, 0, 0, time.UTC),
		Values: []models.Value{models.Num(101.25), models.Num(7.1)},
	}}

	lines := strings.Split(renderTail(tbl, ""), "\n")
	for _, want := range []string{"dissolved_o2_perc", "dissolved_o2_ppm"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header %q missing %q", lines[0], want)
		}
	}
	if !strings.Contains(lines[1], "101.25") || !strings.Contains(lines[1], "7.1") {
		t.Errorf("row = %q", lines[1])
	}
	if w := columnWidths(tbl, tbl.ColumnNames()); w[0] != len("dissolved_o2_perc")+1 || w[1] != len("dissolved_o2_ppm")+1 {
		t.Errorf("columnWidths() = %v", w)
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"swd", 6, "swd   "},
		{"wave_height", 10, "wave_height "},
		{"", 2, "  "},
	}
	for _, tt := range tests {
		if got := pad(tt.in, tt.width); got != tt.want {
			t.Errorf("pad(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestVisibleColumns(t *testing.T) {
	tbl := models.NewTable()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		tbl.Columns = append(tbl.Columns, models.Column{Name: name, Kind: models.KindNumeric})
	}

	got := visibleColumns(tbl, "b")
	if len(got) != maxTableColumns || got[0] != "a" {
		t.Errorf("visibleColumns(b) = %v", got)
	}

	got = visibleColumns(tbl, "i")
	if len(got) != maxTableColumns || got[len(got)-1] != "i" {
		t.Errorf("visibleColumns(i) = %v, want it to end at i", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := renderSparkline([]float64{math.NaN(), math.NaN()}, 20, 4); !strings.Contains(got, "No values") {
		t.Errorf("all missing = %q", got)
	}

	got := renderSparkline([]float64{1015.2, math.NaN(), 1014.8, 1016}, 20, 4)
	if !strings.Contains(got, "min 1014.8") || !strings.Contains(got, "max 1016") {
		t.Errorf("scale line missing from %q", got)
	}

	// flat series still renders
	if got := renderSparkline([]float64{3, 3, 3}, 10, 3); !strings.Contains(got, "min 3  max 3") {
		t.Errorf("flat series = %q", got)
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2024, 2, 9, 15, 20, 0, 0, time.UTC)
	got := summary(testTable(), now)
	if !strings.HasPrefix(got, "3 rows") {
		t.Errorf("summary() = %q", got)
	}
	if !strings.Contains(got, "3 hours ago") {
		t.Errorf("summary() = %q, want relative time of the last row", got)
	}
	if summary(models.NewTable(), now) != "0 rows" {
		t.Error("empty summary")
	}
}

func TestRenderLatest(t *testing.T) {
	obs := &models.LatestObservation{
		Title:  "Station 41013 - FRYING PAN SHOALS, NC",
		Fields: map[string]string{"Wind Speed": "9.7 knots", "Air Temperature": "51.1°F"},
	}
	out := renderLatest(obs)
	if !strings.Contains(out, "FRYING PAN SHOALS") {
		t.Errorf("missing title in %q", out)
	}
	if strings.Index(out, "Air Temperature") > strings.Index(out, "Wind Speed") {
		t.Error("fields should be sorted")
	}
}
