package ui

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/ngmaloney/buoy-terminal/internal/models"
)

const (
	tailRows        = 12
	maxTableColumns = 7
	cellWidth       = 10
	sparklineHeight = 6
)

// activeColumn is the numeric column the sparkline shows
func (m Model) activeColumn() string {
	cols := m.table.NumericColumns()
	if len(cols) == 0 {
		return ""
	}
	return cols[m.column%len(cols)]
}

// visibleColumns picks the columns of the tail table, always including
// the active one
func visibleColumns(tbl *models.Table, active string) []string {
	names := tbl.ColumnNames()
	if len(names) <= maxTableColumns {
		return names
	}
	start := 0
	if i := tbl.ColumnIndex(active); i >= maxTableColumns {
		start = i - maxTableColumns + 1
	}
	return names[start : start+maxTableColumns]
}

func formatCell(c models.Column, v models.Value) string {
	switch {
	case !v.Valid:
		return "-"
	case c.Kind == models.KindText:
		return v.Text
	default:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
}

// pad left-aligns s in width cells, keeping at least one trailing space
func pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-w)
}

// columnWidths fits every column to its header and the widest cell shown
func columnWidths(tbl *models.Table, cols []string) []int {
	widths := make([]int, len(cols))
	for j, name := range cols {
		widths[j] = max(cellWidth, lipgloss.Width(name)+1)
		c := tbl.Columns[tbl.ColumnIndex(name)]
		for i := range tbl.Rows {
			v, _ := tbl.Value(i, name)
			widths[j] = max(widths[j], lipgloss.Width(formatCell(c, v))+1)
		}
	}
	return widths
}

// renderTail renders the last rows of the table, newest last
func renderTail(tbl *models.Table, active string) string {
	if tbl.Len() == 0 {
		return mutedStyle.Render("No rows")
	}
	cols := visibleColumns(tbl, active)
	tail := tbl.Tail(tailRows)
	widths := columnWidths(tail, cols)

	var header strings.Builder
	header.WriteString(tableHeaderStyle.Render(pad("time (UTC)", 18)))
	for j, name := range cols {
		cell := pad(name, widths[j])
		if name == active {
			header.WriteString(activeColumnStyle.Render(cell))
			continue
		}
		header.WriteString(tableHeaderStyle.Render(cell))
	}

	lines := []string{header.String()}
	for i, r := range tail.Rows {
		var line strings.Builder
		line.WriteString(pad(r.Time.UTC().Format("2006-01-02 15:04"), 18))
		for j, name := range cols {
			v, _ := tail.Value(i, name)
			line.WriteString(pad(formatCell(tail.Columns[tail.ColumnIndex(name)], v), widths[j]))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// renderSparkline draws the most recent values that fit in width. Values
// are shifted so the smallest sits just above the baseline.
func renderSparkline(values []float64, width, height int) string {
	var pts []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			pts = append(pts, v)
		}
	}
	if len(pts) == 0 {
		return mutedStyle.Render("No values to chart")
	}
	if width < 1 {
		width = 1
	}
	if len(pts) > width {
		pts = pts[len(pts)-width:]
	}

	lo, hi := pts[0], pts[0]
	for _, v := range pts {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	floor := span * 0.05
	if span == 0 {
		floor = 1
	}
	shifted := make([]float64, len(pts))
	for i, v := range pts {
		shifted[i] = v - lo + floor
	}

	sl := sparkline.New(width, height, sparkline.WithStyle(sparklineStyle))
	sl.PushAll(shifted)
	sl.Draw()

	scale := mutedStyle.Render(fmt.Sprintf("min %s  max %s", strconv.FormatFloat(lo, 'f', -1, 64), strconv.FormatFloat(hi, 'f', -1, 64)))
	return sl.View() + "\n" + scale
}

func renderLatest(obs *models.LatestObservation) string {
	if obs == nil {
		return mutedStyle.Render("No latest observation available")
	}
	keys := make([]string, 0, len(obs.Fields))
	for k := range obs.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{valueStyle.Bold(true).Render(obs.Title)}
	if !obs.Published.IsZero() {
		lines = append(lines, mutedStyle.Render("Published "+humanize.Time(obs.Published)))
	}
	for _, k := range keys {
		lines = append(lines, labelStyle.Render(k+":")+" "+valueStyle.Render(obs.Fields[k]))
	}
	return strings.Join(lines, "\n")
}

// summary describes the table's size and time span
func summary(tbl *models.Table, now time.Time) string {
	if tbl.Len() == 0 {
		return "0 rows"
	}
	first := tbl.Rows[0].Time
	last := tbl.Rows[tbl.Len()-1].Time
	return fmt.Sprintf("%s rows • %s to %s • last observation %s",
		humanize.Comma(int64(tbl.Len())),
		first.UTC().Format("2006-01-02"),
		last.UTC().Format("2006-01-02 15:04"),
		humanize.RelTime(last, now, "ago", "from now"))
}
