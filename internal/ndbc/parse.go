package ndbc

import (
	"strconv"
	"strings"
	"time"

	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/pkg/errors"
)

// ParseOptions controls column naming of parsed tables
type ParseOptions struct {
	RenameColumns bool
}

// Parse normalizes the text of one NDBC file into a table. The data group
// decides between the realtime2 layouts and the archive layout shared by
// current-year and historical files.
func Parse(ds Dataset, group models.DataGroup, text string, opts ParseOptions) (*models.Table, error) {
	if strings.TrimSpace(text) == "" {
		return models.NewTable(), nil
	}

	var (
		tbl *models.Table
		err error
	)
	switch {
	case group != models.RealTime:
		missing := archiveMissing
		if ds.DirectionalMissing {
			missing = directionalMissing
		}
		tbl, err = parseArchive(text, missing)
	case ds.RealTimeLayout == LayoutRawSpectral:
		tbl, err = parseSpectral(text, 1, ds.DirectionalMissing)
	case ds.RealTimeLayout == LayoutDirectional:
		tbl, err = parseSpectral(text, 0, ds.DirectionalMissing)
	case ds.RealTimeLayout == LayoutSpectralSummary, ds.RealTimeLayout == LayoutTabular:
		tbl, err = parseRealTime(text)
	default:
		err = errors.Errorf("unsupported layout %d", ds.RealTimeLayout)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s %s", group, ds.Name)
	}

	if opts.RenameColumns {
		renameColumns(tbl, ds.Renames)
	}
	return tbl, nil
}

type record struct {
	line   int
	fields []string
}

// parseRealTime handles realtime2 files with a "#YY MM DD hh mm" header.
// A second commented line holds units. MM marks missing values.
func parseRealTime(text string) (*models.Table, error) {
	var (
		header, units []string
		records       []record
	)
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			fields := strings.Fields(strings.TrimLeft(trimmed, "#"))
			if header == nil {
				header = fields
			} else if units == nil {
				units = fields
			}
			continue
		}
		fields := strings.Fields(trimmed)
		if header == nil && !isNumber(fields[0]) {
			header = fields
			continue
		}
		records = append(records, record{line: i + 1, fields: fields})
	}
	if header == nil {
		return nil, errors.New("missing header line")
	}
	return buildTable(header, units, records, minuteDate, realTimeMissing)
}

// parseArchive handles current-year and historical files. Header layouts
// changed over the years: two digit years before 1999, no minute column
// before 2005, a "#yr" units row from 2007. Drifting buoys report "hhmm"
// in one field and DART files add seconds.
func parseArchive(text string, missing func(col, tok string) bool) (*models.Table, error) {
	var (
		header, units []string
		records       []record
	)
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(strings.TrimLeft(trimmed, "#"))
		switch {
		case header == nil:
			header = fields
		case strings.HasPrefix(trimmed, "#") && units == nil && len(records) == 0:
			units = fields
		case strings.HasPrefix(trimmed, "#"):
			// stray comment
		default:
			records = append(records, record{line: i + 1, fields: fields})
		}
	}
	if len(header) < 4 {
		return nil, errors.New("missing header line")
	}

	return buildTable(header, units, records, archiveDate(header), missing)
}

// dateLayout describes the leading fields that form a row's timestamp
type dateLayout struct {
	cols    int  // YY MM DD hh [mm] [ss]
	hhmm    bool // hour and minute share the fourth field
	seconds bool
}

var (
	hourDate   = dateLayout{cols: 4}
	minuteDate = dateLayout{cols: 5}
)

func archiveDate(header []string) dateLayout {
	lower := func(i int) string {
		if i < len(header) {
			return strings.ToLower(header[i])
		}
		return ""
	}
	switch {
	case lower(3) == "hhmm":
		return dateLayout{cols: 4, hhmm: true}
	case lower(4) == "mm" && lower(5) == "ss":
		return dateLayout{cols: 6, seconds: true}
	case lower(4) == "mm":
		return minuteDate
	}
	return hourDate
}

// buildTable turns header-driven records into a table. The leading date
// fields of every record form the timestamp.
func buildTable(header, units []string, records []record, layout dateLayout, missing func(col, tok string) bool) (*models.Table, error) {
	dateCols := layout.cols
	if len(header) < dateCols {
		return nil, errors.Errorf("header has %d columns, need at least %d date columns", len(header), dateCols)
	}

	names := make([]string, len(header)-dateCols)
	for i, h := range header[dateCols:] {
		names[i] = strings.ToLower(h)
	}

	// tokens[r][c] is "" for missing cells
	times := make([]time.Time, len(records))
	tokens := make([][]string, len(records))
	text := make([]bool, len(names))
	for r, rec := range records {
		ts, err := parseDate(rec.fields, layout)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", rec.line)
		}
		times[r] = ts

		row := make([]string, len(names))
		for c, name := range names {
			i := dateCols + c
			if i >= len(rec.fields) || missing(name, rec.fields[i]) {
				continue
			}
			row[c] = rec.fields[i]
			if !isNumber(row[c]) {
				text[c] = true
			}
		}
		tokens[r] = row
	}

	tbl := models.NewTable()
	for c, name := range names {
		col := models.Column{Name: name, Kind: models.KindNumeric}
		if text[c] {
			col.Kind = models.KindText
		}
		if u := dateCols + c; u < len(units) {
			col.Unit = units[u]
		}
		tbl.Columns = append(tbl.Columns, col)
	}

	tbl.Rows = make([]models.Row, len(records))
	for r := range records {
		values := make([]models.Value, len(names))
		for c, tok := range tokens[r] {
			switch {
			case tok == "":
			case text[c]:
				values[c] = models.Str(tok)
			default:
				f, _ := strconv.ParseFloat(tok, 64)
				values[c] = models.Num(f)
			}
		}
		tbl.Rows[r] = models.Row{Time: times[r], Values: values}
	}
	return tbl, nil
}

// parseSpectral handles headerless realtime2 spectral files made of
// "value (freq)" pairs. skip drops leading values, such as the separation
// frequency of raw spectral files. Column names come from the first row.
func parseSpectral(text string, skip int, directional bool) (*models.Table, error) {
	var (
		freqs []string
		tbl   = models.NewTable()
	)
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		ts, err := parseDate(fields, minuteDate)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		if len(fields) < 5+skip {
			return nil, errors.Errorf("line %d: %d fields, want at least %d", i+1, len(fields), 5+skip)
		}
		pairs := fields[5+skip:]

		if freqs == nil {
			for p := 1; p < len(pairs); p += 2 {
				freq := strings.Trim(pairs[p], "()")
				freqs = append(freqs, freq)
				tbl.Columns = append(tbl.Columns, models.Column{Name: freq, Kind: models.KindNumeric})
			}
		}

		values := make([]models.Value, len(freqs))
		for p := 0; p/2 < len(freqs) && p < len(pairs); p += 2 {
			tok := pairs[p]
			if tok == "MM" {
				continue
			}
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, errors.Errorf("line %d: bad spectral value %q", i+1, tok)
			}
			if directional && f == 999 {
				continue
			}
			values[p/2] = models.Num(f)
		}
		tbl.Rows = append(tbl.Rows, models.Row{Time: ts, Values: values})
	}
	return tbl, nil
}

// parseDate reads YYYY|YY MM DD hh [mm] [ss] or YYYY MM DD hhmm from the
// leading fields
func parseDate(fields []string, layout dateLayout) (time.Time, error) {
	dateCols := layout.cols
	if len(fields) < dateCols {
		return time.Time{}, errors.Errorf("%d fields, want at least %d date fields", len(fields), dateCols)
	}
	parts := make([]int, 6)
	for i := 0; i < dateCols; i++ {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return time.Time{}, errors.Errorf("bad date field %q", fields[i])
		}
		parts[i] = n
	}
	if layout.hhmm {
		parts[3], parts[4] = parts[3]/100, parts[3]%100
	}

	year := parts[0]
	if len(fields[0]) <= 2 {
		year = expandYear(year)
	}
	month, day, hour, minute, second := parts[1], parts[2], parts[3], parts[4], parts[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 ||
		minute < 0 || minute > 59 || second < 0 || second > 59 {
		return time.Time{}, errors.Errorf("bad date %s", strings.Join(fields[:dateCols], " "))
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

// expandYear maps two digit years, used by NDBC until 1998
func expandYear(yy int) int {
	if yy >= 50 {
		return 1900 + yy
	}
	return 2000 + yy
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func renameColumns(tbl *models.Table, renames map[string]string) {
	if len(renames) == 0 {
		return
	}
	for i, c := range tbl.Columns {
		if to, ok := renames[c.Name]; ok {
			tbl.Columns[i].Name = to
		}
	}
}
