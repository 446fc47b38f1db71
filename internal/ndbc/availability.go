package ndbc

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Available resolves every file NDBC publishes for a dataset in the
// timeframe. With TimeframeAll the groups are concatenated real-time
// first, then current-year, then historical.
func (c *Client) Available(ctx context.Context, tf models.Timeframe, ds Dataset) ([]models.Availability, error) {
	var out []models.Availability
	for _, group := range tf.Groups() {
		var (
			avail []models.Availability
			err   error
		)
		switch group {
		case models.RealTime:
			avail, err = c.AvailableRealTime(ctx, ds)
		case models.CurrentYear:
			avail, err = c.AvailableCurrentYear(ctx, ds)
		case models.Historical:
			avail, err = c.AvailableHistorical(ctx, ds)
		default:
			return nil, errors.Errorf("unknown data group %q", group)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, avail...)
	}
	return out, nil
}

// AvailableRealTime lists the realtime2 files of a dataset
func (c *Client) AvailableRealTime(ctx context.Context, ds Dataset) ([]models.Availability, error) {
	if !ds.Supports(models.RealTime) {
		return nil, nil
	}

	entries, err := c.listing(ctx, c.RealTimeListingURL())
	if err != nil {
		return nil, errors.Wrap(err, "listing realtime2")
	}

	var out []models.Availability
	for _, e := range entries {
		info, err := ParseRealTimeFile(e.Name)
		if err != nil {
			log.Debug().Err(err).Msg("skipping realtime2 entry")
			continue
		}
		if info.Extension != ds.RealTimeExt {
			continue
		}
		out = append(out, models.Availability{
			StationID:    info.StationID,
			Dataset:      ds.Name,
			DataGroup:    models.RealTime,
			FileName:     e.Name,
			LastModified: e.LastModified,
			Size:         e.Size,
			Description:  e.Description,
			URL:          "realtime2/" + e.Name,
			TxtURL:       c.RealTimeURL(info.StationID, ds),
		})
	}
	return out, nil
}

// AvailableCurrentYear lists the monthly files of the current year. The
// months are fetched concurrently; months NDBC has not published yet 404
// and are treated as empty.
func (c *Client) AvailableCurrentYear(ctx context.Context, ds Dataset) ([]models.Availability, error) {
	if !ds.Supports(models.CurrentYear) {
		return nil, nil
	}

	year := c.clock.Now().Year()
	perMonth := make([][]models.Availability, 12)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for m := time.January; m <= time.December; m++ {
		month := m
		g.Go(func() error {
			entries, err := c.listing(gctx, c.CurrentYearListingURL(ds.ArchiveCode, month))
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "listing %s %s", ds.ArchiveCode, month)
			}
			perMonth[month-1] = c.currentYearEntries(ds, month, year, entries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.Availability
	for _, month := range perMonth {
		sort.SliceStable(month, func(i, j int) bool { return month[i].StationID < month[j].StationID })
		out = append(out, month...)
	}
	return out, nil
}

func (c *Client) currentYearEntries(ds Dataset, month time.Month, year int, entries []ListingEntry) []models.Availability {
	dir := currentYearDir(ds.ArchiveCode, month)

	var out []models.Availability
	for _, e := range entries {
		info, err := ParseCurrentYearFile(e.Name, year)
		if err != nil {
			log.Debug().Err(err).Str("dir", dir).Msg("skipping current year entry")
			continue
		}
		if info.Month != 0 && info.Month != int(month) {
			log.Warn().Str("file", e.Name).Str("dir", dir).Msg("month code does not match directory")
		}

		txtURL := c.baseURL + "/" + dir + e.Name
		if info.Compressed {
			txtURL = c.ViewTextFileURL(e.Name, dir)
		}
		out = append(out, models.Availability{
			StationID:    info.StationID,
			Dataset:      ds.Name,
			DataGroup:    models.CurrentYear,
			FileName:     e.Name,
			Year:         info.Year,
			Month:        int(month),
			LastModified: e.LastModified,
			Size:         e.Size,
			Description:  e.Description,
			URL:          strings.TrimPrefix(dir, "data/") + e.Name,
			TxtURL:       txtURL,
		})
	}
	return out
}

// AvailableHistorical lists the yearly archives of a dataset
func (c *Client) AvailableHistorical(ctx context.Context, ds Dataset) ([]models.Availability, error) {
	if !ds.Supports(models.Historical) {
		return nil, nil
	}

	entries, err := c.listing(ctx, c.HistoricalListingURL(ds.ArchiveCode))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "listing historical %s", ds.ArchiveCode)
	}

	dir := historicalDir(ds.ArchiveCode)
	var out []models.Availability
	for _, e := range entries {
		info, err := ParseHistoricalFile(e.Name)
		if err != nil {
			log.Debug().Err(err).Str("dir", dir).Msg("skipping historical entry")
			continue
		}
		out = append(out, models.Availability{
			StationID:    info.StationID,
			Dataset:      ds.Name,
			DataGroup:    models.Historical,
			FileName:     e.Name,
			Year:         info.Year,
			LastModified: e.LastModified,
			Size:         e.Size,
			Description:  e.Description,
			URL:          strings.TrimPrefix(dir, "data/") + e.Name,
			TxtURL:       c.ViewTextFileURL(e.Name, dir),
		})
	}
	return out, nil
}

// ForStation keeps the entries of one station
func ForStation(avail []models.Availability, stationID string) []models.Availability {
	stationID = strings.ToUpper(strings.TrimSpace(stationID))
	var out []models.Availability
	for _, a := range avail {
		if a.StationID == stationID {
			out = append(out, a)
		}
	}
	return out
}

// ForYears keeps real-time entries and archive entries from the given years.
// An empty years list keeps everything.
func ForYears(avail []models.Availability, years []int) []models.Availability {
	if len(years) == 0 {
		return avail
	}
	want := make(map[int]bool, len(years))
	for _, y := range years {
		want[y] = true
	}
	var out []models.Availability
	for _, a := range avail {
		if a.DataGroup == models.RealTime || want[a.Year] {
			out = append(out, a)
		}
	}
	return out
}

// FirstArchiveYear is the earliest year NDBC publishes archives for
const FirstArchiveYear = 1970

// ParseYears reads a year list such as "2019,2020" or "2015-2018". An
// empty string means every year. Years must fall between FirstArchiveYear
// and next year.
func ParseYears(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	last := time.Now().UTC().Year() + 1
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		from, to, isRange := strings.Cut(part, "-")
		if !isRange {
			to = from
		}
		a, err1 := strconv.Atoi(strings.TrimSpace(from))
		b, err2 := strconv.Atoi(strings.TrimSpace(to))
		if err1 != nil || err2 != nil || a > b {
			return nil, errors.Errorf("invalid year %q", part)
		}
		if a < FirstArchiveYear || b > last {
			return nil, errors.Errorf("year %q outside %d-%d", part, FirstArchiveYear, last)
		}
		for y := a; y <= b; y++ {
			seen[y] = true
		}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

// Years returns the distinct archive years, ascending
func Years(avail []models.Availability) []int {
	seen := make(map[int]bool)
	var years []int
	for _, a := range avail {
		if a.Year == 0 || seen[a.Year] {
			continue
		}
		seen[a.Year] = true
		years = append(years, a.Year)
	}
	sort.Ints(years)
	return years
}

// Stations returns the distinct station ids, ascending
func Stations(avail []models.Availability) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, a := range avail {
		if seen[a.StationID] {
			continue
		}
		seen[a.StationID] = true
		ids = append(ids, a.StationID)
	}
	sort.Strings(ids)
	return ids
}
