package ndbc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// NDBC resolves and fetches station data for one timeframe. Availability
// is resolved once per dataset and reused by GetStation until the
// client's availability TTL passes.
type NDBC struct {
	client    *Client
	cities    CityLocator
	timeframe models.Timeframe

	mu    sync.Mutex
	avail map[string]resolved
}

type resolved struct {
	files []models.Availability
	at    time.Time
}

// StationOptions controls how GetStation assembles a table
type StationOptions struct {
	RenameColumns  bool
	DropDuplicates bool
	// Years limits archive files; real-time files are always included
	Years []int
}

// DefaultStationOptions renames columns and drops duplicate timestamps
func DefaultStationOptions() StationOptions {
	return StationOptions{RenameColumns: true, DropDuplicates: true}
}

// New creates an NDBC facade for a timeframe. cities may be nil.
func New(client *Client, timeframe models.Timeframe, cities CityLocator) *NDBC {
	if timeframe == "" {
		timeframe = models.TimeframeAll
	}
	return &NDBC{
		client:    client,
		cities:    cities,
		timeframe: timeframe,
		avail:     make(map[string]resolved),
	}
}

// Timeframe returns the facade's timeframe
func (n *NDBC) Timeframe() models.Timeframe {
	return n.timeframe
}

// Stations returns station metadata, all stations when stationID is empty
func (n *NDBC) Stations(ctx context.Context, stationID string) ([]models.Station, error) {
	stations, err := n.client.StationTable(ctx, n.cities)
	if err != nil {
		return nil, err
	}
	if stationID == "" {
		return stations, nil
	}

	stationID = strings.ToUpper(stationID)
	var out []models.Station
	for _, s := range stations {
		if s.ID == stationID {
			out = append(out, s)
		}
	}
	return out, nil
}

// AvailableData resolves the files of a dataset for the facade timeframe
func (n *NDBC) AvailableData(ctx context.Context, dataset string) ([]models.Availability, error) {
	ds, err := Lookup(dataset)
	if err != nil {
		return nil, err
	}

	clock := n.client.clock
	n.mu.Lock()
	cached, ok := n.avail[ds.Name]
	n.mu.Unlock()
	if ok && (n.client.availTTL <= 0 || clock.Since(cached.at) < n.client.availTTL) {
		return cached.files, nil
	}

	avail, err := n.client.Available(ctx, n.timeframe, ds)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.avail[ds.Name] = resolved{files: avail, at: clock.Now()}
	n.mu.Unlock()
	return avail, nil
}

// Refresh forgets resolved availability
func (n *NDBC) Refresh() {
	n.mu.Lock()
	n.avail = make(map[string]resolved)
	n.mu.Unlock()
}

// GetStation fetches and merges every available file of a station's
// dataset. Files are fetched concurrently and merged in availability
// order, so with DropDuplicates real-time rows win over archive rows.
func (n *NDBC) GetStation(ctx context.Context, stationID, dataset string, opts StationOptions) (*models.Table, error) {
	ds, err := Lookup(dataset)
	if err != nil {
		return nil, err
	}
	avail, err := n.AvailableData(ctx, ds.Name)
	if err != nil {
		return nil, err
	}

	files := ForYears(ForStation(avail, stationID), opts.Years)
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNoData, "station %s dataset %s (%s)", stationID, ds.Name, n.timeframe)
	}

	parts := make([]*models.Table, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.client.concurrency)
	for i, f := range files {
		g.Go(func() error {
			part, err := n.client.fetchFile(gctx, ds, f, opts)
			if errors.Is(err, ErrNotFound) {
				log.Info().Str("station", f.StationID).Str("url", f.TxtURL).Msg("no data at url")
				return nil
			}
			if err != nil {
				return err
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tbl := models.NewTable()
	for _, part := range parts {
		tbl.Append(part)
	}
	if opts.DropDuplicates {
		tbl.DropDuplicateTimes()
	}
	tbl.SortByTime()
	return tbl, nil
}

// GetRealTime fetches a station's realtime2 file without resolving the listing
func (c *Client) GetRealTime(ctx context.Context, stationID string, ds Dataset, opts StationOptions) (*models.Table, error) {
	if !ds.Supports(models.RealTime) {
		return nil, errors.Wrapf(ErrNoData, "dataset %s has no real-time files", ds.Name)
	}
	f := models.Availability{
		StationID: strings.ToUpper(stationID),
		Dataset:   ds.Name,
		DataGroup: models.RealTime,
		URL:       "realtime2/" + strings.ToUpper(stationID) + "." + ds.RealTimeExt,
		TxtURL:    c.RealTimeURL(stationID, ds),
	}
	tbl, err := c.fetchFile(ctx, ds, f, opts)
	if err != nil {
		return nil, err
	}
	if opts.DropDuplicates {
		tbl.DropDuplicateTimes()
	}
	tbl.SortByTime()
	return tbl, nil
}

func (c *Client) fetchFile(ctx context.Context, ds Dataset, f models.Availability, opts StationOptions) (*models.Table, error) {
	text, err := c.GetText(ctx, f.TxtURL)
	if err != nil {
		return nil, err
	}
	tbl, err := Parse(ds, f.DataGroup, text, ParseOptions{RenameColumns: opts.RenameColumns})
	if err != nil {
		return nil, errors.Wrap(err, f.TxtURL)
	}
	tbl.SetSource(f.URL, f.TxtURL)
	log.Debug().Str("url", f.TxtURL).Int("rows", tbl.Len()).Msg("parsed file")
	return tbl, nil
}

// Latest returns the station's most recent observation from its RSS feed
func (n *NDBC) Latest(ctx context.Context, stationID string) (*models.LatestObservation, error) {
	return n.client.Latest(ctx, stationID)
}
