// Package api serves NDBC station data over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/ngmaloney/buoy-terminal/internal/cities"
	"github.com/ngmaloney/buoy-terminal/internal/export"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/ngmaloney/buoy-terminal/internal/stations"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultRadiusMiles = 100.0

// StationStore looks up station metadata
type StationStore interface {
	Nearby(lat, lon, radiusMiles float64) ([]models.Station, error)
	Get(id string) (*models.Station, error)
	All() ([]models.Station, error)
}

// Handler handles HTTP requests for station data.
type Handler struct {
	client   *ndbc.Client
	stations StationStore
	cities   ndbc.CityLocator
	clock    clockwork.Clock

	mu      sync.Mutex
	facades map[models.Timeframe]*ndbc.NDBC
}

// NewHandler creates a new HTTP handler. When store is nil station
// metadata is read from NDBC's station table on every request.
func NewHandler(client *ndbc.Client, store StationStore, cityIndex ndbc.CityLocator) *Handler {
	h := &Handler{
		client:  client,
		cities:  cityIndex,
		clock:   clockwork.NewRealClock(),
		facades: make(map[models.Timeframe]*ndbc.NDBC),
	}
	if store == nil {
		store = &liveStations{n: h.facade(models.TimeframeAll)}
	}
	h.stations = store
	return h
}

// facade returns the shared NDBC facade of a timeframe, so resolved
// availability is reused across requests
func (h *Handler) facade(tf models.Timeframe) *ndbc.NDBC {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.facades[tf]
	if !ok {
		n = ndbc.New(h.client, tf, h.cities)
		h.facades[tf] = n
	}
	return n
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   h.clock.Now().UTC().Format(time.RFC3339),
	})
}

// DatasetInfo describes a catalog entry
type DatasetInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ArchiveCode string             `json:"archive_code,omitempty"`
	RealTimeExt string             `json:"real_time_ext,omitempty"`
	Groups      []models.DataGroup `json:"data_groups"`
}

// GetDatasets handles GET /v1/datasets.
func (h *Handler) GetDatasets(c *gin.Context) {
	var out []DatasetInfo
	for _, ds := range ndbc.Datasets() {
		info := DatasetInfo{
			Name:        ds.Name,
			Description: ds.Description,
			ArchiveCode: ds.ArchiveCode,
			RealTimeExt: ds.RealTimeExt,
		}
		for _, g := range models.DataGroups {
			if ds.Supports(g) {
				info.Groups = append(info.Groups, g)
			}
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"datasets": out, "count": len(out)})
}

// GetStations handles GET /v1/stations. With lat and lon it returns the
// stations within radius miles, closest first.
func (h *Handler) GetStations(c *gin.Context) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		all, err := h.stations.All()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stations": all, "count": len(all)})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude %q", latStr)})
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude %q", lonStr)})
		return
	}
	radius := defaultRadiusMiles
	if r := c.Query("radius"); r != "" {
		radius, err = strconv.ParseFloat(r, 64)
		if err != nil || radius <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid radius %q", r)})
			return
		}
	}

	nearby, err := h.stations.Nearby(lat, lon, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stations": nearby, "count": len(nearby)})
}

// GetStation handles GET /v1/stations/:id.
func (h *Handler) GetStation(c *gin.Context) {
	s, err := h.stations.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GetAvailable handles GET /v1/stations/:id/available.
func (h *Handler) GetAvailable(c *gin.Context) {
	tf, ds, ok := timeframeAndDataset(c)
	if !ok {
		return
	}

	avail, err := h.facade(tf).AvailableData(c.Request.Context(), ds)
	if err != nil {
		respondError(c, err)
		return
	}
	files := ndbc.ForStation(avail, c.Param("id"))
	if files == nil {
		files = []models.Availability{}
	}
	c.JSON(http.StatusOK, gin.H{
		"station_id": strings.ToUpper(c.Param("id")),
		"dataset":    ds,
		"timeframe":  tf,
		"files":      files,
		"years":      ndbc.Years(files),
	})
}

// GetData handles GET /v1/stations/:id/data.
func (h *Handler) GetData(c *gin.Context) {
	tf, ds, ok := timeframeAndDataset(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := ndbc.DefaultStationOptions()
	if opts.RenameColumns, err = boolQuery(c, "rename", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if opts.DropDuplicates, err = boolQuery(c, "dedupe", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if opts.Years, err = ndbc.ParseYears(c.Query("years")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tail := 0
	if t := c.Query("tail"); t != "" {
		if tail, err = strconv.Atoi(t); err != nil || tail < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid tail %q", t)})
			return
		}
	}

	tbl, err := h.facade(tf).GetStation(c.Request.Context(), c.Param("id"), ds, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	if tail > 0 {
		tbl = tbl.Tail(tail)
	}

	c.Header("Content-Type", format.ContentType())
	if format != export.JSON {
		name := fmt.Sprintf("%s_%s.%s", strings.ToUpper(c.Param("id")), ds, format.Extension())
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, format, tbl); err != nil {
		log.Error().Err(err).Str("station", c.Param("id")).Msg("writing response")
	}
}

// GetLatest handles GET /v1/stations/:id/latest.
func (h *Handler) GetLatest(c *gin.Context) {
	obs, err := h.facade(models.TimeframeAll).Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obs)
}

func timeframeAndDataset(c *gin.Context) (models.Timeframe, string, bool) {
	tf, err := models.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	ds, err := ndbc.Lookup(c.DefaultQuery("dataset", "standard"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	return tf, ds.Name, true
}

func boolQuery(c *gin.Context, key string, def bool) (bool, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}

// respondError maps domain errors to status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ndbc.ErrUnknownDataset):
		status = http.StatusBadRequest
	case errors.Is(err, ndbc.ErrNoData), errors.Is(err, ndbc.ErrNotFound), errors.Is(err, stations.ErrStationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled):
		status = 499
	}
	if status == http.StatusBadGateway {
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("upstream error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// liveStations answers station queries from NDBC's station table
type liveStations struct {
	n *ndbc.NDBC
}

func (l *liveStations) All() ([]models.Station, error) {
	return l.n.Stations(context.Background(), "")
}

func (l *liveStations) Get(id string) (*models.Station, error) {
	found, err := l.n.Stations(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("buoy station %s: %w", id, stations.ErrStationNotFound)
	}
	return &found[0], nil
}

func (l *liveStations) Nearby(lat, lon, radiusMiles float64) ([]models.Station, error) {
	all, err := l.All()
	if err != nil {
		return nil, err
	}
	var nearby []models.Station
	for _, s := range all {
		if s.Latitude == 0 && s.Longitude == 0 {
			continue
		}
		s.Distance = cities.DistanceMiles(lat, lon, s.Latitude, s.Longitude)
		if s.Distance <= radiusMiles {
			nearby = append(nearby, s)
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].Distance < nearby[j].Distance })
	return nearby, nil
}
