package geocoding

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	nominatimURL = "https://nominatim.openstreetmap.org/search"
	userAgent    = "BuoyTerminal/1.0" // Required by Nominatim ToS
)

// nominatimResponse represents the Nominatim API response
type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) nominatim(ctx context.Context, query string) (*Location, error) {
	g.throttle()

	var results []nominatimResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "json",
			"limit":  "1",
			"q":      query,
		}).
		SetResult(&results).
		Get(g.nominatimURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("nominatim API returned status %d", resp.StatusCode())
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results found for '%s'", query)
	}

	result := results[0]
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude: %w", err)
	}

	return &Location{
		Latitude:  lat,
		Longitude: lon,
		Name:      result.DisplayName,
	}, nil
}

// throttle keeps to Nominatim's 1 request per second
func (g *Geocoder) throttle() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.lastCall.IsZero() {
		if elapsed := g.clock.Since(g.lastCall); elapsed < time.Second {
			g.clock.Sleep(time.Second - elapsed)
		}
	}
	g.lastCall = g.clock.Now()
}
