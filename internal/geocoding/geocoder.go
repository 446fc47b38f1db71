package geocoding

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/rs/zerolog/log"
)

var (
	zipcodeRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	coordRe   = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*[, ]\s*(-?\d+(?:\.\d+)?)\s*$`)
)

// Geocoder converts a search string to coordinates. Zipcodes and
// "City, ST" are answered from the local zipcodes table; anything else
// goes to Nominatim.
type Geocoder struct {
	dbPath       string
	nominatimURL string
	http         *resty.Client
	clock        clockwork.Clock

	mu       sync.Mutex
	lastCall time.Time
}

// Location represents a geocoded location
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Name      string  `json:"name"`
}

// Option configures a Geocoder
type Option func(*Geocoder)

// WithDBPath sets the database holding the zipcodes table
func WithDBPath(path string) Option {
	return func(g *Geocoder) { g.dbPath = path }
}

// WithNominatimURL overrides the Nominatim search endpoint
func WithNominatimURL(u string) Option {
	return func(g *Geocoder) { g.nominatimURL = u }
}

// WithClock sets the clock used for rate limiting
func WithClock(c clockwork.Clock) Option {
	return func(g *Geocoder) { g.clock = c }
}

// NewGeocoder creates a new geocoder
func NewGeocoder(opts ...Option) *Geocoder {
	g := &Geocoder{
		dbPath:       database.DBPath(),
		nominatimURL: nominatimURL,
		clock:        clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(g)
	}
	g.http = resty.New().
		SetTimeout(10*time.Second).
		SetHeader("User-Agent", userAgent)
	return g
}

// Geocode converts a query (zipcode, "lat, lon", city/state, place name)
// to coordinates
func (g *Geocoder) Geocode(ctx context.Context, query string) (*Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	if loc, ok := parseCoordinates(query); ok {
		return loc, nil
	}

	if isZipcode(query) {
		return lookupZipcode(g.dbPath, query[:5])
	}

	if city, state, ok := splitCityState(query); ok {
		loc, err := lookupCityState(g.dbPath, city, state)
		if err == nil {
			return loc, nil
		}
		log.Debug().Err(err).Str("query", query).Msg("city/state not in zipcode table, asking nominatim")
	}

	return g.nominatim(ctx, query)
}

// isZipcode checks if a string looks like a US zipcode
func isZipcode(s string) bool {
	return zipcodeRe.MatchString(s)
}

// parseCoordinates reads "42.35, -70.65"
func parseCoordinates(s string) (*Location, bool) {
	m := coordRe.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, false
	}
	return &Location{
		Latitude:  lat,
		Longitude: lon,
		Name:      fmt.Sprintf("%.4f, %.4f", lat, lon),
	}, true
}

// splitCityState reads "Chatham, MA"
func splitCityState(s string) (string, string, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return "", "", false
	}
	city := strings.TrimSpace(parts[0])
	state := strings.TrimSpace(parts[1])
	if city == "" || state == "" {
		return "", "", false
	}
	return city, state, true
}
