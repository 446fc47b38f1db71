// Package cities answers "which town is this buoy off of" from a
// populated places table.
package cities

import (
	"database/sql"
	"fmt"

	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/quadtree"
)

const metersPerMile = 1609.344

// candidates is how many planar neighbours are re-ranked by great-circle distance
const candidates = 8

// cityPoint places a city in the quadtree. lon may be shifted by 360
// degrees so cities across the antimeridian are planar neighbours.
type cityPoint struct {
	models.City
	lon float64
}

func (c cityPoint) Point() orb.Point {
	return orb.Point{c.lon, c.Latitude}
}

// Index is an in-memory quadtree of cities
type Index struct {
	qt *quadtree.Quadtree
	n  int
}

// NewIndex builds an index. Cities with out of range coordinates are skipped.
func NewIndex(cities []models.City) *Index {
	ix := &Index{
		qt: quadtree.New(orb.Bound{Min: orb.Point{-360, -90}, Max: orb.Point{360, 90}}),
	}
	for _, c := range cities {
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			continue
		}
		if err := ix.qt.Add(cityPoint{City: c, lon: c.Longitude}); err != nil {
			continue
		}
		switch {
		case c.Longitude > 90:
			ix.qt.Add(cityPoint{City: c, lon: c.Longitude - 360})
		case c.Longitude < -90:
			ix.qt.Add(cityPoint{City: c, lon: c.Longitude + 360})
		}
		ix.n++
	}
	return ix
}

// LoadIndex reads every row of the cities table into an index
func LoadIndex(db *sql.DB) (*Index, error) {
	rows, err := db.Query("SELECT name, state, country, latitude, longitude, population FROM cities")
	if err != nil {
		return nil, fmt.Errorf("querying cities: %w", err)
	}
	defer rows.Close()

	var all []models.City
	for rows.Next() {
		var (
			c            models.City
			state, cntry sql.NullString
			pop          sql.NullInt64
		)
		if err := rows.Scan(&c.Name, &state, &cntry, &c.Latitude, &c.Longitude, &pop); err != nil {
			return nil, fmt.Errorf("scanning city: %w", err)
		}
		c.State, c.Country, c.Population = state.String, cntry.String, pop.Int64
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewIndex(all), nil
}

// Len returns the number of indexed cities
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.n
}

// Nearest returns the closest city and its distance in miles
func (ix *Index) Nearest(lat, lon float64) (models.City, float64, bool) {
	if ix.Len() == 0 {
		return models.City{}, 0, false
	}

	p := orb.Point{lon, lat}
	var (
		best     models.City
		bestDist = -1.0
	)
	for _, ptr := range ix.qt.KNearest(nil, p, candidates) {
		c := ptr.(cityPoint)
		d := geo.DistanceHaversine(p, orb.Point{c.Longitude, c.Latitude})
		if bestDist < 0 || d < bestDist {
			best, bestDist = c.City, d
		}
	}
	if bestDist < 0 {
		return models.City{}, 0, false
	}
	return best, bestDist / metersPerMile, true
}

// DistanceMiles is the great-circle distance between two coordinates
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / metersPerMile
}
