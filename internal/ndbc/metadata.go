package ndbc

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CityLocator finds the populated place closest to a coordinate
type CityLocator interface {
	Nearest(lat, lon float64) (models.City, float64, bool)
}

// StationTable fetches station metadata joined with owner names. When
// cities is not nil every station gets its closest city.
func (c *Client) StationTable(ctx context.Context, cities CityLocator) ([]models.Station, error) {
	text, err := c.GetText(ctx, c.StationTableURL())
	if err != nil {
		return nil, errors.Wrap(err, "fetching station table")
	}
	stations, err := ParseStationTable(strings.NewReader(text))
	if err != nil {
		return nil, err
	}

	ownersText, err := c.GetText(ctx, c.StationOwnersURL())
	if err != nil {
		return nil, errors.Wrap(err, "fetching station owners")
	}
	owners, err := ParseOwners(strings.NewReader(ownersText))
	if err != nil {
		return nil, err
	}
	JoinOwners(stations, owners)

	if cities != nil {
		AddClosestCities(stations, cities)
	}
	return stations, nil
}

// ParseStationTable reads NDBC's pipe separated station_table.txt. The
// first commented line names the columns, the second is blank filler.
func ParseStationTable(r io.Reader) ([]models.Station, error) {
	rows, header, err := readPipeTable(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading station table")
	}

	col := func(row []string, name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	if _, ok := header["station_id"]; !ok {
		return nil, errors.New("station table has no STATION_ID column")
	}

	stations := make([]models.Station, 0, len(rows))
	for _, row := range rows {
		id := strings.ToUpper(col(row, "station_id"))
		if id == "" {
			continue
		}
		s := models.Station{
			ID:       id,
			Owner:    col(row, "owner"),
			Type:     col(row, "ttype"),
			Hull:     col(row, "hull"),
			Name:     col(row, "name"),
			Payload:  col(row, "payload"),
			Location: col(row, "location"),
			Timezone: col(row, "timezone"),
			Forecast: col(row, "forecast"),
			Note:     col(row, "note"),
		}
		lat, lon, err := ParseLocation(s.Location)
		if err != nil {
			log.Debug().Err(err).Str("station", id).Msg("station without coordinates")
		} else {
			s.Latitude, s.Longitude = lat, lon
		}
		stations = append(stations, s)
	}
	return stations, nil
}

// ParseOwners reads NDBC's station_owners.txt
func ParseOwners(r io.Reader) ([]models.Owner, error) {
	rows, header, err := readPipeTable(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading station owners")
	}

	code, ok := header["ownercode"]
	if !ok {
		return nil, errors.New("station owners has no OWNERCODE column")
	}
	name, hasName := header["ownername"]
	country, hasCountry := header["countrycode"]

	owners := make([]models.Owner, 0, len(rows))
	for _, row := range rows {
		if code >= len(row) || row[code] == "" {
			continue
		}
		o := models.Owner{Code: row[code]}
		if hasName && name < len(row) {
			o.Name = row[name]
		}
		if hasCountry && country < len(row) {
			o.CountryCode = row[country]
		}
		owners = append(owners, o)
	}
	return owners, nil
}

// JoinOwners fills owner names on stations whose owner code is known
func JoinOwners(stations []models.Station, owners []models.Owner) {
	byCode := make(map[string]models.Owner, len(owners))
	for _, o := range owners {
		byCode[o.Code] = o
	}
	for i := range stations {
		if o, ok := byCode[stations[i].Owner]; ok {
			stations[i].OwnerName = o.Name
			stations[i].OwnerCountry = o.CountryCode
		}
	}
}

// AddClosestCities sets the closest city of every station with coordinates
func AddClosestCities(stations []models.Station, cities CityLocator) {
	for i := range stations {
		s := &stations[i]
		if s.Latitude == 0 && s.Longitude == 0 {
			continue
		}
		if city, _, ok := cities.Nearest(s.Latitude, s.Longitude); ok {
			s.ClosestCity = city.Name
			s.ClosestState = city.State
		}
	}
}

// ParseLocation reads "30.000 N 90.000 W (30&#176;0'0" N 90&#176;0'0" W)".
// Southern latitudes and western longitudes are negative.
func ParseLocation(loc string) (float64, float64, error) {
	before, _, _ := strings.Cut(loc, "(")
	fields := strings.Fields(before)
	if len(fields) != 4 {
		return 0, 0, errors.Errorf("location %q: want 4 fields", loc)
	}

	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "location %q: latitude", loc)
	}
	lon, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "location %q: longitude", loc)
	}

	switch strings.ToUpper(fields[1]) {
	case "N":
	case "S":
		lat = -lat
	default:
		return 0, 0, errors.Errorf("location %q: hemisphere %q", loc, fields[1])
	}
	switch strings.ToUpper(fields[3]) {
	case "E":
	case "W":
		lon = -lon
	default:
		return 0, 0, errors.Errorf("location %q: hemisphere %q", loc, fields[3])
	}
	return lat, lon, nil
}

// readPipeTable splits a "|" separated file. The first commented line is
// the header; later commented lines are skipped.
func readPipeTable(r io.Reader) ([][]string, map[string]int, error) {
	var (
		header map[string]int
		rows   [][]string
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if header == nil {
				header = make(map[string]int)
				for i, h := range splitPipes(strings.TrimLeft(line, "#")) {
					header[strings.ToLower(h)] = i
				}
			}
			continue
		}
		rows = append(rows, splitPipes(line))
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if header == nil {
		return nil, nil, errors.New("missing header line")
	}
	return rows, header, nil
}

func splitPipes(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
