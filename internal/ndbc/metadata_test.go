package ndbc

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/ngmaloney/buoy-terminal/internal/models"
)

const stationTable = `# STATION_ID | OWNER | TTYPE | HULL | NAME | PAYLOAD | LOCATION | TIMEZONE | FORECAST | NOTE
#            |       |       |      |      |         |          |          |          |
0y2w3|CG|Fixed||Sturgeon Bay CG Station, WI||44.794 N 87.313 W (44&#176;47'39" N 87&#176;18'48" W)|C|LMZ543|
41013|N|Weather Buoy|3D|FRYING PAN SHOALS, NC|SCOOP|33.441 N 77.764 W (33&#176;26'28" N 77&#176;45'51" W)|E|AMZ250|
55012|AU|Tsunami Buoy|||DART II|15.670 S 158.567 E (15&#176;40'12" S 158&#176;34'1" E)|||
bad01|N|Weather Buoy||Nowhere||not a location|||
`

const stationOwners = `# OWNERCODE | OWNERNAME                        | COUNTRYCODE
#           |                                  |
AU |Australian Government|AU
CG |U.S. Coast Guard|US
N  |NDBC|US
`

type fixedCity struct{ city models.City }

func (f fixedCity) Nearest(lat, lon float64) (models.City, float64, bool) {
	return f.city, 1.5, true
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in       string
		lat, lon float64
		wantErr  bool
	}{
		{`30.000 N 90.000 W (30&#176;0'0" N 90&#176;0'0" W)`, 30, -90, false},
		{`15.670 S 158.567 E (15&#176;40'12" S 158&#176;34'1" E)`, -15.67, 158.567, false},
		{"44.794 N 87.313 W", 44.794, -87.313, false},
		{"not a location", 0, 0, true},
		{"44.794 X 87.313 W", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lat, lon, err := ParseLocation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLocation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if math.Abs(lat-tt.lat) > 1e-9 || math.Abs(lon-tt.lon) > 1e-9 {
				t.Errorf("ParseLocation() = %v, %v, want %v, %v", lat, lon, tt.lat, tt.lon)
			}
		})
	}
}

func TestParseStationTable(t *testing.T) {
	stations, err := ParseStationTable(strings.NewReader(stationTable))
	if err != nil {
		t.Fatalf("ParseStationTable() error = %v", err)
	}
	if len(stations) != 4 {
		t.Fatalf("len(stations) = %d, want 4", len(stations))
	}

	s := stations[0]
	if s.ID != "0Y2W3" || s.Owner != "CG" || s.Type != "Fixed" || s.Forecast != "LMZ543" {
		t.Errorf("stations[0] = %+v", s)
	}
	if s.Latitude != 44.794 || s.Longitude != -87.313 {
		t.Errorf("stations[0] coords = %v, %v", s.Latitude, s.Longitude)
	}
	if stations[1].Payload != "SCOOP" || stations[1].Hull != "3D" {
		t.Errorf("stations[1] = %+v", stations[1])
	}
	if stations[3].Latitude != 0 || stations[3].Longitude != 0 {
		t.Error("unparseable location should leave zero coordinates")
	}
}

func TestParseOwnersAndJoin(t *testing.T) {
	stations, _ := ParseStationTable(strings.NewReader(stationTable))
	owners, err := ParseOwners(strings.NewReader(stationOwners))
	if err != nil {
		t.Fatalf("ParseOwners() error = %v", err)
	}
	if len(owners) != 3 || owners[1].Code != "CG" || owners[1].Name != "U.S. Coast Guard" {
		t.Fatalf("owners = %+v", owners)
	}

	JoinOwners(stations, owners)
	if stations[0].OwnerName != "U.S. Coast Guard" || stations[0].OwnerCountry != "US" {
		t.Errorf("joined station = %+v", stations[0])
	}
	if stations[2].OwnerName != "Australian Government" {
		t.Errorf("joined station = %+v", stations[2])
	}
}

func TestClient_StationTable(t *testing.T) {
	srv := newFakeNDBC(t, map[string]string{
		"/data/stations/station_table.txt":  stationTable,
		"/data/stations/station_owners.txt": stationOwners,
	})
	c := newTestClient(t, srv)
	city := fixedCity{models.City{Name: "Wilmington", State: "North Carolina"}}

	stations, err := c.StationTable(context.Background(), city)
	if err != nil {
		t.Fatalf("StationTable() error = %v", err)
	}
	if stations[1].ClosestCity != "Wilmington" || stations[1].ClosestState != "North Carolina" {
		t.Errorf("closest city = %q, %q", stations[1].ClosestCity, stations[1].ClosestState)
	}
	if stations[3].ClosestCity != "" {
		t.Error("station without coordinates should not get a city")
	}

	n := New(c, models.TimeframeAll, nil)
	one, err := n.Stations(context.Background(), "41013")
	if err != nil || len(one) != 1 || one[0].Name != "FRYING PAN SHOALS, NC" {
		t.Errorf("Stations(41013) = %+v, %v", one, err)
	}
}
