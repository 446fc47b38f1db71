package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v16/arrow/ipc"
	"github.com/gin-gonic/gin"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/ngmaloney/buoy-terminal/internal/stations"
)

const realTimeFile = `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
2024 02 09 12 50 200  5.0  6.0   1.2     8   5.5 190 1015.2  10.1  12.3   8.0   MM -1.2    MM
2024 02 09 12 40 210  4.0  5.0    MM    MM    MM  MM 1015.3  10.0  12.3   7.9   MM   MM    MM
`

const latestFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>NDBC - Station 41013 Observations</title>
    <link>https://www.ndbc.noaa.gov/station_page.php?station=41013</link>
    <description>Recent marine weather conditions.</description>
    <item>
      <pubDate>Fri, 09 Feb 2024 12:50:00 +0000</pubDate>
      <title>Station 41013 - FRYING PAN SHOALS, NC</title>
      <description><![CDATA[
        <strong>Wind Speed:</strong> 9.7 knots<br />
      ]]></description>
      <link>https://www.ndbc.noaa.gov/station_page.php?station=41013</link>
    </item>
  </channel>
</rss>`

func listing(files ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><table>
<tr><th><img src="/icons/blank.gif" alt="[ICO]"></th><th><a href="?C=N;O=D">Name</a></th><th><a href="?C=M;O=A">Last modified</a></th><th><a href="?C=S;O=A">Size</a></th><th><a href="?C=D;O=A">Description</a></th></tr>
<tr><td><img src="/icons/back.gif" alt="[PARENTDIR]"></td><td><a href="/data/">Parent Directory</a></td><td>&nbsp;</td><td align="right">  - </td><td>&nbsp;</td></tr>
`)
	for _, f := range files {
		fmt.Fprintf(&sb, `<tr><td><img src="/icons/text.gif" alt="[TXT]"></td><td><a href="%s">%s</a></td><td align="right">2024-02-09 13:05  </td><td align="right"> 41K</td><td>&nbsp;</td></tr>
`, f, f)
	}
	sb.WriteString("</table></body></html>\n")
	return sb.String()
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"/data/realtime2/":                  listing("41013.txt", "41008.txt"),
		"/data/realtime2/41013.txt":         realTimeFile,
		"/data/latest_obs/41013.rss":        latestFeed,
		"/data/stations/station_table.txt":  "# STATION_ID | OWNER | TTYPE | HULL | NAME | PAYLOAD | LOCATION | TIMEZONE | FORECAST | NOTE\n",
		"/data/stations/station_owners.txt": "# OWNERCODE | OWNERNAME | COUNTRYCODE\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeStore struct {
	stations []models.Station
}

func (f *fakeStore) All() ([]models.Station, error) {
	return f.stations, nil
}

func (f *fakeStore) Get(id string) (*models.Station, error) {
	for i := range f.stations {
		if strings.EqualFold(f.stations[i].ID, id) {
			return &f.stations[i], nil
		}
	}
	return nil, fmt.Errorf("buoy station %s: %w", id, stations.ErrStationNotFound)
}

func (f *fakeStore) Nearby(lat, lon, radiusMiles float64) ([]models.Station, error) {
	var out []models.Station
	for _, s := range f.stations {
		if s.Latitude > lat-1 && s.Latitude < lat+1 {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no buoy stations within %.0f miles: %w", radiusMiles, stations.ErrStationNotFound)
	}
	return out, nil
}

func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	upstream := newUpstream(t)
	client := ndbc.NewClient(ndbc.WithBaseURL(upstream.URL), ndbc.WithRetries(0))
	store := &fakeStore{stations: []models.Station{
		{ID: "41013", Name: "FRYING PAN SHOALS, NC", Latitude: 33.441, Longitude: -77.764},
		{ID: "44013", Name: "BOSTON 16 NM East of Boston, MA", Latitude: 42.346, Longitude: -70.651},
	}}
	return SetupRouter(NewHandler(client, store, nil), nil)
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	router := setupTest(t)
	w := get(router, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestGetDatasets(t *testing.T) {
	router := setupTest(t)
	w := get(router, "/v1/datasets")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Datasets []DatasetInfo `json:"datasets"`
		Count    int           `json:"count"`
	}
	decode(t, w, &body)
	if body.Count != len(ndbc.Datasets()) || len(body.Datasets) != body.Count {
		t.Fatalf("count = %d, datasets = %d, want %d", body.Count, len(body.Datasets), len(ndbc.Datasets()))
	}
	for _, ds := range body.Datasets {
		if ds.Name == "standard" && len(ds.Groups) != 3 {
			t.Errorf("standard groups = %v, want all three", ds.Groups)
		}
	}
}

func TestGetStations(t *testing.T) {
	router := setupTest(t)

	tests := []struct {
		name   string
		path   string
		status int
		count  int
	}{
		{"all", "/v1/stations", http.StatusOK, 2},
		{"nearby", "/v1/stations?lat=42.3&lon=-70.9&radius=50", http.StatusOK, 1},
		{"none nearby", "/v1/stations?lat=0&lon=0", http.StatusNotFound, 0},
		{"bad latitude", "/v1/stations?lat=north&lon=-70.9", http.StatusBadRequest, 0},
		{"latitude out of range", "/v1/stations?lat=95&lon=-70.9", http.StatusBadRequest, 0},
		{"bad radius", "/v1/stations?lat=42.3&lon=-70.9&radius=-5", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.path)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var body struct {
				Count int `json:"count"`
			}
			decode(t, w, &body)
			if body.Count != tt.count {
				t.Errorf("count = %d, want %d", body.Count, tt.count)
			}
		})
	}
}

func TestGetStation(t *testing.T) {
	router := setupTest(t)

	w := get(router, "/v1/stations/41013")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var s models.Station
	decode(t, w, &s)
	if s.ID != "41013" || s.Name != "FRYING PAN SHOALS, NC" {
		t.Errorf("station = %+v", s)
	}

	if w := get(router, "/v1/stations/00000"); w.Code != http.StatusNotFound {
		t.Errorf("unknown station status = %d, want 404", w.Code)
	}
}

func TestGetAvailable(t *testing.T) {
	router := setupTest(t)

	w := get(router, "/v1/stations/41013/available?timeframe=real_time")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var body struct {
		StationID string                `json:"station_id"`
		Dataset   string                `json:"dataset"`
		Files     []models.Availability `json:"files"`
	}
	decode(t, w, &body)
	if body.StationID != "41013" || body.Dataset != "standard" {
		t.Errorf("body = %+v", body)
	}
	if len(body.Files) != 1 || body.Files[0].FileName != "41013.txt" {
		t.Errorf("files = %+v, want 41013.txt", body.Files)
	}

	if w := get(router, "/v1/stations/41013/available?timeframe=forever"); w.Code != http.StatusBadRequest {
		t.Errorf("bad timeframe status = %d, want 400", w.Code)
	}
}

func TestGetData(t *testing.T) {
	router := setupTest(t)

	t.Run("json", func(t *testing.T) {
		w := get(router, "/v1/stations/41013/data?timeframe=real_time")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		var body struct {
			Records []map[string]any `json:"records"`
		}
		decode(t, w, &body)
		if len(body.Records) != 2 {
			t.Fatalf("records = %d, want 2", len(body.Records))
		}
		if body.Records[0]["time"] != "2024-02-09T12:40:00Z" {
			t.Errorf("first time = %v, want rows sorted ascending", body.Records[0]["time"])
		}
		if body.Records[0]["wave_height"] != nil {
			t.Errorf("wave_height = %v, want null", body.Records[0]["wave_height"])
		}
		if body.Records[1]["wave_height"] != 1.2 {
			t.Errorf("wave_height = %v, want 1.2", body.Records[1]["wave_height"])
		}
	})

	t.Run("csv tail without rename", func(t *testing.T) {
		w := get(router, "/v1/stations/41013/data?timeframe=real_time&format=csv&rename=false&tail=1")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "41013_standard.csv") {
			t.Errorf("Content-Disposition = %q", cd)
		}
		records, err := csv.NewReader(w.Body).ReadAll()
		if err != nil {
			t.Fatalf("reading csv: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("csv lines = %d, want header + 1", len(records))
		}
		if records[0][0] != "time" || records[0][4] != "wvht" {
			t.Errorf("header = %v", records[0])
		}
		if records[1][0] != "2024-02-09T12:50:00Z" {
			t.Errorf("tail row time = %q", records[1][0])
		}
	})

	t.Run("arrow", func(t *testing.T) {
		w := get(router, "/v1/stations/41013/data?timeframe=real_time&format=arrow")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		rdr, err := ipc.NewReader(w.Body)
		if err != nil {
			t.Fatalf("ipc.NewReader() error = %v", err)
		}
		defer rdr.Release()
		rows := 0
		for rdr.Next() {
			rows += int(rdr.Record().NumRows())
		}
		if rows != 2 {
			t.Errorf("arrow rows = %d, want 2", rows)
		}
	})

	errs := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown dataset", "/v1/stations/41013/data?dataset=bogus", http.StatusBadRequest},
		{"unknown format", "/v1/stations/41013/data?format=xls", http.StatusBadRequest},
		{"bad years", "/v1/stations/41013/data?years=2020-2019", http.StatusBadRequest},
		{"unbounded years", "/v1/stations/41013/data?years=1-50000000", http.StatusBadRequest},
		{"bad tail", "/v1/stations/41013/data?tail=-1", http.StatusBadRequest},
		{"bad rename", "/v1/stations/41013/data?rename=maybe", http.StatusBadRequest},
		{"no files", "/v1/stations/99999/data?timeframe=real_time", http.StatusNotFound},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.path)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestGetLatest(t *testing.T) {
	router := setupTest(t)

	w := get(router, "/v1/stations/41013/latest")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var obs models.LatestObservation
	decode(t, w, &obs)
	if obs.StationID != "41013" || obs.Fields["Wind Speed"] != "9.7 knots" {
		t.Errorf("latest = %+v", obs)
	}

	if w := get(router, "/v1/stations/00000/latest"); w.Code != http.StatusNotFound {
		t.Errorf("missing feed status = %d, want 404", w.Code)
	}
}

func TestLiveStationsFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	upstream := newUpstream(t)
	client := ndbc.NewClient(ndbc.WithBaseURL(upstream.URL), ndbc.WithRetries(0))
	router := SetupRouter(NewHandler(client, nil, nil), []string{"http://localhost:3000"})

	if w := get(router, "/v1/stations/41013"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 from an empty station table", w.Code)
	}
}
