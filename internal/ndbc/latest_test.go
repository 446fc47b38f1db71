package ndbc

import (
	"context"
	"testing"
	"time"
)

const latestFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>NDBC - Station 41013 Observations</title>
    <link>https://www.ndbc.noaa.gov/station_page.php?station=41013</link>
    <description>This feed shows recent marine weather conditions.</description>
    <item>
      <pubDate>Fri, 09 Feb 2024 12:50:00 +0000</pubDate>
      <title>Station 41013 - FRYING PAN SHOALS, NC</title>
      <description><![CDATA[
        <strong>February 9, 2024 7:50 am EST</strong><br />
        <strong>Location:</strong> 33.441N 77.764W<br />
        <strong>Wind Direction:</strong> SW (220&#176;)<br />
        <strong>Wind Speed:</strong> 9.7 knots<br />
        <strong>Significant Wave Height:</strong> 3.9 ft<br />
      ]]></description>
      <link>https://www.ndbc.noaa.gov/station_page.php?station=41013</link>
    </item>
  </channel>
</rss>`

func TestParseLatest(t *testing.T) {
	obs, err := ParseLatest(latestFeed)
	if err != nil {
		t.Fatalf("ParseLatest() error = %v", err)
	}
	if obs.Title != "Station 41013 - FRYING PAN SHOALS, NC" {
		t.Errorf("Title = %q", obs.Title)
	}
	if !obs.Published.Equal(time.Date(2024, 2, 9, 12, 50, 0, 0, time.UTC)) {
		t.Errorf("Published = %v", obs.Published)
	}

	want := map[string]string{
		"Location":                "33.441N 77.764W",
		"Wind Direction":          "SW (220°)",
		"Wind Speed":              "9.7 knots",
		"Significant Wave Height": "3.9 ft",
	}
	for k, v := range want {
		if obs.Fields[k] != v {
			t.Errorf("Fields[%q] = %q, want %q", k, obs.Fields[k], v)
		}
	}
	if len(obs.Fields) != len(want) {
		t.Errorf("Fields = %v, want %d entries", obs.Fields, len(want))
	}
}

func TestClient_Latest(t *testing.T) {
	srv := newFakeNDBC(t, map[string]string{"/data/latest_obs/41013.rss": latestFeed})
	c := newTestClient(t, srv)

	obs, err := c.Latest(context.Background(), "41013")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if obs.StationID != "41013" || obs.Fields["Wind Speed"] != "9.7 knots" {
		t.Errorf("Latest() = %+v", obs)
	}

	if _, err := ParseLatest(`<rss version="2.0"><channel><title>x</title></channel></rss>`); err == nil {
		t.Error("ParseLatest() of an empty feed should fail")
	}
}
