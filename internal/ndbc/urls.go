package ndbc

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the NDBC web root
const DefaultBaseURL = "https://www.ndbc.noaa.gov"

// RealTimeURL returns the realtime2 file for a station and dataset
func (c *Client) RealTimeURL(stationID string, ds Dataset) string {
	return fmt.Sprintf("%s/data/realtime2/%s.%s", c.baseURL, strings.ToUpper(stationID), ds.RealTimeExt)
}

// RealTimeListingURL returns the realtime2 directory index
func (c *Client) RealTimeListingURL() string {
	return c.baseURL + "/data/realtime2/"
}

// CurrentYearListingURL returns the directory index for one month of the current year
func (c *Client) CurrentYearListingURL(code string, month time.Month) string {
	return fmt.Sprintf("%s/%s", c.baseURL, currentYearDir(code, month))
}

// HistoricalListingURL returns the directory index of yearly archives
func (c *Client) HistoricalListingURL(code string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, historicalDir(code))
}

// ViewTextFileURL returns the URL NDBC serves decompressed archives from
func (c *Client) ViewTextFileURL(fileName, dir string) string {
	// NDBC expects the dir verbatim, slashes included
	return fmt.Sprintf("%s/view_text_file.php?filename=%s&dir=%s", c.baseURL, url.QueryEscape(fileName), dir)
}

// StationTableURL returns the pipe separated station metadata table
func (c *Client) StationTableURL() string {
	return c.baseURL + "/data/stations/station_table.txt"
}

// StationOwnersURL returns the pipe separated station owners table
func (c *Client) StationOwnersURL() string {
	return c.baseURL + "/data/stations/station_owners.txt"
}

// LatestObsURL returns the RSS feed with a station's latest observation
func (c *Client) LatestObsURL(stationID string) string {
	return fmt.Sprintf("%s/data/latest_obs/%s.rss", c.baseURL, strings.ToLower(stationID))
}

func currentYearDir(code string, month time.Month) string {
	return fmt.Sprintf("data/%s/%s/", code, month.String()[:3])
}

func historicalDir(code string) string {
	return fmt.Sprintf("data/historical/%s/", code)
}
