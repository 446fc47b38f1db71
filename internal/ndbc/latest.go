package ndbc

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/pkg/errors"
)

// <strong>Wind Speed:</strong> 11.7 knots<br />
var latestField = regexp.MustCompile(`<strong>\s*([^<:]+?)\s*:\s*</strong>\s*([^<]*)`)

// Latest fetches the latest observation RSS feed of a station
func (c *Client) Latest(ctx context.Context, stationID string) (*models.LatestObservation, error) {
	text, err := c.GetText(ctx, c.LatestObsURL(stationID))
	if err != nil {
		return nil, err
	}
	obs, err := ParseLatest(text)
	if err != nil {
		return nil, err
	}
	obs.StationID = strings.ToUpper(stationID)
	return obs, nil
}

// ParseLatest reads the first item of an NDBC latest_obs feed
func ParseLatest(text string) (*models.LatestObservation, error) {
	feed, err := gofeed.NewParser().ParseString(text)
	if err != nil {
		return nil, errors.Wrap(err, "parsing latest observation feed")
	}
	if len(feed.Items) == 0 {
		return nil, errors.Wrap(ErrNoData, "latest observation feed has no items")
	}

	item := feed.Items[0]
	obs := &models.LatestObservation{
		Title:  strings.TrimSpace(item.Title),
		Link:   item.Link,
		Fields: make(map[string]string),
	}
	if item.PublishedParsed != nil {
		obs.Published = item.PublishedParsed.UTC()
	}

	for _, m := range latestField.FindAllStringSubmatch(item.Description, -1) {
		key := html.UnescapeString(strings.TrimSpace(m[1]))
		val := html.UnescapeString(strings.TrimSpace(m[2]))
		if key == "" || val == "" {
			continue
		}
		obs.Fields[key] = val
	}
	return obs, nil
}
