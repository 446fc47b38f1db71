package models

// Station is an NDBC platform from the station table
type Station struct {
	ID           string  `json:"station_id"`
	Owner        string  `json:"owner"`
	OwnerName    string  `json:"owner_name,omitempty"`
	OwnerCountry string  `json:"owner_country,omitempty"`
	Type         string  `json:"type"` // e.g. "Weather Buoy", "C-MAN Station"
	Hull         string  `json:"hull,omitempty"`
	Name         string  `json:"name"`
	Payload      string  `json:"payload,omitempty"`
	Location     string  `json:"location"` // raw, e.g. "30.000 N 90.000 W (30&#176;0'0" N 90&#176;0'0" W)"
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lon"`
	Timezone     string  `json:"timezone,omitempty"`
	Forecast     string  `json:"forecast,omitempty"`
	Note         string  `json:"note,omitempty"`
	ClosestCity  string  `json:"closest_city,omitempty"`
	ClosestState string  `json:"closest_state,omitempty"`
	Distance     float64 `json:"distance_miles,omitempty"` // set by nearby searches
}

// Owner is a row of the station owners table
type Owner struct {
	Code        string `json:"owner_code"`
	Name        string `json:"owner_name"`
	CountryCode string `json:"country_code"`
}

// City is a populated place used to describe where a station is
type City struct {
	Name       string  `json:"city"`
	State      string  `json:"state"`
	Country    string  `json:"country"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Population int64   `json:"population"`
}
