package ndbc

import (
	"sort"
	"strings"

	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/pkg/errors"
)

// Layout describes how a real-time file lays out its columns
type Layout int

const (
	// LayoutTabular files have a "#YY MM DD hh mm ..." header and a units row
	LayoutTabular Layout = iota
	// LayoutRawSpectral files have a separation frequency followed by value (freq) pairs
	LayoutRawSpectral
	// LayoutDirectional files hold value (freq) pairs right after the date
	LayoutDirectional
	// LayoutSpectralSummary files are tabular with text direction and
	// steepness columns, and an older header naming H0 and AVP
	LayoutSpectralSummary
)

// Dataset is one NDBC measurement category
type Dataset struct {
	Name        string
	Description string
	// ArchiveCode is the directory used under data/historical/ and data/<code>/<Mon>/
	ArchiveCode string
	// RealTimeExt is the file extension used under data/realtime2/
	RealTimeExt    string
	RealTimeLayout Layout
	Renames        map[string]string
	// DirectionalMissing makes 999 the only numeric missing code
	DirectionalMissing bool
}

// Supports reports whether NDBC publishes the dataset for the data group
func (d Dataset) Supports(group models.DataGroup) bool {
	switch group {
	case models.RealTime:
		return d.RealTimeExt != ""
	case models.CurrentYear, models.Historical:
		return d.ArchiveCode != ""
	}
	return false
}

// StandardColumns renames standard meteorological columns
var StandardColumns = map[string]string{
	"wd":   "wind_direction",
	"wdir": "wind_direction",
	"wspd": "wind_speed",
	"gst":  "wind_gust",
	"wvht": "wave_height",
	"dpd":  "dominant_period",
	"apd":  "average_period",
	"mwd":  "mean_wave_direction",
	"bar":  "pressure",
	"pres": "pressure",
	"atmp": "air_temp",
	"wtmp": "water_temp",
	"dewp": "dewpoint",
	"vis":  "visibility",
	"ptdy": "pressure_tendency",
	"tide": "tide",
}

// OceanographicColumns renames oceanographic columns
var OceanographicColumns = map[string]string{
	"depth": "depth",
	"otmp":  "ocean_temp",
	"cond":  "conductivity",
	"sal":   "salinity",
	"o2%":   "dissolved_o2_perc",
	"o2ppm": "dissolved_o2_ppm",
	"clcon": "cholorophyll",
	"turb":  "turbidity",
	"ph":    "ph",
	"eh":    "redox",
}

// SupplementalColumns renames supplemental measurement columns
var SupplementalColumns = map[string]string{
	"pres":  "pressure",
	"ptime": "pressure_time",
	"wspd":  "windspeed",
	"wdir":  "wind_direction",
	"wtime": "wind_time",
}

var catalog = map[string]Dataset{
	"adcp":             {Name: "adcp", Description: "Acoustic Doppler Current Profiler", ArchiveCode: "adcp"},
	"adcp2":            {Name: "adcp2", Description: "Acoustic Doppler Current Profiler (2)", ArchiveCode: "adcp2"},
	"continuous_wind":  {Name: "continuous_wind", Description: "Continuous Winds", ArchiveCode: "cwind"},
	"water_col_height": {Name: "water_col_height", Description: "Water Column Height (DART)", ArchiveCode: "dart"},
	"mmbcur":           {Name: "mmbcur", Description: "Marsh-McBirney Currents", ArchiveCode: "mmbcur"},
	"oceanographic": {
		Name: "oceanographic", Description: "Oceanographic",
		ArchiveCode: "ocean", RealTimeExt: "ocean", Renames: OceanographicColumns,
	},
	"rain_hourly":     {Name: "rain_hourly", Description: "Hourly Rain", ArchiveCode: "rain"},
	"rain_10_min":     {Name: "rain_10_min", Description: "10 Minute Rain", ArchiveCode: "rain10"},
	"rain_24_hr":      {Name: "rain_24_hr", Description: "24 Hour Rain", ArchiveCode: "rain24"},
	"solar_radiation": {Name: "solar_radiation", Description: "Solar Radiation", ArchiveCode: "srad"},
	"standard": {
		Name: "standard", Description: "Standard Meteorological",
		ArchiveCode: "stdmet", RealTimeExt: "txt", Renames: StandardColumns,
	},
	"supplemental": {
		Name: "supplemental", Description: "Supplemental Measurements",
		ArchiveCode: "supl", RealTimeExt: "supl", Renames: SupplementalColumns,
	},
	"raw_spectral": {
		Name: "raw_spectral", Description: "Raw Spectral Wave",
		ArchiveCode: "swden", RealTimeExt: "data_spec", RealTimeLayout: LayoutRawSpectral,
	},
	"spectral_summary": {
		Name: "spectral_summary", Description: "Spectral Wave Summary",
		RealTimeExt: "spec", RealTimeLayout: LayoutSpectralSummary,
	},
	"spectral_alpha1": {
		Name: "spectral_alpha1", Description: "Spectral Wave (alpha1)",
		ArchiveCode: "swdir", RealTimeExt: "swdir", RealTimeLayout: LayoutDirectional, DirectionalMissing: true,
	},
	"spectral_alpha2": {
		Name: "spectral_alpha2", Description: "Spectral Wave (alpha2)",
		ArchiveCode: "swdir2", RealTimeExt: "swdir2", RealTimeLayout: LayoutDirectional, DirectionalMissing: true,
	},
	"spectral_r1": {
		Name: "spectral_r1", Description: "Spectral Wave (r1)",
		ArchiveCode: "swr1", RealTimeExt: "swr1", RealTimeLayout: LayoutDirectional, DirectionalMissing: true,
	},
	"spectral_r2": {
		Name: "spectral_r2", Description: "Spectral Wave (r2)",
		ArchiveCode: "swr2", RealTimeExt: "swr2", RealTimeLayout: LayoutDirectional, DirectionalMissing: true,
	},
	"tide":           {Name: "tide", Description: "Tide", ArchiveCode: "wlevel"},
	"standard_drift": {Name: "standard_drift", Description: "Drifting Buoy Standard Meteorological", ArchiveCode: "drift", Renames: StandardColumns},
}

// Lookup returns the dataset registered under name
func Lookup(name string) (Dataset, error) {
	ds, ok := catalog[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Dataset{}, errors.Wrapf(ErrUnknownDataset, "%q, must be one of %s", name, strings.Join(DatasetNames(), ", "))
	}
	return ds, nil
}

// Datasets returns every dataset sorted by name
func Datasets() []Dataset {
	out := make([]Dataset, 0, len(catalog))
	for _, ds := range catalog {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DatasetNames returns the sorted dataset names
func DatasetNames() []string {
	var names []string
	for _, ds := range Datasets() {
		names = append(names, ds.Name)
	}
	return names
}

// RealTimeDatasets returns the datasets published under data/realtime2
func RealTimeDatasets() []Dataset {
	var out []Dataset
	for _, ds := range Datasets() {
		if ds.RealTimeExt != "" {
			out = append(out, ds)
		}
	}
	return out
}

// DatasetForExtension maps a real-time file extension to its dataset
func DatasetForExtension(ext string) (Dataset, bool) {
	for _, ds := range catalog {
		if ds.RealTimeExt != "" && ds.RealTimeExt == ext {
			return ds, true
		}
	}
	return Dataset{}, false
}
