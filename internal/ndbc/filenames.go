package ndbc

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FileInfo is what an NDBC file name says about its contents
type FileInfo struct {
	StationID  string
	Extension  string // realtime2 extension, e.g. "txt" or "data_spec"
	Year       int    // 0 when the name carries no year
	Month      int    // 0 when the name carries no month
	Compressed bool
}

// ParseRealTimeFile reads names such as "41013.txt" or "41013.data_spec"
func ParseRealTimeFile(name string) (FileInfo, error) {
	stem, ext, ok := strings.Cut(name, ".")
	if !ok || stem == "" || ext == "" {
		return FileInfo{}, errors.Wrap(ErrUnrecognizedFile, name)
	}
	return FileInfo{StationID: strings.ToUpper(stem), Extension: ext}, nil
}

// ParseHistoricalFile reads yearly archive names such as "42007h1989.txt.gz".
// The character before the year varies by dataset (h, c, o, w, d, ...).
func ParseHistoricalFile(name string) (FileInfo, error) {
	stem, compressed, err := archiveStem(name)
	if err != nil {
		return FileInfo{}, err
	}
	year, err := strconv.Atoi(stem[len(stem)-4:])
	if err != nil {
		return FileInfo{}, errors.Wrapf(ErrUnrecognizedFile, "%s: year", name)
	}
	return FileInfo{
		StationID:  strings.ToUpper(stem[:len(stem)-5]),
		Year:       year,
		Compressed: compressed,
	}, nil
}

// ParseCurrentYearFile reads names from a data/<code>/<Mon>/ listing.
// Completed months hold "<station><monthcode><YYYY>.txt.gz"; the running
// month holds "<station>.txt" whose year is currentYear.
func ParseCurrentYearFile(name string, currentYear int) (FileInfo, error) {
	if !strings.HasSuffix(name, ".gz") {
		stem, _, ok := strings.Cut(name, ".")
		if !ok || stem == "" {
			return FileInfo{}, errors.Wrap(ErrUnrecognizedFile, name)
		}
		return FileInfo{StationID: strings.ToUpper(stem), Year: currentYear}, nil
	}

	stem, _, err := archiveStem(name)
	if err != nil {
		return FileInfo{}, err
	}
	year, err := strconv.Atoi(stem[len(stem)-4:])
	if err != nil {
		return FileInfo{}, errors.Wrapf(ErrUnrecognizedFile, "%s: year", name)
	}
	month, ok := monthCode(stem[len(stem)-5])
	if !ok {
		return FileInfo{}, errors.Wrapf(ErrUnrecognizedFile, "%s: month code %q", name, stem[len(stem)-5])
	}
	return FileInfo{
		StationID:  strings.ToUpper(stem[:len(stem)-5]),
		Year:       year,
		Month:      month,
		Compressed: true,
	}, nil
}

func archiveStem(name string) (string, bool, error) {
	stem, rest, _ := strings.Cut(name, ".")
	// shortest valid stem is a one character station plus separator and year
	if len(stem) < 6 {
		return "", false, errors.Wrap(ErrUnrecognizedFile, name)
	}
	return stem, strings.HasSuffix(rest, "gz"), nil
}

// monthCode maps 1-9, a, b, c to January..December
func monthCode(c byte) (int, bool) {
	switch {
	case c >= '1' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'c':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'C':
		return int(c-'A') + 10, true
	}
	return 0, false
}
