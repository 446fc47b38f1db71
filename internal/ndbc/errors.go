package ndbc

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when NDBC answers 404
	ErrNotFound = errors.New("ndbc: not found")
	// ErrNoData is returned when a station has no files for a dataset
	ErrNoData = errors.New("ndbc: no data available")
	// ErrUnknownDataset is returned for names missing from the catalog
	ErrUnknownDataset = errors.New("ndbc: unknown dataset")
	// ErrUnrecognizedFile is returned for listing entries that do not follow a naming scheme
	ErrUnrecognizedFile = errors.New("ndbc: unrecognized file name")
)
