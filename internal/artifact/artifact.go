// Package artifact maps a data source, basin and artifact kind to the storage
// path of a pre-generated basin artifact.
package artifact

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// All is the sentinel basin that selects every basin's boundary at once.
// It never has image, table or timelapse artifacts.
const All BasinID = "All"

var (
	// ErrArtifactNotFound is returned when a required artifact is missing from storage
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArtifactUnavailable marks an optional artifact that is missing from storage
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	// ErrInvalidBasinID is returned for a malformed basin id
	ErrInvalidBasinID = errors.New("invalid basin id")

	ErrUnknownDataSource = errors.New("unknown data source")
	ErrUnknownKind       = errors.New("unknown artifact kind")
)

// BasinID identifies a basin within a data source
type BasinID string

// IsAll reports whether the id is the All sentinel
func (b BasinID) IsAll() bool {
	return b == All
}

// DataSource is the namespace under which a basin's artifacts live
type DataSource int

const (
	GagesII DataSource = iota + 1
	CalibrationBasins
)

// sourcePrefixes is the single mapping from data source to its storage prefix and name
var sourcePrefixes = map[DataSource]string{
	GagesII:           "gagesII",
	CalibrationBasins: "calibration_basins",
}

// DataSources returns every known data source in declaration order
func DataSources() []DataSource {
	return []DataSource{GagesII, CalibrationBasins}
}

// ParseDataSource converts a data source name into a DataSource
func ParseDataSource(name string) (DataSource, error) {
	for ds, prefix := range sourcePrefixes {
		if prefix == name {
			return ds, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDataSource, name)
}

// String returns the data source name, which doubles as its storage prefix
func (d DataSource) String() string {
	if prefix, ok := sourcePrefixes[d]; ok {
		return prefix
	}
	return fmt.Sprintf("DataSource(%d)", int(d))
}

// Valid reports whether d is one of the known data sources
func (d DataSource) Valid() bool {
	_, ok := sourcePrefixes[d]
	return ok
}

// MarshalText lets a DataSource appear by name in JSON and YAML
func (d DataSource) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDataSource, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText parses a data source name
func (d *DataSource) UnmarshalText(text []byte) error {
	ds, err := ParseDataSource(string(text))
	if err != nil {
		return err
	}
	*d = ds
	return nil
}

// Kind is the type of a per-basin artifact
type Kind int

const (
	Boundary Kind = iota + 1
	ChangeImage
	ChangeTable
	Timelapse
)

var kindNames = map[Kind]string{
	Boundary:    "boundary",
	ChangeImage: "image",
	ChangeTable: "table",
	Timelapse:   "timelapse",
}

// ParseKind converts an artifact kind name ("boundary", "image", "table", "timelapse")
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == strings.ToLower(name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ContentType returns the MIME type the artifact is served with
func (k Kind) ContentType() string {
	switch k {
	case Boundary:
		return "application/geo+json"
	case ChangeImage:
		return "image/png"
	case ChangeTable:
		return "text/csv"
	case Timelapse:
		return "video/mp4"
	}
	return "application/octet-stream"
}

// Resolve returns the storage path of an artifact. It performs no I/O.
// An empty basin id is only accepted for the boundary kind, where it
// resolves to the All boundary.
func Resolve(source DataSource, basin BasinID, kind Kind) (string, error) {
	prefix, ok := sourcePrefixes[source]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownDataSource, int(source))
	}

	if basin == "" {
		if kind != Boundary {
			return "", fmt.Errorf("%w: empty basin id for %s artifact", ErrInvalidBasinID, kind)
		}
		basin = All
	}

	id := string(basin)
	switch kind {
	case Boundary:
		return path.Join(prefix, "Geojsons", id+".geojson"), nil
	case ChangeImage:
		return path.Join(prefix, "Plots", "Tab_area_ID"+id+"_changes.png"), nil
	case ChangeTable:
		return path.Join(prefix, "CSVs", "Tab_area_ID"+id+"_final.csv"), nil
	case Timelapse:
		return path.Join(prefix, "Timelapses", id+".mp4"), nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
}
