package artifact

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		source   DataSource
		basin    BasinID
		kind     Kind
		expected string
		err      error
	}{
		{
			name:     "boundary",
			source:   GagesII,
			basin:    "02300700",
			kind:     Boundary,
			expected: "gagesII/Geojsons/02300700.geojson",
		},
		{
			name:     "change image",
			source:   GagesII,
			basin:    "02300700",
			kind:     ChangeImage,
			expected: "gagesII/Plots/Tab_area_ID02300700_changes.png",
		},
		{
			name:     "change table",
			source:   CalibrationBasins,
			basin:    "11180500",
			kind:     ChangeTable,
			expected: "calibration_basins/CSVs/Tab_area_ID11180500_final.csv",
		},
		{
			name:     "timelapse",
			source:   CalibrationBasins,
			basin:    "11180500",
			kind:     Timelapse,
			expected: "calibration_basins/Timelapses/11180500.mp4",
		},
		{
			name:     "all boundary",
			source:   GagesII,
			basin:    All,
			kind:     Boundary,
			expected: "gagesII/Geojsons/All.geojson",
		},
		{
			name:     "empty id resolves the all boundary",
			source:   GagesII,
			basin:    "",
			kind:     Boundary,
			expected: "gagesII/Geojsons/All.geojson",
		},
		{
			name:   "empty id for table",
			source: GagesII,
			basin:  "",
			kind:   ChangeTable,
			err:    ErrInvalidBasinID,
		},
		{
			name:   "unknown source",
			source: DataSource(42),
			basin:  "02300700",
			kind:   Boundary,
			err:    ErrUnknownDataSource,
		},
		{
			name:   "unknown kind",
			source: GagesII,
			basin:  "02300700",
			kind:   Kind(99),
			err:    ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.source, tt.basin, tt.kind)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Resolve() error = %v, expected %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Resolve() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	first, err := Resolve(GagesII, "03049800", Timelapse)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := Resolve(GagesII, "03049800", Timelapse)
		if again != first {
			t.Fatalf("Resolve() = %q on call %d, expected %q", again, i, first)
		}
	}
}

func TestParseDataSource(t *testing.T) {
	for _, ds := range DataSources() {
		parsed, err := ParseDataSource(ds.String())
		if err != nil {
			t.Fatalf("ParseDataSource(%q) unexpected error: %v", ds.String(), err)
		}
		if parsed != ds {
			t.Errorf("ParseDataSource(%q) = %v, expected %v", ds.String(), parsed, ds)
		}
	}

	if _, err := ParseDataSource("gagesll"); !errors.Is(err, ErrUnknownDataSource) {
		t.Errorf("ParseDataSource(typo) error = %v, expected %v", err, ErrUnknownDataSource)
	}
}

func TestDataSourceText(t *testing.T) {
	var ds DataSource
	if err := ds.UnmarshalText([]byte("calibration_basins")); err != nil {
		t.Fatalf("UnmarshalText() unexpected error: %v", err)
	}
	if ds != CalibrationBasins {
		t.Errorf("UnmarshalText() = %v, expected %v", ds, CalibrationBasins)
	}

	if _, err := DataSource(0).MarshalText(); !errors.Is(err, ErrUnknownDataSource) {
		t.Errorf("MarshalText(0) error = %v, expected %v", err, ErrUnknownDataSource)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name     string
		expected Kind
	}{
		{"boundary", Boundary},
		{"image", ChangeImage},
		{"TABLE", ChangeTable},
		{"timelapse", Timelapse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if err != nil {
				t.Fatalf("ParseKind(%q) unexpected error: %v", tt.name, err)
			}
			if got != tt.expected {
				t.Errorf("ParseKind(%q) = %v, expected %v", tt.name, got, tt.expected)
			}
		})
	}

	if _, err := ParseKind("video"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(video) error = %v, expected %v", err, ErrUnknownKind)
	}
}
