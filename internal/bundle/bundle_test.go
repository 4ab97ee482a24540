package bundle

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/changetable"
	"github.com/chrissnell/basinview/internal/geometry"
	"github.com/chrissnell/basinview/internal/storage"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

const (
	boundary = `{"type": "Polygon", "coordinates": [[[-82, 27], [-81, 27], [-81, 28], [-82, 28], [-82, 27]]]}`
	table    = "Old_LU_bin,New_LU_bin,Cell_Count\nForest,Urban,50\nUrban,Urban,30\nForest,Forest,20\n"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		// complete basin
		"gagesII/Geojsons/02300700.geojson":             &fstest.MapFile{Data: []byte(boundary)},
		"gagesII/CSVs/Tab_area_ID02300700_final.csv":    &fstest.MapFile{Data: []byte(table)},
		"gagesII/Plots/Tab_area_ID02300700_changes.png": &fstest.MapFile{Data: []byte("png")},
		"gagesII/Timelapses/02300700.mp4":               &fstest.MapFile{Data: []byte("mp4")},

		// no image, no timelapse
		"gagesII/Geojsons/11180500.geojson":          &fstest.MapFile{Data: []byte(boundary)},
		"gagesII/CSVs/Tab_area_ID11180500_final.csv": &fstest.MapFile{Data: []byte(table)},

		// no table
		"gagesII/Geojsons/02310147.geojson":             &fstest.MapFile{Data: []byte(boundary)},
		"gagesII/Plots/Tab_area_ID02310147_changes.png": &fstest.MapFile{Data: []byte("png")},

		// no boundary
		"gagesII/CSVs/Tab_area_ID01208950_final.csv": &fstest.MapFile{Data: []byte(table)},

		// overview
		"gagesII/Geojsons/All.geojson": &fstest.MapFile{Data: []byte(boundary)},
	}
}

func testAggregator(store storage.Store) *Aggregator {
	return NewAggregator(store, geometry.NewService(store), zap.NewNop().Sugar())
}

// brokenStore fails every read of one path with a non-not-found error
type brokenStore struct {
	storage.Store
	path string
}

func (b brokenStore) ReadFile(path string) ([]byte, error) {
	if path == b.path {
		return nil, errors.New("input/output error")
	}
	return b.Store.ReadFile(path)
}

func TestAggregateComplete(t *testing.T) {
	a := testAggregator(storage.NewFSStore(testFS()))

	b, err := a.Aggregate(artifact.GagesII, "02300700")
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	if b.Boundary == nil || b.Boundary.BasinID != "02300700" {
		t.Errorf("Boundary = %+v, expected the boundary of 02300700", b.Boundary)
	}

	expectedRows := []changetable.Row{
		{OldClass: "Forest", NewClass: "Urban", CellCount: 50},
		{OldClass: "Urban", NewClass: "Urban", CellCount: 30},
		{OldClass: "Forest", NewClass: "Forest", CellCount: 20},
	}
	if diff := cmp.Diff(expectedRows, b.ChangeTable); diff != "" {
		t.Errorf("ChangeTable mismatch (-expected +got):\n%s", diff)
	}

	if !b.ChangeImage.Available() || string(b.ChangeImage.Data) != "png" {
		t.Errorf("ChangeImage = %+v, expected present png", b.ChangeImage)
	}
	if !b.Timelapse.Available() || string(b.Timelapse.Data) != "mp4" {
		t.Errorf("Timelapse = %+v, expected present mp4", b.Timelapse)
	}
}

func TestAggregateMissingOptionalArtifacts(t *testing.T) {
	a := testAggregator(storage.NewFSStore(testFS()))

	b, err := a.Aggregate(artifact.GagesII, "11180500")
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}

	for name, opt := range map[string]Optional{"ChangeImage": b.ChangeImage, "Timelapse": b.Timelapse} {
		if opt.Status != Unavailable {
			t.Errorf("%s status = %v, expected %v", name, opt.Status, Unavailable)
		}
		if opt.Data != nil {
			t.Errorf("%s data = %q, expected none", name, opt.Data)
		}
		if !IsUnavailable(opt.Err()) {
			t.Errorf("%s Err() = %v, expected %v", name, opt.Err(), artifact.ErrArtifactUnavailable)
		}
	}

	if b.Boundary == nil || len(b.ChangeTable) != 3 {
		t.Errorf("required fields missing: boundary = %v, %d table rows", b.Boundary != nil, len(b.ChangeTable))
	}
}

func TestAggregateMissingRequiredArtifacts(t *testing.T) {
	a := testAggregator(storage.NewFSStore(testFS()))

	tests := []struct {
		name  string
		basin artifact.BasinID
	}{
		{name: "no boundary", basin: "01208950"},
		{name: "no table", basin: "02310147"},
		{name: "unknown basin", basin: "06914990"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := a.Aggregate(artifact.GagesII, tt.basin)
			if !errors.Is(err, artifact.ErrArtifactNotFound) {
				t.Errorf("Aggregate() error = %v, expected %v", err, artifact.ErrArtifactNotFound)
			}
			if b != nil {
				t.Errorf("Aggregate() = %+v, expected no bundle", b)
			}
		})
	}
}

func TestAggregateOptionalReadFailurePropagates(t *testing.T) {
	store := brokenStore{
		Store: storage.NewFSStore(testFS()),
		path:  "gagesII/Timelapses/02300700.mp4",
	}
	a := testAggregator(store)

	_, err := a.Aggregate(artifact.GagesII, "02300700")
	if err == nil {
		t.Fatal("Aggregate() expected an error for an unreadable timelapse")
	}
	if errors.Is(err, artifact.ErrArtifactNotFound) || IsUnavailable(err) {
		t.Errorf("Aggregate() error = %v, expected a read failure", err)
	}
}

func TestAggregateAll(t *testing.T) {
	a := testAggregator(storage.NewFSStore(testFS()))

	b, err := a.Aggregate(artifact.GagesII, artifact.All)
	if err != nil {
		t.Fatalf("Aggregate(All) unexpected error: %v", err)
	}

	if b.Boundary == nil {
		t.Fatal("Aggregate(All) boundary is nil")
	}
	if b.ChangeTable != nil {
		t.Errorf("Aggregate(All) table = %v, expected none", b.ChangeTable)
	}
	if b.ChangeImage.Status != NotApplicable || b.Timelapse.Status != NotApplicable {
		t.Errorf("Aggregate(All) optional statuses = %v, %v, expected %v", b.ChangeImage.Status, b.Timelapse.Status, NotApplicable)
	}
}

func TestAggregateInvalidSelection(t *testing.T) {
	a := testAggregator(storage.NewFSStore(testFS()))

	if _, err := a.Aggregate(artifact.GagesII, ""); !errors.Is(err, artifact.ErrInvalidBasinID) {
		t.Errorf("Aggregate(\"\") error = %v, expected %v", err, artifact.ErrInvalidBasinID)
	}
}

func TestLoadArtifact(t *testing.T) {
	a := testAggregator(storage.NewFSStore(testFS()))

	data, err := a.LoadArtifact(artifact.GagesII, "02300700", artifact.ChangeImage)
	if err != nil {
		t.Fatalf("LoadArtifact() unexpected error: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("LoadArtifact() = %q, expected %q", data, "png")
	}

	if _, err := a.LoadArtifact(artifact.GagesII, "11180500", artifact.Timelapse); !errors.Is(err, artifact.ErrArtifactNotFound) {
		t.Errorf("LoadArtifact(missing) error = %v, expected %v", err, artifact.ErrArtifactNotFound)
	}
}
