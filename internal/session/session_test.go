package session

import (
	"errors"
	"math"
	"testing"
	"testing/fstest"
	"time"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/bundle"
	"github.com/chrissnell/basinview/internal/geometry"
	"github.com/chrissnell/basinview/internal/stats"
	"github.com/chrissnell/basinview/internal/storage"
	"github.com/chrissnell/basinview/internal/viewport"
	"go.uber.org/zap"
)

const (
	square = `{"type": "Polygon", "coordinates": [[[-82, 27], [-81, 27], [-81, 28], [-82, 28], [-82, 27]]]}`
	table  = "Old_LU_bin,New_LU_bin,Cell_Count\nForest,Urban,50\nUrban,Urban,30\nForest,Forest,20\n"
)

func testDeps() *Deps {
	fsys := fstest.MapFS{
		"gagesII/Geojsons/02300700.geojson":          &fstest.MapFile{Data: []byte(square)},
		"gagesII/CSVs/Tab_area_ID02300700_final.csv": &fstest.MapFile{Data: []byte(table)},

		// header-only table
		"gagesII/Geojsons/11180500.geojson":          &fstest.MapFile{Data: []byte(square)},
		"gagesII/CSVs/Tab_area_ID11180500_final.csv": &fstest.MapFile{Data: []byte("Old_LU_bin,New_LU_bin,Cell_Count\n")},

		// boundary file absent
		"gagesII/CSVs/Tab_area_ID01208950_final.csv": &fstest.MapFile{Data: []byte(table)},

		"gagesII/Geojsons/All.geojson": &fstest.MapFile{Data: []byte(square)},
	}

	store := storage.NewFSStore(fsys)
	geo := geometry.NewService(store)
	logger := zap.NewNop().Sugar()

	return &Deps{
		Policy:     viewport.NewPolicy(viewport.DefaultSettings(), geo),
		Aggregator: bundle.NewAggregator(store, geo, logger),
		Deriver:    stats.NewDeriver("Urban"),
	}
}

func TestSelectFocusesAndDerives(t *testing.T) {
	s := New("test", testDeps())

	view, err := s.Select(artifact.GagesII, "02300700")
	if err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}

	if view.Viewport.Mode != viewport.Focused || view.Viewport.Zoom != 11 {
		t.Errorf("Viewport = %+v, expected focused at zoom 11", view.Viewport)
	}
	if math.Abs(view.Viewport.CenterLat-27.35) > 1e-6 {
		t.Errorf("CenterLat = %v, expected 27.35", view.Viewport.CenterLat)
	}
	if s.Viewport() != view.Viewport {
		t.Errorf("session viewport = %+v, expected %+v", s.Viewport(), view.Viewport)
	}

	if view.Statistic == nil {
		t.Fatalf("Statistic is nil, error = %v", view.StatisticError)
	}
	if view.Statistic.Value != 50 {
		t.Errorf("Statistic = %v, expected 50.00", view.Statistic.Value)
	}
	if view.Bundle.ChangeImage.Status != bundle.Unavailable {
		t.Errorf("ChangeImage status = %v, expected %v", view.Bundle.ChangeImage.Status, bundle.Unavailable)
	}
	if len(view.Summary) != 2 {
		t.Errorf("Summary has %d classes, expected 2", len(view.Summary))
	}
}

func TestSelectTwiceIsIdempotent(t *testing.T) {
	s := New("test", testDeps())

	first, err := s.Select(artifact.GagesII, "02300700")
	if err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}
	second, err := s.Select(artifact.GagesII, "02300700")
	if err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}
	if first.Viewport != second.Viewport {
		t.Errorf("second Select() viewport = %+v, expected %+v", second.Viewport, first.Viewport)
	}
}

func TestSelectAllReturnsToOverview(t *testing.T) {
	s := New("test", testDeps())

	if _, err := s.Select(artifact.GagesII, "02300700"); err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}

	view, err := s.Select(artifact.GagesII, artifact.All)
	if err != nil {
		t.Fatalf("Select(All) unexpected error: %v", err)
	}

	expected := viewport.NewState(viewport.DefaultSettings())
	if view.Viewport != expected {
		t.Errorf("Select(All) viewport = %+v, expected %+v", view.Viewport, expected)
	}
	if view.Statistic != nil || view.StatisticError != nil {
		t.Errorf("Select(All) statistic = %v, %v, expected none", view.Statistic, view.StatisticError)
	}
}

func TestSelectMissingBoundaryKeepsViewport(t *testing.T) {
	s := New("test", testDeps())

	if _, err := s.Select(artifact.GagesII, "02300700"); err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}
	before := s.Viewport()

	_, err := s.Select(artifact.GagesII, "01208950")
	if !errors.Is(err, artifact.ErrArtifactNotFound) {
		t.Fatalf("Select(missing boundary) error = %v, expected %v", err, artifact.ErrArtifactNotFound)
	}

	if s.Viewport() != before {
		t.Errorf("viewport after failed Select() = %+v, expected %+v", s.Viewport(), before)
	}
}

func TestSelectDegenerateStatistic(t *testing.T) {
	s := New("test", testDeps())

	view, err := s.Select(artifact.GagesII, "11180500")
	if err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}
	if !errors.Is(view.StatisticError, stats.ErrDegenerateInput) {
		t.Errorf("StatisticError = %v, expected %v", view.StatisticError, stats.ErrDegenerateInput)
	}
	if view.Statistic != nil {
		t.Errorf("Statistic = %+v, expected nil", view.Statistic)
	}
	if view.Viewport.Focus != "11180500" {
		t.Errorf("Viewport focus = %q, expected 11180500", view.Viewport.Focus)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	deps := testDeps()
	a := New("a", deps)
	b := New("b", deps)

	if _, err := a.Select(artifact.GagesII, "02300700"); err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}

	if b.Viewport() != viewport.NewState(viewport.DefaultSettings()) {
		t.Errorf("untouched session viewport = %+v, expected the overview", b.Viewport())
	}
	if a.Viewport() == b.Viewport() {
		t.Error("sessions share a viewport")
	}
}

func TestManager(t *testing.T) {
	m := NewManager(testDeps(), zap.NewNop().Sugar())

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	idle := m.Create()
	active := m.Create()
	if idle.ID == active.ID {
		t.Fatalf("Create() returned duplicate id %s", idle.ID)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", m.Len())
	}

	clock = clock.Add(90 * time.Minute)
	if _, ok := m.Get(active.ID); !ok {
		t.Fatalf("Get(%s) found no session", active.ID)
	}

	clock = clock.Add(45 * time.Minute)
	if n := m.Sweep(time.Hour); n != 1 {
		t.Errorf("Sweep() ended %d sessions, expected 1", n)
	}
	if _, ok := m.Get(idle.ID); ok {
		t.Error("idle session survived Sweep()")
	}
	if _, ok := m.Get(active.ID); !ok {
		t.Error("active session was swept")
	}

	m.End(active.ID)
	if m.Len() != 0 {
		t.Errorf("Len() after End() = %d, expected 0", m.Len())
	}
}
