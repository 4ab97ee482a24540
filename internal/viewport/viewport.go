// Package viewport holds the map view state of a viewing session and the
// policy that moves it between the overview and a focused basin.
package viewport

import (
	"fmt"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/geometry"
)

// Mode is the state of the viewport state machine
type Mode int

const (
	Overview Mode = iota
	Focused
)

func (m Mode) String() string {
	if m == Focused {
		return "focused"
	}
	return "overview"
}

// MarshalText renders the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "overview":
		*m = Overview
	case "focused":
		*m = Focused
	default:
		return fmt.Errorf("unknown viewport mode %q", text)
	}
	return nil
}

// State is the map center and zoom. A State is always replaced as a whole.
type State struct {
	CenterLat float64             `json:"center_lat"`
	CenterLon float64             `json:"center_lon"`
	Zoom      int                 `json:"zoom"`
	Mode      Mode                `json:"mode"`
	Source    artifact.DataSource `json:"source,omitempty"`
	Focus     artifact.BasinID    `json:"focus,omitempty"`
}

// Settings are the fixed transforms. They are configuration, not derived.
type Settings struct {
	OverviewLat    float64
	OverviewLon    float64
	OverviewZoom   int
	FocusedZoom    int
	LatitudeOffset float64
}

// DefaultSettings returns the continental US overview and the basin focus transform
func DefaultSettings() Settings {
	return Settings{
		OverviewLat:    33,
		OverviewLon:    -96,
		OverviewZoom:   4,
		FocusedZoom:    11,
		LatitudeOffset: 0.15,
	}
}

// Override replaces the focus transform for one data source.
// Zero FocusedZoom and nil LatitudeOffset keep the default.
type Override struct {
	FocusedZoom    int
	LatitudeOffset *float64
}

// NewState returns the initial overview state for a session
func NewState(s Settings) State {
	return State{
		CenterLat: s.OverviewLat,
		CenterLon: s.OverviewLon,
		Zoom:      s.OverviewZoom,
		Mode:      Overview,
	}
}

// Locator finds the point to focus on for a basin
type Locator interface {
	LoadBoundary(source artifact.DataSource, basin artifact.BasinID) (*geometry.Boundary, error)
	Centroid(b *geometry.Boundary) (lat, lon float64, err error)
}

// Policy decides the viewport for a basin selection
type Policy struct {
	settings  Settings
	overrides map[artifact.DataSource]Override
	locator   Locator
}

// NewPolicy creates a transition policy
func NewPolicy(settings Settings, locator Locator) *Policy {
	return &Policy{
		settings:  settings,
		overrides: make(map[artifact.DataSource]Override),
		locator:   locator,
	}
}

// SetOverride installs a per-data-source focus transform
func (p *Policy) SetOverride(source artifact.DataSource, o Override) {
	p.overrides[source] = o
}

// SettingsFor returns the settings in effect for a data source
func (p *Policy) SettingsFor(source artifact.DataSource) Settings {
	s := p.settings
	if o, ok := p.overrides[source]; ok {
		if o.FocusedZoom != 0 {
			s.FocusedZoom = o.FocusedZoom
		}
		if o.LatitudeOffset != nil {
			s.LatitudeOffset = *o.LatitudeOffset
		}
	}
	return s
}

// Initial returns the state a new session starts in
func (p *Policy) Initial() State {
	return NewState(p.settings)
}

// Transition returns the state that follows selecting basin in source. It does
// not modify any existing state; on error the caller keeps its current state.
func (p *Policy) Transition(source artifact.DataSource, basin artifact.BasinID) (State, error) {
	if basin == "" {
		return State{}, fmt.Errorf("%w: empty selection", artifact.ErrInvalidBasinID)
	}
	if basin.IsAll() {
		return NewState(p.settings), nil
	}

	b, err := p.locator.LoadBoundary(source, basin)
	if err != nil {
		return State{}, err
	}

	lat, lon, err := p.locator.Centroid(b)
	if err != nil {
		return State{}, fmt.Errorf("unable to focus on basin %s: %w", basin, err)
	}

	s := p.SettingsFor(source)
	return State{
		CenterLat: lat - s.LatitudeOffset,
		CenterLon: lon,
		Zoom:      s.FocusedZoom,
		Mode:      Focused,
		Source:    source,
		Focus:     basin,
	}, nil
}
